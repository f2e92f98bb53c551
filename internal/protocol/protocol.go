package protocol

import (
	"fmt"
	"sync"

	"github.com/nidhogg/aeon/internal/agentctx"
)

// Condition decides whether a protocol applies to the given context.
type Condition func(agentctx.Snapshot) bool

// Action produces the protocol's response for the given context.
type Action func(agentctx.Snapshot) (string, error)

// Reward bounds. Rewards are clamped to this range on every update.
const (
	RewardMin = 0.0
	RewardMax = 5.0
)

// Protocol is one candidate behavior: a condition, an action, and a reward
// score adjusted over time by the learning subsystem. Identity is by name.
type Protocol struct {
	Name      string
	Condition Condition
	Action    Action
	Mutant    bool // true for evolution-spawned variants

	mu         sync.Mutex
	reward     float64
	executions int
}

// New creates a protocol with the given initial reward (clamped to [0,5]).
func New(name string, cond Condition, action Action, reward float64) *Protocol {
	return &Protocol{
		Name:      name,
		Condition: cond,
		Action:    action,
		reward:    clamp(reward),
	}
}

// Matches reports whether the protocol's condition holds. A nil condition
// never matches.
func (p *Protocol) Matches(snap agentctx.Snapshot) bool {
	if p.Condition == nil {
		return false
	}
	return p.Condition(snap)
}

// Execute runs the action and increments the execution counter.
func (p *Protocol) Execute(snap agentctx.Snapshot) (string, error) {
	p.mu.Lock()
	p.executions++
	p.mu.Unlock()

	if p.Action == nil {
		return "", fmt.Errorf("protocol %s: no action", p.Name)
	}
	result, err := p.Action(snap)
	if err != nil {
		return "", fmt.Errorf("protocol %s: %w", p.Name, err)
	}
	return result, nil
}

// Reward returns the current reward score.
func (p *Protocol) Reward() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reward
}

// SetReward replaces the reward, clamped to [0,5].
func (p *Protocol) SetReward(r float64) {
	p.mu.Lock()
	p.reward = clamp(r)
	p.mu.Unlock()
}

// Scale multiplies the reward by factor and returns the new value.
// Used by the improver: ×1.1 on success, ×0.8 on failure.
func (p *Protocol) Scale(factor float64) float64 {
	p.mu.Lock()
	p.reward = clamp(p.reward * factor)
	r := p.reward
	p.mu.Unlock()
	return r
}

// Blend applies an exponential moving average update with learning rate
// alpha: reward = alpha*score + (1-alpha)*reward. Used by the reflector.
func (p *Protocol) Blend(score, alpha float64) float64 {
	p.mu.Lock()
	p.reward = clamp(alpha*score + (1-alpha)*p.reward)
	r := p.reward
	p.mu.Unlock()
	return r
}

// Executions returns how many times the protocol has run.
func (p *Protocol) Executions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.executions
}

// Stats is the serializable view of a protocol.
type Stats struct {
	Name       string  `json:"name"`
	Reward     float64 `json:"reward"`
	Executions int     `json:"executions"`
	Mutant     bool    `json:"mutant,omitempty"`
}

// Stats returns the protocol's current stats.
func (p *Protocol) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Name:       p.Name,
		Reward:     p.reward,
		Executions: p.executions,
		Mutant:     p.Mutant,
	}
}

func clamp(r float64) float64 {
	if r < RewardMin {
		return RewardMin
	}
	if r > RewardMax {
		return RewardMax
	}
	return r
}
