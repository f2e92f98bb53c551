package agent

import (
	"context"
	"sync"

	"github.com/nidhogg/aeon/internal/learning"
	"go.uber.org/zap"
)

// Counters tracks system-wide activity metrics. All methods are nil-safe
// so unregistered agents can run without an engine.
type Counters struct {
	mu                sync.Mutex
	goalsCompleted    int
	learningCycles    int
	protocolMutations int
}

// RecordGoal increments the completed-goal count.
func (c *Counters) RecordGoal() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.goalsCompleted++
	c.mu.Unlock()
}

// PublishCycle implements learning.Publisher: each cycle bumps the cycle
// and mutation counters.
func (c *Counters) PublishCycle(_ context.Context, cycle learning.CycleResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.learningCycles++
	c.protocolMutations += len(cycle.Mutants)
	c.mu.Unlock()
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() map[string]int {
	if c == nil {
		return map[string]int{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]int{
		"goals_completed":    c.goalsCompleted,
		"learning_cycles":    c.learningCycles,
		"protocol_mutations": c.protocolMutations,
	}
}

// Engine is the agent registry: it tracks named agents and system-wide
// counters. The first registered agent is the default.
type Engine struct {
	agents   map[string]*Agent
	order    []string
	counters *Counters
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewEngine creates an empty agent registry.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		agents:   make(map[string]*Agent),
		counters: &Counters{},
		logger:   logger,
	}
}

// Register adds an agent and attaches the shared counters to it.
func (e *Engine) Register(a *Agent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.agents[a.Name]; !exists {
		e.order = append(e.order, a.Name)
	}
	e.agents[a.Name] = a
	a.counters = e.counters
	e.logger.Info("agent registered", zap.String("agent", a.Name))
}

// Get returns an agent by name.
func (e *Engine) Get(name string) (*Agent, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.agents[name]
	return a, ok
}

// Default returns the first registered agent, or nil when empty.
func (e *Engine) Default() *Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.order) == 0 {
		return nil
	}
	return e.agents[e.order[0]]
}

// List returns agent names in registration order.
func (e *Engine) List() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Counters returns the shared counter set.
func (e *Engine) Counters() *Counters {
	return e.counters
}
