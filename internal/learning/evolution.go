package learning

import (
	"math/rand"

	"github.com/nidhogg/aeon/internal/protocol"
	"go.uber.org/zap"
)

// Evolution breeds variants of underperforming protocols. A variant keeps
// the parent's condition and action but starts from a jittered reward, so
// selection can rediscover a protocol the reward scaling has buried.
type Evolution struct {
	manager *protocol.Manager
	logger  *zap.Logger
	rng     *rand.Rand
}

// mutationThreshold marks a protocol as underperforming.
const mutationThreshold = 2.0

// NewEvolution creates an evolution pass over the given protocol set.
func NewEvolution(manager *protocol.Manager, seed int64, logger *zap.Logger) *Evolution {
	return &Evolution{
		manager: manager,
		logger:  logger,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Evolve clones every underperforming non-variant protocol into a
// "_mutant" variant with a reward jittered by up to ±0.5. Variants are
// never re-mutated. Returns the names of the new variants.
func (e *Evolution) Evolve() []string {
	var created []string
	for _, p := range e.manager.All() {
		if p.Mutant || p.Reward() >= mutationThreshold {
			continue
		}
		name := p.Name + "_mutant"
		if _, exists := e.manager.Get(name); exists {
			continue
		}
		jitter := (e.rng.Float64() - 0.5) // ±0.5
		mutant := protocol.New(name, p.Condition, p.Action, p.Reward()+jitter)
		mutant.Mutant = true
		e.manager.Register(mutant)
		created = append(created, name)
		e.logger.Info("protocol variant created",
			zap.String("parent", p.Name),
			zap.Float64("reward", mutant.Reward()))
	}
	return created
}
