package learning

import (
	"github.com/nidhogg/aeon/internal/protocol"
	"go.uber.org/zap"
)

// Reward scaling applied by the self-improvement cycle.
const (
	rewardBoost   = 1.1
	rewardPenalty = 0.8
)

// Improver adjusts protocol rewards from their track record.
type Improver struct {
	manager *protocol.Manager
	logger  *zap.Logger
}

// NewImprover creates a self-improver over the given protocol set.
func NewImprover(manager *protocol.Manager, logger *zap.Logger) *Improver {
	return &Improver{manager: manager, logger: logger}
}

// Apply adjusts a single protocol's reward after an observed outcome.
// Success boosts the reward, failure dampens it.
func (im *Improver) Apply(name string, success bool) (float64, bool) {
	p, ok := im.manager.Get(name)
	if !ok {
		return 0, false
	}
	factor := rewardPenalty
	if success {
		factor = rewardBoost
	}
	before := p.Reward()
	after := p.Scale(factor)
	im.logger.Info("protocol reward adjusted",
		zap.String("protocol", name),
		zap.Bool("success", success),
		zap.Float64("before", before),
		zap.Float64("after", after))
	return after, true
}

// Improve runs one improvement cycle: every protocol with a verdict is
// boosted or dampened. Returns the evaluations that drove the changes.
func (im *Improver) Improve() []Evaluation {
	evals := EvaluateAll(im.manager)
	for _, ev := range evals {
		p, ok := im.manager.Get(ev.Protocol)
		if !ok {
			continue
		}
		switch ev.Verdict {
		case VerdictExcellent:
			p.Scale(rewardBoost)
		case VerdictPoor:
			p.Scale(rewardPenalty)
		}
	}
	im.logger.Info("improvement cycle complete", zap.Int("evaluated", len(evals)))
	return evals
}
