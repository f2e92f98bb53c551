package learning

import (
	"github.com/nidhogg/aeon/internal/protocol"
	"go.uber.org/zap"
)

// Reflection scoring: outcomes are mapped onto the reward scale and folded
// into the protocol's reward as an exponential moving average.
const (
	scoreSuccess = 5.0
	scoreFailure = 1.0
	reflectAlpha = 0.3
)

// Reflector folds observed outcomes back into protocol rewards.
type Reflector struct {
	manager *protocol.Manager
	logger  *zap.Logger
}

// NewReflector creates a reflector over the given protocol set.
func NewReflector(manager *protocol.Manager, logger *zap.Logger) *Reflector {
	return &Reflector{manager: manager, logger: logger}
}

// Reflect scores an outcome and blends it into the protocol's reward.
// Returns the updated reward.
func (r *Reflector) Reflect(name string, success bool) (float64, bool) {
	p, ok := r.manager.Get(name)
	if !ok {
		return 0, false
	}
	score := scoreFailure
	if success {
		score = scoreSuccess
	}
	after := p.Blend(score, reflectAlpha)
	r.logger.Debug("outcome reflected",
		zap.String("protocol", name),
		zap.Bool("success", success),
		zap.Float64("reward", after))
	return after, true
}
