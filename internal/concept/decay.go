package concept

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// DecayConfig controls forgetting behavior.
type DecayConfig struct {
	HalfLifeHours float64 // time for activation to halve (default 168 = 1 week)
	MinActivation float64 // floor value, never decay below this (default 0.05)
	UsageBoost    float64 // activation boost per recall (default 0.15)
}

// DefaultDecayConfig returns sensible defaults.
func DefaultDecayConfig() DecayConfig {
	return DecayConfig{
		HalfLifeHours: 168,
		MinActivation: 0.05,
		UsageBoost:    0.15,
	}
}

// DecaySweep applies time-based exponential decay to all concept activation
// levels. Called by the learning loop each cycle.
func (g *Graph) DecaySweep(ctx context.Context, cfg DecayConfig) (int, error) {
	if cfg.HalfLifeHours == 0 {
		cfg = DefaultDecayConfig()
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	// Exponential decay: activation * 2^(-hours_elapsed / half_life),
	// clamped to the MinActivation floor.
	result, err := session.Run(ctx,
		`MATCH (c:Concept)
		 WHERE c.activation > $minAct
		 WITH c,
		      duration.between(c.last_activated, datetime()).hours AS hours
		 WHERE hours > 0
		 SET c.activation = CASE
		   WHEN c.activation * (0.5 ^ (toFloat(hours) / $halfLife)) < $minAct
		   THEN $minAct
		   ELSE c.activation * (0.5 ^ (toFloat(hours) / $halfLife))
		 END
		 RETURN count(c) AS updated`,
		map[string]interface{}{
			"halfLife": cfg.HalfLifeHours,
			"minAct":   cfg.MinActivation,
		})
	if err != nil {
		return 0, err
	}

	var updated int
	if result.Next(ctx) {
		if v, ok := result.Record().Get("updated"); ok {
			updated = int(v.(int64))
		}
	}

	g.logger.Info("concept decay sweep complete", zap.Int("updated", updated))
	return updated, nil
}

// BoostAccess reinforces a concept's activation when it is recalled.
func (g *Graph) BoostAccess(ctx context.Context, name string, cfg DecayConfig) error {
	if cfg.UsageBoost == 0 {
		cfg = DefaultDecayConfig()
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MATCH (c:Concept {name: $name})
		 SET c.activation = CASE
		       WHEN c.activation + $boost > 1.0 THEN 1.0
		       ELSE c.activation + $boost
		     END,
		     c.access_count = c.access_count + 1,
		     c.last_activated = datetime()`,
		map[string]interface{}{"name": name, "boost": cfg.UsageBoost})
	return err
}
