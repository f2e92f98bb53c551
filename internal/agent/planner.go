package agent

import (
	"context"
	"strings"

	"github.com/nidhogg/aeon/internal/concept"
	"github.com/nidhogg/aeon/internal/memory"
	"go.uber.org/zap"
)

// Step is one planned unit of work. Intent is what the agent's context is
// set to while the step runs, which drives protocol selection.
type Step struct {
	Description string `json:"description"`
	Intent      string `json:"intent"`
}

// Planner breaks a goal into steps. A goal the knowledge graph has seen
// before reuses its recorded subgoals. Otherwise known goal shapes get a
// deterministic template, and everything else runs as a single pass with
// the goal itself as the intent. Semantic recall prepends related past
// concepts as extra steps, so the agent revisits what it already knows
// about the goal.
type Planner struct {
	memory   *memory.Memory // nil disables recall
	concepts Concepts       // nil disables graph reuse
	logger   *zap.Logger
}

// NewPlanner creates a planner. mem and concepts may be nil.
func NewPlanner(mem *memory.Memory, concepts Concepts, logger *zap.Logger) *Planner {
	return &Planner{memory: mem, concepts: concepts, logger: logger}
}

// recallThreshold filters weak semantic matches out of plans.
const recallThreshold = 0.3

// graphMatchThreshold filters weak keyword matches when searching the
// graph for a previously planned goal.
const graphMatchThreshold = 0.35

// maxGraphSteps caps how many linked subgoals a recalled plan reuses.
const maxGraphSteps = 5

// Plan produces the step list for a goal.
func (pl *Planner) Plan(ctx context.Context, goal string) []Step {
	if steps := pl.recallGraph(ctx, goal); len(steps) > 0 {
		return steps
	}

	steps := pl.recall(ctx, goal)

	lower := strings.ToLower(goal)
	switch {
	case containsAny(lower, "focus", "organize", "work"):
		steps = append(steps,
			Step{Description: "Reduce distractions", Intent: "organize"},
			Step{Description: "Create a task structure", Intent: "organize"},
			Step{Description: "Execute a focused work block", Intent: "work"},
		)
	case containsAny(lower, "feel better", "mood", "support"):
		steps = append(steps,
			Step{Description: "Acknowledge the emotion", Intent: "support"},
			Step{Description: "Provide emotional support", Intent: "support"},
			Step{Description: "Stabilize mood", Intent: "relax"},
		)
	default:
		steps = append(steps, Step{Description: goal, Intent: goal})
	}
	return steps
}

// recallGraph reuses the subgoals linked to a previously recorded goal.
// A goal the graph has no node for is fuzzy-matched against the strongest
// concepts before giving up. The matched goal's activation is boosted.
func (pl *Planner) recallGraph(ctx context.Context, goal string) []Step {
	if pl.concepts == nil {
		return nil
	}

	name := goal
	related, err := pl.concepts.Related(ctx, name, maxGraphSteps)
	if err != nil {
		pl.logger.Warn("concept recall failed", zap.Error(err))
		return nil
	}
	if len(related) == 0 {
		candidates, err := pl.concepts.Strongest(ctx, 10)
		if err != nil || len(candidates) == 0 {
			return nil
		}
		matches := concept.Rank(candidates, concept.Tokenize(goal), graphMatchThreshold)
		if len(matches) == 0 {
			return nil
		}
		name = matches[0].Concept.Name
		if related, err = pl.concepts.Related(ctx, name, maxGraphSteps); err != nil || len(related) == 0 {
			return nil
		}
	}

	if err := pl.concepts.BoostAccess(ctx, name, concept.DefaultDecayConfig()); err != nil {
		pl.logger.Warn("concept boost failed",
			zap.String("concept", name), zap.Error(err))
	}

	steps := make([]Step, 0, len(related))
	for _, c := range related {
		intent := c.Description
		if intent == "" {
			intent = c.Name
		}
		steps = append(steps, Step{Description: c.Name, Intent: intent})
	}
	return steps
}

// recall turns related stored concepts into leading steps.
func (pl *Planner) recall(ctx context.Context, goal string) []Step {
	if pl.memory == nil {
		return nil
	}
	results, err := pl.memory.Recall(ctx, goal, 3, recallThreshold)
	if err != nil {
		pl.logger.Warn("goal recall failed", zap.Error(err))
		return nil
	}
	var steps []Step
	for _, r := range results {
		if r.Entry.Concept == goal {
			continue
		}
		steps = append(steps, Step{Description: r.Entry.Concept, Intent: r.Entry.Concept})
	}
	return steps
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
