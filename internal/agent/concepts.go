package agent

import (
	"context"

	"github.com/nidhogg/aeon/internal/concept"
	"go.uber.org/zap"
)

// Concepts is the knowledge graph surface the agent uses for planning and
// goal recording. *concept.Graph satisfies it; nil disables the graph.
type Concepts interface {
	Upsert(ctx context.Context, c *concept.Concept) (string, error)
	Link(ctx context.Context, from, to string, weight float64) error
	Related(ctx context.Context, name string, limit int) ([]*concept.Concept, error)
	Strongest(ctx context.Context, limit int) ([]*concept.Concept, error)
	BoostAccess(ctx context.Context, name string, cfg concept.DecayConfig) error
}

// subgoalLinkWeight is the initial edge weight from a goal to its steps.
// Re-planning the same goal strengthens the edges.
const subgoalLinkWeight = 0.5

// recordConcepts mirrors a planned goal into the knowledge graph: one node
// for the goal, one per subgoal, linked goal -> subgoal. The step's intent
// rides along as the node description so recalled plans keep it. Graph
// failures are logged and skipped.
func (a *Agent) recordConcepts(ctx context.Context, goal string, steps []Step) {
	if a.concepts == nil {
		return
	}
	if _, err := a.concepts.Upsert(ctx, &concept.Concept{Name: goal}); err != nil {
		a.logger.Warn("goal concept not recorded",
			zap.String("goal", goal), zap.Error(err))
		return
	}
	for _, step := range steps {
		if step.Description == goal {
			continue
		}
		if _, err := a.concepts.Upsert(ctx, &concept.Concept{
			Name:        step.Description,
			Description: step.Intent,
		}); err != nil {
			a.logger.Warn("subgoal concept not recorded",
				zap.String("subgoal", step.Description), zap.Error(err))
			continue
		}
		if err := a.concepts.Link(ctx, goal, step.Description, subgoalLinkWeight); err != nil {
			a.logger.Warn("subgoal link failed",
				zap.String("subgoal", step.Description), zap.Error(err))
		}
	}
}
