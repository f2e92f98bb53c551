package agent

import (
	"context"
	"fmt"

	"github.com/nidhogg/aeon/internal/agentctx"
	"github.com/nidhogg/aeon/internal/cognition"
	"github.com/nidhogg/aeon/internal/events"
	"github.com/nidhogg/aeon/internal/learning"
	"github.com/nidhogg/aeon/internal/memory"
	"github.com/nidhogg/aeon/internal/protocol"
	"go.uber.org/zap"
)

// DefaultProtocol labels runs where no registered protocol matched.
const DefaultProtocol = "default"

// baselineAction is what the agent does when nothing matches.
const baselineAction = "No specific protocol matched. Maintaining baseline behavior."

// Agent holds one context, selects and executes protocols against it, and
// records every run in memory.
type Agent struct {
	Name string

	Context    *agentctx.Context
	manager    *protocol.Manager
	cognition  *cognition.Engine
	memory     *memory.Memory
	reflector  *learning.Reflector
	governance *Governance
	planner    *Planner
	concepts   Concepts    // nil disables the knowledge graph
	bus        *events.Bus // nil drops events
	counters   *Counters   // set by Engine.Register
	logger     *zap.Logger
}

// New creates an agent. concepts and bus may be nil.
func New(name string, manager *protocol.Manager, cog *cognition.Engine, mem *memory.Memory, reflector *learning.Reflector, concepts Concepts, bus *events.Bus, logger *zap.Logger) *Agent {
	return &Agent{
		Name:       name,
		Context:    agentctx.New(logger),
		manager:    manager,
		cognition:  cog,
		memory:     mem,
		reflector:  reflector,
		governance: NewGovernance(),
		planner:    NewPlanner(mem, concepts, logger),
		concepts:   concepts,
		bus:        bus,
		logger:     logger,
	}
}

// UpdateContext merges new context fields and returns the resulting
// snapshot.
func (a *Agent) UpdateContext(emotion, intent string, env map[string]string) agentctx.Snapshot {
	return a.Context.Update(emotion, intent, env)
}

// RunResult is the outcome of one perceive-select-act pass.
type RunResult struct {
	Thought  string   `json:"thought"`
	Protocol string   `json:"protocol"`
	Action   string   `json:"action"`
	Reward   *float64 `json:"reward,omitempty"`
}

// Run executes one pass: think about the context, pick the best matching
// protocol, execute it, and record the episode. With no match the agent
// falls back to the baseline behavior under the "default" label.
func (a *Agent) Run(ctx context.Context) (*RunResult, error) {
	snap := a.Context.Snapshot()
	result := &RunResult{
		Thought: a.cognition.Think(ctx, snap),
	}

	best := a.manager.Best(snap)
	if best == nil {
		result.Protocol = DefaultProtocol
		result.Action = baselineAction
	} else {
		action, err := best.Execute(snap)
		if err != nil {
			return nil, fmt.Errorf("run agent %s: %w", a.Name, err)
		}
		result.Protocol = best.Name
		result.Action = action
		reward := best.Reward()
		result.Reward = &reward
	}

	if !a.governance.Approve(result.Action) {
		a.logger.Warn("action vetoed",
			zap.String("agent", a.Name),
			zap.String("protocol", result.Protocol))
		result.Action = "Action blocked by governance policy."
		result.Reward = nil
	}

	a.memory.Episodic.Record(ctx, &memory.Episode{
		Context:  snap,
		Action:   result.Action,
		Protocol: result.Protocol,
		Reward:   result.Reward,
	})
	if err := a.bus.Publish(ctx, "agent.episode", result); err != nil {
		a.logger.Warn("episode event dropped", zap.Error(err))
	}
	return result, nil
}

// StepResult pairs a planned step with its run outcome.
type StepResult struct {
	Step   string     `json:"step"`
	Result *RunResult `json:"result"`
}

// GoalResult is the outcome of a full goal execution.
type GoalResult struct {
	Goal      string       `json:"goal"`
	Steps     []StepResult `json:"steps"`
	Completed bool         `json:"completed"`
}

// ExecuteGoal plans the goal into steps and runs each one, reflecting the
// outcome back into protocol rewards. The goal itself is remembered as a
// semantic concept for future planning.
func (a *Agent) ExecuteGoal(ctx context.Context, goal string) (*GoalResult, error) {
	if err := a.governance.Check(goal); err != nil {
		return nil, fmt.Errorf("goal %q: %w", goal, err)
	}

	steps := a.planner.Plan(ctx, goal)
	a.recordConcepts(ctx, goal, steps)
	result := &GoalResult{Goal: goal, Completed: true}

	for _, step := range steps {
		a.Context.SetIntent(step.Intent)
		run, err := a.Run(ctx)
		if err != nil {
			a.logger.Warn("goal step failed",
				zap.String("goal", goal),
				zap.String("step", step.Description),
				zap.Error(err))
			result.Completed = false
			result.Steps = append(result.Steps, StepResult{Step: step.Description})
			continue
		}
		if run.Protocol != DefaultProtocol {
			a.reflector.Reflect(run.Protocol, true)
		}
		result.Steps = append(result.Steps, StepResult{Step: step.Description, Result: run})
	}

	if _, err := a.memory.Remember(ctx, goal, map[string]string{"source": "goal"}); err != nil {
		a.logger.Warn("goal not remembered", zap.String("goal", goal), zap.Error(err))
	}
	if result.Completed {
		a.counters.RecordGoal()
	}
	if err := a.bus.Publish(ctx, "agent.goal", result); err != nil {
		a.logger.Warn("goal event dropped", zap.Error(err))
	}

	a.logger.Info("goal executed",
		zap.String("agent", a.Name),
		zap.String("goal", goal),
		zap.Int("steps", len(result.Steps)),
		zap.Bool("completed", result.Completed))
	return result, nil
}
