package learning

import (
	"context"
	"sync"
	"time"

	"github.com/nidhogg/aeon/internal/concept"
	"go.uber.org/zap"
)

// Publisher receives a notification after each learning cycle. The redis
// event bus implements this.
type Publisher interface {
	PublishCycle(ctx context.Context, cycle CycleResult)
}

// CycleResult summarizes one pass of the learning loop.
type CycleResult struct {
	Cycle           int          `json:"cycle"`
	Evaluations     []Evaluation `json:"evaluations"`
	Mutants         []string     `json:"mutants,omitempty"`
	ConceptsDecayed int          `json:"concepts_decayed"`
	At              time.Time    `json:"at"`
}

// MultiPublisher fans a cycle result out to several publishers.
func MultiPublisher(pubs ...Publisher) Publisher {
	return multiPublisher(pubs)
}

type multiPublisher []Publisher

func (m multiPublisher) PublishCycle(ctx context.Context, cycle CycleResult) {
	for _, p := range m {
		if p != nil {
			p.PublishCycle(ctx, cycle)
		}
	}
}

// Loop runs the periodic learning cycle: reward improvement, protocol
// evolution, and concept forgetting.
type Loop struct {
	improver  *Improver
	evolution *Evolution
	graph     *concept.Graph // nil when neo4j is not configured
	publisher Publisher      // nil when the event bus is not configured
	interval  time.Duration
	logger    *zap.Logger

	cycles int
	mu     sync.Mutex
}

// NewLoop wires up a learning loop. graph and publisher may be nil.
func NewLoop(improver *Improver, evolution *Evolution, graph *concept.Graph, publisher Publisher, interval time.Duration, logger *zap.Logger) *Loop {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Loop{
		improver:  improver,
		evolution: evolution,
		graph:     graph,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
}

// Cycles returns how many cycles have completed.
func (l *Loop) Cycles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cycles
}

// RunOnce executes a single learning cycle immediately.
func (l *Loop) RunOnce(ctx context.Context) CycleResult {
	result := CycleResult{
		Evaluations: l.improver.Improve(),
		Mutants:     l.evolution.Evolve(),
		At:          time.Now().UTC(),
	}

	if l.graph != nil {
		decayed, err := l.graph.DecaySweep(ctx, concept.DefaultDecayConfig())
		if err != nil {
			l.logger.Warn("concept decay failed", zap.Error(err))
		}
		result.ConceptsDecayed = decayed
	}

	l.mu.Lock()
	l.cycles++
	result.Cycle = l.cycles
	l.mu.Unlock()

	if l.publisher != nil {
		l.publisher.PublishCycle(ctx, result)
	}

	l.logger.Info("learning cycle complete",
		zap.Int("cycle", result.Cycle),
		zap.Int("evaluated", len(result.Evaluations)),
		zap.Int("mutants", len(result.Mutants)),
		zap.Int("concepts_decayed", result.ConceptsDecayed))
	return result
}

// Run ticks the learning cycle until the context is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("learning loop started", zap.Duration("interval", l.interval))
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("learning loop stopped")
			return
		case <-ticker.C:
			l.RunOnce(ctx)
		}
	}
}
