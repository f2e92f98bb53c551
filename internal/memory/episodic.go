package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/aeon/internal/agentctx"
	"go.uber.org/zap"
)

// Episode is one context→action→result record.
type Episode struct {
	ID        string            `json:"id"`
	Context   agentctx.Snapshot `json:"context"`
	Action    string            `json:"action"`
	Result    string            `json:"result,omitempty"`
	Protocol  string            `json:"protocol,omitempty"`
	Reward    *float64          `json:"reward,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// EpisodeSink receives episodes as they are recorded. The postgres store
// implements this; recording must not fail the agent loop, so sink errors
// are logged and dropped.
type EpisodeSink interface {
	InsertEpisode(ctx context.Context, ep *Episode) error
}

// Episodic is the append-only experience log. Entries are never pruned.
type Episodic struct {
	episodes []*Episode
	sink     EpisodeSink
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewEpisodic creates an empty episodic log.
func NewEpisodic(logger *zap.Logger) *Episodic {
	return &Episodic{logger: logger}
}

// SetSink attaches a persistence sink for recorded episodes.
func (e *Episodic) SetSink(sink EpisodeSink) {
	e.mu.Lock()
	e.sink = sink
	e.mu.Unlock()
}

// Record appends an episode, assigning ID and timestamp.
func (e *Episodic) Record(ctx context.Context, ep *Episode) *Episode {
	if ep.ID == "" {
		ep.ID = uuid.New().String()
	}
	if ep.Timestamp.IsZero() {
		ep.Timestamp = time.Now().UTC()
	}

	e.mu.Lock()
	e.episodes = append(e.episodes, ep)
	sink := e.sink
	e.mu.Unlock()

	if sink != nil {
		if err := sink.InsertEpisode(ctx, ep); err != nil {
			e.logger.Warn("episode persistence failed", zap.Error(err))
		}
	}
	return ep
}

// All returns every recorded episode in order.
func (e *Episodic) All() []*Episode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Episode, len(e.episodes))
	copy(out, e.episodes)
	return out
}

// Recent returns the n most recent episodes.
func (e *Episodic) Recent(n int) []*Episode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if n > len(e.episodes) {
		n = len(e.episodes)
	}
	out := make([]*Episode, n)
	copy(out, e.episodes[len(e.episodes)-n:])
	return out
}

// Len returns the number of recorded episodes.
func (e *Episodic) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.episodes)
}
