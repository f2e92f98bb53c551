package memory

import (
	"context"

	"go.uber.org/zap"
)

// Memory bundles the two recall systems: the episodic experience log and
// the semantic concept store.
type Memory struct {
	Episodic *Episodic
	Semantic *Semantic
}

// New wires up both memory systems.
func New(episodic *Episodic, semantic *Semantic, logger *zap.Logger) *Memory {
	if episodic == nil {
		episodic = NewEpisodic(logger)
	}
	return &Memory{Episodic: episodic, Semantic: semantic}
}

// Dump is the full-memory view served over the API. kind selects a subset:
// "episodic", "semantic", or "" for both.
type Dump struct {
	Episodic []*Episode `json:"episodic,omitempty"`
	Semantic []Entry    `json:"semantic,omitempty"`
}

// DumpAll snapshots memory contents for the given kind.
func (m *Memory) DumpAll(kind string) Dump {
	var d Dump
	if kind == "" || kind == "episodic" {
		d.Episodic = m.Episodic.All()
	}
	if (kind == "" || kind == "semantic") && m.Semantic != nil {
		d.Semantic = m.Semantic.All()
	}
	return d
}

// Remember stores a concept in semantic memory. No-op without a semantic
// store.
func (m *Memory) Remember(ctx context.Context, concept string, metadata map[string]string) (*Entry, error) {
	if m.Semantic == nil {
		return nil, nil
	}
	return m.Semantic.Store(ctx, concept, metadata)
}

// Recall queries semantic memory for concepts similar to the given text.
func (m *Memory) Recall(ctx context.Context, query string, topK int, threshold float32) ([]QueryResult, error) {
	if m.Semantic == nil {
		return nil, nil
	}
	return m.Semantic.Query(ctx, query, topK, threshold)
}
