package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/aeon/internal/embedding"
	"github.com/nidhogg/aeon/internal/vectorstore"
	"go.uber.org/zap"
)

// CollConcepts is the Qdrant collection backing semantic memory.
const CollConcepts = "concepts"

// Entry is one stored concept.
type Entry struct {
	ID        string            `json:"id"`
	Concept   string            `json:"concept"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// QueryResult is a concept hit with its similarity score.
type QueryResult struct {
	Entry Entry   `json:"entry"`
	Score float32 `json:"score"`
}

// Semantic stores concept vectors for similarity lookup. Vectors live in
// Qdrant when a client is configured; otherwise queries fall back to an
// in-process brute-force cosine scan. Either way a local entry log is kept
// so GET /memory can list stored concepts without a scroll API.
type Semantic struct {
	embedder embedding.Provider
	qdrant   *vectorstore.Client

	entries []Entry
	vectors [][]float32 // parallel to entries; used by the fallback scan
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewSemantic creates a semantic store. qdrant may be nil.
func NewSemantic(embedder embedding.Provider, qdrant *vectorstore.Client, logger *zap.Logger) *Semantic {
	return &Semantic{embedder: embedder, qdrant: qdrant, logger: logger}
}

// Init ensures the backing Qdrant collection exists. No-op without Qdrant.
func (s *Semantic) Init(ctx context.Context) error {
	if s.qdrant == nil {
		return nil
	}
	dim := uint64(s.embedder.Dimension())
	if dim == 0 {
		dim = 64
	}
	return s.qdrant.EnsureCollection(ctx, CollConcepts, dim)
}

// Store embeds and saves a concept.
func (s *Semantic) Store(ctx context.Context, concept string, metadata map[string]string) (*Entry, error) {
	vecs, err := s.embedder.Embed(ctx, []string{concept})
	if err != nil {
		return nil, err
	}

	entry := Entry{
		ID:        uuid.New().String(),
		Concept:   concept,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.vectors = append(s.vectors, vecs[0])
	s.mu.Unlock()

	if s.qdrant != nil {
		payload := map[string]string{
			"concept":    concept,
			"indexed_at": entry.Timestamp.Format(time.RFC3339),
		}
		for k, v := range metadata {
			payload[k] = v
		}
		err := s.qdrant.Upsert(ctx, CollConcepts, []vectorstore.Point{
			{ID: entry.ID, Vector: vecs[0], Payload: payload},
		})
		if err != nil {
			s.logger.Warn("qdrant upsert failed, concept kept in process",
				zap.String("concept", concept), zap.Error(err))
		}
	}
	return &entry, nil
}

// Query returns the topK concepts most similar to the query text, filtered
// by the minimum score threshold.
func (s *Semantic) Query(ctx context.Context, query string, topK int, threshold float32) ([]QueryResult, error) {
	if topK <= 0 {
		topK = 3
	}
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	qvec := vecs[0]

	if s.qdrant != nil {
		hits, err := s.qdrant.Search(ctx, CollConcepts, qvec, uint64(topK))
		if err == nil {
			return s.fromHits(hits, threshold), nil
		}
		s.logger.Warn("qdrant search failed, using local scan", zap.Error(err))
	}
	return s.scan(qvec, topK, threshold), nil
}

// All returns every stored entry in insertion order.
func (s *Semantic) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored concepts.
func (s *Semantic) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Semantic) fromHits(hits []vectorstore.Hit, threshold float32) []QueryResult {
	s.mu.RLock()
	byID := make(map[string]Entry, len(s.entries))
	for _, e := range s.entries {
		byID[e.ID] = e
	}
	s.mu.RUnlock()

	var results []QueryResult
	for _, h := range hits {
		if h.Score < threshold {
			continue
		}
		entry, ok := byID[h.ID]
		if !ok {
			// Hit from a previous process; rebuild the entry from payload.
			entry = Entry{ID: h.ID, Concept: h.Payload["concept"]}
		}
		results = append(results, QueryResult{Entry: entry, Score: h.Score})
	}
	return results
}

func (s *Semantic) scan(qvec []float32, topK int, threshold float32) []QueryResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]QueryResult, 0, len(s.entries))
	for i, e := range s.entries {
		score := cosine(qvec, s.vectors[i])
		if score < threshold {
			continue
		}
		results = append(results, QueryResult{Entry: e, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
