package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

const defaultHashDimension = 64

// HashProvider is a deterministic, dependency-free embedder: each token is
// hashed into a bucket and the resulting count vector is L2-normalized.
// Quality is far below a learned model, but nearby texts still share
// buckets, which is enough for the demo-scale semantic store and for
// tests. Swapping in an API provider is a config change.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates a hash embedder with the given dimension
// (default 64 when unset).
func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = defaultHashDimension
	}
	return &HashProvider{dimension: dimension}
}

// Embed hashes each text into a normalized bag-of-tokens vector.
func (p *HashProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = p.embedOne(text)
	}
	return embeddings, nil
}

// Dimension returns the configured vector dimension.
func (p *HashProvider) Dimension() int { return p.dimension }

func (p *HashProvider) embedOne(text string) []float32 {
	vec := make([]float32, p.dimension)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(p.dimension)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
