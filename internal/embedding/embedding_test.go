package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIProviderEmbed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req apiRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]interface{}{
			"data": make([]map[string]interface{}, 0, len(req.Input)),
		}
		for range req.Input {
			resp["data"] = append(resp["data"].([]map[string]interface{}),
				map[string]interface{}{"embedding": []float32{0.1, 0.2, 0.3}})
		}
		json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewAPIProvider(Config{Endpoint: srv.URL, Model: "test-model"})
	vectors, err := p.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if p.Dimension() != 3 {
		t.Errorf("got dimension %d, want 3", p.Dimension())
	}
}

func TestAPIProviderEmpty(t *testing.T) {
	p := NewAPIProvider(Config{Endpoint: "http://unused", Dimension: 128})
	vectors, err := p.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vectors != nil {
		t.Errorf("expected nil for empty input, got %v", vectors)
	}
	if p.Dimension() != 128 {
		t.Errorf("got dimension %d, want configured default 128", p.Dimension())
	}
}

func TestHashProviderDeterministic(t *testing.T) {
	p := NewHashProvider(32)

	a, err := p.Embed(context.Background(), []string{"organize the workspace"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := p.Embed(context.Background(), []string{"organize the workspace"})

	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatal("hash embedding must be deterministic")
		}
	}
}

func TestHashProviderNormalized(t *testing.T) {
	p := NewHashProvider(0)
	if p.Dimension() != defaultHashDimension {
		t.Fatalf("got dimension %d, want default %d", p.Dimension(), defaultHashDimension)
	}

	vecs, _ := p.Embed(context.Background(), []string{"alpha beta gamma"})
	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("vector norm = %v, want 1.0", norm)
	}
}

func TestHashProviderSimilarTextsOverlap(t *testing.T) {
	p := NewHashProvider(64)
	vecs, _ := p.Embed(context.Background(), []string{
		"organize workspace files",
		"organize workspace notes",
		"bake sourdough bread",
	})

	if dot(vecs[0], vecs[1]) <= dot(vecs[0], vecs[2]) {
		t.Error("texts sharing tokens should score higher than unrelated texts")
	}
}

func TestNewFactoryDefaultsToHash(t *testing.T) {
	if _, ok := New(Config{}).(*HashProvider); !ok {
		t.Error("empty provider config should yield the hash embedder")
	}
	if _, ok := New(Config{Provider: "api"}).(*APIProvider); !ok {
		t.Error("api config should yield the API provider")
	}
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
