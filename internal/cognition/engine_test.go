package cognition

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nidhogg/aeon/internal/agentctx"
	"github.com/nidhogg/aeon/internal/provider"
	"go.uber.org/zap"
)

func TestRuleTable(t *testing.T) {
	cases := []struct {
		emotion, intent string
		want            string
	}{
		{"sad", "none", "emotionally distressed"},
		{"angry", "work", "emotionally distressed"}, // distress checked before intent
		{"neutral", "work", "intends productivity"},
		{"happy", "none", "positive energy"},
		{"neutral", "none", "Neutral context"},
	}
	var r Rules
	for _, tc := range cases {
		got := r.Think(agentctx.Snapshot{Emotion: tc.emotion, Intent: tc.intent})
		if !strings.Contains(got, tc.want) {
			t.Errorf("Think(%s/%s) = %q, want substring %q", tc.emotion, tc.intent, got, tc.want)
		}
	}
}

func TestEngineModeWithoutProviders(t *testing.T) {
	e := NewEngine(provider.NewRouter(zap.NewNop()), zap.NewNop())
	if e.Mode() != ModeRules {
		t.Fatalf("got mode %s, want rules", e.Mode())
	}
	thought := e.Think(context.Background(), agentctx.Snapshot{Emotion: "happy"})
	if !strings.Contains(thought, "positive energy") {
		t.Errorf("unexpected thought: %q", thought)
	}
}

func TestEngineLLMPath(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "test",
			"model": "test-model",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "Interpretation: creative mood."}},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	router := provider.NewRouter(zap.NewNop())
	router.Register(provider.NewOpenAIProvider(provider.Config{
		ID: "test", Endpoint: srv.URL, Model: "test-model",
	}, zap.NewNop()))

	e := NewEngine(router, zap.NewNop())
	if e.Mode() != ModeLLM {
		t.Fatalf("got mode %s, want llm", e.Mode())
	}
	thought := e.Think(context.Background(), agentctx.Snapshot{Emotion: "happy", Intent: "create"})
	if thought != "Interpretation: creative mood." {
		t.Errorf("got %q", thought)
	}
}

func TestEngineFallsBackOnLLMError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	router := provider.NewRouter(zap.NewNop())
	router.Register(provider.NewOpenAIProvider(provider.Config{
		ID: "broken", Endpoint: srv.URL,
	}, zap.NewNop()))

	e := NewEngine(router, zap.NewNop())
	thought := e.Think(context.Background(), agentctx.Snapshot{Emotion: "sad"})
	if !strings.Contains(thought, "emotionally distressed") {
		t.Errorf("expected rule fallback, got %q", thought)
	}
}
