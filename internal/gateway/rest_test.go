package gateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nidhogg/aeon/internal/agent"
	"github.com/nidhogg/aeon/internal/cognition"
	"github.com/nidhogg/aeon/internal/embedding"
	"github.com/nidhogg/aeon/internal/learning"
	"github.com/nidhogg/aeon/internal/memory"
	"github.com/nidhogg/aeon/internal/protocol"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *agent.Engine {
	t.Helper()
	logger := zap.NewNop()
	m := protocol.NewManager(logger)
	protocol.RegisterBuiltins(m)

	mem := memory.New(
		memory.NewEpisodic(logger),
		memory.NewSemantic(embedding.NewHashProvider(64), nil, logger),
		logger)

	engine := agent.NewEngine(logger)
	engine.Register(agent.New("aeon", m,
		cognition.NewEngine(nil, logger),
		mem,
		learning.NewReflector(m, logger),
		nil, nil, logger))
	return engine
}

func TestRESTAdapterRoundTrip(t *testing.T) {
	logger := zap.NewNop()
	gw := New(logger)
	rest := NewRESTAdapter(logger)
	gw.Register(rest)
	NewDispatcher(gw, newTestEngine(t), logger)

	srv := httptest.NewServer(rest.Routes())
	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL+"/message", "application/json",
		strings.NewReader(`{"user_id":"u1","content":"organize my workspace"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out goalReply
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Goal == nil {
		t.Fatalf("reply carries no goal outcome: %+v", out)
	}
	if out.Goal.Goal != "organize my workspace" || !out.Goal.Completed {
		t.Errorf("goal outcome = %+v", out.Goal)
	}
	if len(out.Goal.Steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(out.Goal.Steps))
	}
	for _, step := range out.Goal.Steps {
		if step.Result == nil || step.Result.Action == "" {
			t.Errorf("step %q has no action", step.Step)
		}
	}
}

func TestOutboundTextRendersGoal(t *testing.T) {
	msg := &OutboundMessage{Goal: &agent.GoalResult{
		Goal: "tidy up",
		Steps: []agent.StepResult{
			{Step: "Reduce distractions", Result: &agent.RunResult{Action: "done"}},
			{Step: "broken step"},
		},
		Completed: false,
	}}
	text := msg.Text()
	for _, want := range []string{
		"Goal: tidy up",
		"1. Reduce distractions: done",
		"2. broken step: failed",
		"Finished with failures.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered text missing %q:\n%s", want, text)
		}
	}

	plain := &OutboundMessage{Content: "hello"}
	if plain.Text() != "hello" {
		t.Errorf("plain text = %q", plain.Text())
	}
}

func TestRESTAdapterRejectsEmptyContent(t *testing.T) {
	rest := NewRESTAdapter(zap.NewNop())
	srv := httptest.NewServer(rest.Routes())
	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL+"/message", "application/json",
		strings.NewReader(`{"user_id":"u1"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGatewaySendUnknownPlatform(t *testing.T) {
	gw := New(zap.NewNop())
	err := gw.Send(context.Background(), &OutboundMessage{Platform: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected error for unknown platform")
	}
}

func TestDispatcherRejectsForbiddenGoal(t *testing.T) {
	logger := zap.NewNop()
	gw := New(logger)
	rest := NewRESTAdapter(logger)
	gw.Register(rest)
	NewDispatcher(gw, newTestEngine(t), logger)

	srv := httptest.NewServer(rest.Routes())
	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL+"/message", "application/json",
		strings.NewReader(`{"content":"exploit the payment system"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	var out goalReply
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Goal != nil {
		t.Errorf("rejected goal must not carry an outcome: %+v", out.Goal)
	}
	if !strings.Contains(out.Content, "Could not execute goal") {
		t.Errorf("expected governance rejection, got %q", out.Content)
	}
}
