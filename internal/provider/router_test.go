package provider

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubProvider struct {
	id   string
	resp *ChatResponse
	err  error
	hits int
}

func (s *stubProvider) ID() string   { return s.id }
func (s *stubProvider) Name() string { return s.id }
func (s *stubProvider) Chat(context.Context, *ChatRequest) (*ChatResponse, error) {
	s.hits++
	return s.resp, s.err
}
func (s *stubProvider) HealthCheck(context.Context) error { return s.err }

func TestRouteUsesDefault(t *testing.T) {
	r := NewRouter(zap.NewNop())
	a := &stubProvider{id: "a", resp: &ChatResponse{Content: "from-a"}}
	b := &stubProvider{id: "b", resp: &ChatResponse{Content: "from-b"}}
	r.Register(a)
	r.Register(b)

	resp, err := r.Route(context.Background(), &ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "from-a" {
		t.Errorf("got %q, want from-a", resp.Content)
	}
	if b.hits != 0 {
		t.Errorf("fallback provider called %d times, want 0", b.hits)
	}
}

func TestRouteFallsOver(t *testing.T) {
	r := NewRouter(zap.NewNop())
	r.Register(&stubProvider{id: "broken", err: errors.New("down")})
	r.Register(&stubProvider{id: "ok", resp: &ChatResponse{Content: "recovered"}})

	resp, err := r.Route(context.Background(), &ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("got %q, want recovered", resp.Content)
	}
}

func TestRouteAllFail(t *testing.T) {
	r := NewRouter(zap.NewNop())
	r.Register(&stubProvider{id: "a", err: errors.New("down")})

	if _, err := r.Route(context.Background(), &ChatRequest{}); err == nil {
		t.Fatal("expected error when all providers fail")
	}
}

func TestRouteEmpty(t *testing.T) {
	r := NewRouter(zap.NewNop())
	if _, err := r.Route(context.Background(), &ChatRequest{}); err == nil {
		t.Fatal("expected error with no providers")
	}
}

func TestSetDefaultReorders(t *testing.T) {
	r := NewRouter(zap.NewNop())
	a := &stubProvider{id: "a", resp: &ChatResponse{Content: "from-a"}}
	b := &stubProvider{id: "b", resp: &ChatResponse{Content: "from-b"}}
	r.Register(a)
	r.Register(b)
	r.SetDefault("b")

	resp, err := r.Route(context.Background(), &ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "from-b" {
		t.Errorf("got %q, want from-b", resp.Content)
	}
}
