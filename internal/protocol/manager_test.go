package protocol

import (
	"errors"
	"math"
	"testing"

	"github.com/nidhogg/aeon/internal/agentctx"
	"go.uber.org/zap"
)

func always(agentctx.Snapshot) bool { return true }
func never(agentctx.Snapshot) bool  { return false }

func action(result string) Action {
	return func(agentctx.Snapshot) (string, error) { return result, nil }
}

func TestBestPicksHighestReward(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.Register(New("low", always, action("low"), 1.0))
	m.Register(New("high", always, action("high"), 4.0))
	m.Register(New("mid", always, action("mid"), 2.5))

	best := m.Best(agentctx.Snapshot{})
	if best == nil || best.Name != "high" {
		t.Fatalf("got %v, want high", best)
	}
}

func TestBestSkipsNonMatching(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.Register(New("hidden", never, action("x"), 5.0))
	m.Register(New("visible", always, action("y"), 1.0))

	best := m.Best(agentctx.Snapshot{})
	if best == nil || best.Name != "visible" {
		t.Fatalf("got %v, want visible", best)
	}
}

func TestBestNoMatchReturnsNil(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.Register(New("hidden", never, action("x"), 5.0))

	if best := m.Best(agentctx.Snapshot{}); best != nil {
		t.Fatalf("got %v, want nil", best)
	}
}

func TestBestTieBreakFirstRegistered(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.Register(New("first", always, action("a"), 3.0))
	m.Register(New("second", always, action("b"), 3.0))

	best := m.Best(agentctx.Snapshot{})
	if best == nil || best.Name != "first" {
		t.Fatalf("tie must go to first-registered, got %v", best)
	}
}

func TestRegisterReplacesByName(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.Register(New("p", always, action("old"), 1.0))
	m.Register(New("p", always, action("new"), 2.0))

	if m.Len() != 1 {
		t.Fatalf("got %d protocols, want 1", m.Len())
	}
	p, _ := m.Get("p")
	result, _ := p.Execute(agentctx.Snapshot{})
	if result != "new" {
		t.Errorf("got %q, want new", result)
	}
}

func TestRemoveReindexes(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.Register(New("a", always, action("a"), 1.0))
	m.Register(New("b", always, action("b"), 1.0))
	m.Register(New("c", always, action("c"), 1.0))

	m.Remove("b")
	if m.Len() != 2 {
		t.Fatalf("got %d protocols, want 2", m.Len())
	}
	if _, ok := m.Get("c"); !ok {
		t.Error("c should still be resolvable after removing b")
	}
}

func TestExecuteCountsAndWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	p := New("failing", always, func(agentctx.Snapshot) (string, error) {
		return "", boom
	}, 3.0)

	_, err := p.Execute(agentctx.Snapshot{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if p.Executions() != 1 {
		t.Errorf("got %d executions, want 1", p.Executions())
	}
}

func TestScaleMatchesRewardArithmetic(t *testing.T) {
	p := New("p", always, action("x"), 3.0)

	if got := p.Scale(1.1); math.Abs(got-3.3) > 1e-9 {
		t.Errorf("success: got %v, want 3.3", got)
	}
	p.SetReward(3.0)
	if got := p.Scale(0.8); math.Abs(got-2.4) > 1e-9 {
		t.Errorf("failure: got %v, want 2.4", got)
	}
}

func TestRewardClamped(t *testing.T) {
	p := New("p", always, action("x"), 4.9)
	for i := 0; i < 10; i++ {
		p.Scale(1.1)
	}
	if p.Reward() > RewardMax {
		t.Errorf("reward %v exceeds max", p.Reward())
	}

	p.SetReward(-1)
	if p.Reward() != RewardMin {
		t.Errorf("got %v, want clamped to %v", p.Reward(), RewardMin)
	}
}

func TestBlendEMA(t *testing.T) {
	p := New("p", always, action("x"), 3.0)
	got := p.Blend(5, 0.3)
	want := 0.3*5 + 0.7*3.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBuiltinsMatchScenario(t *testing.T) {
	m := NewManager(zap.NewNop())
	RegisterBuiltins(m)

	// happy (3.0) and focus (3.0) both match; happy registered first wins the tie.
	best := m.Best(agentctx.Snapshot{Emotion: "happy", Intent: "organize"})
	if best == nil || best.Name != "happy" {
		t.Fatalf("got %v, want happy", best)
	}

	best = m.Best(agentctx.Snapshot{Emotion: "neutral", Intent: "network outage"})
	if best == nil || best.Name != "network-triage" {
		t.Fatalf("got %v, want network-triage", best)
	}
}
