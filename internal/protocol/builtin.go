package protocol

import (
	"math/rand"
	"strings"

	"github.com/nidhogg/aeon/internal/agentctx"
)

// RegisterBuiltins installs the default protocol set: emotional support,
// productivity, and workplace automation behaviors.
func RegisterBuiltins(m *Manager) {
	m.Register(New("happy", emotionIn("happy", "excited"), pick(
		"Creative energy detected. Channeling it into something new.",
		"Let's build something meaningful.",
	), 3.0))

	m.Register(New("sad", emotionIn("sad", "down", "frustrated"), pick(
		"It's okay to feel this way. Slowing down.",
		"I'm here with you. One small step at a time.",
	), 2.0))

	m.Register(New("focus", intentIn("work", "study", "focus", "organize"), pick(
		"Reducing distractions and structuring the next task block.",
		"Entering a focused work block. Notifications muted.",
	), 3.0))

	m.Register(New("network-triage", intentContains("network"), static(
		"Running diagnostics, checking routing, escalating if needed.",
	), 3.5))

	m.Register(New("ticket", intentContains("ticket"), static(
		"CRM ticket created, priority assigned.",
	), 3.0))
}

func emotionIn(values ...string) Condition {
	return func(s agentctx.Snapshot) bool {
		return containsFold(values, s.Emotion)
	}
}

func intentIn(values ...string) Condition {
	return func(s agentctx.Snapshot) bool {
		return containsFold(values, s.Intent)
	}
}

func intentContains(substr string) Condition {
	return func(s agentctx.Snapshot) bool {
		return strings.Contains(strings.ToLower(s.Intent), substr)
	}
}

func containsFold(values []string, v string) bool {
	lower := strings.ToLower(v)
	for _, want := range values {
		if lower == want {
			return true
		}
	}
	return false
}

func static(result string) Action {
	return func(agentctx.Snapshot) (string, error) {
		return result, nil
	}
}

func pick(results ...string) Action {
	return func(agentctx.Snapshot) (string, error) {
		return results[rand.Intn(len(results))], nil
	}
}
