package cognition

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nidhogg/aeon/internal/agentctx"
	"github.com/nidhogg/aeon/internal/provider"
	"go.uber.org/zap"
)

// Mode identifies the reasoning strategy selected at startup.
type Mode string

const (
	ModeLLM   Mode = "llm"
	ModeRules Mode = "rules"
)

const systemPrompt = "You are AEON, a context reasoning engine. Interpret the " +
	"user's situational state, decide the most helpful high-level response " +
	"strategy, and explain your reasoning briefly. Respond concisely."

// Engine interprets the agent's context and produces a thought. The
// strategy is fixed at construction: LLM-backed when the router has at
// least one provider, rule-based otherwise. An LLM failure degrades to the
// rule table for that request.
type Engine struct {
	router *provider.Router
	rules  Rules
	mode   Mode
	logger *zap.Logger
}

// NewEngine selects the reasoning strategy based on provider availability.
func NewEngine(router *provider.Router, logger *zap.Logger) *Engine {
	mode := ModeRules
	if router != nil && router.Len() > 0 {
		mode = ModeLLM
	}
	logger.Info("cognition engine initialized", zap.String("mode", string(mode)))
	return &Engine{router: router, mode: mode, logger: logger}
}

// Mode returns the strategy selected at startup.
func (e *Engine) Mode() Mode { return e.mode }

// Think produces a cognitive assessment of the context.
func (e *Engine) Think(ctx context.Context, snap agentctx.Snapshot) string {
	if e.mode != ModeLLM {
		return e.rules.Think(snap)
	}

	resp, err := e.router.Route(ctx, &provider.ChatRequest{
		Messages: []provider.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(snap)},
		},
		Temperature: 0.4,
		MaxTokens:   512,
	})
	if err != nil {
		e.logger.Warn("llm cognition failed, using rules", zap.Error(err))
		return e.rules.Think(snap)
	}
	return strings.TrimSpace(resp.Content)
}

func buildPrompt(snap agentctx.Snapshot) string {
	var b strings.Builder
	b.WriteString("Context snapshot:\n")
	fmt.Fprintf(&b, "- Emotion: %s\n", snap.Emotion)
	fmt.Fprintf(&b, "- Intent: %s\n", snap.Intent)
	if len(snap.Environment) > 0 {
		keys := make([]string, 0, len(snap.Environment))
		for k := range snap.Environment {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("- Environment:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  - %s: %s\n", k, snap.Environment[k])
		}
	}
	return b.String()
}
