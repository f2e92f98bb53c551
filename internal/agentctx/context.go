package agentctx

import (
	"sync"

	"go.uber.org/zap"
)

// Snapshot is an immutable copy of the agent's situational state, passed to
// protocol conditions and actions and recorded in episodic memory.
type Snapshot struct {
	Emotion     string            `json:"emotion"`
	Intent      string            `json:"intent"`
	Environment map[string]string `json:"environment"`
}

// Context holds the agent's current emotion, intent, and environment.
// One Context lives for the lifetime of its agent and is mutated in place.
type Context struct {
	emotion     string
	intent      string
	environment map[string]string
	mu          sync.RWMutex
	logger      *zap.Logger
}

// New creates a Context with neutral defaults.
func New(logger *zap.Logger) *Context {
	return &Context{
		emotion:     "neutral",
		intent:      "none",
		environment: make(map[string]string),
		logger:      logger,
	}
}

// Update merges non-empty fields into the context and returns the resulting
// snapshot. Environment entries are merged key by key; existing keys not
// present in env are kept.
func (c *Context) Update(emotion, intent string, env map[string]string) Snapshot {
	c.mu.Lock()
	if emotion != "" {
		c.emotion = emotion
	}
	if intent != "" {
		c.intent = intent
	}
	for k, v := range env {
		c.environment[k] = v
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("context updated",
		zap.String("emotion", snap.Emotion),
		zap.String("intent", snap.Intent),
		zap.Int("env_keys", len(snap.Environment)))
	return snap
}

// SetIntent replaces only the intent field. Used by goal execution, which
// derives intent from the current subgoal.
func (c *Context) SetIntent(intent string) {
	c.mu.Lock()
	c.intent = intent
	c.mu.Unlock()
}

// Snapshot returns a value copy of the current state.
func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Context) snapshotLocked() Snapshot {
	env := make(map[string]string, len(c.environment))
	for k, v := range c.environment {
		env[k] = v
	}
	return Snapshot{
		Emotion:     c.emotion,
		Intent:      c.intent,
		Environment: env,
	}
}
