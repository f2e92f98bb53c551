package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nidhogg/aeon/internal/agent"
)

// Adapter is one platform surface (REST, Slack, Discord).
type Adapter interface {
	Platform() string
	Connect(ctx context.Context) error
	Send(ctx context.Context, msg *OutboundMessage) error
	OnMessage(handler MessageHandler)
	Broadcast(ctx context.Context, msg *BroadcastMessage) error
	Close() error
}

// MessageHandler processes inbound messages from any platform.
type MessageHandler func(msg *InboundMessage)

// InboundMessage is a normalized message from any platform. Content is
// treated as a goal for the agent.
type InboundMessage struct {
	Platform  string    `json:"platform"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ReplyTo   string    `json:"reply_to,omitempty"`
}

// OutboundMessage is a reply to a specific platform channel. Goal carries
// the structured outcome when the message answers a goal execution; the
// REST adapter serializes it as-is, text platforms render it via Text.
type OutboundMessage struct {
	Platform  string            `json:"platform"`
	ChannelID string            `json:"channel_id"`
	Content   string            `json:"content,omitempty"`
	Goal      *agent.GoalResult `json:"goal,omitempty"`
	ReplyTo   string            `json:"reply_to,omitempty"`
}

// Text renders the message for plain-text platforms. Structured goal
// outcomes become a numbered step list.
func (m *OutboundMessage) Text() string {
	if m.Goal == nil {
		return m.Content
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", m.Goal.Goal)
	for i, step := range m.Goal.Steps {
		if step.Result == nil {
			fmt.Fprintf(&b, "%d. %s: failed\n", i+1, step.Step)
			continue
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, step.Step, step.Result.Action)
	}
	if m.Goal.Completed {
		b.WriteString("Completed.")
	} else {
		b.WriteString("Finished with failures.")
	}
	return b.String()
}

// BroadcastMessage is an announcement pushed to every connected platform,
// such as a learning cycle summary.
type BroadcastMessage struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
