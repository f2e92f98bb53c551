package gateway

import (
	"context"
	"fmt"

	"github.com/nidhogg/aeon/internal/agent"
	"go.uber.org/zap"
)

// Dispatcher routes inbound gateway messages to the default agent as
// goals and sends the outcome back to the originating channel.
type Dispatcher struct {
	gateway *Gateway
	engine  *agent.Engine
	logger  *zap.Logger
}

// NewDispatcher wires the gateway's message handler to the agent engine.
func NewDispatcher(gw *Gateway, engine *agent.Engine, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{gateway: gw, engine: engine, logger: logger}
	gw.SetHandler(d.handle)
	return d
}

func (d *Dispatcher) handle(msg *InboundMessage) {
	a := d.engine.Default()
	if a == nil {
		d.logger.Warn("inbound message with no agents registered",
			zap.String("platform", msg.Platform))
		return
	}

	ctx := context.Background()
	result, err := a.ExecuteGoal(ctx, msg.Content)

	out := &OutboundMessage{
		Platform:  msg.Platform,
		ChannelID: msg.ChannelID,
		ReplyTo:   msg.ReplyTo,
	}
	if err != nil {
		out.Content = fmt.Sprintf("Could not execute goal: %v", err)
	} else {
		out.Goal = result
	}
	if err := d.gateway.Send(ctx, out); err != nil {
		d.logger.Warn("gateway reply failed",
			zap.String("platform", msg.Platform), zap.Error(err))
	}
}
