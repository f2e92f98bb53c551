package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nidhogg/aeon/internal/agent"
	"go.uber.org/zap"
)

// restTimeout bounds how long a caller waits for the goal outcome.
const restTimeout = 60 * time.Second

// RESTAdapter accepts goals over HTTP. Each request registers a reply slot
// keyed by a generated channel ID and blocks until the dispatcher delivers
// the outcome for that slot.
type RESTAdapter struct {
	handler MessageHandler
	waiters map[string]chan *OutboundMessage
	mu      sync.Mutex
	logger  *zap.Logger
}

// NewRESTAdapter creates a REST gateway adapter.
func NewRESTAdapter(logger *zap.Logger) *RESTAdapter {
	return &RESTAdapter{
		waiters: make(map[string]chan *OutboundMessage),
		logger:  logger,
	}
}

func (a *RESTAdapter) Platform() string { return "rest" }

func (a *RESTAdapter) Connect(_ context.Context) error { return nil }

func (a *RESTAdapter) OnMessage(h MessageHandler) { a.handler = h }

func (a *RESTAdapter) Close() error { return nil }

func (a *RESTAdapter) register(id string) chan *OutboundMessage {
	ch := make(chan *OutboundMessage, 1)
	a.mu.Lock()
	a.waiters[id] = ch
	a.mu.Unlock()
	return ch
}

func (a *RESTAdapter) release(id string) {
	a.mu.Lock()
	delete(a.waiters, id)
	a.mu.Unlock()
}

// Send delivers a reply to the request waiting on msg.ChannelID.
func (a *RESTAdapter) Send(_ context.Context, msg *OutboundMessage) error {
	a.mu.Lock()
	ch, ok := a.waiters[msg.ChannelID]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("no waiter for channel %s", msg.ChannelID)
	}
	select {
	case ch <- msg:
		return nil
	default:
		return fmt.Errorf("channel %s already answered", msg.ChannelID)
	}
}

// Routes returns the REST gateway endpoints.
func (a *RESTAdapter) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/message", a.handleMessage)
	return r
}

// goalRequest is the inbound body; content runs as a goal.
type goalRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Content  string `json:"content"`
}

// goalReply is the response body: the structured goal outcome when the
// agent produced one, plain content otherwise.
type goalReply struct {
	Content string            `json:"content,omitempty"`
	Goal    *agent.GoalResult `json:"goal,omitempty"`
}

func (a *RESTAdapter) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRESTError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeRESTError(w, http.StatusBadRequest, "content is required")
		return
	}
	if a.handler == nil {
		writeRESTError(w, http.StatusServiceUnavailable, "no dispatcher attached")
		return
	}

	channelID := uuid.New().String()
	ch := a.register(channelID)
	defer a.release(channelID)

	a.handler(&InboundMessage{
		Platform:  "rest",
		ChannelID: channelID,
		UserID:    req.UserID,
		UserName:  req.UserName,
		Content:   req.Content,
		Timestamp: time.Now(),
	})

	select {
	case msg := <-ch:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(goalReply{Content: msg.Content, Goal: msg.Goal})
	case <-time.After(restTimeout):
		writeRESTError(w, http.StatusGatewayTimeout, "goal execution timed out")
	case <-r.Context().Done():
	}
}

func writeRESTError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Broadcast pushes an announcement to every in-flight request.
func (a *RESTAdapter) Broadcast(_ context.Context, msg *BroadcastMessage) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ch := range a.waiters {
		select {
		case ch <- &OutboundMessage{
			Platform: "rest",
			Content:  msg.Title + "\n" + msg.Content,
		}:
		default:
		}
	}
	return nil
}
