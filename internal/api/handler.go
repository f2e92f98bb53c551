package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nidhogg/aeon/internal/agent"
	"github.com/nidhogg/aeon/internal/cognition"
	"github.com/nidhogg/aeon/internal/gateway"
	"github.com/nidhogg/aeon/internal/learning"
	"github.com/nidhogg/aeon/internal/memory"
	"github.com/nidhogg/aeon/internal/protocol"
	"go.uber.org/zap"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine    *agent.Engine
	manager   *protocol.Manager
	mem       *memory.Memory
	cognition *cognition.Engine
	improver  *learning.Improver
	evolution *learning.Evolution
	restGW    *gateway.RESTAdapter // nil disables the gateway mount
	logger    *zap.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	engine *agent.Engine,
	manager *protocol.Manager,
	mem *memory.Memory,
	cog *cognition.Engine,
	improver *learning.Improver,
	evolution *learning.Evolution,
	restGW *gateway.RESTAdapter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		engine:    engine,
		manager:   manager,
		mem:       mem,
		cognition: cog,
		improver:  improver,
		evolution: evolution,
		restGW:    restGW,
		logger:    logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/system/health", h.health)

	r.Post("/context/update", h.updateContext)
	r.Get("/context", h.getContext)

	r.Post("/agent/run", h.runAgent)
	r.Post("/agent/goal", h.executeGoal)

	r.Get("/memory", h.getMemory)
	r.Post("/memory/query", h.queryMemory)

	r.Get("/protocols", h.listProtocols)
	r.Post("/protocols/{name}/outcome", h.protocolOutcome)

	r.Post("/learning/improve", h.improve)
	r.Post("/learning/evolve", h.evolve)
	r.Get("/learning/report", h.report)

	if h.restGW != nil {
		r.Mount("/gateway/rest", h.restGW.Routes())
	}

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"cognition": h.cognition.Mode(),
		"agents":    h.engine.List(),
		"protocols": h.manager.Len(),
		"episodes":  h.mem.Episodic.Len(),
		"counters":  h.engine.Counters().Snapshot(),
	})
}

// defaultAgent resolves the agent for a request, honoring an optional
// "agent" query parameter.
func (h *Handler) defaultAgent(w http.ResponseWriter, r *http.Request) *agent.Agent {
	if name := r.URL.Query().Get("agent"); name != "" {
		a, ok := h.engine.Get(name)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "agent not found"})
			return nil
		}
		return a
	}
	a := h.engine.Default()
	if a == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no agents registered"})
	}
	return a
}

type contextUpdateRequest struct {
	Emotion     string            `json:"emotion"`
	Intent      string            `json:"intent"`
	Environment map[string]string `json:"environment"`
}

func (h *Handler) updateContext(w http.ResponseWriter, r *http.Request) {
	a := h.defaultAgent(w, r)
	if a == nil {
		return
	}
	var req contextUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	snap := a.UpdateContext(req.Emotion, req.Intent, req.Environment)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "context updated",
		"context": snap,
	})
}

func (h *Handler) getContext(w http.ResponseWriter, r *http.Request) {
	a := h.defaultAgent(w, r)
	if a == nil {
		return
	}
	writeJSON(w, http.StatusOK, a.Context.Snapshot())
}

func (h *Handler) runAgent(w http.ResponseWriter, r *http.Request) {
	a := h.defaultAgent(w, r)
	if a == nil {
		return
	}
	result, err := a.Run(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type goalRequest struct {
	Goal string `json:"goal"`
}

func (h *Handler) executeGoal(w http.ResponseWriter, r *http.Request) {
	a := h.defaultAgent(w, r)
	if a == nil {
		return
	}
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Goal == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "goal is required"})
		return
	}
	result, err := a.ExecuteGoal(r.Context(), req.Goal)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getMemory(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	switch kind {
	case "all":
		kind = ""
	case "", "episodic", "semantic":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be episodic or semantic"})
		return
	}
	writeJSON(w, http.StatusOK, h.mem.DumpAll(kind))
}

type memoryQueryRequest struct {
	Query     string  `json:"query"`
	TopK      int     `json:"top_k"`
	Threshold float32 `json:"threshold"`
}

func (h *Handler) queryMemory(w http.ResponseWriter, r *http.Request) {
	var req memoryQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	results, err := h.mem.Recall(r.Context(), req.Query, req.TopK, req.Threshold)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if results == nil {
		results = []memory.QueryResult{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *Handler) listProtocols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Snapshot())
}

type outcomeRequest struct {
	Success bool `json:"success"`
}

func (h *Handler) protocolOutcome(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	reward, ok := h.improver.Apply(name, req.Success)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "protocol not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"protocol": name,
		"reward":   reward,
	})
}

func (h *Handler) improve(w http.ResponseWriter, r *http.Request) {
	evals := h.improver.Improve()
	writeJSON(w, http.StatusOK, map[string]interface{}{"evaluations": evals})
}

func (h *Handler) evolve(w http.ResponseWriter, r *http.Request) {
	created := h.evolution.Evolve()
	if created == nil {
		created = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"mutants": created})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	report := learning.Research(h.manager)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report":   report,
		"counters": h.engine.Counters().Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
