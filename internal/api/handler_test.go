package api

import (
	"encoding/json"
	"net/http"
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

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	manager := protocol.NewManager(logger)
	protocol.RegisterBuiltins(manager)

	mem := memory.New(
		memory.NewEpisodic(logger),
		memory.NewSemantic(embedding.NewHashProvider(64), nil, logger),
		logger)

	cog := cognition.NewEngine(nil, logger)
	engine := agent.NewEngine(logger)
	engine.Register(agent.New("aeon", manager, cog, mem,
		learning.NewReflector(manager, logger), nil, nil, logger))

	h := NewHandler(engine, manager, mem, cog,
		learning.NewImprover(manager, logger),
		learning.NewEvolution(manager, 7, logger),
		nil, logger)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := srv.Client().Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out interface{}) *http.Response {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]interface{}
	resp := getJSON(t, srv, "/system/health", &body)
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" || body["cognition"] != "rules" {
		t.Errorf("health = %v", body)
	}
}

func TestContextUpdateThenGoal(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv, "/context/update",
		`{"emotion":"happy","intent":"create","environment":{"location":"office"}}`)
	if resp.StatusCode != 200 {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	if body["status"] != "context updated" {
		t.Errorf("update body = %v", body)
	}

	var snap map[string]interface{}
	getJSON(t, srv, "/context", &snap)
	if snap["emotion"] != "happy" || snap["intent"] != "create" {
		t.Errorf("context = %v", snap)
	}

	resp, goal := postJSON(t, srv, "/agent/goal", `{"goal":"organize my workspace"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("goal status = %d", resp.StatusCode)
	}
	if goal["completed"] != true {
		t.Errorf("goal = %v", goal)
	}
	steps, ok := goal["steps"].([]interface{})
	if !ok || len(steps) == 0 {
		t.Fatalf("steps = %v", goal["steps"])
	}
	first := steps[0].(map[string]interface{})["result"].(map[string]interface{})
	if first["protocol"] != "focus" || first["action"] == "" {
		t.Errorf("first step = %v", first)
	}
}

func TestRunWithoutMatchFallsBack(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv, "/context/update", `{"emotion":"neutral","intent":"stargazing"}`)
	resp, body := postJSON(t, srv, "/agent/run", `{}`)
	if resp.StatusCode != 200 {
		t.Fatalf("run status = %d", resp.StatusCode)
	}
	if body["protocol"] != "default" {
		t.Errorf("protocol = %v", body["protocol"])
	}
	if _, has := body["reward"]; has {
		t.Error("baseline run must omit reward")
	}
}

func TestMemoryEndpoints(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv, "/context/update", `{"emotion":"happy","intent":"create"}`)
	postJSON(t, srv, "/agent/run", `{}`)
	postJSON(t, srv, "/agent/goal", `{"goal":"organize my notes"}`)

	var dump struct {
		Episodic []map[string]interface{} `json:"episodic"`
		Semantic []map[string]interface{} `json:"semantic"`
	}
	getJSON(t, srv, "/memory", &dump)
	if len(dump.Episodic) == 0 || len(dump.Semantic) == 0 {
		t.Fatalf("dump = %+v", dump)
	}

	getJSON(t, srv, "/memory?type=episodic", &dump)
	if resp := getJSON(t, srv, "/memory?type=bogus", nil); resp.StatusCode != 400 {
		t.Errorf("bogus type status = %d, want 400", resp.StatusCode)
	}

	resp, results := postJSON(t, srv, "/memory/query", `{"query":"organize notes","top_k":3}`)
	if resp.StatusCode != 200 {
		t.Fatalf("query status = %d", resp.StatusCode)
	}
	if _, ok := results["results"]; !ok {
		t.Errorf("query body = %v", results)
	}

	if resp, _ := postJSON(t, srv, "/memory/query", `{}`); resp.StatusCode != 400 {
		t.Errorf("empty query status = %d, want 400", resp.StatusCode)
	}
}

func TestProtocolOutcomeAdjustsReward(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv, "/protocols/happy/outcome", `{"success":true}`)
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	// 3.0 * 1.1
	if reward := body["reward"].(float64); reward < 3.29 || reward > 3.31 {
		t.Errorf("reward = %v, want 3.3", reward)
	}

	if resp, _ := postJSON(t, srv, "/protocols/nope/outcome", `{"success":true}`); resp.StatusCode != 404 {
		t.Errorf("unknown protocol status = %d, want 404", resp.StatusCode)
	}
}

func TestLearningEndpoints(t *testing.T) {
	srv := newTestServer(t)

	// Drive "sad" to a poor reward so evolution has something to mutate.
	for i := 0; i < 5; i++ {
		postJSON(t, srv, "/protocols/sad/outcome", `{"success":false}`)
	}

	resp, body := postJSON(t, srv, "/learning/evolve", `{}`)
	if resp.StatusCode != 200 {
		t.Fatalf("evolve status = %d", resp.StatusCode)
	}
	mutants := body["mutants"].([]interface{})
	if len(mutants) != 1 || mutants[0] != "sad_mutant" {
		t.Errorf("mutants = %v", mutants)
	}

	if resp, _ := postJSON(t, srv, "/learning/improve", `{}`); resp.StatusCode != 200 {
		t.Errorf("improve status = %d", resp.StatusCode)
	}

	var report map[string]interface{}
	getJSON(t, srv, "/learning/report", &report)
	if _, ok := report["report"]; !ok {
		t.Errorf("report body = %v", report)
	}
	counters := report["counters"].(map[string]interface{})
	if _, ok := counters["goals_completed"]; !ok {
		t.Errorf("counters = %v", counters)
	}
}

func TestGoalValidation(t *testing.T) {
	srv := newTestServer(t)

	if resp, _ := postJSON(t, srv, "/agent/goal", `{}`); resp.StatusCode != 400 {
		t.Errorf("empty goal status = %d, want 400", resp.StatusCode)
	}
	if resp, _ := postJSON(t, srv, "/agent/goal", `{"goal":"exploit the mainframe"}`); resp.StatusCode != 400 {
		t.Errorf("forbidden goal status = %d, want 400", resp.StatusCode)
	}
	if resp := getJSON(t, srv, "/context?agent=ghost", nil); resp.StatusCode != 404 {
		t.Errorf("unknown agent status = %d, want 404", resp.StatusCode)
	}
}
