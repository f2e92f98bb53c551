//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/aeon/internal/agentctx"
	"github.com/nidhogg/aeon/internal/concept"
	"github.com/nidhogg/aeon/internal/events"
	"github.com/nidhogg/aeon/internal/memory"
	"github.com/nidhogg/aeon/internal/protocol"
	pgstore "github.com/nidhogg/aeon/internal/store"
)

// Package-level shared state, set by TestMain and used by all subtests.
var (
	testLogger   *zap.Logger
	testGraph    *concept.Graph
	testPGStore  *pgstore.Store
	testRedisURL string
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	testLogger, _ = zap.NewDevelopment()

	neo4jURI, neo4jCleanup, err := startNeo4j(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "neo4j: %v\n", err)
		os.Exit(1)
	}
	defer neo4jCleanup()

	testGraph, err = concept.NewGraph(neo4jURI, "", "", testLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "concept graph: %v\n", err)
		os.Exit(1)
	}
	defer testGraph.Close(ctx)

	pgDSN, pgCleanup, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres: %v\n", err)
		os.Exit(1)
	}
	defer pgCleanup()

	testPGStore, err = pgstore.New(pgDSN, testLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pg store: %v\n", err)
		os.Exit(1)
	}
	defer testPGStore.Close()

	if err := testPGStore.Migrate(ctx, "../../migrations"); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	redisURL, redisCleanup, err := startRedis(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer redisCleanup()
	testRedisURL = redisURL

	os.Exit(m.Run())
}

func TestEpisodePersistence(t *testing.T) {
	ctx := context.Background()

	episodic := memory.NewEpisodic(testLogger)
	episodic.SetSink(testPGStore)

	reward := 3.0
	episodic.Record(ctx, &memory.Episode{
		Context:  agentctx.Snapshot{Emotion: "happy", Intent: "create"},
		Action:   "Started a new project",
		Protocol: "happy",
		Reward:   &reward,
	})

	stored, err := testPGStore.ListEpisodes(ctx, 10)
	if err != nil {
		t.Fatalf("list episodes: %v", err)
	}
	if len(stored) == 0 {
		t.Fatal("episode not persisted")
	}
	got := stored[0]
	if got.Protocol != "happy" || got.Context.Emotion != "happy" {
		t.Errorf("stored episode = %+v", got)
	}
	if got.Reward == nil || *got.Reward != 3.0 {
		t.Errorf("stored reward = %v", got.Reward)
	}
}

func TestRewardPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()

	m := protocol.NewManager(testLogger)
	protocol.RegisterBuiltins(m)
	happy, _ := m.Get("happy")
	happy.SetReward(4.2)

	if err := testPGStore.SaveRewards(ctx, m.Snapshot()); err != nil {
		t.Fatalf("save rewards: %v", err)
	}

	fresh := protocol.NewManager(testLogger)
	protocol.RegisterBuiltins(fresh)
	restored, err := testPGStore.LoadRewards(ctx, fresh)
	if err != nil {
		t.Fatalf("load rewards: %v", err)
	}
	if restored == 0 {
		t.Fatal("no rewards restored")
	}
	happyFresh, _ := fresh.Get("happy")
	if happyFresh.Reward() != 4.2 {
		t.Errorf("restored reward = %v, want 4.2", happyFresh.Reward())
	}
}

func TestConceptGraphLifecycle(t *testing.T) {
	ctx := context.Background()

	if _, err := testGraph.Upsert(ctx, &concept.Concept{
		Name:        "workspace",
		Description: "the user's working environment",
	}); err != nil {
		t.Fatalf("upsert workspace: %v", err)
	}
	if _, err := testGraph.Upsert(ctx, &concept.Concept{
		Name:        "organization",
		Description: "keeping things tidy and findable",
	}); err != nil {
		t.Fatalf("upsert organization: %v", err)
	}
	if err := testGraph.Link(ctx, "workspace", "organization", 0.8); err != nil {
		t.Fatalf("link: %v", err)
	}

	related, err := testGraph.Related(ctx, "workspace", 5)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(related) != 1 || related[0].Name != "organization" {
		t.Fatalf("related = %+v", related)
	}

	if err := testGraph.BoostAccess(ctx, "workspace", concept.DefaultDecayConfig()); err != nil {
		t.Fatalf("boost: %v", err)
	}
	strongest, err := testGraph.Strongest(ctx, 1)
	if err != nil {
		t.Fatalf("strongest: %v", err)
	}
	if len(strongest) != 1 || strongest[0].Name != "workspace" {
		t.Errorf("strongest = %+v", strongest)
	}

	// Nothing is stale yet, so a sweep touches no nodes.
	if _, err := testGraph.DecaySweep(ctx, concept.DefaultDecayConfig()); err != nil {
		t.Fatalf("decay sweep: %v", err)
	}
}

func TestEventBusPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	bus, err := events.NewBus(testRedisURL, testLogger)
	if err != nil {
		t.Fatalf("bus: %v", err)
	}
	defer bus.Close()

	received := bus.Subscribe(ctx)
	// Give XRead a moment to attach before publishing.
	time.Sleep(500 * time.Millisecond)

	if err := bus.Publish(ctx, "agent.episode", map[string]string{"action": "test"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-received:
		if ev.Type != "agent.episode" {
			t.Errorf("event type = %s", ev.Type)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBusCancelUnblocksStalledSubscriber(t *testing.T) {
	bus, err := events.NewBus(testRedisURL, testLogger)
	if err != nil {
		t.Fatalf("bus: %v", err)
	}
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	received := bus.Subscribe(ctx)
	time.Sleep(500 * time.Millisecond)

	// Overfill the subscriber buffer without draining it, so the reader
	// goroutine ends up blocked on a send.
	for i := 0; i < 32; i++ {
		if err := bus.Publish(context.Background(), "agent.episode", map[string]int{"n": i}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	time.Sleep(time.Second)
	cancel()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case _, ok := <-received:
			if !ok {
				return // goroutine exited and closed the channel
			}
		case <-deadline:
			t.Fatal("subscriber goroutine did not exit after cancel")
		}
	}
}
