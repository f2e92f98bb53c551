package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nidhogg/aeon/internal/agent"
	"github.com/nidhogg/aeon/internal/api"
	"github.com/nidhogg/aeon/internal/cognition"
	"github.com/nidhogg/aeon/internal/concept"
	"github.com/nidhogg/aeon/internal/config"
	"github.com/nidhogg/aeon/internal/embedding"
	"github.com/nidhogg/aeon/internal/events"
	"github.com/nidhogg/aeon/internal/gateway"
	"github.com/nidhogg/aeon/internal/learning"
	"github.com/nidhogg/aeon/internal/memory"
	"github.com/nidhogg/aeon/internal/protocol"
	"github.com/nidhogg/aeon/internal/provider"
	pgstore "github.com/nidhogg/aeon/internal/store"
	"github.com/nidhogg/aeon/internal/vectorstore"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting AEON...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/aeon.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not loaded, using defaults", zap.String("path", cfgPath), zap.Error(err))
		cfg = config.Default()
	} else {
		logger.Info("Config loaded", zap.String("path", cfgPath))
	}

	// LLM providers. An empty router means rule-based cognition.
	router := provider.NewRouter(logger)
	for _, pc := range cfg.Providers {
		provCfg := provider.Config{
			ID: pc.ID, Type: pc.Type, Name: pc.Name,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey, Model: pc.Model,
		}
		if provCfg.APIKey == "" {
			logger.Warn("provider has no API key, skipping", zap.String("id", pc.ID))
			continue
		}
		switch pc.Type {
		case "openai":
			router.Register(provider.NewOpenAIProvider(provCfg, logger))
		case "anthropic":
			router.Register(provider.NewAnthropicProvider(provCfg, logger))
		default:
			logger.Warn("unknown provider type", zap.String("id", pc.ID), zap.String("type", pc.Type))
		}
	}

	// Semantic memory: embedder plus optional Qdrant.
	embedder := embedding.New(embedding.Config{
		Provider:  cfg.Embedding.Provider,
		Endpoint:  cfg.Embedding.Endpoint,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		Dimension: cfg.Embedding.Dimension,
	})
	var qdrant *vectorstore.Client
	if cfg.Database.Qdrant.Host != "" {
		qc, qErr := vectorstore.NewClient(vectorstore.Config{
			Host: cfg.Database.Qdrant.Host,
			Port: cfg.Database.Qdrant.Port,
		})
		if qErr != nil {
			logger.Warn("Qdrant unavailable, semantic memory stays in process", zap.Error(qErr))
		} else {
			qdrant = qc
		}
	}
	semantic := memory.NewSemantic(embedder, qdrant, logger)
	if err := semantic.Init(context.Background()); err != nil {
		logger.Warn("semantic memory init failed", zap.Error(err))
	}
	episodic := memory.NewEpisodic(logger)
	mem := memory.New(episodic, semantic, logger)

	// PostgreSQL persistence for episodes and learned rewards.
	var pg *pgstore.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := pgstore.New(cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without persistence", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(context.Background(), "migrations"); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			episodic.SetSink(ps)
			pg = ps
		}
	}

	// Concept knowledge graph.
	var graph *concept.Graph
	if cfg.Database.Neo4j.URI != "" {
		g, gErr := concept.NewGraph(cfg.Database.Neo4j.URI, cfg.Database.Neo4j.User, cfg.Database.Neo4j.Password, logger)
		if gErr != nil {
			logger.Warn("Neo4j unavailable, running without concept graph", zap.Error(gErr))
		} else {
			graph = g
		}
	}

	// Event stream for external monitoring.
	var bus *events.Bus
	if cfg.Database.Redis.URL != "" {
		b, bErr := events.NewBus(cfg.Database.Redis.URL, logger)
		if bErr != nil {
			logger.Warn("Redis unavailable, running without event stream", zap.Error(bErr))
		} else {
			bus = b
		}
	}

	// Protocols: builtins plus any persisted rewards.
	manager := protocol.NewManager(logger)
	protocol.RegisterBuiltins(manager)
	if pg != nil {
		restored, rErr := pg.LoadRewards(context.Background(), manager)
		if rErr != nil {
			logger.Warn("reward restore failed", zap.Error(rErr))
		} else if restored > 0 {
			logger.Info("Restored protocol rewards", zap.Int("count", restored))
		}
	}

	// Agent.
	cog := cognition.NewEngine(router, logger)
	reflector := learning.NewReflector(manager, logger)
	engine := agent.NewEngine(logger)
	var concepts agent.Concepts
	if graph != nil {
		concepts = graph
	}
	engine.Register(agent.New(cfg.Agent.Name, manager, cog, mem, reflector, concepts, bus, logger))

	// Learning loop.
	seed := cfg.Learning.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	improver := learning.NewImprover(manager, logger)
	evolution := learning.NewEvolution(manager, seed, logger)
	loopCtx, stopLoop := context.WithCancel(context.Background())

	// Gateway surfaces.
	gw := gateway.New(logger)
	gateway.NewDispatcher(gw, engine, logger)

	restAdapter := gateway.NewRESTAdapter(logger)
	gw.Register(restAdapter)
	if cfg.Gateway.Slack.Enabled && cfg.Gateway.Slack.BotToken != "" {
		gw.Register(gateway.NewSlackAdapter(cfg.Gateway.Slack.BotToken, cfg.Gateway.Slack.AppToken, logger))
	}
	if cfg.Gateway.Discord.Enabled && cfg.Gateway.Discord.BotToken != "" {
		gw.Register(gateway.NewDiscordAdapter(cfg.Gateway.Discord.BotToken, logger))
	}
	if err := gw.ConnectAll(loopCtx); err != nil {
		logger.Warn("some gateway adapters failed to connect", zap.Error(err))
	}

	publisher := learning.MultiPublisher(engine.Counters(), bus, cycleAnnouncer{gw})
	loop := learning.NewLoop(improver, evolution, graph, publisher, cfg.Learning.CycleInterval(), logger)
	go loop.Run(loopCtx)

	// HTTP API.
	handler := api.NewHandler(engine, manager, mem, cog, improver, evolution, restAdapter, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler.Router(),
	}
	go func() {
		logger.Info("AEON listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down AEON...")
	stopLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	if pg != nil {
		if err := pg.SaveRewards(ctx, manager.Snapshot()); err != nil {
			logger.Warn("reward persistence failed", zap.Error(err))
		}
		pg.Close()
	}
	if graph != nil {
		graph.Close(ctx)
	}
	if qdrant != nil {
		qdrant.Close()
	}
	bus.Close()
	gw.CloseAll()
}

// cycleAnnouncer pushes learning cycle summaries to the gateway when the
// cycle changed anything.
type cycleAnnouncer struct {
	gw *gateway.Gateway
}

func (c cycleAnnouncer) PublishCycle(ctx context.Context, cycle learning.CycleResult) {
	if len(cycle.Mutants) == 0 {
		return
	}
	c.gw.Broadcast(ctx, &gateway.BroadcastMessage{
		Title: fmt.Sprintf("Learning cycle %d", cycle.Cycle),
		Content: fmt.Sprintf("New protocol variants: %s",
			strings.Join(cycle.Mutants, ", ")),
	})
}
