package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/metrics"
	"github.com/sandevgo/vrmentor/internal/providers/llm"
	"github.com/sandevgo/vrmentor/internal/providers/rag"
	"github.com/sandevgo/vrmentor/internal/service/agent"
	"github.com/sandevgo/vrmentor/internal/service/command"
	"github.com/sandevgo/vrmentor/internal/service/ranking"
	"github.com/sandevgo/vrmentor/internal/service/recommend"
	"github.com/sandevgo/vrmentor/internal/service/retrieval"
	"github.com/sandevgo/vrmentor/internal/storage/neo4jdb"
	"github.com/sandevgo/vrmentor/internal/storage/redis"
	"github.com/sandevgo/vrmentor/internal/storage/sqlite"
	"github.com/sandevgo/vrmentor/internal/transport/cli"
	"github.com/sandevgo/vrmentor/internal/transport/telegram"
	"github.com/sandevgo/vrmentor/pkg/log"
	"github.com/sandevgo/vrmentor/pkg/retry"
	"github.com/sandevgo/vrmentor/pkg/srv"
)

// graphBackend is what the commands need from either graph store.
type graphBackend interface {
	core.GraphStore
	core.CatalogImporter
	core.CatalogLister
	core.StatsProvider
}

// stores holds the data layer shared by every command.
type stores struct {
	app       *config.AppConfig
	retrieval *config.RetrievalConfig

	db       *sql.DB
	local    *sqlite.GraphRepo
	index    *sqlite.SkillIndex
	graph    graphBackend
	embedder *rag.Embedder
	active   *retrieval.ActiveSkills
	snapshot *redis.SkillSnapshot

	cleanup []srv.Service
}

// engine adds the LLM-backed pipeline on top of stores.
type engine struct {
	*stores

	provider  *config.ProviderConfig
	ai        *llm.DynamicProvider
	guarded   core.AIProvider
	recommend *recommend.Service
}

func loadEnv(ctx context.Context) {
	if err := config.LoadEnvFile(ctx, config.GetEnvFilePath()); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to load .env file")
	}
}

func newStores(ctx context.Context) (*stores, error) {
	loadEnv(ctx)

	s := &stores{
		app:       config.NewAppConfig(ctx),
		retrieval: config.NewRetrievalConfig(ctx),
	}

	db, err := sqlite.NewDB(ctx, s.app.GetDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s.db = db
	s.cleanup = append(s.cleanup, srv.NewCleanup(db.Close))

	s.local = sqlite.NewGraphRepo(db)
	s.index = sqlite.NewSkillIndex(db)
	s.graph = s.local

	graphCfg := config.NewGraphConfig(ctx)
	if graphCfg.IsNeo4j() {
		client, err := neo4jdb.NewClient(ctx, graphCfg)
		if err != nil {
			s.close(ctx)
			return nil, err
		}
		s.cleanup = append(s.cleanup, srv.NewFunc(nil, client.Close))
		s.graph = neo4jdb.NewGraphStore(client)
	}

	s.embedder = rag.NewEmbedder(config.NewEmbeddingConfig(ctx), retry.NewRetrier(retry.NewReadConfig(s.retrieval.MaxRetries)))

	opts := []retrieval.ActiveSkillsOption{
		retrieval.WithGraphRetrier(retry.NewRetrier(retry.NewReadConfig(s.retrieval.MaxRetries))),
		retrieval.WithGraphTimeout(s.retrieval.GraphTimeout),
		retrieval.WithRefreshHook(metrics.RecordActiveSkillRefresh),
	}
	redisCfg := config.NewRedisConfig(ctx)
	if redisCfg.Enabled() {
		snap, err := redis.NewSkillSnapshot(ctx, redisCfg)
		if err != nil {
			s.close(ctx)
			return nil, err
		}
		s.snapshot = snap
		s.cleanup = append(s.cleanup, srv.NewCleanup(snap.Close))
		opts = append(opts, retrieval.WithSnapshot(snap))
	}
	s.active = retrieval.NewActiveSkills(s.graph, opts...)

	log.FromCtx(ctx).Debug().
		Str("graph", graphCfg.Backend).
		Bool("shared_snapshot", s.snapshot != nil).
		Msg("stores ready")
	return s, nil
}

func (s *stores) close(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), srv.ShutdownTimeout)
	defer cancel()
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		if err := s.cleanup[i].Shutdown(shutdownCtx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("cleanup failed")
		}
	}
}

func newEngine(ctx context.Context) (*engine, error) {
	st, err := newStores(ctx)
	if err != nil {
		return nil, err
	}

	e := &engine{stores: st, provider: config.NewProviderConfig(ctx)}

	e.ai, err = llm.NewDynamicProvider(ctx, e.provider)
	if err != nil {
		st.close(ctx)
		return nil, fmt.Errorf("initialize llm provider: %w", err)
	}
	e.guarded = llm.NewGuarded(ctx, e.ai, llm.DefaultBreakerConfig())

	cfg := st.retrieval
	search := retrieval.NewSkillSearch(st.embedder, st.index, cfg.EmbedTimeout)
	retriever := retrieval.NewRetriever(search, st.index, st.graph, st.active, *cfg)

	e.recommend = recommend.NewService(
		ranking.NewUnderstander(e.guarded, cfg.LLMTimeout),
		retriever,
		ranking.NewRanker(e.guarded, cfg.LLMTimeout),
		recommend.WithMinSkillCandidates(cfg.MinSkillCandidates),
	)
	return e, nil
}

func (e *engine) newAgent(ctx context.Context) *agent.Agent {
	agentCfg := config.NewAgentConfig(ctx)
	exec := agent.NewExecutor(e.recommend, e.retrieval.DefaultTopK, agentCfg.ToolResultMaxTokens)
	sessions := sqlite.NewSessionRepo(e.db, 0)
	return agent.NewAgent(e.guarded, sessions, exec, *agentCfg)
}

func (e *engine) newRouter() *command.Router {
	return command.New(command.NewCommands(command.Deps{
		Provider: e.provider.GetProvider(),
		Models:   e.ai,
		Cache:    e.active,
		Index:    e.index,
		Stats:    e.graph,
		Search:   e.recommend,
		TopK:     e.retrieval.DefaultTopK,
		Format:   agent.FormatItems,
	}))
}

// NewServices wires the long-running process. stop ends the process when the
// terminal chat exits.
func NewServices(ctx context.Context, stop context.CancelFunc) []srv.Service {
	logger := log.FromCtx(ctx)

	e, err := newEngine(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize engine")
	}
	services := append([]srv.Service{}, e.cleanup...)

	// Warm the cache so the first bridged request does not pay for the scan.
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := e.active.Refresh(warmCtx); err != nil {
		logger.Warn().Err(err).Msg("initial active skill refresh failed, retrying on first use")
	}
	cancel()

	if e.snapshot != nil {
		services = append(services, retrieval.NewSyncer(e.active, e.index, config.NewRedisConfig(ctx).SyncInterval))
	}

	if e.app.IsMetricsEnabled() {
		services = append(services, metrics.NewServer(e.app.MetricsAddr))
	}

	ag := e.newAgent(ctx)
	router := e.newRouter()

	transports, err := initTransports(ctx, e.app, ag, router, stop)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	return append(services, transports...)
}

func initTransports(
	ctx context.Context,
	cfg *config.AppConfig,
	ag *agent.Agent,
	router core.CmdRouter,
	stop context.CancelFunc,
) ([]srv.Service, error) {
	var services []srv.Service

	if cfg.IsTelegramSelected() {
		bot, err := telegram.NewBot(ctx, config.NewTelegramConfig(ctx), ag, router)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if cfg.EnableCLI {
		rl, err := cli.NewReadLine(ag, router, cfg)
		if err != nil {
			return nil, err
		}
		services = append(services, srv.NewFunc(func(ctx context.Context) error {
			defer stop()
			return rl.Start(ctx)
		}, rl.Shutdown))
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("no transport enabled, set VRMENTOR_ENABLE_CLI or VRMENTOR_ENABLE_TELEGRAM")
	}
	return services, nil
}
