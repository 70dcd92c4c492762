// Package bootstrap wires configuration into stores, caches and the
// application handlers shared by the server and MCP binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/scrimhub/scrim-lineup/config"
	"github.com/scrimhub/scrim-lineup/internal/application/command"
	"github.com/scrimhub/scrim-lineup/internal/application/query"
	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/infrastructure/persistence/memory"
	"github.com/scrimhub/scrim-lineup/internal/infrastructure/persistence/postgres"
	"github.com/scrimhub/scrim-lineup/internal/infrastructure/persistence/redis"
	"github.com/scrimhub/scrim-lineup/internal/infrastructure/persistence/sqlite"
	"github.com/scrimhub/scrim-lineup/internal/infrastructure/service"
	"github.com/scrimhub/scrim-lineup/internal/interface/http/handlers"
	"github.com/scrimhub/scrim-lineup/pkg/circuitbreaker"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

// Runtime holds the wired application. Close releases everything it opened.
type Runtime struct {
	Config  *config.Config
	Log     *logger.Logger
	Catalog *lineup.Catalog
	Store   lineup.MatchRecordStore
	Lineups lineup.LineupRepository
	Cache   lineup.LineupCache // nil when Redis is disabled or unreachable
	Health  *handlers.CompositeHealthChecker

	RegisterPlayer  *command.RegisterPlayerHandler
	RecordMatch     *command.RecordMatchHandler
	SaveLineup      *command.SavedLineupHandler
	GetPlayer       *query.GetPlayerHandler
	PlayerScores    *query.PlayerScoresHandler
	RecommendLineup *query.RecommendLineupHandler
	Compositions    *query.CompositionHandler
	SavedLineups    *query.SavedLineupsHandler

	closers []func() error
}

// NewLogger builds the process logger from observability settings.
func NewLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Format = logger.ParseFormat(cfg.Observability.LogFormat)
	return logger.New(opts).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
}

// New opens the configured backends and builds the handlers. On error
// everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *Runtime, err error) {
	if log == nil {
		log = logger.Nop()
	}
	rt := &Runtime{
		Config: cfg,
		Log:    log,
		Health: handlers.NewCompositeHealthChecker(cfg.App.Version),
	}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	rt.Catalog, err = config.LoadCatalog(cfg.Engine.TemplatesFile)
	if err != nil {
		return nil, fmt.Errorf("load template catalog: %w", err)
	}

	store, err := rt.openStores(ctx)
	if err != nil {
		return nil, err
	}
	rt.Store = service.NewResilientStore(store, service.ResilientStoreConfig{
		MaxAttempts:      cfg.Resilience.RetryMaxAttempts,
		InitialDelay:     cfg.Resilience.RetryInitialDelay,
		MaxDelay:         cfg.Resilience.RetryMaxDelay,
		BreakerThreshold: cfg.Resilience.BreakerThreshold,
		BreakerTimeout:   cfg.Resilience.BreakerTimeout,
	}, log)
	rt.Health.AddCheck("store", handlers.NewPingCheck(rt.Store))

	rt.openCache(ctx)
	rt.buildHandlers()
	return rt, nil
}

func (rt *Runtime) openStores(ctx context.Context) (lineup.MatchRecordStore, error) {
	db := rt.Config.Database
	log := rt.Log.With(logger.Component("bootstrap"), logger.String("driver", string(db.Driver)))

	switch db.Driver {
	case config.DriverPostgres:
		conn, err := postgres.NewConnection(ctx, db.URL, postgres.PoolOptions{
			MaxConns:        int32(db.MaxOpenConns),
			MinConns:        int32(db.MaxIdleConns),
			MaxConnLifetime: db.ConnMaxLifetime,
			MaxConnIdleTime: db.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		rt.closers = append(rt.closers, func() error { conn.Close(); return nil })

		if db.AutoMigrate {
			n, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
			log.Info("migrations applied", logger.Int("count", n))
		}
		rt.Lineups = postgres.NewLineupRepository(conn)
		log.Info("match record store ready")
		return postgres.NewMatchStore(conn), nil

	case config.DriverSQLite:
		sdb, err := sqlite.Open(ctx, db.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		rt.closers = append(rt.closers, sdb.Close)
		rt.Lineups = sqlite.NewLineupRepository(sdb)
		log.Info("match record store ready", logger.String("path", db.SQLitePath))
		return sqlite.NewMatchStore(sdb), nil

	case config.DriverMemory:
		rt.Lineups = memory.NewLineupRepository()
		log.Warn("using in-memory store, data is lost on exit")
		return memory.NewMatchStore(), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", db.Driver)
	}
}

// openCache connects to Redis. An unreachable Redis disables caching
// instead of failing startup.
func (rt *Runtime) openCache(ctx context.Context) {
	rc := rt.Config.Redis
	log := rt.Log.With(logger.Component("lineup-cache"))
	if rc.Disabled {
		log.Info("lineup cache disabled")
		return
	}

	cache, err := redis.NewCache(ctx, redis.Config{
		URL:          rc.URL,
		Host:         rc.Host,
		Port:         rc.Port,
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
	})
	if err != nil {
		log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		return
	}
	rt.closers = append(rt.closers, cache.Close)

	rt.Cache = redis.NewLineupCache(cache, func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed", logger.String("breaker", name),
			logger.String("from", from.String()), logger.String("to", to.String()))
	})
	rt.Health.AddOptionalCheck("lineup_cache", handlers.NewPingCheck(cache))
	log.Info("Redis connection established")
}

func (rt *Runtime) buildHandlers() {
	cfg := rt.Config
	ttl := cfg.Redis.LineupTTL

	rt.RegisterPlayer = command.NewRegisterPlayerHandler(rt.Store, rt.Log)
	rt.RecordMatch = command.NewRecordMatchHandler(rt.Store, cfg.Engine.ExpectedMatches, rt.Log)
	rt.SaveLineup = command.NewSavedLineupHandler(rt.Lineups, rt.Cache, ttl, rt.Log)

	rt.GetPlayer = query.NewGetPlayerHandler(rt.Store)
	rt.PlayerScores = query.NewPlayerScoresHandler(rt.Store)
	rt.RecommendLineup = query.NewRecommendLineupHandler(rt.Store, cfg.Engine.MaxRosterSize, rt.Log)
	rt.Compositions = query.NewCompositionHandler(rt.Catalog, rt.Store, cfg.Engine.MaxRosterSize, cfg.Engine.CompositionTimeout, rt.Log)
	rt.SavedLineups = query.NewSavedLineupsHandler(rt.Lineups, rt.Cache, ttl, rt.Log)
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
