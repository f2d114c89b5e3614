package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"skill-journal/internal/config"
	"skill-journal/internal/database"
	"skill-journal/internal/database/migration"
	dbpostgres "skill-journal/internal/database/postgres"
	"skill-journal/internal/docstore"
	"skill-journal/internal/docstore/memory"
	docpostgres "skill-journal/internal/docstore/postgres"
	"skill-journal/internal/infrastructure/cache"
	"skill-journal/internal/infrastructure/oauth"
	"skill-journal/internal/metrics"
	"skill-journal/internal/pkg/jwt"
	"skill-journal/internal/pkg/sanitize"
	"skill-journal/internal/repository"
	"skill-journal/internal/usecase"
	ucauth "skill-journal/internal/usecase/auth"
	"skill-journal/internal/ws"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Container owns every long-lived dependency of the server and the CLI.
type Container struct {
	Config config.Config
	Logger *slog.Logger

	DB    database.DB
	Redis *cache.Redis
	Bus   *cache.Bus
	Docs  docstore.Store

	Registry *prometheus.Registry
	Metrics  *metrics.Collector

	JWT     jwt.Service
	Users   *repository.PostgresUserRepository
	Auth    *usecase.Auth
	Journal *usecase.Journal
	Hub     *ws.Hub

	closers []func()
}

// NewContainer connects to Postgres, applies migrations and wires the rest.
// Users always live in Postgres; Store.Driver only selects the document store.
func NewContainer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{Config: cfg, Logger: logger}

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	c.DB = db
	c.closers = append(c.closers, db.Close)

	if err := (migration.Runner{Logger: logger}).Up(ctx, db.SQLDB()); err != nil {
		c.Close()
		return nil, err
	}

	c.Redis = cache.NewRedis(cfg.Redis, logger)
	c.closers = append(c.closers, func() { _ = c.Redis.Close() })
	c.Bus = cache.NewBus(c.Redis, cfg.Redis.Channel, logger)

	c.Registry = metrics.NewRegistry()
	c.Metrics = metrics.NewCollector(c.Registry)

	docs, err := c.openDocs(db)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Docs = metrics.InstrumentStore(docs, c.Metrics)

	c.JWT = jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	c.Users = repository.NewPostgresUserRepository(db)
	accounts := ucauth.NewService(c.Users, c.Docs, oauth.New(cfg.OAuth), logger)
	c.Auth = usecase.NewAuthUsecase(accounts, c.JWT, cache.NewDenylist(c.Redis), logger)
	c.Journal = usecase.NewJournalUsecase(c.Docs, sanitize.New(), logger)
	c.Hub = ws.NewHub(logger, c.Metrics)

	logger.Info("container ready",
		slog.String("store_driver", cfg.Store.Driver),
		slog.Bool("redis", c.Redis.Available()),
	)
	return c, nil
}

func (c *Container) openDocs(db database.Querier) (docstore.Store, error) {
	switch strings.ToLower(strings.TrimSpace(c.Config.Store.Driver)) {
	case DriverMemory:
		c.Logger.Warn("document store is in memory, journal data is lost on restart")
		return memory.New(), nil
	case "", DriverPostgres:
		s := docpostgres.New(db, c.Bus, c.Logger, docpostgres.WithOrderableFields(c.Config.Store.OrderableFields...))
		c.closers = append(c.closers, s.Close)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.Config.Store.Driver)
	}
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
