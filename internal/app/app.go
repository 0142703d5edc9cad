// Package app arma el grafo de dependencias del servicio: config → store →
// eventos → providers → bridge → HTTP. Un único punto de wiring para que
// serve, decay y migrate compartan la misma construcción.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/fabula/internal/bridge"
	"github.com/dropDatabas3/fabula/internal/config"
	"github.com/dropDatabas3/fabula/internal/events"
	httpserver "github.com/dropDatabas3/fabula/internal/http"
	"github.com/dropDatabas3/fabula/internal/http/handlers"
	"github.com/dropDatabas3/fabula/internal/identity"
	"github.com/dropDatabas3/fabula/internal/jobs/decay"
	"github.com/dropDatabas3/fabula/internal/jobs/notify"
	"github.com/dropDatabas3/fabula/internal/jobs/retention"
	"github.com/dropDatabas3/fabula/internal/jobs/scheduler"
	"github.com/dropDatabas3/fabula/internal/jwt"
	"github.com/dropDatabas3/fabula/internal/metrics"
	"github.com/dropDatabas3/fabula/internal/observability/logger"
	"github.com/dropDatabas3/fabula/internal/provider"
	"github.com/dropDatabas3/fabula/internal/provider/vk"
	"github.com/dropDatabas3/fabula/internal/provider/yandex"
	"github.com/dropDatabas3/fabula/internal/rate"
	"github.com/dropDatabas3/fabula/internal/store/adapters/pg"
	"github.com/dropDatabas3/fabula/internal/store/core"
	"github.com/dropDatabas3/fabula/internal/store/eventing"
)

// Container sostiene las piezas construidas del servicio.
type Container struct {
	Cfg *config.Config

	// Repo es el repositorio decorado con eventos; Raw el adapter pelado
	// (para jobs que no deben disparar handlers reactivos).
	Repo core.Repository
	Raw  *pg.Store

	Bus       *events.Bus
	Providers *provider.Registry
	Issuer    *jwt.Issuer
	Bridge    *bridge.Service
	Limiter   rate.Limiter
	Registry  *prometheus.Registry

	Decay          *decay.Job
	DecayScheduler *scheduler.Scheduler

	Server *httpserver.Server

	redis *rdb.Client
}

// New construye el container completo. El caller es dueño del ciclo de vida:
// Bus.Start, Server.Start y Close.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Cfg: cfg}
	log := logger.L()

	// ── Store ──
	opts := pg.Options{MaxConns: cfg.Storage.Postgres.MaxConns}
	if s := cfg.Storage.Postgres.ConnMaxLifetime; s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("app: conn_max_lifetime: %w", err)
		}
		opts.ConnMaxLifetime = d
	}
	store, err := pg.New(ctx, cfg.Storage.DSN, opts)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}
	c.Raw = store

	// ── Eventos + handlers reactivos ──
	c.Bus = events.NewBus(cfg.Jobs.Events.Buffer, cfg.Jobs.Events.Workers)
	c.Repo = eventing.Wrap(store, c.Bus)

	pruner := retention.New(store, cfg.Jobs.Retention.MaxStories)
	c.Bus.Subscribe(events.KindStoryCreated, pruner.HandleStoryCreated)

	fanout := notify.New(store)
	c.Bus.Subscribe(events.KindAchievementCreated, fanout.HandleAchievementCreated)

	// ── Providers ──
	c.Providers = provider.NewRegistry()
	if cfg.Providers.VK.Enabled {
		c.Providers.Register(vk.New(vk.Config{
			APIBase:    cfg.Providers.VK.APIBase,
			APIVersion: cfg.Providers.VK.APIVersion,
			Timeout:    cfg.Providers.Timeout,
		}))
	}
	if cfg.Providers.Yandex.Enabled {
		c.Providers.Register(yandex.New(yandex.Config{
			InfoURL:    cfg.Providers.Yandex.InfoURL,
			AvatarBase: cfg.Providers.Yandex.AvatarBase,
			Timeout:    cfg.Providers.Timeout,
		}))
	}
	log.Info("providers enabled", logger.Any("providers", c.Providers.Names()))

	// ── Firma ──
	ks, err := buildKeystore(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	c.Issuer = jwt.NewIssuer(cfg.JWT.Issuer, cfg.JWT.Audience, ks, cfg.AccessTTL())

	// ── Bridge ──
	resolver := identity.NewResolver(c.Repo)
	c.Bridge = bridge.NewService(c.Providers, resolver, c.Issuer)

	// ── Rate limiting ──
	c.Limiter = rate.Noop{}
	if cfg.Rate.Enabled {
		switch cfg.Rate.Backend {
		case "redis":
			c.redis = rdb.NewClient(&rdb.Options{
				Addr: cfg.Rate.Redis.Addr,
				DB:   cfg.Rate.Redis.DB,
			})
			c.Limiter = rate.NewRedisLimiter(c.redis, cfg.Rate.Redis.Prefix, cfg.Rate.Token.Limit, cfg.TokenWindow())
		default:
			c.Limiter = rate.NewMemoryLimiter(cfg.Rate.Token.Limit, cfg.TokenWindow())
		}
	}

	// ── Métricas ──
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(collectors.NewGoCollector())
	c.Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(c.Registry); err != nil {
		store.Close()
		return nil, fmt.Errorf("app: register metrics: %w", err)
	}

	// ── Decay ──
	c.Decay = decay.New(store, cfg.Jobs.Decay.Workers, cfg.Jobs.Decay.PageSize)
	if cfg.Jobs.Decay.Enabled {
		clock, err := config.ParseClock(cfg.Jobs.Decay.At)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("app: decay schedule: %w", err)
		}
		loc, err := time.LoadLocation(cfg.Jobs.Decay.Timezone)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("app: decay timezone: %w", err)
		}
		hour := int(clock / time.Hour)
		minute := int(clock % time.Hour / time.Minute)
		c.DecayScheduler = scheduler.New("decay", hour, minute, loc, func(ctx context.Context) error {
			_, err := c.Decay.Run(ctx)
			return err
		})
	}

	// ── HTTP ──
	c.Server = httpserver.NewServer(
		httpserver.Config{
			Addr:               cfg.Server.Addr,
			CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		},
		httpserver.Deps{
			Token:    handlers.NewTokenHandler(c.Bridge),
			Content:  handlers.NewContentHandler(c.Repo),
			Health:   handlers.NewHealthHandler(store),
			Limiter:  c.Limiter,
			Registry: c.Registry,
		},
	)

	return c, nil
}

// Close libera recursos en orden inverso: primero el bus (drena handlers que
// aún escriben al store), después las conexiones.
func (c *Container) Close() {
	if c.Bus != nil {
		c.Bus.Close()
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.Raw != nil {
		c.Raw.Close()
	}
}

func buildKeystore(cfg *config.Config) (*jwt.Keystore, error) {
	switch {
	case cfg.JWT.SigningKey != "":
		return jwt.KeystoreFromSeed(cfg.JWT.SigningKey)
	case cfg.JWT.SigningKeyFile != "":
		return jwt.KeystoreFromFile(cfg.JWT.SigningKeyFile)
	case cfg.App.Env == "prod":
		// En prod una clave efímera invalidaría todas las sesiones en cada
		// deploy; mejor fallar el arranque.
		return nil, fmt.Errorf("app: jwt.signing_key is required in prod")
	default:
		logger.L().Warn("using ephemeral signing key, sessions will not survive restarts")
		return jwt.EphemeralKeystore()
	}
}
