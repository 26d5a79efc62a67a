// Package dashboard assembles the operations dashboard backend from config:
// the data service, its optional remote backend, blob storage and the HTTP
// API.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"restaurant-ops/internal/api"
	"restaurant-ops/internal/auth"
	"restaurant-ops/internal/common/httpx"
	"restaurant-ops/internal/common/logger"
	"restaurant-ops/internal/config"
	"restaurant-ops/internal/connections/database"
	"restaurant-ops/internal/connections/rabbitmq"
	"restaurant-ops/internal/dataservice"
	"restaurant-ops/internal/metrics"
	"restaurant-ops/internal/remote"
	"restaurant-ops/internal/remote/amqpfeed"
	"restaurant-ops/internal/remote/postgres"
	"restaurant-ops/internal/seed"
	"restaurant-ops/internal/store"
	"restaurant-ops/internal/vault"
)

type App struct {
	cfg *config.Config
	log *logger.Logger
	reg *prometheus.Registry

	pool   *pgxpool.Pool
	broker *rabbitmq.Client
	checks map[string]api.Check

	svc *dataservice.Service
}

// Build connects to whatever cfg enables and constructs the data service.
// Nothing is started yet; Close releases the connections.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	return build(ctx, cfg, log, (*App).connectRemote)
}

type connectFunc func(*App, context.Context) (remote.Store, remote.Feed, error)

func build(ctx context.Context, cfg *config.Config, log *logger.Logger, connect connectFunc) (_ *App, err error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{
		cfg:    cfg,
		log:    log,
		reg:    prometheus.NewRegistry(),
		checks: map[string]api.Check{},
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()
	a.reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := dataservice.Options{
		Auth:                  auth.FromEmail(cfg.Auth.Email),
		Logger:                log,
		Metrics:               metrics.New(a.reg),
		Latency:               cfg.Demo.Latency,
		PermissiveTransitions: !cfg.Transitions.Strict,
	}

	if cfg.RemoteConfigured() {
		rs, feed, err := connect(a, ctx)
		if err != nil {
			return nil, err
		}
		opts.Remote, opts.Feed = rs, feed
		// Guests and documents have no remote table.
		if cfg.Demo.Seed {
			opts.Seed = store.Dataset{Guests: seed.Guests(), Documents: seed.Documents()}
		}
	} else {
		log.Info("remote_not_configured", map[string]any{"seed": cfg.Demo.Seed, "latency": cfg.Demo.Latency.String()})
		if cfg.Demo.Seed {
			opts.Seed = seed.Demo(time.Now())
		}
	}

	if cfg.Vault.Enabled() {
		s3, err := vault.NewS3(ctx, cfg.Vault)
		if err != nil {
			return nil, fmt.Errorf("vault: %w", err)
		}
		opts.Vault = s3
		log.Info("vault_enabled", map[string]any{"bucket": cfg.Vault.Bucket, "prefix": cfg.Vault.Prefix})
	}

	a.svc = dataservice.New(opts)
	return a, nil
}

func (a *App) connectRemote(ctx context.Context) (remote.Store, remote.Feed, error) {
	pool, err := database.Connect(ctx, a.cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	a.pool = pool
	a.checks["database"] = func(ctx context.Context) error { return pool.Ping(ctx) }

	if err := postgres.Migrate(ctx, pool); err != nil {
		return nil, nil, err
	}
	rs := postgres.NewStore(pool)

	switch a.cfg.Remote.Feed {
	case config.FeedRabbitMQ:
		client, err := rabbitmq.Dial(a.cfg.RabbitMQ)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq: %w", err)
		}
		a.broker = client
		if err := client.DeclareFanout(amqpfeed.Exchange); err != nil {
			return nil, nil, fmt.Errorf("declare %s: %w", amqpfeed.Exchange, err)
		}
		a.checks["rabbitmq"] = func(context.Context) error { return client.Ping() }
		a.log.Info("remote_configured", map[string]any{"feed": config.FeedRabbitMQ, "exchange": amqpfeed.Exchange})
		return rs, amqpfeed.New(client, a.cfg.Service.Name, a.log), nil
	default:
		a.log.Info("remote_configured", map[string]any{"feed": config.FeedPostgres, "channel": postgres.Channel})
		return rs, postgres.NewFeed(pool, a.log), nil
	}
}

func (a *App) Service() *dataservice.Service { return a.svc }

func (a *App) Handler() http.Handler {
	return api.NewRouter(api.Deps{
		Service:  a.svc,
		Logger:   a.log,
		Gatherer: a.reg,
		Checks:   a.checks,
	})
}

// Run starts the service and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.svc.Start(ctx)
	defer a.svc.Stop()

	srv := httpx.New(a.cfg.HTTP.Addr, a.Handler(), a.cfg.HTTP.ShutdownTimeout)
	a.log.Info("http_listening", map[string]any{"addr": a.cfg.HTTP.Addr, "remote": a.svc.RemoteConfigured()})
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.log.Info("http_stopped", nil)
	return nil
}

func (a *App) Close() {
	if a.svc != nil {
		a.svc.Stop()
	}
	a.broker.Close()
	if a.pool != nil {
		a.pool.Close()
	}
}
