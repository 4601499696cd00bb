package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	pkgch "EdgePulse/pkg/clickhouse"
	"EdgePulse/pkg/config"
	xhttp "EdgePulse/pkg/http"
	pkgkafka "EdgePulse/pkg/kafka"
	applogger "EdgePulse/pkg/logger"
	"EdgePulse/pkg/postgres"
	"EdgePulse/pkg/scheduler"
)

// PriceWatcher is the long-running stream consumer started by the app.
type PriceWatcher interface {
	Start(ctx context.Context, symbols []string) error
}

// App encapsulates the engine's process lifecycle: HTTP server,
// scheduled jobs, the live price stream and infrastructure clients.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	scheduler  *scheduler.Scheduler
	watcher    PriceWatcher
	httpServer *xhttp.Server

	pg       *postgres.Client
	ch       *pkgch.Client
	rdb      *redis.Client
	producer *pkgkafka.Producer
}

// New creates the app with all dependencies injected.
func New(cfg *config.Config, log *applogger.Logger, handler xhttp.Handler,
	sched *scheduler.Scheduler, watcher PriceWatcher,
	pg *postgres.Client, ch *pkgch.Client, rdb *redis.Client,
	producer *pkgkafka.Producer) *App {
	return &App{
		cfg:       cfg,
		logger:    log,
		handler:   handler,
		scheduler: sched,
		watcher:   watcher,
		pg:        pg,
		ch:        ch,
		rdb:       rdb,
		producer:  producer,
	}
}

// Run starts everything and blocks until an interrupt arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	a.scheduler.Start()

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Start(ctx, a.cfg.Engine.Universe); err != nil {
				a.logger.Error("price watcher stopped", applogger.Error(err))
			}
		}()
		a.logger.Info("price watcher started",
			applogger.Strings("symbols", a.cfg.Engine.Universe))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops services in reverse start order and closes clients.
func (a *App) shutdown() error {
	a.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("redis close error", applogger.Error(err))
		}
	}
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.pg != nil {
		a.pg.Close()
	}

	a.logger.Info("shutdown complete")
	return nil
}
