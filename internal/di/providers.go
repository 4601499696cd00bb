package di

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/internal/domain/service"
	"EdgePulse/internal/handler/api"
	internalrepo "EdgePulse/internal/repository"
	"EdgePulse/internal/service/binance"
	icache "EdgePulse/internal/service/cache"
	"EdgePulse/internal/service/ratelimit"
	"EdgePulse/internal/services/fusion"
	"EdgePulse/internal/services/planner"
	"EdgePulse/internal/services/risk"
	"EdgePulse/internal/services/sentiment"
	"EdgePulse/internal/usecase"
	pkgch "EdgePulse/pkg/clickhouse"
	"EdgePulse/pkg/config"
	xhttp "EdgePulse/pkg/http"
	pkgkafka "EdgePulse/pkg/kafka"
	"EdgePulse/pkg/logger"
	"EdgePulse/pkg/metrics"
	"EdgePulse/pkg/postgres"
	"EdgePulse/pkg/scheduler"
	"EdgePulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
	})
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePostgresClient creates the Postgres pool.
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := postgres.New(ctx,
		postgres.WithAddress(cfg.Postgres.Host, cfg.Postgres.Port),
		postgres.WithDatabase(cfg.Postgres.Database),
		postgres.WithCredentials(cfg.Postgres.User, cfg.Postgres.Password),
		postgres.WithSSLMode(cfg.Postgres.SSLMode),
		postgres.WithMaxConns(cfg.Postgres.MaxConns),
		postgres.WithConnTimeout(cfg.Postgres.ConnTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}
	return client, nil
}

// ProvideClickHouseClient creates the ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideRedisClient creates the shared Redis connection.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideKafkaProducer creates the Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalStore creates the Postgres-backed signal store with its
// schema applied.
func ProvideSignalStore(pg *postgres.Client) (repository.SignalStore, error) {
	store := internalrepo.NewPostgresSignalStore(pg.Pool)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal store schema: %w", err)
	}
	return store, nil
}

// ProvideTradeLedger creates the ClickHouse trade ledger with its
// schema applied.
func ProvideTradeLedger(ch *pkgch.Client) (repository.TradeLedger, error) {
	ledger := internalrepo.NewClickHouseTradeLedger(ch.DB())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ledger.Init(ctx); err != nil {
		return nil, fmt.Errorf("trade ledger schema: %w", err)
	}
	return ledger, nil
}

// ProvideStateStore creates the Redis-backed engine state store.
func ProvideStateStore(rdb *redis.Client) repository.StateStore {
	return internalrepo.NewRedisStateStore(rdb)
}

// ProvideSignalPublisher creates the Kafka signal publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideRateLimiter creates the shared venue rate limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideCache creates the byte cache. Without a Redis address it
// degrades to the in-process TTL cache.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Addr == "" {
		return icache.NewTTLCache()
	}
	return icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideVenueClient creates the Binance REST client.
func ProvideVenueClient(cfg *config.Config, limiter *ratelimit.Limiter) *binance.Client {
	return binance.New(binance.Config{
		BaseURL:        cfg.Venue.BaseURL,
		APIKey:         cfg.Venue.APIKey,
		APISecret:      cfg.Venue.APISecret,
		Timeout:        cfg.Venue.Timeout,
		RequestsPerSec: cfg.Venue.RequestsPerSec,
		Burst:          cfg.Venue.Burst,
	}, limiter)
}

// ProvideMarketDataSource exposes the venue client as the market data
// interface.
func ProvideMarketDataSource(client *binance.Client) service.MarketDataSource {
	return client
}

// ProvidePriceStream creates the venue WebSocket last-price stream.
func ProvidePriceStream(cfg *config.Config) repository.PriceStream {
	return binance.NewStream(cfg.Venue.WebSocketURL, cfg.Venue.ReconnectDelay, cfg.Venue.PingInterval)
}

// ProvideSentiment creates the external sentiment source.
func ProvideSentiment(cfg *config.Config, c icache.BytesCache, log *logger.Logger) *sentiment.Service {
	return sentiment.New(sentiment.Config{
		NewsURL:    cfg.Sentiment.NewsURL,
		WhaleURL:   cfg.Sentiment.WhaleURL,
		OnChainURL: cfg.Sentiment.OnChainURL,
		Timeout:    cfg.Sentiment.Timeout,
		CacheTTL:   cfg.Sentiment.CacheTTL,
	}, c, log)
}

// ProvidePlanner creates the remote planner with heuristic fallback.
func ProvidePlanner(cfg *config.Config, log *logger.Logger) service.TradePlanner {
	remote := planner.NewRemote(cfg.Planner.URL, cfg.Planner.Timeout)
	heuristic := planner.NewHeuristic(rand.New(rand.NewSource(time.Now().UnixNano())))
	return planner.NewService(remote, heuristic, log)
}

// ProvideRiskGate creates the risk gate from config.
func ProvideRiskGate(cfg *config.Config, ledger repository.TradeLedger, store repository.SignalStore,
	state repository.StateStore, venue *binance.Client, log *logger.Logger) (*risk.Gate, error) {
	loc, err := time.LoadLocation(cfg.Risk.TradingHoursZone)
	if err != nil {
		return nil, fmt.Errorf("trading hours zone: %w", err)
	}
	return risk.New(risk.Config{
		Mode:              risk.Mode(cfg.Risk.Mode),
		HasVenueAuth:      venue.HasAuth(),
		TradingHoursStart: cfg.Risk.TradingHoursStart,
		TradingHoursEnd:   cfg.Risk.TradingHoursEnd,
		Location:          loc,
		NewsMute:          cfg.Risk.NewsMute,
		BreakerThreshold:  cfg.Risk.BreakerThreshold,
		MaxDailyTrades:    cfg.Risk.MaxDailyTrades,
		MaxSymbolSignals:  cfg.Risk.MaxSymbolSignals,
		RRMin:             cfg.Risk.RRMin,
		EdgeThreshold:     cfg.Risk.EdgeThreshold,
		VolThrottleATRPct: cfg.Risk.VolThrottleATRPct,
	}, ledger, store, state, log), nil
}

// ProvideEvaluator assembles the per-symbol evaluation pipeline.
func ProvideEvaluator(cfg *config.Config, source service.MarketDataSource,
	plan service.TradePlanner, sent *sentiment.Service, limiter *ratelimit.Limiter,
	m repository.Metrics, log *logger.Logger) *usecase.Evaluator {
	w := cfg.Engine.Weights
	scorer := fusion.New(models.FusionWeights{
		FVG:     w.FVG,
		RR:      w.RR,
		OBI:     w.OBI,
		News:    w.News,
		Whale:   w.Whale,
		OnChain: w.OnChain,
	})
	collector := usecase.NewCollector(source, fallbackSource(cfg, limiter), log)
	return usecase.NewEvaluator(collector, scorer, plan, sent, m, log,
		repository.NormalizeTimeframe(cfg.Engine.Timeframe),
		confirmTimeframe(cfg),
		cfg.Engine.CandleLimit)
}

// fallbackSource builds the secondary venue client when one is
// configured. The collector treats a nil fallback as no failover.
// Only public market data is read from it, so no credentials.
func fallbackSource(cfg *config.Config, limiter *ratelimit.Limiter) service.MarketDataSource {
	if cfg.Venue.FallbackURL == "" {
		return nil
	}
	return binance.New(binance.Config{
		BaseURL:        cfg.Venue.FallbackURL,
		Timeout:        cfg.Venue.Timeout,
		RequestsPerSec: cfg.Venue.RequestsPerSec,
		Burst:          cfg.Venue.Burst,
	}, limiter)
}

// confirmTimeframe resolves the confirm-series timeframe. Empty,
// "none" and a value that resolves to the base timeframe all disable
// the agreement bonus instead of silently re-reading the same candles.
func confirmTimeframe(cfg *config.Config) repository.Timeframe {
	raw := strings.ToLower(strings.TrimSpace(cfg.Engine.ConfirmTimeframe))
	if raw == "" || raw == "none" || raw == "off" {
		return ""
	}
	tf := repository.NormalizeTimeframe(raw)
	if tf == repository.NormalizeTimeframe(cfg.Engine.Timeframe) {
		return ""
	}
	return tf
}

// ProvideScanner assembles the scan pipeline.
func ProvideScanner(evaluator *usecase.Evaluator, gate *risk.Gate, store repository.SignalStore,
	pub repository.SignalPublisher, m repository.Metrics, log *logger.Logger) *usecase.Scanner {
	return usecase.NewScanner(evaluator, gate, store, pub, m, log)
}

// ProvideLifecycle assembles the signal lifecycle manager.
func ProvideLifecycle(cfg *config.Config, store repository.SignalStore,
	m repository.Metrics, log *logger.Logger) *usecase.Lifecycle {
	return usecase.NewLifecycle(store, m, log, usecase.LifecycleConfig{
		ApproveConfidence: cfg.Lifecycle.AutoApproveConf,
		ApproveAfter:      cfg.Lifecycle.AutoApproveAfter,
		RejectConfidence:  cfg.Lifecycle.AutoRejectConf,
		RejectAfter:       cfg.Lifecycle.AutoRejectAfter,
		FixedNotional:     cfg.Lifecycle.FixedNotional,
	})
}

// ProvideAutoscan assembles the periodic discovery controller.
func ProvideAutoscan(cfg *config.Config, source service.MarketDataSource, scanner *usecase.Scanner,
	state repository.StateStore, m repository.Metrics, log *logger.Logger) *usecase.Autoscan {
	return usecase.NewAutoscan(source, scanner, state, m, log, usecase.AutoscanConfig{
		MinVolume:     cfg.Autoscan.MinVolume,
		MaxVolume:     cfg.Autoscan.MaxVolume,
		RRMin:         cfg.Autoscan.RRMin,
		EdgeTh:        cfg.Autoscan.EdgeThreshold,
		RRFloor:       cfg.Autoscan.RRFloor,
		EdgeFloor:     cfg.Autoscan.EdgeFloor,
		MaxRelaxSteps: cfg.Autoscan.MaxRelaxSteps,
		Limit:         cfg.Autoscan.Limit,
		Exclude:       cfg.Autoscan.Exclude,
	})
}

// ProvidePriceWatcher assembles the live price watcher.
func ProvidePriceWatcher(cfg *config.Config, stream repository.PriceStream,
	m repository.Metrics, log *logger.Logger) *usecase.PriceWatcher {
	return usecase.NewPriceWatcher(stream, m, log, cfg.Venue.ReconnectDelay)
}

// ProvideScheduler registers the engine's periodic jobs.
func ProvideScheduler(cfg *config.Config, lifecycle *usecase.Lifecycle, autoscan *usecase.Autoscan,
	sent *sentiment.Service, scanner *usecase.Scanner, log *logger.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.New(log)

	jobs := []scheduler.Job{
		usecase.NewLifecycleSweepJob(lifecycle, cfg.Lifecycle.SweepInterval),
		usecase.NewAutoscanJob(autoscan, cfg.Autoscan.Interval),
		usecase.NewSentimentRefreshJob(sent, cfg.Sentiment.RefreshInterval),
		usecase.NewRotationJob(scanner, log, cfg.Engine.Universe, cfg.Engine.TickInterval),
	}
	for _, j := range jobs {
		if err := s.AddJob(j); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ProvideHTTPHandler assembles the API handler.
func ProvideHTTPHandler(log *logger.Logger, evaluator *usecase.Evaluator, scanner *usecase.Scanner,
	lifecycle *usecase.Lifecycle, gate *risk.Gate, store repository.SignalStore,
	ledger repository.TradeLedger, state repository.StateStore, c icache.BytesCache) xhttp.Handler {
	h := api.NewEngineHandler(log, evaluator, scanner, lifecycle, gate, store, ledger, state)
	h.SetCache(c)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, log *logger.Logger, handler xhttp.Handler,
	sched *scheduler.Scheduler, watcher *usecase.PriceWatcher,
	pg *postgres.Client, ch *pkgch.Client, rdb *redis.Client,
	producer *pkgkafka.Producer) *server.App {
	return server.New(cfg, log, handler, sched, watcher, pg, ch, rdb, producer)
}
