//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"EdgePulse/pkg/config"
	"EdgePulse/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePostgresClient,
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideSignalStore,
		ProvideTradeLedger,
		ProvideStateStore,
		ProvideSignalPublisher,

		// Venue and external services
		ProvideRateLimiter,
		ProvideCache,
		ProvideVenueClient,
		ProvideMarketDataSource,
		ProvidePriceStream,
		ProvideSentiment,
		ProvidePlanner,
		ProvideRiskGate,

		// Use cases
		ProvideEvaluator,
		ProvideScanner,
		ProvideLifecycle,
		ProvideAutoscan,
		ProvidePriceWatcher,
		ProvideScheduler,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
