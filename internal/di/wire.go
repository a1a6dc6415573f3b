//go:build wireinject
// +build wireinject

package di

import (
	"SignalForge/pkg/config"
	"SignalForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideRedisCache,
		ProvideClickHouseClient,
		ProvideLogger,
		ProvideMetrics,
		ProvideTracer,
		ProvideHTTPClient,
		ProvideProviderCache,
		ProvideRunLock,

		// Providers
		ProvideAlphaVantage,
		ProvideLivePrices,
		ProvideMarketData,
		ProvideNewsFeed,
		ProvideSocialFeed,

		// Scoring
		ProvideSentimentScorer,
		ProvideExtractor,
		ProvideTechnicalScorer,

		// Repositories
		ProvideHistoryStore,
		ProvideHistoryPruner,
		ProvideAuditLog,
		ProvideOpsHandler,
		ProvidePublishers,

		// Use cases
		ProvideGenerator,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
