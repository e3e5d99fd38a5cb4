//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"BarSnap/pkg/config"
	"BarSnap/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Upstream
		ProvideLimiter,
		ProvideMarketData,
		ProvideRawUpstream,
		ProvideFetcher,

		// Analytics
		ProvideFlowAnalyzer,
		ProvideRegimeAnalyzer,
		ProvideDepthAnalyzer,
		ProvideSnapshotCache,

		// Use cases
		ProvideSnapshotService,
		ProvideRelayService,

		// HTTP
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
