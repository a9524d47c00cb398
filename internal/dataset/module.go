package dataset

import (
	"github.com/brizzai/auto-eda/internal/config"
	"github.com/brizzai/auto-eda/internal/metrics"
	"go.uber.org/fx"
)

func newCatalog(cfg *config.Config, fetcher Fetcher, m *metrics.Metrics) *Catalog {
	return NewCatalog(cfg.Profiler, fetcher, m)
}

// Module provides the sample catalog
var Module = fx.Module("dataset",
	fx.Provide(
		fx.Annotate(
			NewHTTPFetcher,
			fx.As(new(Fetcher)),
		),
		newCatalog,
	),
)
