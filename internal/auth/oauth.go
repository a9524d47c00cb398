package auth

import (
	"net/http"

	"github.com/brizzai/auto-eda/internal/auth/providers"
	"github.com/brizzai/auto-eda/internal/config"
	"github.com/brizzai/auto-eda/internal/metrics"
	"go.uber.org/fx"
)

// NewHTTPClient returns the client used for every provider call; its timeout
// bounds the token exchange and the userinfo fetch.
func NewHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.OAuth.Timeout}
}

// NewProvider builds the Google provider from config
func NewProvider(cfg *config.Config, client *http.Client) (*providers.GoogleProvider, error) {
	return providers.NewGoogleProvider(cfg.OAuth, cfg.RedirectURI(), client)
}

func newController(cfg *config.Config, provider providers.Provider, m *metrics.Metrics) *Controller {
	return NewController(cfg.OAuth, provider, m)
}

// Module provides the provider and the controller
var Module = fx.Module("auth",
	fx.Provide(
		fx.Private,
		NewHTTPClient,
	),
	fx.Provide(
		fx.Annotate(
			NewProvider,
			fx.As(new(providers.Provider)),
		),
		newController,
	),
)
