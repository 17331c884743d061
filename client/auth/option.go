package auth

import (
	"log/slog"
	"net/http"

	"github.com/viant/storefront/client/auth/refresh"
	"github.com/viant/storefront/client/auth/store"
)

type config struct {
	store      *store.Store
	logger     *slog.Logger
	httpClient *http.Client
	metrics    *refresh.Metrics
}

type Option func(*config)

// WithStore sets the session store
func WithStore(store *store.Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithHTTPClient sets the client whose transport and timeout all API calls use
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithMetrics sets refresh metrics collectors
func WithMetrics(metrics *refresh.Metrics) Option {
	return func(c *config) {
		c.metrics = metrics
	}
}
