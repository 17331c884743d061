package refresh

import (
	"log/slog"
	"net/http"
)

type Option func(*Coordinator)

// WithHTTPClient sets the client used to call the refresh endpoint. It must not
// be wired with the authenticating transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Coordinator) {
		c.client = client
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics sets metrics collectors
func WithMetrics(metrics *Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = metrics
	}
}

// WithPath overrides the refresh endpoint path
func WithPath(path string) Option {
	return func(c *Coordinator) {
		c.path = path
	}
}
