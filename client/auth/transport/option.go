package transport

import (
	"log/slog"
	"net/http"
)

type Option func(*RoundTripper)

// WithTransport sets the underlying transport
func WithTransport(transport http.RoundTripper) Option {
	return func(t *RoundTripper) {
		t.transport = transport
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *RoundTripper) {
		t.logger = logger
	}
}
