package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/viant/storefront/client/auth/refresh"
	"github.com/viant/storefront/client/auth/store"
)

type RoundTripper struct {
	coordinator *refresh.Coordinator
	transport   http.RoundTripper
	logger      *slog.Logger
}

func New(coordinator *refresh.Coordinator, options ...Option) (*RoundTripper, error) {
	if coordinator == nil {
		return nil, errors.New("refresh coordinator was nil")
	}
	ret := &RoundTripper{
		coordinator: coordinator,
		transport:   http.DefaultTransport,
		logger:      slog.Default(),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}

func (r *RoundTripper) Store() *store.Store {
	return r.coordinator.Store()
}

func (r *RoundTripper) Coordinator() *refresh.Coordinator {
	return r.coordinator
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	body, err := readBody(req)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	// 1) Let a refresh started by another caller settle first.
	waited := r.coordinator.Refreshing()
	if err = r.coordinator.Wait(ctx); err != nil {
		return nil, err
	}

	// 2) Send with whatever access token is current, if any.
	token := r.Store().AccessToken()
	resp, err := r.transport.RoundTrip(prepare(req, body, token))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	discard(resp)

	// 3) The token was fresh from someone else's refresh; refreshing again would only storm.
	if waited {
		return nil, fmt.Errorf("%w: %v %v rejected after refresh", refresh.ErrAuthenticationRequired, req.Method, req.URL.Redacted())
	}

	// 4) Refresh once, unless a concurrent caller already replaced the token we sent.
	next, err := r.coordinator.Renew(ctx, token)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("replaying request with refreshed token", "method", req.Method, "url", req.URL.Redacted())

	// 5) Replay exactly once.
	resp, err = r.transport.RoundTrip(prepare(req, body, next))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		return nil, fmt.Errorf("%w: %v %v rejected after refresh", refresh.ErrAuthenticationRequired, req.Method, req.URL.Redacted())
	}
	return resp, nil
}
