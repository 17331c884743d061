package refresh

import (
	"context"

	"golang.org/x/oauth2"
)

type tokenSource struct {
	ctx         context.Context
	coordinator *Coordinator
}

// Token returns the stored token, refreshing it first when it is stale.
func (t *tokenSource) Token() (*oauth2.Token, error) {
	if err := t.coordinator.Wait(t.ctx); err != nil {
		return nil, err
	}
	if token := t.coordinator.store.Token(); token != nil {
		return token, nil
	}
	if _, err := t.coordinator.refreshStale(t.ctx); err != nil {
		return nil, err
	}
	if token := t.coordinator.store.Token(); token != nil {
		return token, nil
	}
	return nil, ErrAuthenticationRequired
}

// TokenSource exposes the session as an oauth2.TokenSource, e.g. for oauth2.NewClient.
func (c *Coordinator) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, coordinator: c}
}
