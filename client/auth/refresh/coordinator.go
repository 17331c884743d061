package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/viant/storefront/client/auth/store"
	"golang.org/x/sync/singleflight"
)

// DefaultPath is the storefront refresh endpoint.
const DefaultPath = "/api/user/auth/refresh-token"

const (
	flightKey       = "refresh"
	maxResponseSize = 1 << 20
)

type (
	refreshRequest struct {
		RefreshToken string `json:"refreshToken"`
	}

	refreshResponse struct {
		Success bool             `json:"success"`
		Tokens  *store.TokenPair `json:"tokens"`
		Message string           `json:"message,omitempty"`
	}
)

// Coordinator guarantees at most one in-flight refresh call per instance.
type Coordinator struct {
	baseURL string
	path    string
	store   *store.Store
	client  *http.Client
	logger  *slog.Logger
	metrics *Metrics
	group   singleflight.Group
	mux     sync.Mutex
	pending int
	done    chan struct{}
}

// New creates a coordinator refreshing tokens held in tokens against the API at baseURL.
func New(baseURL string, tokens *store.Store, options ...Option) *Coordinator {
	ret := &Coordinator{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    DefaultPath,
		store:   tokens,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
		metrics: NewMetrics(),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (c *Coordinator) Store() *store.Store {
	return c.store
}

func (c *Coordinator) Metrics() *Metrics {
	return c.metrics
}

// Refreshing reports whether a refresh call is in flight.
func (c *Coordinator) Refreshing() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.done != nil
}

// Wait blocks until the in-flight refresh, if any, settles or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mux.Lock()
	done := c.done
	c.mux.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh starts a refresh or joins the one in flight and returns the new access token.
// Every caller of the same flight observes the same token or the same error.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	return c.do(ctx, nil)
}

// Renew is Refresh for a caller whose request carrying rejected was answered with 401;
// rejected is "" when the request went out without a token. When a valid stored token
// differs from rejected, a concurrent refresh already replaced it and that token is
// returned without another network call.
func (c *Coordinator) Renew(ctx context.Context, rejected string) (string, error) {
	return c.do(ctx, func() (string, bool) {
		current := c.store.AccessToken()
		return current, current != "" && current != rejected
	})
}

// refreshStale refreshes only when the stored access token still needs it once the flight starts.
func (c *Coordinator) refreshStale(ctx context.Context) (string, error) {
	return c.do(ctx, func() (string, bool) {
		current := c.store.AccessToken()
		return current, current != ""
	})
}

// do starts a flight, or joins the one in flight. When settled reports true at the
// start of the flight, its token is the result and no refresh call is made.
func (c *Coordinator) do(ctx context.Context, settled func() (string, bool)) (string, error) {
	c.enter()
	defer c.leave()
	// the flight outlives any single caller, so it must not inherit its cancellation
	flightCtx := context.WithoutCancel(ctx)
	results := c.group.DoChan(flightKey, func() (interface{}, error) {
		if settled != nil {
			if token, ok := settled(); ok {
				return token, nil
			}
		}
		return c.flight(flightCtx)
	})
	select {
	case result := <-results:
		if result.Err != nil {
			return "", result.Err
		}
		return result.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// enter registers a caller; the first one opens the done channel observed by Wait.
func (c *Coordinator) enter() {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.pending == 0 {
		c.done = make(chan struct{})
	} else {
		c.metrics.Joined.Inc()
	}
	c.pending++
}

// leave unregisters a caller; the last one closes the done channel, releasing all waiters at once.
func (c *Coordinator) leave() {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.pending--
	if c.pending == 0 {
		close(c.done)
		c.done = nil
	}
}

// ProactiveRefresh renews the access token ahead of a request. It does nothing
// without a session, while a refresh is already running, or when the access
// token is still valid. A missing refresh token is not reported as an error.
func (c *Coordinator) ProactiveRefresh(ctx context.Context) error {
	if c.Refreshing() || !c.store.HasSession() || !c.store.NeedsRefresh() {
		return nil
	}
	_, err := c.refreshStale(ctx)
	if errors.Is(err, ErrNoRefreshToken) {
		return nil
	}
	return err
}

func (c *Coordinator) flight(ctx context.Context) (string, error) {
	started := time.Now()
	token, err := c.refresh(ctx)
	c.metrics.Duration.Observe(time.Since(started).Seconds())
	if err != nil {
		c.metrics.Refreshes.WithLabelValues(outcomeFailure).Inc()
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Error("failed to clear session", "error", clearErr)
		}
		c.logger.Warn("token refresh failed, session cleared", "error", err)
		return "", err
	}
	c.metrics.Refreshes.WithLabelValues(outcomeSuccess).Inc()
	c.logger.Debug("token refreshed", "duration", time.Since(started))
	return token, nil
}

func (c *Coordinator) refresh(ctx context.Context) (string, error) {
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}
	body, err := json.Marshal(&refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthenticationRequired, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: refresh request failed: %v", ErrAuthenticationRequired, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: refresh rejected with status %d", ErrAuthenticationRequired, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read refresh response: %v", ErrAuthenticationRequired, err)
	}
	var out refreshResponse
	if err = json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: malformed refresh response: %v", ErrAuthenticationRequired, err)
	}
	if !out.Success || out.Tokens == nil || out.Tokens.AccessToken == "" {
		return "", fmt.Errorf("%w: refresh unsuccessful: %s", ErrAuthenticationRequired, out.Message)
	}
	// an omitted refresh token keeps the stored one
	if err = c.store.SetTokens(*out.Tokens, nil); err != nil {
		return "", fmt.Errorf("%w: failed to store refreshed tokens: %v", ErrAuthenticationRequired, err)
	}
	return out.Tokens.AccessToken, nil
}
