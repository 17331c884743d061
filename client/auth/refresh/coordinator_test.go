package refresh

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/storefront/client/auth/mock"
	"github.com/viant/storefront/client/auth/store"
)

func newServer(t *testing.T, opts ...mock.Option) *mock.HTTPTestServer {
	t.Helper()
	server, err := mock.NewHTTPTestServer(opts...)
	require.NoError(t, err)
	t.Cleanup(server.Close)
	return server
}

func login(t *testing.T, server *mock.HTTPTestServer, tokens *store.Store, accessTTL time.Duration) *mock.Tokens {
	t.Helper()
	access, err := server.Mint("+15550001111", mock.AccessTokenType, accessTTL)
	require.NoError(t, err)
	refresh, err := server.Mint("+15550001111", mock.RefreshTokenType, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, tokens.SetTokens(store.TokenPair{AccessToken: access, RefreshToken: refresh}, map[string]any{"id": "u1"}))
	return &mock.Tokens{AccessToken: access, RefreshToken: refresh}
}

// withRefreshHandler installs a refresh handler built from the service before the server starts.
func withRefreshHandler(build func(service *mock.Service) http.HandlerFunc) mock.Option {
	return func(service *mock.Service) {
		service.RefreshHandler = build(service)
	}
}

func defaultRefresh(service *mock.Service) http.HandlerFunc {
	return service.DefaultRefreshHandler()
}

// blockingRefresh holds every refresh request until release is called.
func blockingRefresh(build func(service *mock.Service) http.HandlerFunc) (option mock.Option, release func()) {
	gate := make(chan struct{})
	var once sync.Once
	option = withRefreshHandler(func(service *mock.Service) http.HandlerFunc {
		handler := build(service)
		return func(w http.ResponseWriter, r *http.Request) {
			<-gate
			handler(w, r)
		}
	})
	return option, func() { once.Do(func() { close(gate) }) }
}

func staticRefresh(status int, body string) mock.Option {
	return withRefreshHandler(func(*mock.Service) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}
	})
}

type outcome struct {
	token string
	err   error
}

func refreshConcurrently(coordinator *Coordinator, n int) <-chan outcome {
	results := make(chan outcome, n)
	for i := 0; i < n; i++ {
		go func() {
			token, err := coordinator.Refresh(context.Background())
			results <- outcome{token: token, err: err}
		}()
	}
	return results
}

func TestCoordinator_SingleFlight(t *testing.T) {
	testCases := []struct {
		description string
		callers     int
		handler     func(service *mock.Service) http.HandlerFunc
		expectErr   bool
	}{
		{
			description: "success fans out the same token",
			callers:     8,
			handler:     defaultRefresh,
		},
		{
			description: "failure fans out the same error",
			callers:     5,
			handler: func(*mock.Service) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					http.Error(w, "expired", http.StatusUnauthorized)
				}
			},
			expectErr: true,
		},
	}
	for _, testCase := range testCases {
		option, release := blockingRefresh(testCase.handler)
		server := newServer(t, option)
		t.Cleanup(release)
		tokens := store.New()
		login(t, server, tokens, time.Minute)
		coordinator := New(server.URL, tokens)

		results := refreshConcurrently(coordinator, testCase.callers)
		require.Eventually(t, func() bool {
			return testutil.ToFloat64(coordinator.Metrics().Joined) == float64(testCase.callers-1)
		}, 5*time.Second, 5*time.Millisecond, testCase.description)
		assert.True(t, coordinator.Refreshing(), testCase.description)
		release()

		var first *outcome
		for i := 0; i < testCase.callers; i++ {
			result := <-results
			if first == nil {
				first = &result
			}
			assert.Equal(t, first.token, result.token, testCase.description)
			if testCase.expectErr {
				assert.ErrorIs(t, result.err, ErrAuthenticationRequired, testCase.description)
			} else {
				assert.NoError(t, result.err, testCase.description)
			}
		}
		assert.Equal(t, 1, server.RefreshCalls(), testCase.description)
		assert.False(t, coordinator.Refreshing(), testCase.description)
		if testCase.expectErr {
			assert.False(t, tokens.HasSession(), testCase.description)
			assert.Nil(t, tokens.UserRecord(), testCase.description)
			assert.Equal(t, 1.0, testutil.ToFloat64(coordinator.Metrics().Refreshes.WithLabelValues(outcomeFailure)), testCase.description)
		} else {
			assert.Equal(t, first.token, tokens.AccessToken(), testCase.description)
			assert.Equal(t, 1.0, testutil.ToFloat64(coordinator.Metrics().Refreshes.WithLabelValues(outcomeSuccess)), testCase.description)
		}
	}
}

func TestCoordinator_FailureClearsSession(t *testing.T) {
	testCases := []struct {
		description string
		status      int
		body        string
	}{
		{description: "non 2xx status", status: http.StatusInternalServerError, body: `{"success":true}`},
		{description: "unauthorized", status: http.StatusUnauthorized, body: `{"success":false}`},
		{description: "malformed body", status: http.StatusOK, body: `{"success":`},
		{description: "unsuccessful envelope", status: http.StatusOK, body: `{"success":false,"message":"revoked"}`},
		{description: "missing tokens", status: http.StatusOK, body: `{"success":true}`},
		{description: "missing access token", status: http.StatusOK, body: `{"success":true,"tokens":{"refreshToken":"x"}}`},
	}
	for _, testCase := range testCases {
		server := newServer(t, staticRefresh(testCase.status, testCase.body))
		tokens := store.New()
		login(t, server, tokens, time.Minute)
		coordinator := New(server.URL, tokens)

		token, err := coordinator.Refresh(context.Background())
		assert.Empty(t, token, testCase.description)
		assert.ErrorIs(t, err, ErrAuthenticationRequired, testCase.description)
		assert.False(t, tokens.HasSession(), testCase.description)
		assert.Nil(t, tokens.UserRecord(), testCase.description)
		assert.Equal(t, 1, server.RefreshCalls(), testCase.description)
	}
}

func TestCoordinator_NetworkFailure(t *testing.T) {
	server := newServer(t)
	tokens := store.New()
	login(t, server, tokens, time.Minute)
	URL := server.URL
	server.Close()

	coordinator := New(URL, tokens)
	_, err := coordinator.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.False(t, tokens.HasSession())
}

func TestCoordinator_NoRefreshToken(t *testing.T) {
	server := newServer(t)
	tokens := store.New()
	require.NoError(t, tokens.SetTokens(store.TokenPair{}, map[string]any{"id": "u1"}))
	coordinator := New(server.URL, tokens)

	_, err := coordinator.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, 0, server.RefreshCalls())
	assert.Nil(t, tokens.UserRecord())
}

func TestCoordinator_ProactiveRefresh(t *testing.T) {
	testCases := []struct {
		description  string
		accessTTL    time.Duration
		loggedIn     bool
		refreshCalls int
	}{
		{description: "valid access token", accessTTL: time.Hour, loggedIn: true, refreshCalls: 0},
		{description: "access token inside expiry buffer", accessTTL: 2 * time.Minute, loggedIn: true, refreshCalls: 1},
		{description: "expired access token", accessTTL: -time.Minute, loggedIn: true, refreshCalls: 1},
		{description: "no session", loggedIn: false, refreshCalls: 0},
	}
	for _, testCase := range testCases {
		server := newServer(t)
		tokens := store.New()
		var issued *mock.Tokens
		if testCase.loggedIn {
			issued = login(t, server, tokens, testCase.accessTTL)
		}
		coordinator := New(server.URL, tokens)

		require.NoError(t, coordinator.ProactiveRefresh(context.Background()), testCase.description)
		assert.Equal(t, testCase.refreshCalls, server.RefreshCalls(), testCase.description)
		if testCase.refreshCalls > 0 {
			assert.True(t, tokens.IsAuthenticated(), testCase.description)
			assert.NotEqual(t, issued.AccessToken, tokens.AccessToken(), testCase.description)
			assert.NotEqual(t, issued.RefreshToken, tokens.RefreshToken(), testCase.description)
		}
	}
}

func TestCoordinator_ProactiveRefreshSkipsWhileRefreshing(t *testing.T) {
	option, release := blockingRefresh(defaultRefresh)
	defer release()
	server := newServer(t, option)
	tokens := store.New()
	login(t, server, tokens, time.Minute)
	coordinator := New(server.URL, tokens)

	results := refreshConcurrently(coordinator, 1)
	require.Eventually(t, func() bool { return server.RefreshCalls() == 1 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, coordinator.ProactiveRefresh(context.Background()))
	release()
	result := <-results
	require.NoError(t, result.err)
	assert.Equal(t, 1, server.RefreshCalls())
}

func TestCoordinator_ProactiveRefreshAfterSettledFlight(t *testing.T) {
	server := newServer(t)
	tokens := store.New()
	login(t, server, tokens, -time.Minute)
	coordinator := New(server.URL, tokens)

	require.NoError(t, coordinator.ProactiveRefresh(context.Background()))
	require.Equal(t, 1, server.RefreshCalls())
	refreshed := tokens.AccessToken()

	// a caller that saw the stale token before the first flight settled
	token, err := coordinator.refreshStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, refreshed, token)
	source, err := coordinator.TokenSource(context.Background()).Token()
	require.NoError(t, err)
	assert.Equal(t, refreshed, source.AccessToken)
	assert.Equal(t, 1, server.RefreshCalls())
}

func TestCoordinator_Renew(t *testing.T) {
	testCases := []struct {
		description  string
		accessTTL    time.Duration
		rejected     func(issued *mock.Tokens) string
		refreshCalls int
	}{
		{
			description:  "stored token was the rejected one",
			accessTTL:    time.Hour,
			rejected:     func(issued *mock.Tokens) string { return issued.AccessToken },
			refreshCalls: 1,
		},
		{
			description:  "stored token already replaced",
			accessTTL:    time.Hour,
			rejected:     func(*mock.Tokens) string { return "stale-token" },
			refreshCalls: 0,
		},
		{
			description:  "sent without token, valid token stored since",
			accessTTL:    time.Hour,
			rejected:     func(*mock.Tokens) string { return "" },
			refreshCalls: 0,
		},
		{
			description:  "sent without token, stored token expired",
			accessTTL:    -time.Minute,
			rejected:     func(*mock.Tokens) string { return "" },
			refreshCalls: 1,
		},
	}
	for _, testCase := range testCases {
		server := newServer(t)
		tokens := store.New()
		issued := login(t, server, tokens, testCase.accessTTL)
		coordinator := New(server.URL, tokens)

		token, err := coordinator.Renew(context.Background(), testCase.rejected(issued))
		require.NoError(t, err, testCase.description)
		assert.NotEmpty(t, token, testCase.description)
		assert.Equal(t, tokens.AccessToken(), token, testCase.description)
		assert.Equal(t, testCase.refreshCalls, server.RefreshCalls(), testCase.description)
	}
}

func TestCoordinator_RefreshIsForced(t *testing.T) {
	server := newServer(t)
	tokens := store.New()
	issued := login(t, server, tokens, time.Hour)
	coordinator := New(server.URL, tokens)

	token, err := coordinator.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, issued.AccessToken, token)
	assert.Equal(t, 1, server.RefreshCalls())
}

func TestCoordinator_Wait(t *testing.T) {
	option, release := blockingRefresh(defaultRefresh)
	defer release()
	server := newServer(t, option)
	tokens := store.New()
	login(t, server, tokens, time.Minute)
	coordinator := New(server.URL, tokens)

	require.NoError(t, coordinator.Wait(context.Background()), "idle coordinator must not block")

	results := refreshConcurrently(coordinator, 1)
	require.Eventually(t, coordinator.Refreshing, 5*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, coordinator.Wait(ctx), context.DeadlineExceeded)

	waited := make(chan error, 1)
	go func() { waited <- coordinator.Wait(context.Background()) }()
	release()
	require.NoError(t, <-waited)
	result := <-results
	require.NoError(t, result.err)
	assert.Equal(t, result.token, tokens.AccessToken())
}

func TestCoordinator_CallerCancellationDoesNotAbortFlight(t *testing.T) {
	option, release := blockingRefresh(defaultRefresh)
	defer release()
	server := newServer(t, option)
	tokens := store.New()
	login(t, server, tokens, time.Minute)
	coordinator := New(server.URL, tokens)

	ctx, cancel := context.WithCancel(context.Background())
	abandoned := make(chan error, 1)
	go func() {
		_, err := coordinator.Refresh(ctx)
		abandoned <- err
	}()
	require.Eventually(t, func() bool { return server.RefreshCalls() == 1 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	assert.True(t, errors.Is(<-abandoned, context.Canceled))

	results := refreshConcurrently(coordinator, 1)
	release()
	result := <-results
	require.NoError(t, result.err)
	assert.Equal(t, 1, server.RefreshCalls())
	assert.Equal(t, result.token, tokens.AccessToken())
}

func TestCoordinator_KeepsRefreshTokenWhenOmitted(t *testing.T) {
	server := newServer(t, withRefreshHandler(func(service *mock.Service) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := service.Mint("+15550001111", mock.AccessTokenType, time.Hour)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"tokens":{"accessToken":"` + token + `"}}`))
		}
	}))
	tokens := store.New()
	issued := login(t, server, tokens, time.Minute)
	coordinator := New(server.URL, tokens)

	token, err := coordinator.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, issued.AccessToken, token)
	assert.Equal(t, token, tokens.AccessToken())
	assert.Equal(t, issued.RefreshToken, tokens.RefreshToken())
}

func TestCoordinator_TokenSource(t *testing.T) {
	server := newServer(t)
	tokens := store.New()
	issued := login(t, server, tokens, time.Minute)
	coordinator := New(server.URL, tokens)

	token, err := coordinator.TokenSource(context.Background()).Token()
	require.NoError(t, err)
	assert.NotEqual(t, issued.AccessToken, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, token.Valid())
	assert.Equal(t, 1, server.RefreshCalls())

	again, err := coordinator.TokenSource(context.Background()).Token()
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, again.AccessToken)
	assert.Equal(t, 1, server.RefreshCalls())
}

func TestMetrics_Register(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics()
	require.NoError(t, metrics.Register(registry))
	assert.Error(t, metrics.Register(registry), "duplicate registration must fail")
}
