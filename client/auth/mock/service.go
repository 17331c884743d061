package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Tokens is the token pair document returned by the storefront API.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// User is the user record returned on login.
type User struct {
	ID    string `json:"id"`
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
}

// Service is a mock storefront auth API.
type Service struct {
	PrivateKey *rsa.PrivateKey
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// OTP is the only one-time password VerifyOTP accepts.
	OTP string
	// Clock overrides time.Now for minting and verification.
	Clock func() time.Time

	SendOTPHandler   func(w http.ResponseWriter, r *http.Request)
	VerifyOTPHandler func(w http.ResponseWriter, r *http.Request)
	RefreshHandler   func(w http.ResponseWriter, r *http.Request)
	LogoutHandler    func(w http.ResponseWriter, r *http.Request)
	ResourceHandler  func(w http.ResponseWriter, r *http.Request)

	sequence      atomic.Int64
	refreshCalls  atomic.Int32
	resourceCalls atomic.Int32
	logoutCalls   atomic.Int32
	mux           sync.RWMutex
	revoked       map[string]bool
	sentOTP       map[string]bool
}

// NewService creates a mock storefront auth service
func NewService(opts ...Option) (*Service, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %v", err)
	}
	service := &Service{
		PrivateKey: privateKey,
		Issuer:     "storefront-mock",
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
		OTP:        "123456",
		revoked:    map[string]bool{},
		sentOTP:    map[string]bool{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Register registers HTTP handlers for all mock endpoints onto the given ServeMux.
func (m *Service) Register(mux *http.ServeMux) {
	mux.Handle("/", &Handler{Server: m})
}

// Handler returns an http.Handler for all mock endpoints, suitable for any HTTP server.
func (m *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	m.Register(mux)
	return mux
}

// RefreshCalls returns the number of requests that reached the refresh endpoint.
func (m *Service) RefreshCalls() int { return int(m.refreshCalls.Load()) }

// ResourceCalls returns the number of requests that reached the protected resource.
func (m *Service) ResourceCalls() int { return int(m.resourceCalls.Load()) }

// LogoutCalls returns the number of requests that reached the logout endpoint.
func (m *Service) LogoutCalls() int { return int(m.logoutCalls.Load()) }

// Revoke makes Verify reject token from now on.
func (m *Service) Revoke(token string) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.revoked[token] = true
}

func (m *Service) isRevoked(token string) bool {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.revoked[token]
}

func (m *Service) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

func (m *Service) nextID() string {
	return strconv.FormatInt(m.sequence.Add(1), 10)
}

// DefaultRefreshHandler returns the built-in refresh handler, e.g. for wrapping in a custom RefreshHandler.
func (m *Service) DefaultRefreshHandler() http.HandlerFunc {
	return m.defaultRefreshHandler
}
