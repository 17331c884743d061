package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/viant/storefront/client/auth/refresh"
	"github.com/viant/storefront/client/auth/store"
	"github.com/viant/storefront/client/auth/transport"
)

const (
	SendOTPPath   = "/api/user/auth/send-otp"
	VerifyOTPPath = "/api/user/auth/verify-otp"
	LogoutPath    = "/api/user/auth/logout"
)

var (
	// ErrAuthenticationRequired is returned once the session can no longer be renewed.
	ErrAuthenticationRequired = refresh.ErrAuthenticationRequired
	ErrInvalidPhone           = errors.New("invalid phone number")
	ErrInvalidOTP             = errors.New("invalid one-time password")
	// ErrLoginRejected is returned when the API answers an OTP call with success=false.
	ErrLoginRejected = errors.New("login rejected")

	phoneExpr = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	otpExpr   = regexp.MustCompile(`^[0-9]{4,8}$`)
)

type (
	otpRequest struct {
		Phone string `json:"phone"`
		OTP   string `json:"otp,omitempty"`
	}

	// LoginResponse is the API envelope returned by the OTP endpoints.
	LoginResponse struct {
		Success bool             `json:"success"`
		Message string           `json:"message,omitempty"`
		Tokens  *store.TokenPair `json:"tokens,omitempty"`
		User    map[string]any   `json:"user,omitempty"`
	}
)

// Service manages the storefront session lifecycle.
type Service struct {
	tokens      *store.Store
	coordinator *refresh.Coordinator
	requester   *transport.Requester
	// anonymous sends OTP calls without the refresh-on-401 behaviour.
	anonymous *transport.Requester
	logger    *slog.Logger
}

// New creates a Service for the API at baseURL.
func New(baseURL string, options ...Option) (*Service, error) {
	cfg := &config{
		logger:     slog.Default(),
		httpClient: &http.Client{},
	}
	for _, opt := range options {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = store.New()
	}
	refreshOptions := []refresh.Option{refresh.WithLogger(cfg.logger), refresh.WithHTTPClient(cfg.httpClient)}
	if cfg.metrics != nil {
		refreshOptions = append(refreshOptions, refresh.WithMetrics(cfg.metrics))
	}
	coordinator := refresh.New(baseURL, cfg.store, refreshOptions...)
	baseTransport := cfg.httpClient.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	roundTripper, err := transport.New(coordinator, transport.WithTransport(baseTransport), transport.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}
	return &Service{
		tokens:      cfg.store,
		coordinator: coordinator,
		requester:   transport.NewRequester(baseURL, roundTripper),
		anonymous:   transport.NewRequester(baseURL, baseTransport),
		logger:      cfg.logger,
	}, nil
}

func (s *Service) Store() *store.Store { return s.tokens }

func (s *Service) Coordinator() *refresh.Coordinator { return s.coordinator }

func (s *Service) Requester() *transport.Requester { return s.requester }

// Client returns an http.Client that authenticates every request.
func (s *Service) Client() *http.Client { return s.requester.Client() }

// SendOTP asks the API to send a one-time password to phone.
func (s *Service) SendOTP(ctx context.Context, phone string) error {
	phone = normalizePhone(phone)
	if !phoneExpr.MatchString(phone) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	out := &LoginResponse{}
	if err := s.anonymous.Do(ctx, http.MethodPost, SendOTPPath, &otpRequest{Phone: phone}, out); err != nil {
		return fmt.Errorf("failed to send OTP: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("%w: %s", ErrLoginRejected, out.Message)
	}
	return nil
}

// VerifyOTP exchanges phone and otp for a session and stores it.
func (s *Service) VerifyOTP(ctx context.Context, phone, otp string) (*store.Session, error) {
	phone = normalizePhone(phone)
	if !phoneExpr.MatchString(phone) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	if !otpExpr.MatchString(otp) {
		return nil, ErrInvalidOTP
	}
	out := &LoginResponse{}
	if err := s.anonymous.Do(ctx, http.MethodPost, VerifyOTPPath, &otpRequest{Phone: phone, OTP: otp}, out); err != nil {
		return nil, fmt.Errorf("failed to verify OTP: %w", err)
	}
	if !out.Success || out.Tokens == nil || out.Tokens.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s", ErrLoginRejected, out.Message)
	}
	var user any
	if out.User != nil {
		user = out.User
	}
	if err := s.tokens.SetTokens(*out.Tokens, user); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	s.logger.Info("logged in", "user", out.User["id"])
	return s.tokens.Session(), nil
}

// Logout notifies the API and clears the local session; an API failure is only logged.
func (s *Service) Logout(ctx context.Context) error {
	if s.tokens.HasSession() {
		if err := s.requester.Do(ctx, http.MethodPost, LogoutPath, nil, nil); err != nil {
			s.logger.Warn("logout request failed", "error", err)
		}
	}
	return s.tokens.Clear()
}

// IsAuthenticated reports whether a valid access token is stored.
func (s *Service) IsAuthenticated() bool {
	return s.tokens.IsAuthenticated()
}

// ProactiveRefresh renews a stale access token ahead of a request.
func (s *Service) ProactiveRefresh(ctx context.Context) error {
	return s.coordinator.ProactiveRefresh(ctx)
}

func normalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
}
