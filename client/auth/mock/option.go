package mock

import "time"

type Option func(*Service)

// WithTTL sets access and refresh token lifetimes
func WithTTL(access, refresh time.Duration) Option {
	return func(s *Service) {
		s.AccessTTL = access
		s.RefreshTTL = refresh
	}
}

// WithOTP sets the accepted one-time password
func WithOTP(otp string) Option {
	return func(s *Service) {
		s.OTP = otp
	}
}

// WithClock sets the service clock
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.Clock = clock
	}
}
