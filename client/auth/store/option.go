package store

import "time"

type Option func(*Store)

// WithStorage sets the persistence backend
func WithStorage(storage Storage) Option {
	return func(s *Store) {
		s.storage = storage
	}
}

// WithCodec sets the value codec
func WithCodec(codec Codec) Option {
	return func(s *Store) {
		s.codec = codec
	}
}

// WithExpiryBuffer sets how long before the literal expiry a token is already treated as expired
func WithExpiryBuffer(buffer time.Duration) Option {
	return func(s *Store) {
		s.buffer = buffer
	}
}

// WithClock sets the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}
