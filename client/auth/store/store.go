package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	UserKey         = "user"

	// DefaultExpiryBuffer is subtracted from a token's exp claim when checking validity.
	DefaultExpiryBuffer = 5 * time.Minute
)

// TokenPair is the access/refresh credential pair issued by the storefront API.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is a decoded view of the stored session.
type Session struct {
	Tokens TokenPair
	User   map[string]any
}

// Store keeps the current token pair and user record in a Storage.
type Store struct {
	storage Storage
	codec   Codec
	buffer  time.Duration
	now     func() time.Time
	parser  *jwt.Parser
}

// New creates a Store; without options it uses memory storage and the default XOR codec.
func New(options ...Option) *Store {
	ret := &Store{
		storage: NewMemoryStorage(),
		codec:   NewXORCodec(DefaultObfuscationKey),
		buffer:  DefaultExpiryBuffer,
		now:     time.Now,
		parser:  jwt.NewParser(),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// SetTokens writes the supplied fields in one storage update; an empty token
// or nil user leaves the stored value untouched.
func (s *Store) SetTokens(tokens TokenPair, user any) error {
	values := map[string]string{}
	if tokens.AccessToken != "" {
		values[AccessTokenKey] = s.codec.Encode(tokens.AccessToken)
	}
	if tokens.RefreshToken != "" {
		values[RefreshTokenKey] = s.codec.Encode(tokens.RefreshToken)
	}
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		values[UserKey] = s.codec.Encode(string(data))
	}
	if len(values) == 0 {
		return nil
	}
	return s.storage.SetAll(values)
}

// AccessToken returns the stored access token, or "" when absent, undecodable or about to expire.
func (s *Store) AccessToken() string {
	token, _ := s.validToken(AccessTokenKey)
	return token
}

// RefreshToken returns the stored refresh token. An expired refresh token
// leaves the session unrenewable, so the whole session is cleared.
func (s *Store) RefreshToken() string {
	token, expired := s.validToken(RefreshTokenKey)
	if expired {
		_ = s.Clear()
	}
	return token
}

// User decodes the stored user record into target; it reports false on missing or malformed data.
func (s *Store) User(target any) bool {
	value, ok := s.decode(UserKey)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(value), target) == nil
}

// UserRecord returns the stored user record as a generic map, or nil.
func (s *Store) UserRecord() map[string]any {
	var ret map[string]any
	if !s.User(&ret) || ret == nil {
		return nil
	}
	return ret
}

// Clear removes every stored session field.
func (s *Store) Clear() error {
	return s.storage.Delete(AccessTokenKey, RefreshTokenKey, UserKey)
}

func (s *Store) IsAuthenticated() bool {
	return s.AccessToken() != ""
}

// HasSession reports whether either token is still usable.
func (s *Store) HasSession() bool {
	return s.AccessToken() != "" || s.RefreshToken() != ""
}

// NeedsRefresh reports whether there is no valid access token to send.
func (s *Store) NeedsRefresh() bool {
	return s.AccessToken() == ""
}

// Session returns a snapshot of the stored session.
func (s *Store) Session() *Session {
	return &Session{
		Tokens: TokenPair{AccessToken: s.AccessToken(), RefreshToken: s.RefreshToken()},
		User:   s.UserRecord(),
	}
}

// Token returns the current pair as an oauth2 token, or nil without a valid access token.
func (s *Store) Token() *oauth2.Token {
	access := s.AccessToken()
	if access == "" {
		return nil
	}
	ret := &oauth2.Token{TokenType: "Bearer", AccessToken: access, RefreshToken: s.RefreshToken()}
	if expiry, err := s.expiry(access); err == nil {
		ret.Expiry = expiry
	}
	return ret
}

// validToken returns the decoded token for key when it is still valid;
// expired is true only for a decodable token past its buffered expiry.
func (s *Store) validToken(key string) (token string, expired bool) {
	value, ok := s.decode(key)
	if !ok {
		return "", false
	}
	expiry, err := s.expiry(value)
	if err != nil {
		return "", false
	}
	if !s.now().Add(s.buffer).Before(expiry) {
		return "", true
	}
	return value, false
}

func (s *Store) decode(key string) (string, bool) {
	value, ok := s.storage.Get(key)
	if !ok {
		return "", false
	}
	return s.codec.Decode(value)
}

var errNoExpiry = errors.New("token has no exp claim")

func (s *Store) expiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errNoExpiry
	}
	return exp.Time, nil
}
