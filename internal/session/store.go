package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/darahtanyoe/mitra-dashboard/internal/models"
)

const (
	// AccessTokenKeyPrefix is the storage key prefix for the API access token.
	AccessTokenKeyPrefix = "mitra_access_token:"
	// RefreshTokenKeyPrefix is the storage key prefix for the API refresh token.
	RefreshTokenKeyPrefix = "mitra_refresh_token:"
	// UserDataKeyPrefix is the storage key prefix for the serialized partner profile.
	UserDataKeyPrefix = "mitra_user_data:"
)

// ErrNotAuthenticated is returned when a session has no stored auth state.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// KV is the durable-storage surface the store runs on. Implemented by Redis
// in production and by an in-memory map in tests.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Store persists the partner's auth state (access token, refresh token,
// serialized profile) under a browser session id. It performs no local
// expiry or validity checks on the tokens themselves; the remote API is the
// sole authority on token validity.
type Store struct {
	kv  KV
	ttl time.Duration
}

func NewStore(kv KV, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

// NewSessionID generates an opaque browser session id.
func NewSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Save persists all three auth entries. Subsequent IsAuthenticated calls for
// the same session id return true.
func (s *Store) Save(ctx context.Context, sid string, user models.UserProfile, sess models.Session) error {
	userData, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, AccessTokenKeyPrefix+sid, sess.AccessToken, s.ttl); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, RefreshTokenKeyPrefix+sid, sess.RefreshToken, s.ttl); err != nil {
		return err
	}
	return s.kv.Set(ctx, UserDataKeyPrefix+sid, string(userData), s.ttl)
}

// Clear removes all three auth entries for the session.
func (s *Store) Clear(ctx context.Context, sid string) error {
	return s.kv.Del(ctx,
		AccessTokenKeyPrefix+sid,
		RefreshTokenKeyPrefix+sid,
		UserDataKeyPrefix+sid,
	)
}

// IsAuthenticated reports whether the session holds both an access token and
// a parsable user profile. A profile that fails to deserialize is treated as
// logged-out: the token and profile entries are purged before returning
// false, so repeated calls are idempotent.
func (s *Store) IsAuthenticated(ctx context.Context, sid string) bool {
	if sid == "" {
		return false
	}
	token, ok, err := s.kv.Get(ctx, AccessTokenKeyPrefix+sid)
	if err != nil || !ok || token == "" {
		return false
	}
	userData, ok, err := s.kv.Get(ctx, UserDataKeyPrefix+sid)
	if err != nil || !ok || userData == "" {
		return false
	}
	var user models.UserProfile
	if err := json.Unmarshal([]byte(userData), &user); err != nil {
		// Corrupt profile: fail closed and drop both halves.
		_ = s.kv.Del(ctx, AccessTokenKeyPrefix+sid, UserDataKeyPrefix+sid)
		return false
	}
	return true
}

// User returns the stored partner profile.
func (s *Store) User(ctx context.Context, sid string) (models.UserProfile, error) {
	var user models.UserProfile
	userData, ok, err := s.kv.Get(ctx, UserDataKeyPrefix+sid)
	if err != nil {
		return user, err
	}
	if !ok || userData == "" {
		return user, ErrNotAuthenticated
	}
	if err := json.Unmarshal([]byte(userData), &user); err != nil {
		return user, err
	}
	return user, nil
}

// Tokens returns the stored token pair.
func (s *Store) Tokens(ctx context.Context, sid string) (models.Session, error) {
	access, ok, err := s.kv.Get(ctx, AccessTokenKeyPrefix+sid)
	if err != nil {
		return models.Session{}, err
	}
	if !ok {
		return models.Session{}, ErrNotAuthenticated
	}
	refresh, _, err := s.kv.Get(ctx, RefreshTokenKeyPrefix+sid)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{AccessToken: access, RefreshToken: refresh}, nil
}

// SetTokens overwrites the token pair, leaving the stored profile untouched.
// Called after a successful refresh rotation.
func (s *Store) SetTokens(ctx context.Context, sid string, sess models.Session) error {
	if err := s.kv.Set(ctx, AccessTokenKeyPrefix+sid, sess.AccessToken, s.ttl); err != nil {
		return err
	}
	return s.kv.Set(ctx, RefreshTokenKeyPrefix+sid, sess.RefreshToken, s.ttl)
}
