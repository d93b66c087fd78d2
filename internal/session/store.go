// Package session keeps the single {token, user} pair of the signed-in
// client on top of any domain.KVStore.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"arenda/internal/domain"
	"arenda/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrEmptyToken     = errors.New("session token is empty")
	ErrIncompleteUser = errors.New("session user has no id or email")
)

type Store struct {
	kv     domain.KVStore
	logger *zerolog.Logger
}

func NewStore(kv domain.KVStore, logger *zerolog.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Save overwrites the current session. Backends with batch support write
// both keys in one unit; otherwise the user goes first and is rolled back if
// the token write fails, so no reader sees a token without its user.
func (s *Store) Save(ctx context.Context, token string, user models.User) error {
	if token == "" {
		return ErrEmptyToken
	}
	// Load drops such records, so they are never written.
	if !user.Complete() {
		return ErrIncompleteUser
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	if batch, ok := s.kv.(domain.BatchKVStore); ok {
		if err := batch.SetMany(ctx, map[string]string{
			models.SessionUserKey:  string(raw),
			models.SessionTokenKey: token,
		}); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return nil
	}

	if err := s.kv.Set(ctx, models.SessionUserKey, string(raw)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if err := s.kv.Set(ctx, models.SessionTokenKey, token); err != nil {
		if rmErr := s.kv.Remove(ctx, models.SessionUserKey); rmErr != nil {
			s.logger.Error().Err(rmErr).Msg("Failed to roll back user record")
		}
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Load never fails: a missing, empty or corrupt record means no session.
func (s *Store) Load(ctx context.Context) (*models.Session, bool) {
	token, ok, err := s.kv.Get(ctx, models.SessionTokenKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read session token")
		return nil, false
	}
	if !ok || token == "" {
		return nil, false
	}

	raw, ok, err := s.kv.Get(ctx, models.SessionUserKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read session user")
		return nil, false
	}
	if !ok || raw == "" {
		return nil, false
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn().Err(err).Msg("Stored user record is corrupt")
		return nil, false
	}
	if !user.Complete() {
		return nil, false
	}

	return &models.Session{Token: token, User: user}, true
}

// Clear is idempotent.
func (s *Store) Clear(ctx context.Context) error {
	if batch, ok := s.kv.(domain.BatchKVStore); ok {
		if err := batch.RemoveMany(ctx, models.SessionTokenKey, models.SessionUserKey); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}
	// token first: a leftover user without a token is already "no session"
	if err := s.kv.Remove(ctx, models.SessionTokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	if err := s.kv.Remove(ctx, models.SessionUserKey); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	return nil
}
