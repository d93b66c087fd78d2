package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"arenda/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverKVStore serves from primary until it fails, then from fallback,
// probing primary again once per recoveryInterval. Writes made while primary
// is down are replayed into it before it serves again; a nil entry in
// pending is a removal.
type FailoverKVStore struct {
	primary  domain.KVStore
	fallback domain.KVStore
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
	pending   map[string]*string
}

func NewFailoverKVStore(primary, fallback domain.KVStore, logger *zerolog.Logger) *FailoverKVStore {
	return &FailoverKVStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		pending:  make(map[string]*string),
	}
}

func (r *FailoverKVStore) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary store failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverKVStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > recoveryInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

// tryPrimary is usePrimary plus the replay of writes missed while down.
func (r *FailoverKVStore) tryPrimary(ctx context.Context) bool {
	if !r.usePrimary() {
		return false
	}
	if err := r.replay(ctx); err != nil {
		r.markDown(err)
		return false
	}
	return true
}

func (r *FailoverKVStore) journal(value *string, keys ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		r.pending[k] = value
	}
}

func (r *FailoverKVStore) replay(ctx context.Context) error {
	r.mu.Lock()
	if len(r.pending) == 0 {
		r.mu.Unlock()
		return nil
	}
	batch := make(map[string]*string, len(r.pending))
	for k, v := range r.pending {
		batch[k] = v
	}
	r.mu.Unlock()

	for k, v := range batch {
		var err error
		if v == nil {
			err = r.primary.Remove(ctx, k)
		} else {
			err = r.primary.Set(ctx, k, *v)
		}
		if err != nil {
			return err
		}
	}

	r.mu.Lock()
	for k, v := range batch {
		if r.pending[k] == v {
			delete(r.pending, k)
		}
	}
	r.mu.Unlock()
	r.logger.Info().Int("keys", len(batch)).Msg("Replayed fallback writes into primary store")
	return nil
}

func (r *FailoverKVStore) recovered() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary store recovered")
	}
}

func (r *FailoverKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if r.tryPrimary(ctx) {
		val, ok, err := r.primary.Get(ctx, key)
		if err == nil {
			r.recovered()
			return val, ok, nil
		}
		r.markDown(err)
	}
	return r.fallback.Get(ctx, key)
}

func (r *FailoverKVStore) Set(ctx context.Context, key, value string) error {
	if r.tryPrimary(ctx) {
		err := r.primary.Set(ctx, key, value)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}
	if err := r.fallback.Set(ctx, key, value); err != nil {
		return err
	}
	r.journal(&value, key)
	return nil
}

func (r *FailoverKVStore) Remove(ctx context.Context, key string) error {
	if r.tryPrimary(ctx) {
		err := r.primary.Remove(ctx, key)
		if err == nil {
			r.recovered()
			// the key may have been written while primary was down
			_ = r.fallback.Remove(ctx, key)
			return nil
		}
		r.markDown(err)
	}
	if err := r.fallback.Remove(ctx, key); err != nil {
		return err
	}
	r.journal(nil, key)
	return nil
}

func (r *FailoverKVStore) SetMany(ctx context.Context, values map[string]string) error {
	if r.tryPrimary(ctx) {
		err := setMany(ctx, r.primary, values)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}
	if err := setMany(ctx, r.fallback, values); err != nil {
		return err
	}
	for k, v := range values {
		r.journal(&v, k)
	}
	return nil
}

func (r *FailoverKVStore) RemoveMany(ctx context.Context, keys ...string) error {
	if r.tryPrimary(ctx) {
		err := removeMany(ctx, r.primary, keys...)
		if err == nil {
			r.recovered()
			_ = removeMany(ctx, r.fallback, keys...)
			return nil
		}
		r.markDown(err)
	}
	if err := removeMany(ctx, r.fallback, keys...); err != nil {
		return err
	}
	r.journal(nil, keys...)
	return nil
}

func setMany(ctx context.Context, store domain.KVStore, values map[string]string) error {
	if batch, ok := store.(domain.BatchKVStore); ok {
		return batch.SetMany(ctx, values)
	}
	for k, v := range values {
		if err := store.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func removeMany(ctx context.Context, store domain.KVStore, keys ...string) error {
	if batch, ok := store.(domain.BatchKVStore); ok {
		return batch.RemoveMany(ctx, keys...)
	}
	for _, k := range keys {
		if err := store.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
