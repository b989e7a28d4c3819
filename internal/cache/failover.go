package cache

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"roombook/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStore serves from primary and switches to fallback after a primary
// error. The primary is retried once recoveryInterval has passed.
//
// Deletes that fail on the primary are remembered and replayed before the
// primary serves another read or write.
type FailoverStore struct {
	primary   domain.CacheStore
	fallback  domain.CacheStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewFailoverStore(primary, fallback domain.CacheStore, logger *zerolog.Logger) *FailoverStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *FailoverStore) markDown(err error) {
	if !s.isDown.Swap(true) {
		s.logger.Error().Err(err).Msg("Primary cache failed, falling back to memory")
	}
	s.lastCheck.Store(s.now().UnixNano())
}

// usePrimary reports whether the call should go to the primary store.
func (s *FailoverStore) usePrimary() bool {
	if !s.isDown.Load() {
		return true
	}
	return s.now().Sub(time.Unix(0, s.lastCheck.Load())) > recoveryInterval
}

func (s *FailoverStore) recovered() {
	if s.isDown.Swap(false) {
		s.logger.Info().Msg("Primary cache recovered")
	}
}

// flushDeletes removes the pending keys and extra from the primary. Keys of a
// failed attempt stay pending.
func (s *FailoverStore) flushDeletes(ctx context.Context, extra ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 && len(extra) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(s.pending)+len(extra))
	for key := range s.pending {
		set[key] = struct{}{}
	}
	for _, key := range extra {
		set[key] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if err := s.primary.Delete(ctx, keys...); err != nil {
		s.pending = set
		return err
	}
	if len(s.pending) > 0 {
		s.logger.Info().Int("keys", len(s.pending)).Msg("Replayed cache invalidations on primary")
	}
	s.pending = nil
	return nil
}

func (s *FailoverStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.usePrimary() {
		val, found, err := s.getPrimary(ctx, key)
		if err == nil {
			s.recovered()
			return val, found, nil
		}
		s.markDown(err)
	}
	return s.fallback.Get(ctx, key)
}

func (s *FailoverStore) getPrimary(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.flushDeletes(ctx); err != nil {
		return nil, false, err
	}
	return s.primary.Get(ctx, key)
}

func (s *FailoverStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.usePrimary() {
		err := s.flushDeletes(ctx)
		if err == nil {
			err = s.primary.Set(ctx, key, value, ttl)
		}
		if err == nil {
			s.recovered()
			return nil
		}
		s.markDown(err)
	}
	return s.fallback.Set(ctx, key, value, ttl)
}

// Delete removes keys from the fallback and always tries the primary, even
// while it is marked down. Keys the primary rejects are kept until it accepts
// them, so it never serves an entry invalidated during an outage.
func (s *FailoverStore) Delete(ctx context.Context, keys ...string) error {
	if err := s.fallback.Delete(ctx, keys...); err != nil {
		return err
	}
	if err := s.flushDeletes(ctx, keys...); err != nil {
		s.markDown(err)
	}
	return nil
}

func (s *FailoverStore) IsDown() bool {
	return s.isDown.Load()
}
