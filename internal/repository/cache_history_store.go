package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	"SignalForge/pkg/cache"
)

const signalKeyPrefix = "signal"

// CacheHistoryStore implements HistoryStore on a key-value cache. Each
// active signal is one key whose TTL is the remaining dedup window, so
// expiry needs no query-time filter. Backed by Redis in production and by
// the in-memory cache in tests and dry runs.
type CacheHistoryStore struct {
	c   cache.Service
	now func() time.Time
}

func NewCacheHistoryStore(c cache.Service) *CacheHistoryStore {
	return &CacheHistoryStore{c: c, now: time.Now}
}

func signalKey(symbol string, d models.Direction) string {
	return cache.GenerateKeyWithParams(signalKeyPrefix, strings.ToUpper(symbol), d)
}

func (s *CacheHistoryStore) HasActiveSignal(ctx context.Context, symbol string, direction models.Direction) (bool, error) {
	ok, err := s.c.Exists(ctx, signalKey(symbol, direction))
	if err != nil {
		return false, domrepo.NewStoreError("lookup", err)
	}
	return ok, nil
}

func (s *CacheHistoryStore) RecordSignal(ctx context.Context, rec *models.SignalRecord) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return domrepo.NewStoreError("record", fmt.Errorf("record for %s already expired", rec.Symbol))
	}
	ok, err := s.c.SetNX(ctx, signalKey(rec.Symbol, rec.Direction), rec, ttl)
	if err != nil {
		return domrepo.NewStoreError("record", err)
	}
	if !ok {
		return domrepo.ErrDuplicateSignal
	}
	return nil
}

func (s *CacheHistoryStore) ActiveSignals(ctx context.Context) ([]models.SignalRecord, error) {
	keys, err := s.c.Keys(ctx, cache.BuildPattern(signalKeyPrefix+":"))
	if err != nil {
		return nil, domrepo.NewStoreError("list", err)
	}
	out := make([]models.SignalRecord, 0, len(keys))
	for _, k := range keys {
		var rec models.SignalRecord
		if err := s.c.Get(ctx, k, &rec); err != nil {
			if errors.Is(err, cache.ErrCacheMiss) {
				continue
			}
			return nil, domrepo.NewStoreError("list", err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *CacheHistoryStore) Health(ctx context.Context) error {
	if err := s.c.Ping(ctx); err != nil {
		return domrepo.NewStoreError("health", err)
	}
	return nil
}

func (s *CacheHistoryStore) Close() error { return s.c.Close() }
