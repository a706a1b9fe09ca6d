package imagestore

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"qbank-admin/pkg/staging"
)

type MemoryStore struct {
	cache *cache.Cache
}

var _ Store = &MemoryStore{}

// NewMemoryStore keeps images for ttl by default and sweeps expired ones
// every cleanup interval.
func NewMemoryStore(ttl, cleanup time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(ttl, cleanup)}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, index int, img Image, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	s.cache.Set(key(sessionID, index), img, ttl)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string, index int) (Image, error) {
	if x, found := s.cache.Get(key(sessionID, index)); found {
		return x.(Image), nil
	}
	return Image{}, staging.ErrImageNotFound
}

func (s *MemoryStore) Purge(_ context.Context, sessionID string) (int, error) {
	prefix := sessionID + ":"
	n := 0
	for k := range s.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			s.cache.Delete(k)
			n++
		}
	}
	return n, nil
}
