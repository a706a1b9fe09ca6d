package readcache

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const DefaultTTL = 60 * time.Second

// Predicate selects cache keys by their canonical JSON form.
type Predicate func(key string) bool

// SubjectFragment matches every key of one subject regardless of page, size
// or filters.
func SubjectFragment(subjectID int64) Predicate {
	fragment := `"subjectId":` + itoa(subjectID)
	return func(key string) bool {
		return containsField(key, fragment)
	}
}

// entry is a shared, replayed result. Waiters block on done; val and err are
// immutable once done is closed.
type entry[T any] struct {
	done  chan struct{}
	val   T
	err   error
	stamp time.Time
}

// Store is a time-boxed cache of list reads with at most one in-flight
// request per key.
type Store[T any] struct {
	mu      sync.Mutex
	entries *cache.Cache
	ttl     time.Duration
	now     func() time.Time
	epoch   Epoch
	logger  *zap.Logger
}

type Option func(*options)

type options struct {
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds a store keyed under epoch. When epoch is an Advancer the store
// clears itself every time the epoch moves.
func New[T any](epoch Epoch, opts ...Option) *Store[T] {
	o := options{ttl: DefaultTTL, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if epoch == nil {
		epoch = staticEpoch(0)
	}

	s := &Store[T]{
		// Expiry is tracked per entry against the injected clock, not by go-cache.
		entries: cache.New(cache.NoExpiration, 0),
		ttl:     o.ttl,
		now:     o.now,
		epoch:   epoch,
		logger:  o.logger,
	}
	if a, ok := epoch.(Advancer); ok {
		a.OnAdvance(func(e uint64) {
			n := s.Invalidate(nil)
			s.logger.Debug("navigation epoch advanced, cache cleared", zap.Uint64("epoch", e), zap.Int("evicted", n))
		})
	}
	return s
}

func (s *Store[T]) Key(q Query) (string, error) {
	return KeyOf(s.epoch.Current(), q)
}

// IsCached reports whether a live entry exists for q.
func (s *Store[T]) IsCached(q Query) bool {
	key, err := s.Key(q)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	return ok && s.fresh(e)
}

// GetOrFetch returns the shared result for q, calling fetch only when no live
// entry exists. Concurrent callers for the same key share one fetch. A failed
// fetch evicts the key; a successful one refreshes its timestamp.
func (s *Store[T]) GetOrFetch(ctx context.Context, q Query, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	key, err := s.Key(q)
	if err != nil {
		return zero, err
	}

	s.mu.Lock()
	e, ok := s.lookup(key)
	if ok && s.fresh(e) {
		s.logger.Debug("read cache hit", zap.String("key", key))
	} else {
		e = &entry[T]{done: make(chan struct{}), stamp: s.now()}
		s.entries.Set(key, e, cache.NoExpiration)
		s.logger.Debug("read cache miss", zap.String("key", key))
		// The shared fetch must outlive any single waiter's cancellation.
		go s.resolve(context.WithoutCancel(ctx), key, e, fetch)
	}
	s.mu.Unlock()

	select {
	case <-e.done:
		return e.val, e.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (s *Store[T]) resolve(ctx context.Context, key string, e *entry[T], fetch func(context.Context) (T, error)) {
	val, err := fetch(ctx)

	s.mu.Lock()
	if err != nil {
		if cur, ok := s.lookup(key); ok && cur == e {
			s.entries.Delete(key)
		}
		s.logger.Debug("read cache fetch failed, key evicted", zap.String("key", key), zap.Error(err))
	} else {
		e.stamp = s.now()
	}
	e.val, e.err = val, err
	s.mu.Unlock()

	close(e.done)
}

// Invalidate evicts every key matching pred, or everything when pred is nil.
// It returns the number of evicted keys.
func (s *Store[T]) Invalidate(pred Predicate) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pred == nil {
		n := s.entries.ItemCount()
		s.entries.Flush()
		return n
	}
	n := 0
	for key := range s.entries.Items() {
		if pred(key) {
			s.entries.Delete(key)
			n++
		}
	}
	return n
}

// Len counts stored entries, stale ones included.
func (s *Store[T]) Len() int {
	return s.entries.ItemCount()
}

func (s *Store[T]) lookup(key string) (*entry[T], bool) {
	v, ok := s.entries.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*entry[T]), true
}

// fresh treats an unresolved entry as live whatever its age.
func (s *Store[T]) fresh(e *entry[T]) bool {
	select {
	case <-e.done:
	default:
		return true
	}
	return s.now().Sub(e.stamp) < s.ttl
}
