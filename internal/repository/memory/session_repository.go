package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"qbank-admin/internal/entity"
)

// StagingSessionRepository holds parsed uploads until they are committed or
// expire. A commit claims its session with Take so two commits of the same
// upload cannot both apply it.
type StagingSessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	claimed   map[string]bool
	onExpired []func(sessionID string)
}

func NewStagingSessionRepository(ttl, cleanupInterval time.Duration) *StagingSessionRepository {
	r := &StagingSessionRepository{
		cache: cache.New(ttl, cleanupInterval),
		ttl:     ttl,
		now:     time.Now,
		claimed: make(map[string]bool),
	}
	r.cache.OnEvicted(r.evicted)
	return r
}

// OnExpired registers fn for sessions dropped by the janitor, not for ones
// removed by Take or Delete.
func (r *StagingSessionRepository) OnExpired(fn func(sessionID string)) {
	r.mu.Lock()
	r.onExpired = append(r.onExpired, fn)
	r.mu.Unlock()
}

func (r *StagingSessionRepository) TTL() time.Duration {
	return r.ttl
}

// Save stores a new session and stamps its expiry.
func (r *StagingSessionRepository) Save(session *entity.StagingSession) {
	now := r.now()
	session.CreatedAt = now
	session.ExpiresAt = now.Add(r.ttl)
	r.cache.Set(session.Id, session, r.ttl)
}

func (r *StagingSessionRepository) Get(sessionID string) (*entity.StagingSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*entity.StagingSession), true
	}
	return nil, false
}

// Take removes and returns the session. Only one caller can take a given
// session.
func (r *StagingSessionRepository) Take(sessionID string) (*entity.StagingSession, bool) {
	x, ok := r.claim(sessionID)
	if !ok {
		return nil, false
	}
	r.cache.Delete(sessionID)
	return x.(*entity.StagingSession), true
}

// Restore puts back a session claimed by a commit that applied nothing. It
// keeps the original expiry and returns false when that has already passed.
func (r *StagingSessionRepository) Restore(session *entity.StagingSession) bool {
	remaining := session.Remaining(r.now())
	if remaining <= 0 {
		return false
	}
	r.cache.Set(session.Id, session, remaining)
	return true
}

func (r *StagingSessionRepository) Delete(sessionID string) {
	if _, ok := r.claim(sessionID); ok {
		r.cache.Delete(sessionID)
	}
}

// claim marks a live session as being removed on purpose, so the eviction
// hook that go-cache fires on Delete does not report it as expired.
func (r *StagingSessionRepository) claim(sessionID string) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimed[sessionID] {
		return nil, false
	}
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	r.claimed[sessionID] = true
	return x, true
}

func (r *StagingSessionRepository) evicted(sessionID string, _ interface{}) {
	r.mu.Lock()
	if r.claimed[sessionID] {
		delete(r.claimed, sessionID)
		r.mu.Unlock()
		return
	}
	hooks := append([]func(string){}, r.onExpired...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(sessionID)
	}
}
