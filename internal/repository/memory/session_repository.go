package memory

import (
	"context"
	"sort"
	"time"

	"ai-act-intake-be/pkg/intake"

	"github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

// ActiveSession is a live session together with the cancel func of the
// context it runs under.
type ActiveSession struct {
	Session *intake.Session
	Cancel  context.CancelFunc
}

// SessionRepository keeps running sessions in memory. With a positive TTL an
// entry that sees no activity for that long expires and its session is
// cancelled; otherwise entries live until they are deleted.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	cleanup := cleanupInterval
	if ttl <= 0 {
		ttl = cache.NoExpiration
	} else if ttl < cleanup {
		cleanup = ttl
	}
	c := cache.New(ttl, cleanup)
	c.OnEvicted(func(_ string, x interface{}) {
		if entry, ok := x.(*ActiveSession); ok && entry.Cancel != nil {
			entry.Cancel()
		}
	})
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *intake.Session, cancel context.CancelFunc) {
	r.cache.Set(session.ID, &ActiveSession{Session: session, Cancel: cancel}, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*ActiveSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*ActiveSession), true
	}
	return nil, false
}

// Touch restarts the expiry of a session.
func (r *SessionRepository) Touch(sessionID string) {
	if entry, ok := r.Get(sessionID); ok {
		r.cache.Set(sessionID, entry, cache.DefaultExpiration)
	}
}

// Delete removes the session and cancels it.
func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// List returns snapshots of all live sessions, oldest first.
func (r *SessionRepository) List() []intake.Snapshot {
	items := r.cache.Items()
	out := make([]intake.Snapshot, 0, len(items))
	for _, item := range items {
		if entry, ok := item.Object.(*ActiveSession); ok {
			out = append(out, entry.Session.Snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
