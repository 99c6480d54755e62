// Package loginsession keeps the server-side session store of each browser session,
// keyed by the value of the browser's session cookie.
package loginsession

import (
	"sync/atomic"
	"time"

	"github.com/jrsteele09/dayflow/session"
)

type Session struct {
	ID        string
	Store     *session.Store
	CreatedAt time.Time
	lastSeen  atomic.Int64 // unix nanoseconds
}

func NewSession(id string, store *session.Store, now time.Time) *Session {
	s := &Session{ID: id, Store: store, CreatedAt: now}
	s.Touch(now)
	return s
}

// Touch records activity on the session
func (s *Session) Touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

type Repo interface {
	Upsert(sessionID string, session *Session) error
	Get(sessionID string) (*Session, error)
	Delete(sessionID string) error
	List() []*Session
	Len() int
}
