// Package sessionstore is the in-memory conversation session registry.
// Grounded on core/session.py's Session/SessionStore: each session pairs a
// parsed form schema with its accumulated orchestration state, tracks
// access recency for TTL expiry, and is guarded by a per-conversation
// mutex so at most one turn runs against a given session at a time.
package sessionstore

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/formpilotai/formpilot/internal/concurrency"
	"github.com/formpilotai/formpilot/internal/formctx"
	"github.com/formpilotai/formpilot/internal/formstate"
	"github.com/formpilotai/formpilot/internal/session"
)

// DefaultTimeout matches core/session.py's DEFAULT_SESSION_TIMEOUT_SECONDS.
const DefaultTimeout = 30 * time.Minute

// Session is a single conversation: the schema it was created against,
// its answer bookkeeping, its accumulated graph state, and access
// timestamps used for TTL expiry.
type Session struct {
	ConversationID string
	SchemaName     string
	FormContext    *formctx.FormContext
	Form           *formstate.State
	State          *session.State

	CreatedAt    time.Time
	LastAccessed time.Time
}

// touch refreshes the last-accessed timestamp; called on every successful
// Get.
func (s *Session) touch(now time.Time) {
	s.LastAccessed = now
}

// isExpired reports whether the session has been idle longer than timeout.
func (s *Session) isExpired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastAccessed) > timeout
}

// Store is a thread-safe in-memory session registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	timeout  time.Duration
	locks    *concurrency.SimpleSessionLockManager
}

// New builds a Store with the given idle timeout. A timeout <= 0 falls
// back to DefaultTimeout.
func New(timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		locks:    concurrency.NewSimpleSessionLockManager(),
	}
}

// NewConversationID generates a lexicographically-sortable session
// identifier (time-prefixed, rather than a raw uuid4 — useful for log
// correlation and debug listing order).
func NewConversationID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Create registers a new session for the given schema/form-context, under
// conversationID if non-empty, else an auto-generated one.
func (st *Store) Create(conversationID, schemaName string, fc *formctx.FormContext) *Session {
	if conversationID == "" {
		conversationID = NewConversationID()
	}

	now := time.Now()
	sess := &Session{
		ConversationID: conversationID,
		SchemaName:     schemaName,
		FormContext:    fc,
		State:          session.NewState(fc),
		CreatedAt:      now,
		LastAccessed:   now,
	}
	if fc.Schema != nil {
		sess.Form = formstate.New(fc.Schema)
	}

	st.mu.Lock()
	st.sessions[conversationID] = sess
	st.mu.Unlock()

	return sess
}

// Get retrieves a session by id, returning (nil, false) if it doesn't
// exist or has expired. An expired session is evicted as a side effect,
// matching core/session.py's get_session.
func (st *Store) Get(conversationID string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[conversationID]
	if !ok {
		return nil, false
	}

	now := time.Now()
	if sess.isExpired(now, st.timeout) {
		delete(st.sessions, conversationID)
		st.locks.Forget(conversationID)
		return nil, false
	}

	sess.touch(now)
	return sess, true
}

// Delete removes a session. Returns true if it existed.
func (st *Store) Delete(conversationID string) bool {
	st.mu.Lock()
	_, existed := st.sessions[conversationID]
	delete(st.sessions, conversationID)
	st.mu.Unlock()

	st.locks.Forget(conversationID)
	return existed
}

// CleanupExpired removes every session idle longer than the store's
// timeout. Returns the number removed. Driven by the periodic sweep in
// cmd/formpilot (robfig/cron).
func (st *Store) CleanupExpired() int {
	now := time.Now()

	st.mu.Lock()
	var expired []string
	for id, sess := range st.sessions {
		if sess.isExpired(now, st.timeout) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	for _, id := range expired {
		st.locks.Forget(id)
	}
	return len(expired)
}

// Count returns the number of active sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// ListIDs returns every active conversation id.
func (st *Store) ListIDs() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Lock serializes turn processing for conversationID; callers must defer
// Unlock. Held only around a single turn's graph run (§5).
func (st *Store) Lock(conversationID string) {
	st.locks.Lock(conversationID)
}

// Unlock releases the per-session lock acquired by Lock.
func (st *Store) Unlock(conversationID string) {
	st.locks.Unlock(conversationID)
}
