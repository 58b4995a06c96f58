package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// SessionCookie is the name of the browser cookie carrying the session id.
const SessionCookie = "codeguardian_session"

// Session is the explicit, shared session context: the signed-in user and
// the bearer credential. Every backend call reads the credential through
// Credential at the moment the request is built, so a concurrent Clear is
// observed by the next request.
type Session struct {
	mu        sync.RWMutex
	id        string
	user      *model.User
	token     string
	createdAt time.Time
	store     driven.SessionStore
}

// NewSession creates an empty session with the given id. store may be nil
// for a purely in-memory session.
func NewSession(id string, store driven.SessionStore) *Session {
	return &Session{id: id, store: store}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start records a successful login and persists it.
func (s *Session) Start(ctx context.Context, user model.User, token string) error {
	if token == "" {
		return fmt.Errorf("starting session: %w", ErrAuthenticationMissing)
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.user = &user
	s.token = token
	s.createdAt = now
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, model.Session{ID: s.id, User: user, Token: token, CreatedAt: now}); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}

// Init restores the session from the persistent store. A missing record
// leaves the session signed out.
func (s *Session) Init(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	stored, err := s.store.Load(ctx, s.id)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if stored == nil {
		s.user, s.token, s.createdAt = nil, "", time.Time{}
		return nil
	}
	u := stored.User
	s.user = &u
	s.token = stored.Token
	s.createdAt = stored.CreatedAt
	return nil
}

// Clear signs the session out and removes it from the persistent store.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.user, s.token, s.createdAt = nil, "", time.Time{}
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(ctx, s.id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Expire clears the session after the backend rejected its credential and
// returns ErrSessionExpired. A failure to delete the stored record is joined
// onto the returned error.
func (s *Session) Expire(ctx context.Context) error {
	if err := s.Clear(ctx); err != nil {
		return errors.Join(ErrSessionExpired, err)
	}
	return ErrSessionExpired
}

// Credential returns the bearer credential for one outgoing request. It
// returns ErrAuthenticationMissing when signed out and ErrSessionExpired
// (after clearing) when the credential is a JWT whose exp claim has passed.
func (s *Session) Credential(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return "", ErrAuthenticationMissing
	}
	if tokenExpired(token, time.Now()) {
		return "", s.Expire(ctx)
	}
	return token, nil
}

// User returns the signed-in user.
func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Authenticated reports whether the session holds a credential.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// CreatedAt returns when the session was started.
func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// tokenExpired reports whether token is a JWT with an exp claim before now.
// Tokens that are not JWTs, or carry no exp, never expire locally.
func tokenExpired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.VerifyExpiresAt(now, true)
}

// SessionManager maps browser session ids to Session values backed by a
// shared SessionStore. Sessions older than the TTL are signed out on their
// next lookup; a zero TTL disables the age check.
type SessionManager struct {
	mu       sync.Mutex
	store    driven.SessionStore
	ttl      time.Duration
	sessions map[string]*Session
}

// NewSessionManager creates a manager over store.
func NewSessionManager(store driven.SessionStore, ttl time.Duration) *SessionManager {
	return &SessionManager{
		store:    store,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session for a freshly authenticated user.
func (m *SessionManager) Create(ctx context.Context, user model.User, token string) (*Session, error) {
	sess := NewSession(uuid.NewString(), m.store)
	if err := sess.Start(ctx, user, token); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()
	return sess, nil
}

// Get returns the session for id, restoring it from the store on first
// use. A session that does not exist anywhere, or has outlived the TTL, is
// returned signed out.
func (m *SessionManager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok && !m.live(sess) {
		delete(m.sessions, id)
		ok = false
	}
	m.mu.Unlock()
	if ok {
		return sess, nil
	}

	sess = NewSession(id, m.store)
	if err := sess.Init(ctx); err != nil {
		return nil, err
	}
	if sess.Authenticated() && m.expired(sess) {
		if err := sess.Clear(ctx); err != nil {
			return nil, err
		}
	}
	if !sess.Authenticated() {
		return sess, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok && m.live(existing) {
		return existing, nil
	}
	m.sessions[id] = sess
	return sess, nil
}

// Destroy signs the session out and forgets it.
func (m *SessionManager) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		sess = NewSession(id, m.store)
	}
	return sess.Clear(ctx)
}

// Prune forgets cached sessions that are signed out or older than the TTL
// and returns their ids. Stored records are left to the store's own pruning.
func (m *SessionManager) Prune() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []string
	for id, sess := range m.sessions {
		if !m.live(sess) {
			delete(m.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Active reports whether id names a cached, signed-in session within the TTL.
func (m *SessionManager) Active(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	return ok && m.live(sess)
}

// Len returns the number of cached sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) live(sess *Session) bool {
	return sess.Authenticated() && !m.expired(sess)
}

func (m *SessionManager) expired(sess *Session) bool {
	if m.ttl <= 0 {
		return false
	}
	created := sess.CreatedAt()
	return !created.IsZero() && time.Since(created) > m.ttl
}
