// Package keyring persists the CLI session in the operating system's
// credential store.
package keyring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// DefaultService is the keyring service name sessions are stored under.
const DefaultService = "codeguardian"

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore keeps each session as one JSON-encoded keyring secret keyed
// by session id.
type SessionStore struct {
	service string
}

// NewSessionStore creates a SessionStore under the given keyring service.
// An empty service uses DefaultService.
func NewSessionStore(service string) *SessionStore {
	if service == "" {
		service = DefaultService
	}
	return &SessionStore{service: service}
}

// Save stores or replaces the session.
func (s *SessionStore) Save(_ context.Context, session model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := gokeyring.Set(s.service, session.ID, string(data)); err != nil {
		return fmt.Errorf("keyring set %q: %w", session.ID, err)
	}
	return nil
}

// Load returns the stored session, or (nil, nil) if none exists.
func (s *SessionStore) Load(_ context.Context, id string) (*model.Session, error) {
	data, err := gokeyring.Get(s.service, id)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keyring get %q: %w", id, err)
	}

	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", id, err)
	}
	return &session, nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	err := gokeyring.Delete(s.service, id)
	if err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %q: %w", id, err)
	}
	return nil
}
