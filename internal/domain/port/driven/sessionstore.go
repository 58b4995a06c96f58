package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by stores that encrypt credentials when
// they were constructed without a key.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set CODEGUARDIAN_SECRET_KEY")

// SessionStore defines the driven port for persisting authenticated sessions.
// Adapters encrypt or otherwise protect the bearer credential; this interface
// works with plaintext at the domain boundary.
type SessionStore interface {
	// Save stores or replaces the session with the given ID.
	Save(ctx context.Context, session model.Session) error

	// Load returns the session with the given ID, or (nil, nil) if none exists.
	Load(ctx context.Context, id string) (*model.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}
