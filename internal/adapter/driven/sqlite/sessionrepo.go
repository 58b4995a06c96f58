package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SessionRepo is the SQLite implementation of the SessionStore port.
// Bearer credentials are encrypted with AES-256-GCM before write and
// decrypted after read.
type SessionRepo struct {
	db     *DB
	sealer sealer
}

// NewSessionRepo creates a SessionRepo. key must be 32 bytes, or nil to
// disable persistence (Save and Load return driven.ErrEncryptionKeyNotSet).
func NewSessionRepo(db *DB, key []byte) *SessionRepo {
	return &SessionRepo{db: db, sealer: sealer{key: key}}
}

// Save stores or replaces a session.
func (r *SessionRepo) Save(ctx context.Context, s model.Session) error {
	encrypted, err := r.sealer.seal(s.Token)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO sessions (id, user_id, username, email, avatar_url, token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			username = excluded.username,
			email = excluded.email,
			avatar_url = excluded.avatar_url,
			token = excluded.token,
			updated_at = CURRENT_TIMESTAMP`

	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = r.db.Writer.ExecContext(ctx, query,
		s.ID, s.User.ID, s.User.Username, s.User.Email, s.User.AvatarURL,
		encrypted, createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save session %q: %w", s.ID, err)
	}
	return nil
}

// Load returns the session with the given id, or (nil, nil) if none exists.
func (r *SessionRepo) Load(ctx context.Context, id string) (*model.Session, error) {
	if r.sealer.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `
		SELECT id, user_id, username, email, avatar_url, token, created_at
		FROM sessions WHERE id = ?`

	var (
		s         model.Session
		encrypted string
		createdAt string
	)
	err := r.db.Reader.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.User.ID, &s.User.Username, &s.User.Email, &s.User.AvatarURL,
		&encrypted, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", id, err)
	}

	s.Token, err = r.sealer.open(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt session %q: %w", id, err)
	}
	s.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for session %q: %w", id, err)
	}
	return &s, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sessions WHERE id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete session %q: %w", id, err)
	}
	return nil
}

// DeleteOlderThan removes sessions created before cutoff and returns how
// many were removed.
func (r *SessionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE created_at < ?`
	res, err := r.db.Writer.ExecContext(ctx, query, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return n, nil
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
