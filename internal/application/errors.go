package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
	"github.com/ericfisherdev/codeguardian/internal/domain/settings"
)

var (
	// ErrAuthenticationMissing is returned when an operation that talks to the
	// backend is attempted without a signed-in session.
	ErrAuthenticationMissing = errors.New("authentication missing: sign in first")

	// ErrSessionExpired is returned when the backend rejected the credential
	// (401) or the credential's own expiry has passed. The session has
	// already been cleared when this is returned.
	ErrSessionExpired = errors.New("your session has expired, please sign in again")

	// ErrEmptyCode is returned when a review is requested for blank input.
	ErrEmptyCode = errors.New("please enter some code to review")

	// ErrNoWorkspace is returned when a settings operation targets a
	// repository that is not open in the session's workspace.
	ErrNoWorkspace = errors.New("settings are not open for this repository")

	// ErrSuperseded is returned by a settings load whose view was replaced
	// or closed before the load finished. Its result has been discarded.
	ErrSuperseded = errors.New("settings view was superseded")
)

// LoadError reports a section whose load failed with something other than
// 401 or 404. Status is 0 when the body, not the status, was the problem.
type LoadError struct {
	Section settings.Section
	Status  int
	Err     error
}

func (e *LoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("loading %s settings: status %d", e.Section, e.Status)
	}
	return fmt.Sprintf("loading %s settings: %v", e.Section, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SectionFailure is one section that could not be saved.
type SectionFailure struct {
	Section settings.Section
	Status  int
	Err     error
}

// SaveError reports a save in which at least one section failed. Sections
// in Landed were persisted and are not rolled back.
type SaveError struct {
	Failures []SectionFailure
	Landed   []settings.Section
}

func (e *SaveError) Error() string {
	if len(e.Failures) == 0 {
		return "saving settings failed"
	}
	first := e.Failures[0]
	var b strings.Builder
	fmt.Fprintf(&b, "saving %s settings failed", first.Section)
	if first.Status != 0 {
		fmt.Fprintf(&b, " with status %d", first.Status)
	} else if first.Err != nil {
		fmt.Fprintf(&b, ": %v", first.Err)
	}
	if n := len(e.Failures) - 1; n > 0 {
		fmt.Fprintf(&b, " (and %d more)", n)
	}
	return b.String()
}

// Sections returns the failed sections in canonical order.
func (e *SaveError) Sections() []settings.Section {
	out := make([]settings.Section, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Section
	}
	return out
}

// ErrRepositoryNotFound is returned when a repository id is not among the
// user's repositories.
var ErrRepositoryNotFound = errors.New("repository not found")

// checkAuth converts a backend 401 into ErrSessionExpired, clearing the
// session. Other errors are returned unchanged.
func checkAuth(ctx context.Context, sess *Session, err error) error {
	if errors.Is(err, driven.ErrUnauthorized) {
		return sess.Expire(ctx)
	}
	return err
}

// ErrReviewUnavailable is returned when no code reviewer or source fetcher
// is configured.
var ErrReviewUnavailable = errors.New("code review is not configured")

// IsAuthError reports whether err means the caller must sign in again.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthenticationMissing) || errors.Is(err, ErrSessionExpired)
}
