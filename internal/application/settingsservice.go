package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
	"github.com/ericfisherdev/codeguardian/internal/domain/settings"
)

// SettingsService loads and saves the eight settings sections of a
// repository. Each section is a separate backend resource; both operations
// fan out one request per section.
type SettingsService struct {
	api    driven.SettingsAPI
	logger *slog.Logger
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(api driven.SettingsAPI, logger *slog.Logger) *SettingsService {
	return &SettingsService{api: api, logger: logger}
}

// Load fetches every section concurrently and merges each over its
// defaults. Sections the backend has never stored (404 or a null body) come
// back as defaults. A 401 on any section clears the session and returns
// ErrSessionExpired; any other failure returns a *LoadError and no
// aggregate.
func (s *SettingsService) Load(ctx context.Context, sess *Session, repoID int64) (settings.Aggregate, error) {
	if _, err := sess.Credential(ctx); err != nil {
		return nil, err
	}

	sections := settings.Sections()
	values := make([]settings.Values, len(sections))
	errs := make([]error, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	for i, sec := range sections {
		g.Go(func() error {
			v, err := s.loadSection(gctx, sess, repoID, sec)
			values[i], errs[i] = v, err
			return err
		})
	}
	_ = g.Wait()

	if err := firstLoadError(ctx, sess, errs); err != nil {
		s.logger.Warn("settings load failed", "repository_id", repoID, "error", err)
		return nil, err
	}

	agg := make(settings.Aggregate, len(sections))
	for i, sec := range sections {
		agg[sec] = values[i]
	}
	return agg, nil
}

func (s *SettingsService) loadSection(ctx context.Context, sess *Session, repoID int64, sec settings.Section) (settings.Values, error) {
	token, err := sess.Credential(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.api.GetSettingsSection(ctx, token, repoID, string(sec))
	switch {
	case errors.Is(err, driven.ErrNotFound):
		return settings.SectionDefaults(sec), nil
	case errors.Is(err, driven.ErrUnauthorized):
		return nil, err
	case err != nil:
		return nil, &LoadError{Section: sec, Status: driven.StatusCode(err), Err: err}
	}

	if isJSONNull(raw) {
		return settings.SectionDefaults(sec), nil
	}
	v, err := settings.DecodeSection(sec, raw)
	if err != nil {
		return nil, &LoadError{Section: sec, Err: err}
	}
	return v, nil
}

// firstLoadError picks the error a load reports. Authentication problems
// win over section failures, and cancellations caused by a sibling failure
// are ignored.
func firstLoadError(ctx context.Context, sess *Session, errs []error) error {
	for _, err := range errs {
		if errors.Is(err, driven.ErrUnauthorized) {
			return sess.Expire(ctx)
		}
	}
	for _, err := range errs {
		if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrAuthenticationMissing) {
			return err
		}
	}
	var cancelled error
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled) && ctx.Err() == nil:
			cancelled = err
		default:
			return err
		}
	}
	return cancelled
}

// Save writes every section concurrently with its full field set. All
// eight writes are attempted; landed sections are not rolled back when
// others fail. A 401 on any write clears the session and returns
// ErrSessionExpired; other failures return a *SaveError.
func (s *SettingsService) Save(ctx context.Context, sess *Session, repoID int64, agg settings.Aggregate) error {
	if _, err := sess.Credential(ctx); err != nil {
		return err
	}
	if err := agg.Validate(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	sections := settings.Sections()
	errs := make([]error, len(sections))

	var g errgroup.Group
	for i, sec := range sections {
		g.Go(func() error {
			token, err := sess.Credential(ctx)
			if err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = s.api.PutSettingsSection(ctx, token, repoID, string(sec), settings.EncodeSection(sec, agg[sec]))
			return nil
		})
	}
	_ = g.Wait()

	saveErr := &SaveError{}
	for i, sec := range sections {
		err := errs[i]
		switch {
		case err == nil:
			saveErr.Landed = append(saveErr.Landed, sec)
		case errors.Is(err, driven.ErrUnauthorized):
			s.logger.Warn("settings save rejected credential", "repository_id", repoID, "section", sec)
			return sess.Expire(ctx)
		case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrAuthenticationMissing):
			return err
		default:
			saveErr.Failures = append(saveErr.Failures, SectionFailure{Section: sec, Status: driven.StatusCode(err), Err: err})
		}
	}

	if len(saveErr.Failures) > 0 {
		s.logger.Error("settings save failed",
			"repository_id", repoID,
			"failed", saveErr.Sections(),
			"landed", saveErr.Landed,
			"error", saveErr,
		)
		return saveErr
	}

	s.logger.Info("settings saved", "repository_id", repoID)
	return nil
}

// isJSONNull reports whether a section body is empty or a literal null,
// which the backend uses for sections it has never stored.
func isJSONNull(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
