package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
	"github.com/ericfisherdev/codeguardian/internal/markdown"
)

// ReviewResult is a finished code review.
type ReviewResult struct {
	Markdown string
	Document markdown.Document
	HTML     string
	Source   *driven.SourceRef // Set when the code was fetched from a repository.
}

// ReviewService runs AI code reviews.
type ReviewService struct {
	reviewer driven.CodeReviewer
	source   driven.SourceFetcher
	logger   *slog.Logger
}

// NewReviewService creates a ReviewService. reviewer and source may be nil
// when the corresponding integration is not configured.
func NewReviewService(reviewer driven.CodeReviewer, source driven.SourceFetcher, logger *slog.Logger) *ReviewService {
	return &ReviewService{reviewer: reviewer, source: source, logger: logger}
}

// Available reports whether a code reviewer is configured.
func (s *ReviewService) Available() bool {
	return s.reviewer != nil
}

// CanFetchSource reports whether repository files can be fetched for review.
func (s *ReviewService) CanFetchSource() bool {
	return s.reviewer != nil && s.source != nil
}

// Review sends code to the reviewer. Blank input is rejected without a
// request.
func (s *ReviewService) Review(ctx context.Context, code string) (ReviewResult, error) {
	if strings.TrimSpace(code) == "" {
		return ReviewResult{}, ErrEmptyCode
	}
	if s.reviewer == nil {
		return ReviewResult{}, ErrReviewUnavailable
	}

	text, err := s.reviewer.Review(ctx, code)
	if err != nil {
		s.logger.Error("code review failed", "error", err)
		return ReviewResult{}, fmt.Errorf("failed to get review: %w", err)
	}

	doc := markdown.Parse(text)
	return ReviewResult{Markdown: text, Document: doc, HTML: doc.HTML()}, nil
}

// ReviewSource fetches one file from a repository and reviews it.
func (s *ReviewService) ReviewSource(ctx context.Context, ref driven.SourceRef) (ReviewResult, error) {
	if s.source == nil {
		return ReviewResult{}, ErrReviewUnavailable
	}

	code, err := s.source.FetchFile(ctx, ref)
	if err != nil {
		return ReviewResult{}, fmt.Errorf("fetching %s/%s/%s: %w", ref.Owner, ref.Repo, ref.Path, err)
	}

	res, err := s.Review(ctx, code)
	if err != nil {
		return ReviewResult{}, err
	}
	res.Source = &ref
	return res, nil
}

// ErrInvalidSourceRef is returned for file references that cannot be parsed.
var ErrInvalidSourceRef = errors.New("invalid source reference")

// ParseSourceRef parses "owner/repo/path/to/file[@ref]" or a GitHub blob
// URL ("https://github.com/owner/repo/blob/<ref>/path/to/file").
func ParseSourceRef(raw string) (driven.SourceRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return driven.SourceRef{}, fmt.Errorf("%w: empty", ErrInvalidSourceRef)
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return parseBlobURL(raw)
	}

	var ref string
	if at := strings.LastIndex(raw, "@"); at >= 0 {
		raw, ref = raw[:at], raw[at+1:]
		if ref == "" {
			return driven.SourceRef{}, fmt.Errorf("%w: empty ref after @", ErrInvalidSourceRef)
		}
	}

	parts := strings.SplitN(raw, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || strings.Trim(parts[2], "/") == "" {
		return driven.SourceRef{}, fmt.Errorf("%w: want owner/repo/path[@ref], got %q", ErrInvalidSourceRef, raw)
	}
	return driven.SourceRef{Owner: parts[0], Repo: parts[1], Path: strings.Trim(parts[2], "/"), Ref: ref}, nil
}

func parseBlobURL(raw string) (driven.SourceRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return driven.SourceRef{}, fmt.Errorf("%w: %w", ErrInvalidSourceRef, err)
	}
	if u.Host != "github.com" && u.Host != "www.github.com" {
		return driven.SourceRef{}, fmt.Errorf("%w: unsupported host %q", ErrInvalidSourceRef, u.Host)
	}

	// owner/repo/blob/ref/path...
	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 5)
	if len(parts) < 5 || parts[2] != "blob" || parts[4] == "" {
		return driven.SourceRef{}, fmt.Errorf("%w: not a file URL: %q", ErrInvalidSourceRef, raw)
	}
	return driven.SourceRef{Owner: parts[0], Repo: parts[1], Ref: parts[3], Path: parts[4]}, nil
}
