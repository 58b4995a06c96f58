package application_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

func TestReviewService_RejectsBlankCode(t *testing.T) {
	reviewer := &mockReviewer{reply: "unused"}
	svc := application.NewReviewService(reviewer, nil, slog.Default())

	for _, code := range []string{"", "   ", "\n\t\n"} {
		_, err := svc.Review(context.Background(), code)
		assert.ErrorIs(t, err, application.ErrEmptyCode)
	}
	assert.Empty(t, reviewer.codes)
}

func TestReviewService_ReturnsParsedReview(t *testing.T) {
	reviewer := &mockReviewer{reply: "### Overall Summary\nLooks **good**.\n\n### Potential Bugs\nNo issues found.\n"}
	svc := application.NewReviewService(reviewer, nil, slog.Default())

	res, err := svc.Review(context.Background(), "func main() {}")
	require.NoError(t, err)

	assert.Equal(t, []string{"func main() {}"}, reviewer.codes)
	assert.Equal(t, reviewer.reply, res.Markdown)
	assert.Equal(t, []string{"Overall Summary", "Potential Bugs"}, res.Document.Headings())
	assert.Contains(t, res.HTML, "<strong>good</strong>")
	assert.Nil(t, res.Source)
}

func TestReviewService_ReviewerFailure(t *testing.T) {
	reviewer := &mockReviewer{err: errors.New("quota exceeded")}
	svc := application.NewReviewService(reviewer, nil, slog.Default())

	_, err := svc.Review(context.Background(), "x := 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get review")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestReviewService_Unavailable(t *testing.T) {
	svc := application.NewReviewService(nil, nil, slog.Default())

	assert.False(t, svc.Available())
	_, err := svc.Review(context.Background(), "x := 1")
	assert.ErrorIs(t, err, application.ErrReviewUnavailable)
	_, err = svc.ReviewSource(context.Background(), driven.SourceRef{Owner: "a", Repo: "b", Path: "c"})
	assert.ErrorIs(t, err, application.ErrReviewUnavailable)
}

func TestReviewService_ReviewSourceFetchesThenReviews(t *testing.T) {
	reviewer := &mockReviewer{reply: "### Overall Summary\nFine."}
	fetcher := &mockFetcher{files: map[string]string{"cmd/main.go": "package main"}}
	svc := application.NewReviewService(reviewer, fetcher, slog.Default())

	ref := driven.SourceRef{Owner: "acme", Repo: "api", Path: "cmd/main.go", Ref: "v1.2.0"}
	res, err := svc.ReviewSource(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, []driven.SourceRef{ref}, fetcher.refs)
	assert.Equal(t, []string{"package main"}, reviewer.codes)
	require.NotNil(t, res.Source)
	assert.Equal(t, ref, *res.Source)
}

func TestReviewService_ReviewSourceMissingFile(t *testing.T) {
	svc := application.NewReviewService(&mockReviewer{}, &mockFetcher{}, slog.Default())

	_, err := svc.ReviewSource(context.Background(), driven.SourceRef{Owner: "acme", Repo: "api", Path: "nope.go"})
	assert.ErrorIs(t, err, driven.ErrNotFound)
}

func TestParseSourceRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    driven.SourceRef
		wantErr bool
	}{
		{
			name:  "path only",
			input: "acme/api/cmd/server/main.go",
			want:  driven.SourceRef{Owner: "acme", Repo: "api", Path: "cmd/server/main.go"},
		},
		{
			name:  "with ref",
			input: "acme/api/main.go@feature/x",
			want:  driven.SourceRef{Owner: "acme", Repo: "api", Path: "main.go", Ref: "feature/x"},
		},
		{
			name:  "blob url",
			input: "https://github.com/acme/api/blob/main/internal/app.go",
			want:  driven.SourceRef{Owner: "acme", Repo: "api", Path: "internal/app.go", Ref: "main"},
		},
		{name: "empty", input: "  ", wantErr: true},
		{name: "missing path", input: "acme/api", wantErr: true},
		{name: "empty ref", input: "acme/api/main.go@", wantErr: true},
		{name: "other host", input: "https://gitlab.com/acme/api/blob/main/x.go", wantErr: true},
		{name: "tree url", input: "https://github.com/acme/api/tree/main/internal", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := application.ParseSourceRef(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, application.ErrInvalidSourceRef)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
