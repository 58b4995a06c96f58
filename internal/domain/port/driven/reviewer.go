package driven

import "context"

// CodeReviewer sends source code to a generative model and returns its
// Markdown critique.
type CodeReviewer interface {
	Review(ctx context.Context, code string) (string, error)
}

// SourceRef points at one file in a GitHub repository.
type SourceRef struct {
	Owner string
	Repo  string
	Path  string
	Ref   string // Branch, tag or commit; empty means the default branch.
}

// SourceFetcher retrieves file contents from a code host.
type SourceFetcher interface {
	FetchFile(ctx context.Context, ref SourceRef) (string, error)
}

// String formats the reference as owner/repo/path[@ref].
func (r SourceRef) String() string {
	s := r.Owner + "/" + r.Repo + "/" + r.Path
	if r.Ref != "" {
		s += "@" + r.Ref
	}
	return s
}
