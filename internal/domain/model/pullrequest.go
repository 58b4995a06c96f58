package model

import "time"

// PullRequestSummary holds per-PR activity counters reported by the backend.
type PullRequestSummary struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"` // Repository name.
	URL            string    `json:"url"`
	PullRequestURL string    `json:"url_pull_request"`
	Commits        int       `json:"commits"`
	Comments       int       `json:"comments"`
	ReviewComments int       `json:"review_comments"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ActivityTotals sums the activity counters of a set of summaries.
type ActivityTotals struct {
	PullRequests   int
	Commits        int
	Comments       int
	ReviewComments int
}

// SumActivity adds up commits, comments and review comments across summaries.
func SumActivity(summaries []PullRequestSummary) ActivityTotals {
	totals := ActivityTotals{PullRequests: len(summaries)}
	for _, s := range summaries {
		totals.Commits += s.Commits
		totals.Comments += s.Comments
		totals.ReviewComments += s.ReviewComments
	}
	return totals
}
