package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// PRDashboard is one fetched page of the PR dashboard with its stat cards.
type PRDashboard struct {
	Page   model.PullRequestPage
	Totals model.ActivityTotals
	Links  []PageLink
}

// PRService serves the server-paginated PR summary dashboard.
type PRService struct {
	api    driven.PullRequestAPI
	logger *slog.Logger
}

// NewPRService creates a PRService.
func NewPRService(api driven.PullRequestAPI, logger *slog.Logger) *PRService {
	return &PRService{api: api, logger: logger}
}

// Fetch runs q against the backend. The PR count card shows the backend's
// total; the activity cards sum the returned page.
func (s *PRService) Fetch(ctx context.Context, sess *Session, q PRQuery) (PRDashboard, error) {
	token, err := sess.Credential(ctx)
	if err != nil {
		return PRDashboard{}, err
	}

	limit := q.Limit
	if !ValidPageSize(limit) {
		limit = DefaultPageSize
	}
	page, err := s.api.ListPullRequestSummaries(ctx, token, driven.PullRequestListOptions{
		Page:  max(q.Page, 1),
		Limit: limit,
		Name:  q.Name,
		From:  q.From,
		To:    q.To,
	})
	if err != nil {
		return PRDashboard{}, fmt.Errorf("listing pull request summaries: %w", checkAuth(ctx, sess, err))
	}

	if page.Pagination.TotalPages == 0 {
		page.Pagination.TotalPages = TotalPages(page.Pagination.Total, limit)
	}
	totals := model.SumActivity(page.Data)
	totals.PullRequests = page.Pagination.Total

	s.logger.Debug("fetched pull request summaries",
		"page", page.Pagination.Page,
		"total", page.Pagination.Total,
		"name", q.Name,
	)

	return PRDashboard{
		Page:   page,
		Totals: totals,
		Links:  PageNumbers(max(page.Pagination.Page, 1), page.Pagination.TotalPages),
	}, nil
}
