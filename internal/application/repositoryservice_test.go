package application_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

func TestRepositoryService_ListPagesLocally(t *testing.T) {
	api := &mockRepositoryAPI{repos: reposNamed(25)}
	svc := application.NewRepositoryService(api, slog.Default())

	listing, err := svc.List(context.Background(), signedIn(t), "", 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 25, listing.Total)
	assert.Equal(t, 3, listing.TotalPages)
	assert.Equal(t, 2, listing.Page)
	require.Len(t, listing.Repositories, 10)
	assert.Equal(t, int64(11), listing.Repositories[0].ID)
	assert.Equal(t, int64(20), listing.Repositories[9].ID)

	// The whole collection is fetched without pagination parameters.
	require.Len(t, api.opts, 1)
	assert.Equal(t, driven.RepositoryListOptions{}, api.opts[0])
}

func TestRepositoryService_ListOutOfRangePageStaysOnFirst(t *testing.T) {
	api := &mockRepositoryAPI{repos: reposNamed(25)}
	svc := application.NewRepositoryService(api, slog.Default())

	listing, err := svc.List(context.Background(), signedIn(t), "", 4, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, listing.Page)
	assert.Equal(t, int64(1), listing.Repositories[0].ID)
}

func TestRepositoryService_ListFiltersByName(t *testing.T) {
	api := &mockRepositoryAPI{repos: []model.Repository{
		{ID: 1, Name: "api-gateway", FullName: "acme/api-gateway"},
		{ID: 2, Name: "web", FullName: "acme/web"},
		{ID: 3, Name: "tools", FullName: "API-team/tools"},
	}}
	svc := application.NewRepositoryService(api, slog.Default())

	listing, err := svc.List(context.Background(), signedIn(t), "  Api ", 1, 10)
	require.NoError(t, err)

	require.Len(t, listing.Repositories, 2)
	assert.Equal(t, int64(1), listing.Repositories[0].ID)
	assert.Equal(t, int64(3), listing.Repositories[1].ID)
	assert.Equal(t, 2, listing.Total)
}

func TestRepositoryService_PageRequestsServerPage(t *testing.T) {
	api := &mockRepositoryAPI{repos: reposNamed(25)}
	svc := application.NewRepositoryService(api, slog.Default())

	page, err := svc.Page(context.Background(), signedIn(t), driven.RepositoryListOptions{Page: 2, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, driven.RepositoryListOptions{Page: 2, Limit: 10}, api.opts[0])
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Repositories, 10)
	assert.Equal(t, int64(11), page.Repositories[0].ID)
}

func TestRepositoryService_Find(t *testing.T) {
	api := &mockRepositoryAPI{repos: reposNamed(3)}
	svc := application.NewRepositoryService(api, slog.Default())

	repo, err := svc.Find(context.Background(), signedIn(t), 2)
	require.NoError(t, err)
	assert.Equal(t, "repo-2", repo.Name)

	_, err = svc.Find(context.Background(), signedIn(t), 99)
	assert.ErrorIs(t, err, application.ErrRepositoryNotFound)
}

func TestRepositoryService_UnauthorizedExpiresSession(t *testing.T) {
	api := &mockRepositoryAPI{err: driven.ErrUnauthorized}
	svc := application.NewRepositoryService(api, slog.Default())
	sess := signedIn(t)

	_, err := svc.List(context.Background(), sess, "", 1, 10)
	assert.ErrorIs(t, err, application.ErrSessionExpired)
	assert.False(t, sess.Authenticated())
}

func TestRepositoryService_SignedOut(t *testing.T) {
	api := &mockRepositoryAPI{}
	svc := application.NewRepositoryService(api, slog.Default())

	_, err := svc.All(context.Background(), application.NewSession("anon", nil))
	assert.ErrorIs(t, err, application.ErrAuthenticationMissing)
	assert.Empty(t, api.opts)
}
