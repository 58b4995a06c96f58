package application_test

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/model"
)

func TestAuthService_AuthorizeURL(t *testing.T) {
	svc := application.NewAuthService(&mockAuthAPI{}, "client-123", "user:email", "", slog.Default())

	raw, err := svc.AuthorizeURL("state-xyz")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "/login/oauth/authorize", u.Path)
	assert.Equal(t, "client-123", u.Query().Get("client_id"))
	assert.Equal(t, "user:email", u.Query().Get("scope"))
	assert.Equal(t, "state-xyz", u.Query().Get("state"))
	assert.False(t, u.Query().Has("redirect_uri"))
}

func TestAuthService_AuthorizeURLRequiresClientID(t *testing.T) {
	svc := application.NewAuthService(&mockAuthAPI{}, "", "user:email", "", slog.Default())

	_, err := svc.AuthorizeURL("s")
	assert.ErrorIs(t, err, application.ErrOAuthNotConfigured)
}

func TestAuthService_LoginStartsSession(t *testing.T) {
	api := &mockAuthAPI{user: model.User{ID: 9, Username: "octo"}, token: "jwt-token"}
	svc := application.NewAuthService(api, "client", "user:email", "", slog.Default())
	sess := application.NewSession("s1", newMockSessionStore())

	require.NoError(t, svc.Login(context.Background(), sess, "code-1"))

	assert.Equal(t, []string{"code-1"}, api.codes)
	user, ok := sess.User()
	require.True(t, ok)
	assert.Equal(t, "octo", user.Username)
	token, err := sess.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
}

func TestAuthService_ExchangeFailure(t *testing.T) {
	api := &mockAuthAPI{err: errors.New("bad code")}
	svc := application.NewAuthService(api, "client", "user:email", "", slog.Default())
	sess := application.NewSession("s1", nil)

	err := svc.Login(context.Background(), sess, "code-1")
	require.Error(t, err)
	assert.False(t, sess.Authenticated())

	_, _, err = svc.Exchange(context.Background(), "")
	require.Error(t, err)
}

func TestUserFromToken(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"id": 12, "username": "octo", "email": "o@example.com"})

	u := application.UserFromToken(tok)
	assert.Equal(t, model.User{ID: 12, Username: "octo", Email: "o@example.com"}, u)

	assert.Equal(t, model.User{}, application.UserFromToken("opaque"))
}
