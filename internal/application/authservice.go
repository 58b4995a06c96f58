package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// GitHubAuthorizeURL is GitHub's OAuth authorization endpoint.
const GitHubAuthorizeURL = "https://github.com/login/oauth/authorize"

// ErrOAuthNotConfigured is returned when no OAuth client id is configured.
var ErrOAuthNotConfigured = errors.New("GitHub OAuth is not configured")

// AuthService handles GitHub OAuth sign-in against the backend.
type AuthService struct {
	api         driven.AuthAPI
	clientID    string
	scope       string
	redirectURL string
	logger      *slog.Logger
}

// NewAuthService creates an AuthService. redirectURL may be empty, in which
// case GitHub uses the OAuth app's registered callback.
func NewAuthService(api driven.AuthAPI, clientID, scope, redirectURL string, logger *slog.Logger) *AuthService {
	return &AuthService{api: api, clientID: clientID, scope: scope, redirectURL: redirectURL, logger: logger}
}

// Configured reports whether GitHub sign-in is available.
func (s *AuthService) Configured() bool {
	return s.clientID != ""
}

// AuthorizeURL returns the GitHub authorization URL carrying state.
func (s *AuthService) AuthorizeURL(state string) (string, error) {
	if s.clientID == "" {
		return "", ErrOAuthNotConfigured
	}
	q := url.Values{}
	q.Set("client_id", s.clientID)
	q.Set("scope", s.scope)
	q.Set("state", state)
	if s.redirectURL != "" {
		q.Set("redirect_uri", s.redirectURL)
	}
	return GitHubAuthorizeURL + "?" + q.Encode(), nil
}

// Exchange trades an authorization code for the user and a bearer
// credential.
func (s *AuthService) Exchange(ctx context.Context, code string) (model.User, string, error) {
	if code == "" {
		return model.User{}, "", errors.New("missing authorization code")
	}
	user, token, err := s.api.ExchangeOAuthCode(ctx, code)
	if err != nil {
		s.logger.Error("oauth code exchange failed", "error", err)
		return model.User{}, "", fmt.Errorf("exchanging authorization code: %w", err)
	}
	s.logger.Info("user signed in", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// Login exchanges code and starts sess with the result.
func (s *AuthService) Login(ctx context.Context, sess *Session, code string) error {
	user, token, err := s.Exchange(ctx, code)
	if err != nil {
		return err
	}
	return sess.Start(ctx, user, token)
}

// UserFromToken reads the user identity from a JWT credential's claims
// without verifying it. Opaque tokens yield an empty user.
func UserFromToken(token string) model.User {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return model.User{}
	}

	var u model.User
	switch id := claims["id"].(type) {
	case float64:
		u.ID = int64(id)
	case string:
		u.ID, _ = strconv.ParseInt(id, 10, 64)
	}
	if u.ID == 0 {
		if sub, ok := claims["sub"].(string); ok {
			u.ID, _ = strconv.ParseInt(sub, 10, 64)
		}
	}
	u.Username, _ = claims["username"].(string)
	u.Email, _ = claims["email"].(string)
	u.AvatarURL, _ = claims["avatar_url"].(string)
	return u
}
