package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agrodash/internal/client"
	"github.com/wolfeidau/agrodash/internal/session"
)

// LoginRequest is the body of POST /login on the auth API.
type LoginRequest struct {
	Login    string `json:"login" yaml:"login"`
	Password string `json:"password" yaml:"password"`
}

// LoginResponse is returned by POST /login. Token is empty when the
// credentials were rejected.
type LoginResponse struct {
	ID          *int64   `json:"id,omitempty"`
	Token       string   `json:"token,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

// AuthService logs in against the auth API and keeps the session store in sync.
type AuthService struct {
	client *client.Client
	store  session.Store
}

var _ session.Validator = (*AuthService)(nil)

func NewAuthService(c *client.Client, store session.Store) *AuthService {
	return &AuthService{client: c, store: store}
}

// Login exchanges credentials for a token and persists the session.
// It returns false when the server issued no token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (bool, error) {
	resp, err := client.Post[LoginResponse](ctx, s.client, "/login", req,
		client.WithService(client.ServiceAuth), client.WithoutToken())
	if err != nil {
		return false, fmt.Errorf("failed to login: %w", err)
	}

	if resp.Token == "" {
		log.Debug().Str("login", req.Login).Msg("login returned no token")
		return false, nil
	}

	permissions := resp.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	sess := &session.Session{
		Token:       resp.Token,
		UserID:      userIDFromLogin(resp),
		Permissions: permissions,
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return false, fmt.Errorf("failed to save session: %w", err)
	}

	log.Info().
		Str("login", req.Login).
		Int64("userID", sess.UserID).
		Str("fingerprint", session.Fingerprint(sess.Token)).
		Msg("logged in")

	return true, nil
}

// userIDFromLogin prefers the id in the response and falls back to the
// token's sub claim. Zero means unknown.
func userIDFromLogin(resp LoginResponse) int64 {
	if resp.ID != nil {
		return *resp.ID
	}

	id, err := SubjectFromToken(resp.Token)
	if err != nil {
		log.Debug().Err(err).Msg("could not read user id from token")
		return 0
	}

	return id
}

var errNoSubject = errors.New("token has no numeric sub claim")

// SubjectFromToken reads the numeric sub claim of a JWT without verifying its
// signature. The auth service remains the authority on validity.
func SubjectFromToken(token string) (int64, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}

	switch sub := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", errNoSubject, err)
		}
		return id, nil
	case float64:
		return int64(sub), nil
	default:
		return 0, errNoSubject
	}
}

// Validate asks the auth API whether token is still valid.
func (s *AuthService) Validate(ctx context.Context, token string) (bool, error) {
	ok, err := client.Post[bool](ctx, s.client, "/validate", tokenRequest{Token: token}, client.WithService(client.ServiceAuth))
	if err != nil {
		return false, fmt.Errorf("failed to validate token: %w", err)
	}
	return ok, nil
}

// IsLoggedIn reports whether a persisted token exists and the auth API accepts it.
func (s *AuthService) IsLoggedIn(ctx context.Context) bool {
	return session.IsLoggedIn(ctx, s.store, s)
}

// Logout revokes the stored token and clears the session once the server
// confirms. Logging out without a session is not an error, and an unreadable
// session is cleared without contacting the server.
func (s *AuthService) Logout(ctx context.Context) error {
	sess, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil
		}
		log.Warn().Err(err).Msg("clearing unreadable session")
		if err := s.store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	}

	if !sess.HasToken() {
		return s.store.Clear(ctx)
	}

	data, err := s.client.Do(ctx, client.NewRequest(http.MethodPost, "/logout", tokenRequest{Token: sess.Token}, client.WithService(client.ServiceAuth)))
	if err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	if !truthy(data) {
		log.Warn().Msg("logout was not confirmed, keeping session")
		return nil
	}

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	log.Info().Msg("logged out")

	return nil
}

// RefreshPermissions replaces the permissions of the current session.
func (s *AuthService) RefreshPermissions(ctx context.Context, permissions []string) error {
	if permissions == nil {
		permissions = []string{}
	}
	return s.store.Patch(ctx, session.Patch{Permissions: permissions})
}

// truthy mirrors how the services signal success: any body other than
// empty, null, false, 0 or an empty string.
func truthy(data []byte) bool {
	switch string(bytes.TrimSpace(data)) {
	case "", "null", "false", "0", `""`:
		return false
	default:
		return true
	}
}
