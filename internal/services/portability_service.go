package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agrodash/internal/client"
)

// ErrTokenRequired is returned when a portability call is made without its token.
var ErrTokenRequired = errors.New("token is required")

// ClientTokenResponse is returned by the external client login and by
// portability authorization.
type ClientTokenResponse struct {
	Token string `json:"token"`
}

// PortabilityService lets an external client export a user's data. The client
// logs in for a client token, the user authorizes it with their own
// credentials, and the resulting authorized token reads the user record.
//
// Every call carries an explicit token, the stored session is never used.
type PortabilityService struct {
	client *client.Client
}

func NewPortabilityService(c *client.Client) *PortabilityService {
	return &PortabilityService{client: c}
}

// ClientLogin exchanges external client credentials for a client token. An
// empty token means the credentials were not accepted.
func (s *PortabilityService) ClientLogin(ctx context.Context, req LoginRequest) (string, error) {
	resp, err := client.Post[ClientTokenResponse](ctx, s.client, "/client/auth/login", req,
		client.WithService(client.ServiceAuth), client.WithoutToken())
	if err != nil {
		return "", fmt.Errorf("failed to login client: %w", err)
	}

	if resp.Token == "" {
		log.Debug().Str("login", req.Login).Msg("client login returned no token")
	}

	return resp.Token, nil
}

// ValidateClient asks the auth API whether a client token is still valid.
func (s *PortabilityService) ValidateClient(ctx context.Context, clientToken string) (bool, error) {
	data, err := s.client.Do(ctx, client.NewRequest(http.MethodPost, "/client/auth/validate", tokenRequest{Token: clientToken},
		client.WithService(client.ServiceAuth), client.WithoutToken()))
	if err != nil {
		return false, fmt.Errorf("failed to validate client token: %w", err)
	}
	return truthy(data), nil
}

// ClientLogout revokes a client token. It returns false when the server did not
// confirm the revocation.
func (s *PortabilityService) ClientLogout(ctx context.Context, clientToken string) (bool, error) {
	if clientToken == "" {
		return false, ErrTokenRequired
	}

	data, err := s.client.Do(ctx, client.NewRequest(http.MethodPost, "/client/auth/logout", tokenRequest{Token: clientToken},
		client.WithService(client.ServiceAuth), client.WithToken(clientToken)))
	if err != nil {
		return false, fmt.Errorf("failed to logout client: %w", err)
	}
	return truthy(data), nil
}

// Button returns the HTML snippet of the portability button for the client.
func (s *PortabilityService) Button(ctx context.Context, clientToken string) (string, error) {
	if clientToken == "" {
		return "", ErrTokenRequired
	}

	data, err := s.client.Do(ctx, client.NewRequest(http.MethodGet, "/portability/button/", nil,
		client.WithService(client.ServiceAuth), client.WithToken(clientToken)))
	if err != nil {
		return "", fmt.Errorf("failed to get portability button: %w", err)
	}
	return string(data), nil
}

// Authorize grants the client access to the user identified by req and
// returns the authorized token.
func (s *PortabilityService) Authorize(ctx context.Context, clientToken string, req LoginRequest) (string, error) {
	if clientToken == "" {
		return "", ErrTokenRequired
	}

	resp, err := client.Post[ClientTokenResponse](ctx, s.client, "/portability/auth/authorize", req,
		client.WithService(client.ServiceAuth), client.WithToken(clientToken))
	if err != nil {
		return "", fmt.Errorf("failed to authorize client: %w", err)
	}
	return resp.Token, nil
}

// Data reads the user record the authorized token was granted.
func (s *PortabilityService) Data(ctx context.Context, authorizedToken string) (User, error) {
	if authorizedToken == "" {
		return User{}, ErrTokenRequired
	}

	user, err := client.Post[User](ctx, s.client, "/portability/data/", nil,
		client.WithService(client.ServiceAuth), client.WithToken(authorizedToken))
	if err != nil {
		return User{}, fmt.Errorf("failed to get portability data: %w", err)
	}
	return user, nil
}
