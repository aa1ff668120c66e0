package services

import (
	"context"
	"fmt"

	"github.com/wolfeidau/agrodash/internal/client"
)

// User is an account managed by the auth API.
type User struct {
	ID                    int64   `json:"id" yaml:"id"`
	Name                  string  `json:"name" yaml:"name"`
	Login                 string  `json:"login" yaml:"login"`
	Email                 string  `json:"email" yaml:"email"`
	VersionTermsAgreement string  `json:"version_terms_agreement" yaml:"version_terms_agreement"`
	PermissionID          int64   `json:"permission_id" yaml:"permission_id"`
	DisabledSince         *string `json:"disabled_since,omitempty" yaml:"disabled_since,omitempty"`
}

// NewUser is the registration payload.
type NewUser struct {
	User     `yaml:",inline"`
	Password string `json:"password" yaml:"password"`
}

// UserUpdate holds the fields to change, nil fields are not sent.
type UserUpdate struct {
	Name                  *string `json:"name,omitempty" yaml:"name,omitempty"`
	Login                 *string `json:"login,omitempty" yaml:"login,omitempty"`
	Email                 *string `json:"email,omitempty" yaml:"email,omitempty"`
	VersionTermsAgreement *string `json:"version_terms_agreement,omitempty" yaml:"version_terms_agreement,omitempty"`
	PermissionID          *int64  `json:"permission_id,omitempty" yaml:"permission_id,omitempty"`
	DisabledSince         *string `json:"disabled_since,omitempty" yaml:"disabled_since,omitempty"`
}

// UserService manages users on the auth API.
type UserService struct {
	client *client.Client
}

func NewUserService(c *client.Client) *UserService {
	return &UserService{client: c}
}

func (s *UserService) List(ctx context.Context, page, size int) (client.Page[User], error) {
	return client.PaginatedGet[User](ctx, s.client, "/users/", page, size, client.WithService(client.ServiceAuth))
}

func (s *UserService) Get(ctx context.Context, id int64) (User, error) {
	return client.Get[User](ctx, s.client, userPath(id), client.WithService(client.ServiceAuth))
}

func (s *UserService) Create(ctx context.Context, user NewUser) (User, error) {
	return client.Post[User](ctx, s.client, "/register/", user, client.WithService(client.ServiceAuth))
}

func (s *UserService) Update(ctx context.Context, id int64, update UserUpdate) (User, error) {
	return client.Put[User](ctx, s.client, userPath(id), update, client.WithService(client.ServiceAuth))
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	return client.Delete(ctx, s.client, userPath(id), client.WithService(client.ServiceAuth))
}

func userPath(id int64) string {
	return fmt.Sprintf("/user/%d", id)
}
