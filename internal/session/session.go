package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"slices"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agrodash/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/oauth2"
)

// Sentinel errors
var (
	// ErrNoSession is returned by Load when no session record is persisted.
	ErrNoSession = errors.New("no session")
)

// Session is the client-held record of the bearer token, user identity and
// granted permissions. At most one record is persisted at a time.
type Session struct {
	Token       string    `json:"token,omitempty"`
	UserID      int64     `json:"user_id,omitempty"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasToken returns true if the session carries a bearer token.
func (s *Session) HasToken() bool {
	return s != nil && s.Token != ""
}

// Patch holds the fields to merge into an existing session. Nil fields are left unchanged.
type Patch struct {
	Token       *string
	UserID      *int64
	Permissions []string
}

// Apply merges the patch into the session.
func (s *Session) Apply(p Patch) {
	if p.Token != nil {
		s.Token = *p.Token
	}
	if p.UserID != nil {
		s.UserID = *p.UserID
	}
	if p.Permissions != nil {
		s.Permissions = slices.Clone(p.Permissions)
	}
}

// Store persists the single session record.
type Store interface {
	// Save overwrites the persisted record.
	Save(ctx context.Context, sess *Session) error
	// Load returns the persisted record or ErrNoSession.
	Load(ctx context.Context) (*Session, error)
	// Patch merges fields into the existing record, it is a no-op when there is none.
	Patch(ctx context.Context, p Patch) error
	// Clear deletes the persisted record.
	Clear(ctx context.Context) error
}

// Validator checks a bearer token against the auth service.
type Validator interface {
	Validate(ctx context.Context, token string) (bool, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, token string) (bool, error)

func (f ValidatorFunc) Validate(ctx context.Context, token string) (bool, error) {
	return f(ctx, token)
}

// IsLoggedIn returns false without calling the validator when no token is persisted,
// otherwise it returns the validator's answer. Any error is treated as logged out.
func IsLoggedIn(ctx context.Context, store Store, validator Validator) bool {
	sess, err := store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			log.Debug().Err(err).Msg("failed to load session")
		}
		return false
	}

	if !sess.HasToken() {
		return false
	}

	ok, err := validator.Validate(ctx, sess.Token)
	telemetry.GetMetrics().SessionValidationsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("valid", ok && err == nil)))
	if err != nil {
		log.Debug().Err(err).Msg("token validation failed")
		return false
	}

	return ok
}

// Fingerprint returns the Base58-encoded SHA256 of the token, safe to display.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return base58.Encode(hash[:])
}

// TokenSource returns an oauth2.TokenSource reading the bearer token from the store
// on every call. A missing or unreadable session yields an empty token rather than
// an error, so the caller is treated as logged out and can still log in again.
func TokenSource(ctx context.Context, store Store) oauth2.TokenSource {
	return &storeTokenSource{ctx: ctx, store: store}
}

type storeTokenSource struct {
	ctx   context.Context
	store Store
}

func (ts *storeTokenSource) Token() (*oauth2.Token, error) {
	sess, err := ts.store.Load(ts.ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			log.Warn().Err(err).Msg("ignoring unreadable session")
		}
		return &oauth2.Token{}, nil
	}

	return &oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer"}, nil
}

func clone(sess *Session) *Session {
	if sess == nil {
		return nil
	}
	out := *sess
	out.Permissions = slices.Clone(sess.Permissions)
	if out.Permissions == nil {
		out.Permissions = []string{}
	}
	return &out
}

// stamp sets CreatedAt on first save and refreshes UpdatedAt.
func stamp(sess *Session) *Session {
	out := clone(sess)
	now := time.Now().UTC()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	return out
}
