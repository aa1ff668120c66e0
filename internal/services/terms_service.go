package services

import (
	"context"
	"net/url"

	"github.com/wolfeidau/agrodash/internal/client"
)

// TermStatus values used by the terms API.
type TermStatus string

const (
	TermStatusActive   TermStatus = "ativo"
	TermStatusInactive TermStatus = "inativo"
)

type TermTopic struct {
	Description string     `json:"description" yaml:"description"`
	Status      TermStatus `json:"status" yaml:"status"`
	Required    bool       `json:"required" yaml:"required"`
}

type AcceptedTopic struct {
	Description string     `json:"description" yaml:"description"`
	Status      TermStatus `json:"status" yaml:"status"`
	Accepted    bool       `json:"accepted" yaml:"accepted"`
}

type Term struct {
	ID      string      `json:"id"`
	Text    string      `json:"text"`
	Status  TermStatus  `json:"status"`
	Version string      `json:"version"`
	Topics  []TermTopic `json:"topics"`
}

type ActiveTerm struct {
	Term
	IsCurrent bool `json:"isCurrent"`
}

type CreateTermRequest struct {
	Text   string      `json:"text" yaml:"text"`
	Status TermStatus  `json:"status" yaml:"status"`
	Topics []TermTopic `json:"topics" yaml:"topics"`
}

type NewTermVersionRequest struct {
	Text    string      `json:"text" yaml:"text"`
	Topics  []TermTopic `json:"topics" yaml:"topics"`
	Version string      `json:"version,omitempty" yaml:"version,omitempty"`
}

type AcceptanceRequest struct {
	UserID string          `json:"user_id" yaml:"user_id"`
	Topics []AcceptedTopic `json:"topics" yaml:"topics"`
}

type UpdateAcceptanceRequest struct {
	Topics []AcceptedTopic `json:"topics" yaml:"topics"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type PendingTopic struct {
	Description string `json:"description"`
	TermID      string `json:"termId"`
	Required    bool   `json:"required"`
}

type Compliance struct {
	IsCompliant   bool           `json:"isCompliant"`
	PendingTopics []PendingTopic `json:"pendingTopics"`
}

// UserTerms is the acceptance record of a user.
type UserTerms struct {
	UserID string          `json:"user_id"`
	TermID string          `json:"term_id,omitempty"`
	Topics []AcceptedTopic `json:"topics"`
}

// TermsService manages terms of service and user acceptance on the data API.
type TermsService struct {
	client *client.Client
}

func NewTermsService(c *client.Client) *TermsService {
	return &TermsService{client: c}
}

func (s *TermsService) Create(ctx context.Context, req CreateTermRequest) (Term, error) {
	return client.Post[Term](ctx, s.client, "/terms/new", req)
}

func (s *TermsService) List(ctx context.Context) ([]Term, error) {
	return client.Get[[]Term](ctx, s.client, "/terms/")
}

func (s *TermsService) Accept(ctx context.Context, req AcceptanceRequest) (SuccessResponse, error) {
	return client.Post[SuccessResponse](ctx, s.client, "/terms/user/accept", req)
}

func (s *TermsService) Active(ctx context.Context) (ActiveTerm, error) {
	return client.Get[ActiveTerm](ctx, s.client, "/terms/active")
}

func (s *TermsService) NewVersion(ctx context.Context, req NewTermVersionRequest) (Term, error) {
	return client.Post[Term](ctx, s.client, "/terms/new-version", req)
}

func (s *TermsService) UpdateAcceptance(ctx context.Context, userID string, req UpdateAcceptanceRequest) (SuccessResponse, error) {
	return client.Put[SuccessResponse](ctx, s.client, "/terms/user/update/"+url.PathEscape(userID), req)
}

func (s *TermsService) Compliance(ctx context.Context, userID string) (Compliance, error) {
	return client.Get[Compliance](ctx, s.client, "/terms/user/compliance/"+url.PathEscape(userID))
}

func (s *TermsService) UserTerms(ctx context.Context, userID string) (UserTerms, error) {
	return client.Get[UserTerms](ctx, s.client, "/terms/user/"+url.PathEscape(userID))
}
