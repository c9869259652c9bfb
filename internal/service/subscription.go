package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"

	"github.com/aman-churiwal/event-gateway/internal/models"
	"github.com/aman-churiwal/event-gateway/internal/repository"
)

// SubscriptionService owns webhook subscription lifecycle for the
// management API. The dispatcher reads subscriptions through the
// repository directly.
type SubscriptionService struct {
	repository *repository.SubscriptionRepository
}

func NewSubscriptionService(repo *repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{repository: repo}
}

// Create registers a delivery target and generates its signing secret.
// The secret is returned once; afterwards it only ever signs payloads.
func (s *SubscriptionService) Create(ctx context.Context, workspaceID, targetURL string, events []string) (*models.WebhookSubscription, string, error) {
	if workspaceID == "" {
		return nil, "", errors.New("workspace id is required")
	}
	if len(events) == 0 {
		return nil, "", errors.New("at least one event name is required")
	}

	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, "", fmt.Errorf("invalid target URL %q", targetURL)
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, "", fmt.Errorf("failed to generate signing secret: %w", err)
	}
	secret := "whsec_" + base64.URLEncoding.EncodeToString(secretBytes)

	sub := models.WebhookSubscription{
		WorkspaceID: workspaceID,
		URL:         targetURL,
		Events:      events,
		Secret:      secret,
		IsActive:    true,
	}

	if err := s.repository.Create(ctx, &sub); err != nil {
		return nil, "", fmt.Errorf("failed to create subscription: %w", err)
	}

	return &sub, secret, nil
}

func (s *SubscriptionService) Get(ctx context.Context, id string) (*models.WebhookSubscription, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *SubscriptionService) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.WebhookSubscription, error) {
	return s.repository.ListByWorkspace(ctx, workspaceID)
}

func (s *SubscriptionService) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return s.repository.Update(ctx, id, updates)
}

func (s *SubscriptionService) Deactivate(ctx context.Context, id string) error {
	return s.repository.Update(ctx, id, map[string]interface{}{"is_active": false})
}

// ClearAttention resets the operator flag after a subscription has been
// looked at.
func (s *SubscriptionService) ClearAttention(ctx context.Context, id string) error {
	return s.repository.Update(ctx, id, map[string]interface{}{
		"needs_attention": false,
		"last_error":      "",
	})
}
