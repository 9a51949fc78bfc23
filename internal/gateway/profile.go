package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shenikar/incident_orchestrator/internal/models"
)

// ProfileClient получает профиль пользователя (контакты, медицинская сводка)
type ProfileClient struct {
	client
}

func NewProfileClient(baseURL string, timeout time.Duration) *ProfileClient {
	return &ProfileClient{client: newClient(baseURL, timeout)}
}

func (c *ProfileClient) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/profile", nil, &profile); err != nil {
		return nil, fmt.Errorf("gateway: profile lookup failed: %w", err)
	}
	if profile.UserID == "" {
		profile.UserID = userID
	}
	return &profile, nil
}
