package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shenikar/incident_orchestrator/internal/models"
)

// RegistryClient - HTTP-клиент внешнего реестра экстренных служб
type RegistryClient struct {
	client
}

func NewRegistryClient(baseURL string, timeout time.Duration) *RegistryClient {
	return &RegistryClient{client: newClient(baseURL, timeout)}
}

func (c *RegistryClient) FetchServices(ctx context.Context, center models.GPSLocation, radiusKm float64) ([]models.EmergencyService, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", center.Latitude))
	q.Set("lon", fmt.Sprintf("%f", center.Longitude))
	q.Set("radius_km", fmt.Sprintf("%.1f", radiusKm))

	var resp struct {
		Services []models.EmergencyService `json:"services"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/services?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("gateway: registry lookup failed: %w", err)
	}
	return resp.Services, nil
}

func (c *RegistryClient) FetchAvailability(ctx context.Context, serviceIDs []string) (map[string]models.Availability, error) {
	req := struct {
		IDs []string `json:"ids"`
	}{IDs: serviceIDs}

	var resp struct {
		Availability map[string]models.Availability `json:"availability"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/services/availability", req, &resp); err != nil {
		return nil, fmt.Errorf("gateway: availability poll failed: %w", err)
	}
	return resp.Availability, nil
}
