package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shenikar/incident_orchestrator/internal/models"
)

// ClassifierClient обращается к внешней модели классификации
type ClassifierClient struct {
	client
}

func NewClassifierClient(baseURL string, timeout time.Duration) *ClassifierClient {
	return &ClassifierClient{client: newClient(baseURL, timeout)}
}

func (c *ClassifierClient) Classify(ctx context.Context, signal models.EmergencySignal) (*models.Classification, error) {
	var classification models.Classification
	if err := c.doJSON(ctx, http.MethodPost, "/classify", signal, &classification); err != nil {
		return nil, fmt.Errorf("gateway: classification failed: %w", err)
	}
	return &classification, nil
}
