package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_orchestrator/internal/models"
)

const (
	webhookQueueKey = "incident_status_events"
)

// StatusUpdateEvent - смена статуса инцидента для служб, которым уже ушли оповещения
type StatusUpdateEvent struct {
	IncidentID    uuid.UUID             `json:"incident_id"`
	FromStatus    models.IncidentStatus `json:"from_status"`
	Status        models.IncidentStatus `json:"status"`
	ServiceIDs    []string              `json:"service_ids"`
	EmergencyType models.EmergencyType  `json:"emergency_type,omitempty"`
	Priority      models.Priority       `json:"priority,omitempty"`
	Location      models.GPSLocation    `json:"location"`
	ActorID       string                `json:"actor_id"`
	OccurredAt    time.Time             `json:"occurred_at"`
}

// WebhookPublisher - интерфейс для публикации смены статуса
type WebhookPublisher interface {
	Publish(ctx context.Context, event StatusUpdateEvent) error
}

// RedisWebhookPublisher - реализация WebhookPublisher, использующая Redis
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

// Publish кладет событие в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event StatusUpdateEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish status event to Redis: %w", err)
	}
	return nil
}
