package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_orchestrator/internal/alert"
	"github.com/shenikar/incident_orchestrator/internal/models"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AlertRepository хранит задания доставки оповещений
type AlertRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewAlertRepository(db *pgxpool.Pool, redisClient *redis.Client) alert.Repository {
	return &AlertRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// SaveAlert создает или обновляет задание; снимок инцидента в кеше сбрасывается
func (r *AlertRepository) SaveAlert(ctx context.Context, dispatch *models.AlertDispatch) error {
	channels, err := json.Marshal(dispatch.Result.Channels)
	if err != nil {
		return fmt.Errorf("failed to marshal alert channels: %w", err)
	}
	recipient, err := json.Marshal(dispatch.Recipient)
	if err != nil {
		return fmt.Errorf("failed to marshal alert recipient: %w", err)
	}
	payload, err := json.Marshal(dispatch.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal alert payload: %w", err)
	}

	res := dispatch.Result
	query := `
		INSERT INTO alert_results (id, incident_id, recipient_id, recipient_class, channels, status,
			retry_count, error, recipient, payload, priority, baseline, target_latency_ms,
			delivered_at, next_retry_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			retry_count = EXCLUDED.retry_count,
			error = EXCLUDED.error,
			delivered_at = EXCLUDED.delivered_at,
			next_retry_at = EXCLUDED.next_retry_at,
			updated_at = EXCLUDED.updated_at;
	`
	_, err = r.db.Exec(ctx, query,
		res.ID,
		res.IncidentID,
		res.RecipientID,
		res.RecipientClass,
		channels,
		res.Status,
		res.RetryCount,
		res.Error,
		recipient,
		payload,
		dispatch.Priority,
		dispatch.Baseline,
		dispatch.TargetLatency.Milliseconds(),
		res.DeliveredAt,
		res.NextRetryAt,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return invalidateIncident(ctx, r.redisClient, res.IncidentID)
}

// ListAlertsByIncident возвращает задания инцидента в порядке создания
func (r *AlertRepository) ListAlertsByIncident(ctx context.Context, incidentID uuid.UUID) ([]*models.AlertDispatch, error) {
	return queryAlerts(ctx, r.db, `WHERE incident_id = $1 ORDER BY created_at, id`, incidentID)
}

// ListRetryableAlerts возвращает задания открытых инцидентов, у которых остались попытки
func (r *AlertRepository) ListRetryableAlerts(ctx context.Context) ([]*models.AlertDispatch, error) {
	return queryAlerts(ctx, r.db, `
		WHERE status <> $1 AND retry_count < $2
			AND incident_id IN (SELECT id FROM incidents WHERE status <> $3 AND NOT anonymized)
		ORDER BY created_at, id`,
		models.DeliveryDelivered, models.MaxDeliveryAttempts, models.StatusClosed)
}

func queryAlerts(ctx context.Context, q querier, where string, args ...any) ([]*models.AlertDispatch, error) {
	query := `
		SELECT id, incident_id, recipient_id, recipient_class, channels, status, retry_count,
			COALESCE(error, ''), recipient, payload, priority, baseline, target_latency_ms,
			delivered_at, next_retry_at, created_at, updated_at
		FROM alert_results
	` + where
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	dispatches := make([]*models.AlertDispatch, 0)
	for rows.Next() {
		var (
			d                            models.AlertDispatch
			channels, recipient, payload []byte
			targetMs                     int64
		)
		err := rows.Scan(
			&d.Result.ID,
			&d.Result.IncidentID,
			&d.Result.RecipientID,
			&d.Result.RecipientClass,
			&channels,
			&d.Result.Status,
			&d.Result.RetryCount,
			&d.Result.Error,
			&recipient,
			&payload,
			&d.Priority,
			&d.Baseline,
			&targetMs,
			&d.Result.DeliveredAt,
			&d.Result.NextRetryAt,
			&d.Result.CreatedAt,
			&d.Result.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		if err := json.Unmarshal(channels, &d.Result.Channels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert channels: %w", err)
		}
		if err := json.Unmarshal(recipient, &d.Recipient); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert recipient: %w", err)
		}
		if err := json.Unmarshal(payload, &d.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert payload: %w", err)
		}
		d.TargetLatency = time.Duration(targetMs) * time.Millisecond
		dispatches = append(dispatches, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error alert iteration: %w", err)
	}
	return dispatches, nil
}
