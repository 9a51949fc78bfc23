package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_orchestrator/internal/config"
	"github.com/sirupsen/logrus"
)

// WebhookWorker разбирает очередь смен статуса и отправляет их в шлюз интеграции служб
type WebhookWorker struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	cfg         *config.Config
	httpClient  *http.Client
}

// NewWebhookWorker создает новый WebhookWorker
func NewWebhookWorker(redisClient *redis.Client, logger *logrus.Logger, cfg *config.Config) *WebhookWorker {
	return &WebhookWorker{
		redisClient: redisClient,
		logger:      logger,
		cfg:         cfg,
		httpClient: &http.Client{
			Timeout: cfg.WebhookTimeout,
		},
	}
}

// Start запускает горутину для обработки очереди
func (w *WebhookWorker) Start(ctx context.Context) {
	w.logger.Info("Starting webhook worker...")
	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping webhook worker.")
				return
			default:
			}

			// BRPOP с таймаутом, чтобы регулярно проверять отмену ctx
			result, err := w.redisClient.BRPop(ctx, time.Second, webhookQueueKey).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
					continue
				}
				w.logger.WithError(err).Error("Failed to pop status event from Redis")
				w.sleep(ctx, w.cfg.WebhookTimeout)
				continue
			}

			// result[0] - ключ, result[1] - значение
			payload := result[1]
			var event StatusUpdateEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				w.logger.WithError(err).Error("Failed to unmarshal status event from Redis")
				continue
			}

			if err := w.processEvent(ctx, event, payload); err != nil {
				w.logger.WithError(err).WithField("incident_id", event.IncidentID).Error("Status event dropped")
			}
		}
	}()
}

func (w *WebhookWorker) processEvent(ctx context.Context, event StatusUpdateEvent, rawPayload string) error {
	log := w.logger.WithFields(logrus.Fields{
		"incident_id": event.IncidentID,
		"status":      event.Status,
		"services":    len(event.ServiceIDs),
	})
	log.Debug("Processing status event...")

	if w.cfg.WebhookURL == "" {
		log.Warn("Webhook URL is not configured. Skipping status propagation.")
		return nil
	}

	maxRetries := w.cfg.WebhookMaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	baseDelay := w.cfg.WebhookBaseDelay

	for i := 0; i < maxRetries; i++ {
		statusCode, err := w.post(ctx, event, rawPayload)
		if err == nil && statusCode >= 200 && statusCode < 300 {
			log.Info("Status update delivered to responder gateway.")
			return nil
		}
		if err != nil {
			log.WithError(err).Warnf("Failed to send status update. Retrying in %v. Retries left: %d", baseDelay, maxRetries-1-i)
		} else {
			log.Warnf("Status update rejected with status code %d. Retrying in %v. Retries left: %d", statusCode, baseDelay, maxRetries-1-i)
		}
		if i == maxRetries-1 || !w.sleep(ctx, baseDelay) {
			break
		}
		baseDelay *= 2
	}

	return fmt.Errorf("webhook: status update not delivered after %d attempts", maxRetries)
}

func (w *WebhookWorker) post(ctx context.Context, event StatusUpdateEvent, rawPayload string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewBufferString(rawPayload))
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Incident-ID", event.IncidentID.String())
	if w.cfg.WebhookSecret != "" {
		req.Header.Set("X-Webhook-Signature", generateHMACSHA256(rawPayload, w.cfg.WebhookSecret))
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// sleep ждет d; false, если ctx отменен раньше
func (w *WebhookWorker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// generateHMACSHA256 генерирует HMAC-SHA256 подпись для данных
func generateHMACSHA256(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
