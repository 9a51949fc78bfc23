package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/sirupsen/logrus"
)

var ErrChannelNotConfigured = errors.New("notification channel is not configured")

// Sender - транспорт одного канала (SMS, звонок, push)
type Sender interface {
	Send(ctx context.Context, recipient models.Recipient, payload models.AlertPayload) (string, error)
}

// Outcome - результат доставки через конкретный канал
type Outcome struct {
	Channel     models.Channel `json:"channel"`
	MessageID   string         `json:"message_id"`
	DeliveredAt time.Time      `json:"delivered_at"`
}

// Dispatcher - примитив доставки (channel, recipient, payload) -> outcome
type Dispatcher struct {
	mu      sync.RWMutex
	senders map[models.Channel]Sender
	logger  *logrus.Logger
}

func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		senders: make(map[models.Channel]Sender),
		logger:  logger,
	}
}

// Register подключает транспорт к каналу
func (d *Dispatcher) Register(channel models.Channel, sender Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders[channel] = sender
}

func (d *Dispatcher) Deliver(ctx context.Context, channel models.Channel, recipient models.Recipient, payload models.AlertPayload) (Outcome, error) {
	d.mu.RLock()
	sender, ok := d.senders[channel]
	d.mu.RUnlock()
	if !ok {
		return Outcome{}, fmt.Errorf("notify: %s: %w", channel, ErrChannelNotConfigured)
	}

	id, err := sender.Send(ctx, recipient, payload)
	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"channel":      channel,
			"recipient_id": recipient.ID,
			"incident_id":  payload.IncidentID,
		}).WithError(err).Warn("Notification delivery failed")
		return Outcome{}, fmt.Errorf("notify: %s delivery failed: %w", channel, err)
	}
	return Outcome{Channel: channel, MessageID: id, DeliveredAt: time.Now()}, nil
}

// FormatAlertText - текст оповещения для SMS и голосового звонка
func FormatAlertText(payload models.AlertPayload) string {
	if payload.EmergencyType == "" {
		return payload.Message
	}
	var b strings.Builder
	fmt.Fprintf(&b, "EMERGENCY %s (%s priority). Incident %s at %.5f,%.5f.",
		strings.ToUpper(string(payload.EmergencyType)), payload.Priority, payload.IncidentID,
		payload.Location.Latitude, payload.Location.Longitude)
	if payload.ProfileSummary != "" {
		fmt.Fprintf(&b, " Person: %s.", payload.ProfileSummary)
	}
	if payload.LiveLocationURL != "" {
		fmt.Fprintf(&b, " Live location: %s", payload.LiveLocationURL)
	}
	if payload.Message != "" {
		fmt.Fprintf(&b, " %s", payload.Message)
	}
	return b.String()
}
