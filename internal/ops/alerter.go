package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	SubjectAlertExhausted    = "ops.alert.exhausted"
	SubjectDeletionEscalated = "ops.deletion.escalated"
)

// Publisher - часть *nats.Conn, нужная алертеру
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
}

// AlertExhaustedEvent - оповещение службы не доставлено после всех попыток
type AlertExhaustedEvent struct {
	AlertID     string    `json:"alert_id"`
	IncidentID  string    `json:"incident_id"`
	RecipientID string    `json:"recipient_id"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"last_error"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// DeletionEscalatedEvent - задание удаления требует ручной проверки
type DeletionEscalatedEvent struct {
	JobID          string     `json:"job_id"`
	IncidentID     string     `json:"incident_id"`
	Attempts       int        `json:"attempts"`
	LastError      string     `json:"last_error"`
	FirstAttemptAt *time.Time `json:"first_attempt_at,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// Alerter публикует операторские тревоги в NATS.
// Реализует alert.OperatorAlerter и deletion.Escalator.
type Alerter struct {
	pub    Publisher
	logger *logrus.Logger
	now    func() time.Time
}

func NewAlerter(pub Publisher, logger *logrus.Logger) *Alerter {
	return &Alerter{
		pub:    pub,
		logger: logger,
		now:    time.Now,
	}
}

func (a *Alerter) AlertExhausted(ctx context.Context, result models.AlertResult) error {
	event := AlertExhaustedEvent{
		AlertID:     result.ID.String(),
		IncidentID:  result.IncidentID.String(),
		RecipientID: result.RecipientID,
		Attempts:    result.RetryCount,
		LastError:   result.Error,
		OccurredAt:  a.now(),
	}
	return a.publish(ctx, SubjectAlertExhausted, event.IncidentID, event.Attempts, event)
}

func (a *Alerter) DeletionEscalated(ctx context.Context, job models.DeletionJob) error {
	event := DeletionEscalatedEvent{
		JobID:          job.ID.String(),
		IncidentID:     job.IncidentID.String(),
		Attempts:       job.Attempts,
		LastError:      job.LastError,
		FirstAttemptAt: job.FirstAttemptAt,
		OccurredAt:     a.now(),
	}
	return a.publish(ctx, SubjectDeletionEscalated, event.IncidentID, event.Attempts, event)
}

func (a *Alerter) publish(ctx context.Context, subject, incidentID string, attempts int, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ops: could not marshal %s event: %w", subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set("Incident-ID", incidentID)
	msg.Header.Set("Attempts", strconv.Itoa(attempts))
	msg.Header.Set("Content-Type", "application/json")

	if err := a.pub.PublishMsg(msg); err != nil {
		a.logger.WithError(err).WithFields(logrus.Fields{
			"subject":     subject,
			"incident_id": incidentID,
		}).Error("Failed to publish operator alert")
		return fmt.Errorf("ops: could not publish to %s: %w", subject, err)
	}
	a.logger.WithFields(logrus.Fields{
		"subject":     subject,
		"incident_id": incidentID,
	}).Warn("Operator alert published")
	return nil
}
