package models

import (
	"time"

	"github.com/google/uuid"
)

type DeletionStatus string

const (
	DeletionScheduled  DeletionStatus = "scheduled"
	DeletionInProgress DeletionStatus = "in_progress"
	DeletionCompleted  DeletionStatus = "completed"
	DeletionFailed     DeletionStatus = "failed"
)

// DeletionJob - задание на удаление персональных данных после закрытия инцидента
type DeletionJob struct {
	ID                   uuid.UUID             `json:"id"`
	IncidentID           uuid.UUID             `json:"incident_id"`
	ScheduledFor         time.Time             `json:"scheduled_for"`
	Status               DeletionStatus        `json:"status"`
	Attempts             int                   `json:"attempts"`
	LastError            string                `json:"last_error,omitempty"`
	FirstAttemptAt       *time.Time            `json:"first_attempt_at,omitempty"`
	NextAttemptAt        *time.Time            `json:"next_attempt_at,omitempty"`
	RequiresManualReview bool                  `json:"requires_manual_review"`
	CompletedAt          *time.Time            `json:"completed_at,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
	// Confirmation фиксируется до удаления и очищается при завершении задания
	Confirmation         *DeletionConfirmation `json:"-"`
}

// DeletionConfirmation - адресат подтверждения об удалении данных
type DeletionConfirmation struct {
	Channel   Channel   `json:"channel"`
	Recipient Recipient `json:"recipient"`
}

// Terminal сообщает, что задание больше не будет выполняться автоматически
func (j *DeletionJob) Terminal() bool {
	return j.Status == DeletionCompleted || (j.Status == DeletionFailed && j.RequiresManualReview)
}

// EscalationDeadline - момент, после которого повторы прекращаются и нужна ручная проверка
func (j *DeletionJob) EscalationDeadline(window time.Duration) time.Time {
	if j.FirstAttemptAt != nil {
		return j.FirstAttemptAt.Add(window)
	}
	return j.ScheduledFor.Add(window)
}

// DueAt возвращает момент следующего запуска
func (j *DeletionJob) DueAt() time.Time {
	if j.NextAttemptAt != nil {
		return *j.NextAttemptAt
	}
	return j.ScheduledFor
}

// AnonymizedIncident - обезличенная запись, остающаяся после удаления
type AnonymizedIncident struct {
	ID                uuid.UUID     `json:"id"`
	EmergencyType     EmergencyType `json:"emergency_type"`
	Priority          Priority      `json:"priority"`
	ResponseSeconds   int64         `json:"response_seconds"`
	ResolutionSeconds int64         `json:"resolution_seconds"`
	Region            string        `json:"region"`
	OccurredAt        time.Time     `json:"occurred_at"`
}

// DeletionReport - количество удаленных записей по категориям персональных данных
type DeletionReport struct {
	LocationPoints   int64 `json:"location_points"`
	VoiceRecordings  int64 `json:"voice_recordings"`
	SensorRecords    int64 `json:"sensor_records"`
	PersonalFields   int64 `json:"personal_fields"`
	AnonymizedStored int64 `json:"anonymized_stored"`
}

// Total - суммарное число удаленных персональных записей
func (r DeletionReport) Total() int64 {
	return r.LocationPoints + r.VoiceRecordings + r.SensorRecords + r.PersonalFields
}
