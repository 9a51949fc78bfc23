package v1

import (
	"time"

	"github.com/google/uuid"
)

// ClassificationHint DTO классификации, уже известной источнику сигнала
// @Description Классификация, переданная вместе с сигналом
type ClassificationHint struct {
	Type       string  `json:"type" validate:"required,oneof=medical accident safety"`
	Priority   string  `json:"priority" validate:"required,oneof=high medium low"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
	Reasoning  string  `json:"reasoning,omitempty" validate:"max=2000"`
}

// SignalRequest DTO сработавшего триггера
// @Description Сигнал тревоги от устройства пользователя
type SignalRequest struct {
	SignalID       string              `json:"signal_id" validate:"required,max=128"`
	UserID         string              `json:"user_id" validate:"required,max=128"`
	Source         string              `json:"source" validate:"required,max=64"`
	Latitude       float64             `json:"latitude" validate:"required,latitude"`
	Longitude      float64             `json:"longitude" validate:"required,longitude"`
	AccuracyM      float64             `json:"accuracy_m,omitempty" validate:"gte=0"`
	Classification *ClassificationHint `json:"classification,omitempty"`
}

// UpdateStatusRequest DTO перехода по цепочке статусов
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=classified routed dispatched acknowledged responding on_scene resolved"`
}

// CloseIncidentRequest DTO закрытия инцидента
type CloseIncidentRequest struct {
	Resolution string `json:"resolution" validate:"required,max=2000"`
}

// ReclassifyRequest DTO переклассификации
type ReclassifyRequest struct {
	Type       string  `json:"type" validate:"required,oneof=medical accident safety"`
	Priority   string  `json:"priority" validate:"required,oneof=high medium low"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
	Reasoning  string  `json:"reasoning,omitempty" validate:"max=2000"`
}

// LocationUpdateRequest DTO точки из потока геолокации
type LocationUpdateRequest struct {
	Latitude   float64    `json:"latitude" validate:"required,latitude"`
	Longitude  float64    `json:"longitude" validate:"required,longitude"`
	AccuracyM  float64    `json:"accuracy_m,omitempty" validate:"gte=0"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// AvailabilityUpdateRequest DTO push-обновления доступности службы
type AvailabilityUpdateRequest struct {
	ServiceID    string    `json:"service_id" validate:"required"`
	Availability string    `json:"availability" validate:"required,oneof=available busy unavailable"`
	ObservedAt   time.Time `json:"observed_at" validate:"required"`
}

// AlertResponse DTO состояния доставки оповещения
type AlertResponse struct {
	ID             uuid.UUID  `json:"id"`
	RecipientID    string     `json:"recipient_id"`
	RecipientClass string     `json:"recipient_class"`
	Channels       []string   `json:"channels"`
	Status         string     `json:"status"`
	RetryCount     int        `json:"retry_count"`
	Error          string     `json:"error,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
}

// EventResponse DTO записи журнала
type EventResponse struct {
	Type        string            `json:"type"`
	FromStatus  string            `json:"from_status,omitempty"`
	ToStatus    string            `json:"to_status,omitempty"`
	Description string            `json:"description"`
	ActorID     string            `json:"actor_id"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID                uuid.UUID       `json:"id"`
	UserID            string          `json:"user_id"`
	Status            string          `json:"status"`
	EmergencyType     string          `json:"emergency_type,omitempty"`
	Priority          string          `json:"priority,omitempty"`
	Confidence        float64         `json:"confidence,omitempty"`
	Latitude          float64         `json:"latitude"`
	Longitude         float64         `json:"longitude"`
	PrimaryServices   []string        `json:"primary_services,omitempty"`
	BackupServices    []string        `json:"backup_services,omitempty"`
	EstimatedMinutes  float64         `json:"estimated_minutes,omitempty"`
	Alerts            []AlertResponse `json:"alerts"`
	Timeline          []EventResponse `json:"timeline"`
	Resolution        string          `json:"resolution,omitempty"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	ClosedAt          *time.Time      `json:"closed_at,omitempty"`
	DeletionScheduled bool            `json:"deletion_scheduled,omitempty"`
}

// SignalResponse DTO итога обработки сигнала
type SignalResponse struct {
	Incident         *IncidentResponse `json:"incident"`
	ContactAlerts    []AlertResponse   `json:"contact_alerts"`
	ResponderAlerts  []AlertResponse   `json:"responder_alerts"`
	FallbackGuidance []string          `json:"fallback_guidance,omitempty"`
}

// RetryResponse DTO повторной отправки оповещений
type RetryResponse struct {
	Requeued int `json:"requeued"`
}

// DeletionJobResponse DTO задания удаления, ожидающего ручной проверки
type DeletionJobResponse struct {
	ID             uuid.UUID  `json:"id"`
	IncidentID     uuid.UUID  `json:"incident_id"`
	Status         string     `json:"status"`
	Attempts       int        `json:"attempts"`
	LastError      string     `json:"last_error,omitempty"`
	ScheduledFor   time.Time  `json:"scheduled_for"`
	FirstAttemptAt *time.Time `json:"first_attempt_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
