package models

import (
	"time"

	"github.com/google/uuid"
)

// IncidentStatus - статус инцидента в цепочке обработки
type IncidentStatus string

const (
	StatusTriggered    IncidentStatus = "triggered"
	StatusClassified   IncidentStatus = "classified"
	StatusRouted       IncidentStatus = "routed"
	StatusDispatched   IncidentStatus = "dispatched"
	StatusAcknowledged IncidentStatus = "acknowledged"
	StatusResponding   IncidentStatus = "responding"
	StatusOnScene      IncidentStatus = "on_scene"
	StatusResolved     IncidentStatus = "resolved"
	StatusClosed       IncidentStatus = "closed"
)

// statusChain задает единственный допустимый порядок статусов
var statusChain = []IncidentStatus{
	StatusTriggered,
	StatusClassified,
	StatusRouted,
	StatusDispatched,
	StatusAcknowledged,
	StatusResponding,
	StatusOnScene,
	StatusResolved,
	StatusClosed,
}

// reclassifiable - статусы, из которых разрешен явный возврат в classified
var reclassifiable = map[IncidentStatus]bool{
	StatusClassified: true,
	StatusRouted:     true,
	StatusDispatched: true,
}

// Next возвращает непосредственного преемника статуса в цепочке
func (s IncidentStatus) Next() (IncidentStatus, bool) {
	for i, st := range statusChain {
		if st == s && i+1 < len(statusChain) {
			return statusChain[i+1], true
		}
	}
	return "", false
}

// Valid сообщает, входит ли статус в цепочку
func (s IncidentStatus) Valid() bool {
	for _, st := range statusChain {
		if st == s {
			return true
		}
	}
	return false
}

// CanTransitionTo проверяет обычный (линейный) переход без перескоков
func (s IncidentStatus) CanTransitionTo(target IncidentStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}

// CanReclassify проверяет явное боковое ребро в classified
func (s IncidentStatus) CanReclassify() bool {
	return reclassifiable[s]
}

// EventType - тип записи в журнале инцидента
type EventType string

const (
	EventCreated       EventType = "created"
	EventStatusChanged EventType = "status_changed"
	EventReclassified  EventType = "reclassified"
	EventClosed        EventType = "closed"
	EventAlertFailed   EventType = "alert_failed"
	EventNoService     EventType = "no_service_available"
	EventRerouteFailed EventType = "reroute_failed"
)

// IsStatusEvent сообщает, фиксирует ли событие смену статуса
func (t EventType) IsStatusEvent() bool {
	switch t {
	case EventCreated, EventStatusChanged, EventReclassified, EventClosed:
		return true
	}
	return false
}

// IncidentEvent - неизменяемая запись аудита
type IncidentEvent struct {
	ID          uuid.UUID         `json:"id"`
	IncidentID  uuid.UUID         `json:"incident_id"`
	Type        EventType         `json:"type"`
	FromStatus  IncidentStatus    `json:"from_status,omitempty"`
	ToStatus    IncidentStatus    `json:"to_status,omitempty"`
	Description string            `json:"description"`
	ActorID     string            `json:"actor_id"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// GPSLocation - точка из потока геолокации
type GPSLocation struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AccuracyM  float64   `json:"accuracy_m,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// EmergencySignal - сработавший триггер, поступающий в ядро
type EmergencySignal struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Source     string      `json:"source"`
	Location   GPSLocation `json:"location"`
	ReceivedAt time.Time   `json:"received_at"`
}

type Incident struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              string          `json:"user_id"`
	Status              IncidentStatus  `json:"status"`
	SignalRef           string          `json:"signal_ref"`
	Classification      *Classification `json:"classification,omitempty"`
	Location            GPSLocation     `json:"location"`
	LocationHistory     []GPSLocation   `json:"location_history,omitempty"`
	Routing             *RoutingResult  `json:"routing,omitempty"`
	Alerts              []AlertResult   `json:"alerts,omitempty"`
	AssistanceSessionID string          `json:"assistance_session_id,omitempty"`
	Timeline            []IncidentEvent `json:"timeline"`
	Resolution          string          `json:"resolution,omitempty"`
	Version             int64           `json:"version"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	ClosedAt            *time.Time      `json:"closed_at,omitempty"`
}

// StatusEventCount возвращает число событий, фиксирующих смену статуса
func (i *Incident) StatusEventCount() int {
	n := 0
	for _, e := range i.Timeline {
		if e.Type.IsStatusEvent() {
			n++
		}
	}
	return n
}

// ResponderServiceIDs возвращает службы, которым уже отправлены оповещения
func (i *Incident) ResponderServiceIDs() []string {
	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, a := range i.Alerts {
		if a.RecipientClass == RecipientResponder && !seen[a.RecipientID] {
			seen[a.RecipientID] = true
			ids = append(ids, a.RecipientID)
		}
	}
	return ids
}

// Clone возвращает глубокую копию, которую можно безопасно отдавать наружу
func (i *Incident) Clone() *Incident {
	if i == nil {
		return nil
	}
	c := *i
	if i.Classification != nil {
		cl := *i.Classification
		c.Classification = &cl
	}
	if i.Routing != nil {
		c.Routing = i.Routing.Clone()
	}
	if i.ClosedAt != nil {
		t := *i.ClosedAt
		c.ClosedAt = &t
	}
	c.LocationHistory = append([]GPSLocation(nil), i.LocationHistory...)
	c.Alerts = append([]AlertResult(nil), i.Alerts...)
	c.Timeline = make([]IncidentEvent, len(i.Timeline))
	for idx, e := range i.Timeline {
		if e.Metadata != nil {
			md := make(map[string]string, len(e.Metadata))
			for k, v := range e.Metadata {
				md[k] = v
			}
			e.Metadata = md
		}
		c.Timeline[idx] = e
	}
	return &c
}

// SignalOutcome - итог обработки сигнала оркестратором
type SignalOutcome struct {
	Incident         *Incident     `json:"incident"`
	ContactAlerts    []AlertResult `json:"contact_alerts"`
	ResponderAlerts  []AlertResult `json:"responder_alerts"`
	FallbackGuidance []string      `json:"fallback_guidance,omitempty"`
}
