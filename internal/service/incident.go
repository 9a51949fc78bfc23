package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_orchestrator/internal/metrics"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/shenikar/incident_orchestrator/internal/webhook"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	// SaveWithEvents атомарно записывает инцидент и события, если версия в хранилище равна expectedVersion
	SaveWithEvents(ctx context.Context, incident *models.Incident, expectedVersion int64, events []models.IncidentEvent) error
	AppendLocation(ctx context.Context, id uuid.UUID, location models.GPSLocation) error
	// GetIncidentFromCache возвращает снимок (или nil) и поколение кеша инцидента
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, int64, error)
	// SetIncidentCache пишет снимок, только если поколение все еще равно generation
	SetIncidentCache(ctx context.Context, incident *models.Incident, generation int64) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// DeletionScheduler ставит закрытый инцидент в очередь на удаление данных
type DeletionScheduler interface {
	ScheduleDataDeletion(ctx context.Context, incidentID uuid.UUID, closedAt time.Time) (*models.DeletionJob, error)
}

// IncidentService определяет контракт жизненного цикла инцидента
type IncidentService interface {
	CreateIncident(ctx context.Context, signal models.EmergencySignal) (*models.Incident, error)
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus models.IncidentStatus, actor models.Actor) (*models.Incident, error)
	SetClassification(ctx context.Context, id uuid.UUID, classification models.Classification, actor models.Actor) (*models.Incident, error)
	AttachRouting(ctx context.Context, id uuid.UUID, routing *models.RoutingResult, actor models.Actor) (*models.Incident, error)
	Reclassify(ctx context.Context, id uuid.UUID, classification models.Classification, actor models.Actor) (*models.Incident, error)
	CloseIncident(ctx context.Context, id uuid.UUID, actor models.Actor, resolution string) (*models.Incident, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, location models.GPSLocation) error
	RecordAlertFailure(ctx context.Context, incidentID uuid.UUID, result models.AlertResult) error
	AppendNote(ctx context.Context, incidentID uuid.UUID, eventType models.EventType, description string) error
}

type incidentService struct {
	repo      IncidentRepository
	deletion  DeletionScheduler
	publisher webhook.WebhookPublisher
	metrics   *metrics.Metrics
	locks     *keyedMutex
	logger    *logrus.Logger
	now       func() time.Time
}

func NewIncidentService(repo IncidentRepository, deletion DeletionScheduler, publisher webhook.WebhookPublisher, m *metrics.Metrics, logger *logrus.Logger) IncidentService {
	return &incidentService{
		repo:      repo,
		deletion:  deletion,
		publisher: publisher,
		metrics:   m,
		locks:     newKeyedMutex(),
		logger:    logger,
		now:       time.Now,
	}
}

// CreateIncident заводит инцидент из сигнала в статусе triggered
func (s *incidentService) CreateIncident(ctx context.Context, signal models.EmergencySignal) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "incident",
		"method":     "CreateIncident",
		"user_id":    signal.UserID,
		"signal_ref": signal.ID,
	})
	log.Info("Attempting to create a new incident")

	now := s.now()
	location := signal.Location
	if location.RecordedAt.IsZero() {
		location.RecordedAt = now
	}
	incident := &models.Incident{
		ID:              uuid.New(),
		UserID:          signal.UserID,
		Status:          models.StatusTriggered,
		SignalRef:       signal.ID,
		Location:        location,
		LocationHistory: []models.GPSLocation{location},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	incident.Timeline = []models.IncidentEvent{{
		ID:          uuid.New(),
		IncidentID:  incident.ID,
		Type:        models.EventCreated,
		ToStatus:    models.StatusTriggered,
		Description: fmt.Sprintf("Incident created from %s signal", signal.Source),
		ActorID:     signal.UserID,
		OccurredAt:  now,
	}}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}
	s.metrics.Transitions.WithLabelValues(string(models.StatusTriggered)).Inc()

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return incident.Clone(), nil
}

// GetIncident получает инцидент по ID, сначала из кеша
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	cached, generation, cacheErr := s.repo.GetIncidentFromCache(ctx, id)
	if cacheErr != nil {
		log.WithError(cacheErr).Warn("Failed to read incident cache")
	}
	if cached != nil {
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to get incident in repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	// поколение прочитано до загрузки: если инцидент успели изменить, снимок не запишется
	if cacheErr == nil {
		if err := s.repo.SetIncidentCache(ctx, incident, generation); err != nil {
			log.WithError(err).Warn("Failed to cache incident")
		}
	}
	return incident, nil
}

// UpdateStatus переводит инцидент в непосредственно следующий статус цепочки
func (s *incidentService) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus models.IncidentStatus, actor models.Actor) (*models.Incident, error) {
	if newStatus == models.StatusClosed {
		return nil, fmt.Errorf("service: closing requires CloseIncident: %w", models.ErrInvalidTransition)
	}
	return s.mutate(ctx, id, "UpdateStatus", func(inc *models.Incident) ([]models.IncidentEvent, error) {
		if inc.Status == newStatus {
			return nil, nil
		}
		if !inc.Status.CanTransitionTo(newStatus) {
			return nil, fmt.Errorf("service: %s -> %s: %w", inc.Status, newStatus, models.ErrInvalidTransition)
		}
		return []models.IncidentEvent{s.statusEvent(inc, newStatus, actor, "")}, nil
	})
}

// SetClassification сохраняет классификацию и переводит triggered -> classified
func (s *incidentService) SetClassification(ctx context.Context, id uuid.UUID, classification models.Classification, actor models.Actor) (*models.Incident, error) {
	classification = models.EnforceConfidenceOverride(classification)
	return s.mutate(ctx, id, "SetClassification", func(inc *models.Incident) ([]models.IncidentEvent, error) {
		if inc.Status == models.StatusClassified {
			return nil, nil
		}
		if !inc.Status.CanTransitionTo(models.StatusClassified) {
			return nil, fmt.Errorf("service: %s -> %s: %w", inc.Status, models.StatusClassified, models.ErrInvalidTransition)
		}
		inc.Classification = &classification
		ev := s.statusEvent(inc, models.StatusClassified, actor, fmt.Sprintf("Classified as %s (%s priority, confidence %.2f)",
			classification.Type, classification.Priority, classification.Confidence))
		return []models.IncidentEvent{ev}, nil
	})
}

// AttachRouting сохраняет результат маршрутизации и переводит classified -> routed
func (s *incidentService) AttachRouting(ctx context.Context, id uuid.UUID, routing *models.RoutingResult, actor models.Actor) (*models.Incident, error) {
	if routing == nil {
		return nil, errors.New("service: routing result is required")
	}
	return s.mutate(ctx, id, "AttachRouting", func(inc *models.Incident) ([]models.IncidentEvent, error) {
		if inc.Status == models.StatusRouted {
			return nil, nil
		}
		if !inc.Status.CanTransitionTo(models.StatusRouted) {
			return nil, fmt.Errorf("service: %s -> %s: %w", inc.Status, models.StatusRouted, models.ErrInvalidTransition)
		}
		inc.Routing = routing.Clone()
		ev := s.statusEvent(inc, models.StatusRouted, actor, fmt.Sprintf("Routed to %d primary and %d backup services",
			len(routing.Primary), len(routing.Backup)))
		return []models.IncidentEvent{ev}, nil
	})
}

// Reclassify - единственное обратное ребро: classified/routed/dispatched -> classified
func (s *incidentService) Reclassify(ctx context.Context, id uuid.UUID, classification models.Classification, actor models.Actor) (*models.Incident, error) {
	classification = models.EnforceConfidenceOverride(classification)
	return s.mutate(ctx, id, "Reclassify", func(inc *models.Incident) ([]models.IncidentEvent, error) {
		if !inc.Status.CanReclassify() {
			return nil, fmt.Errorf("service: cannot reclassify in status %s: %w", inc.Status, models.ErrInvalidTransition)
		}
		ev := s.statusEvent(inc, models.StatusClassified, actor, fmt.Sprintf("Reclassified as %s (%s priority)",
			classification.Type, classification.Priority))
		ev.Type = models.EventReclassified
		if inc.Classification != nil {
			ev.Metadata = map[string]string{
				"previous_type":     string(inc.Classification.Type),
				"previous_priority": string(inc.Classification.Priority),
			}
		}
		inc.Classification = &classification
		inc.Routing = nil
		return []models.IncidentEvent{ev}, nil
	})
}

// CloseIncident закрывает решенный инцидент и синхронно планирует удаление данных
func (s *incidentService) CloseIncident(ctx context.Context, id uuid.UUID, actor models.Actor, resolution string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "CloseIncident",
		"incident_id": id,
		"actor_id":    actor.ID,
	})
	if !actor.HasCapability(models.CapabilityEmergencyResponder) {
		log.Warn("Close attempt without responder capability")
		return nil, fmt.Errorf("service: actor %s cannot close incident: %w", actor.ID, models.ErrUnauthorized)
	}

	incident, err := s.mutate(ctx, id, "CloseIncident", func(inc *models.Incident) ([]models.IncidentEvent, error) {
		if inc.Status == models.StatusClosed {
			return nil, nil
		}
		if !inc.Status.CanTransitionTo(models.StatusClosed) {
			return nil, fmt.Errorf("service: %s -> %s: %w", inc.Status, models.StatusClosed, models.ErrInvalidTransition)
		}
		ev := s.statusEvent(inc, models.StatusClosed, actor, "Incident closed")
		ev.Type = models.EventClosed
		closedAt := ev.OccurredAt
		inc.ClosedAt = &closedAt
		inc.Resolution = resolution
		return []models.IncidentEvent{ev}, nil
	})
	if err != nil {
		return nil, err
	}

	job, err := s.deletion.ScheduleDataDeletion(ctx, incident.ID, *incident.ClosedAt)
	if err != nil && !errors.Is(err, models.ErrDeletionAlreadyScheduled) {
		log.WithError(err).Error("Incident closed but deletion was not scheduled")
		return nil, fmt.Errorf("service: could not schedule data deletion: %w", err)
	}
	if job != nil {
		log = log.WithField("deletion_at", job.ScheduledFor)
	}
	log.Info("Incident closed")
	return incident, nil
}

// UpdateLocation добавляет точку из потока геолокации
func (s *incidentService) UpdateLocation(ctx context.Context, id uuid.UUID, location models.GPSLocation) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service: could not get incident: %w", err)
	}
	if current.Status == models.StatusClosed {
		return models.ErrIncidentClosed
	}
	if location.RecordedAt.IsZero() {
		location.RecordedAt = s.now()
	}
	if err := s.repo.AppendLocation(ctx, id, location); err != nil {
		return fmt.Errorf("service: could not append location: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// RecordAlertFailure фиксирует в журнале исчерпание попыток доставки
func (s *incidentService) RecordAlertFailure(ctx context.Context, incidentID uuid.UUID, result models.AlertResult) error {
	desc := fmt.Sprintf("Alert to %s %s failed after %d attempts", result.RecipientClass, result.RecipientID, result.RetryCount)
	return s.annotate(ctx, incidentID, models.EventAlertFailed, desc, map[string]string{
		"alert_id":     result.ID.String(),
		"recipient_id": result.RecipientID,
		"last_error":   result.Error,
	})
}

// AppendNote добавляет событие, не меняющее статус
func (s *incidentService) AppendNote(ctx context.Context, incidentID uuid.UUID, eventType models.EventType, description string) error {
	if eventType.IsStatusEvent() {
		return fmt.Errorf("service: %s is a status event: %w", eventType, models.ErrInvalidTransition)
	}
	return s.annotate(ctx, incidentID, eventType, description, nil)
}

func (s *incidentService) annotate(ctx context.Context, incidentID uuid.UUID, eventType models.EventType, description string, metadata map[string]string) error {
	_, err := s.mutate(ctx, incidentID, "annotate", func(inc *models.Incident) ([]models.IncidentEvent, error) {
		return []models.IncidentEvent{{
			ID:          uuid.New(),
			IncidentID:  inc.ID,
			Type:        eventType,
			Description: description,
			ActorID:     models.SystemActor.ID,
			Metadata:    metadata,
			OccurredAt:  s.now(),
		}}, nil
	})
	return err
}

func (s *incidentService) statusEvent(inc *models.Incident, to models.IncidentStatus, actor models.Actor, description string) models.IncidentEvent {
	if description == "" {
		description = fmt.Sprintf("Status changed from %s to %s", inc.Status, to)
	}
	return models.IncidentEvent{
		ID:          uuid.New(),
		IncidentID:  inc.ID,
		Type:        models.EventStatusChanged,
		FromStatus:  inc.Status,
		ToStatus:    to,
		Description: description,
		ActorID:     actor.ID,
		OccurredAt:  s.now(),
	}
}

// mutate применяет изменение под блокировкой инцидента с проверкой версии.
// Пустой список событий означает no-op: инцидент уже в целевом состоянии.
func (s *incidentService) mutate(ctx context.Context, id uuid.UUID, method string, apply func(inc *models.Incident) ([]models.IncidentEvent, error)) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      method,
		"incident_id": id,
	})

	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent incident")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	next := current.Clone()
	events, err := apply(next)
	if err != nil {
		log.WithError(err).Warn("Incident change rejected")
		return nil, err
	}
	if len(events) == 0 {
		return current, nil
	}

	fromStatus := current.Status
	for _, ev := range events {
		if ev.Type.IsStatusEvent() {
			next.Status = ev.ToStatus
		}
	}
	next.Version = current.Version + 1
	next.UpdatedAt = events[len(events)-1].OccurredAt

	if err := s.repo.SaveWithEvents(ctx, next, current.Version, events); err != nil {
		if errors.Is(err, models.ErrStaleWrite) {
			log.WithError(err).Warn("Concurrent incident update detected")
			return nil, fmt.Errorf("service: concurrent update of incident %s: %w", id, models.ErrInvalidTransition)
		}
		log.WithError(err).Error("Failed to save incident in repository")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}
	next.Timeline = append(next.Timeline, events...)
	s.invalidate(ctx, id)

	if next.Status != fromStatus {
		s.metrics.Transitions.WithLabelValues(string(next.Status)).Inc()
		log.WithFields(logrus.Fields{"from": fromStatus, "to": next.Status}).Info("Incident status changed")
		s.broadcast(ctx, next, fromStatus, events[len(events)-1])
	}
	return next.Clone(), nil
}

func (s *incidentService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		s.logger.WithError(err).WithField("incident_id", id).Warn("Failed to invalidate incident cache")
	}
}

// broadcast сообщает о смене статуса службам, которые уже получили оповещение
func (s *incidentService) broadcast(ctx context.Context, inc *models.Incident, from models.IncidentStatus, ev models.IncidentEvent) {
	services := inc.ResponderServiceIDs()
	if s.publisher == nil || len(services) == 0 {
		return
	}
	event := webhook.StatusUpdateEvent{
		IncidentID: inc.ID,
		FromStatus: from,
		Status:     inc.Status,
		ServiceIDs: services,
		Location:   inc.Location,
		ActorID:    ev.ActorID,
		OccurredAt: ev.OccurredAt,
	}
	if inc.Classification != nil {
		event.EmergencyType = inc.Classification.Type
		event.Priority = inc.Classification.Priority
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("incident_id", inc.ID).Warn("Failed to publish status update")
	}
}
