package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_orchestrator/internal/alert"
	"github.com/shenikar/incident_orchestrator/internal/deletion"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/shenikar/incident_orchestrator/internal/service"
)

var (
	_ service.IncidentRepository = (*MemoryStore)(nil)
	_ alert.Repository           = (*MemoryStore)(nil)
	_ deletion.JobStore          = (*MemoryStore)(nil)
	_ deletion.DataEraser        = (*MemoryStore)(nil)
)

// MemoryStore - хранилище в памяти для STORE_DRIVER=memory и тестов.
// Запись инцидента заменяется целиком под общей блокировкой.
type MemoryStore struct {
	mu         sync.RWMutex
	incidents  map[uuid.UUID]*models.Incident
	signals    map[string]uuid.UUID
	alerts     map[uuid.UUID]*models.AlertDispatch
	alertOrder []uuid.UUID
	jobs       map[uuid.UUID]*models.DeletionJob
	erased     map[uuid.UUID]bool
	anonymized []models.AnonymizedIncident
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		incidents: make(map[uuid.UUID]*models.Incident),
		signals:   make(map[string]uuid.UUID),
		alerts:    make(map[uuid.UUID]*models.AlertDispatch),
		jobs:      make(map[uuid.UUID]*models.DeletionJob),
		erased:    make(map[uuid.UUID]bool),
	}
}

func (m *MemoryStore) Create(_ context.Context, incident *models.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.incidents[incident.ID]; ok {
		return fmt.Errorf("incident %s: %w", incident.ID, models.ErrDuplicateIncident)
	}
	if _, ok := m.signals[incident.SignalRef]; ok {
		return fmt.Errorf("signal %s: %w", incident.SignalRef, models.ErrDuplicateIncident)
	}
	stored := incident.Clone()
	stored.Alerts = nil
	m.incidents[incident.ID] = stored
	m.signals[incident.SignalRef] = incident.ID
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.incidents[id]
	if !ok {
		return nil, fmt.Errorf("incident with id %s: %w", id, models.ErrIncidentNotFound)
	}
	incident := stored.Clone()
	for _, alertID := range m.alertOrder {
		if d := m.alerts[alertID]; d.Result.IncidentID == id {
			incident.Alerts = append(incident.Alerts, d.Result)
		}
	}
	return incident, nil
}

func (m *MemoryStore) SaveWithEvents(_ context.Context, incident *models.Incident, expectedVersion int64, events []models.IncidentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.incidents[incident.ID]
	if !ok {
		return fmt.Errorf("incident with id %s: %w", incident.ID, models.ErrIncidentNotFound)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("incident %s at version %d: %w", incident.ID, expectedVersion, models.ErrStaleWrite)
	}

	next := incident.Clone()
	next.Alerts = nil
	next.Location = stored.Location
	next.LocationHistory = stored.LocationHistory
	next.Timeline = append(append([]models.IncidentEvent(nil), stored.Timeline...), events...)
	m.incidents[incident.ID] = next
	return nil
}

func (m *MemoryStore) AppendLocation(_ context.Context, id uuid.UUID, location models.GPSLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.incidents[id]
	if !ok {
		return fmt.Errorf("incident with id %s: %w", id, models.ErrIncidentNotFound)
	}
	stored.Location = location
	stored.LocationHistory = append(stored.LocationHistory, location)
	stored.UpdatedAt = time.Now()
	return nil
}

// Кеш в памяти не нужен: GetByID и так читает из памяти
func (m *MemoryStore) GetIncidentFromCache(context.Context, uuid.UUID) (*models.Incident, int64, error) {
	return nil, 0, nil
}

func (m *MemoryStore) SetIncidentCache(context.Context, *models.Incident, int64) error {
	return nil
}

func (m *MemoryStore) InvalidateIncidentCache(context.Context, uuid.UUID) error {
	return nil
}

func (m *MemoryStore) SaveAlert(_ context.Context, dispatch *models.AlertDispatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := dispatch.Result.ID
	if _, ok := m.alerts[id]; !ok {
		m.alertOrder = append(m.alertOrder, id)
	}
	m.alerts[id] = cloneDispatch(dispatch)
	return nil
}

func (m *MemoryStore) ListAlertsByIncident(_ context.Context, incidentID uuid.UUID) ([]*models.AlertDispatch, error) {
	return m.listAlerts(func(d *models.AlertDispatch) bool {
		return d.Result.IncidentID == incidentID
	}), nil
}

func (m *MemoryStore) ListRetryableAlerts(context.Context) ([]*models.AlertDispatch, error) {
	return m.listAlerts(func(d *models.AlertDispatch) bool {
		if d.Result.Status == models.DeliveryDelivered || d.Result.RetryCount >= models.MaxDeliveryAttempts {
			return false
		}
		inc, ok := m.incidents[d.Result.IncidentID]
		return ok && inc.Status != models.StatusClosed && !m.erased[d.Result.IncidentID]
	}), nil
}

func (m *MemoryStore) listAlerts(match func(d *models.AlertDispatch) bool) []*models.AlertDispatch {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.AlertDispatch, 0)
	for _, id := range m.alertOrder {
		if d := m.alerts[id]; match(d) {
			out = append(out, cloneDispatch(d))
		}
	}
	return out
}

func (m *MemoryStore) CreateDeletionJob(_ context.Context, job *models.DeletionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[job.IncidentID]; ok {
		return fmt.Errorf("incident %s: %w", job.IncidentID, models.ErrDeletionAlreadyScheduled)
	}
	c := *job
	m.jobs[job.IncidentID] = &c
	return nil
}

func (m *MemoryStore) GetDeletionJobByIncident(_ context.Context, incidentID uuid.UUID) (*models.DeletionJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[incidentID]
	if !ok {
		return nil, fmt.Errorf("incident %s: %w", incidentID, models.ErrDeletionJobNotFound)
	}
	c := *job
	return &c, nil
}

func (m *MemoryStore) UpdateDeletionJob(_ context.Context, job *models.DeletionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.jobs[job.IncidentID]
	if !ok || stored.ID != job.ID {
		return fmt.Errorf("job %s: %w", job.ID, models.ErrDeletionJobNotFound)
	}
	c := *job
	m.jobs[job.IncidentID] = &c
	return nil
}

func (m *MemoryStore) ClaimDueDeletionJobs(_ context.Context, now, staleBefore time.Time, limit int) ([]*models.DeletionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := make([]*models.DeletionJob, 0)
	for _, job := range m.jobs {
		if job.RequiresManualReview {
			continue
		}
		due := (job.Status == models.DeletionScheduled || job.Status == models.DeletionFailed) && !job.DueAt().After(now)
		stale := job.Status == models.DeletionInProgress && job.UpdatedAt.Before(staleBefore)
		if due || stale {
			candidates = append(candidates, job)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].DueAt().Before(candidates[j].DueAt())
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	claimed := make([]*models.DeletionJob, 0, len(candidates))
	for _, job := range candidates {
		job.Status = models.DeletionInProgress
		job.UpdatedAt = now
		c := *job
		claimed = append(claimed, &c)
	}
	return claimed, nil
}

func (m *MemoryStore) ListEscalatedDeletionJobs(context.Context) ([]*models.DeletionJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.DeletionJob, 0)
	for _, job := range m.jobs {
		if job.RequiresManualReview {
			c := *job
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

// EraseIncidentData очищает персональные поля инцидента, трек и получателей оповещений
func (m *MemoryStore) EraseIncidentData(_ context.Context, incidentID uuid.UUID, record models.AnonymizedIncident) (models.DeletionReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var report models.DeletionReport
	stored, ok := m.incidents[incidentID]
	if !ok {
		return report, fmt.Errorf("incident with id %s: %w", incidentID, models.ErrIncidentNotFound)
	}
	if m.erased[incidentID] {
		return report, nil
	}

	report.LocationPoints = int64(len(stored.LocationHistory))
	report.PersonalFields++
	for i := range stored.Timeline {
		if stored.UserID != "" && stored.Timeline[i].ActorID == stored.UserID {
			stored.Timeline[i].ActorID = redactedActor
			report.PersonalFields++
		}
	}
	for _, d := range m.alerts {
		if d.Result.IncidentID == incidentID {
			d.Recipient = models.Recipient{}
			d.Payload = models.AlertPayload{}
			report.PersonalFields++
		}
	}

	stored.UserID = ""
	stored.Location = models.GPSLocation{}
	stored.LocationHistory = nil
	stored.AssistanceSessionID = ""
	stored.Resolution = ""
	stored.UpdatedAt = time.Now()
	m.erased[incidentID] = true

	m.anonymized = append(m.anonymized, record)
	report.AnonymizedStored = 1
	return report, nil
}

func (m *MemoryStore) PurgeAuditEvents(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var purged int64
	for id, stored := range m.incidents {
		if !m.erased[id] {
			continue
		}
		kept := stored.Timeline[:0]
		for _, ev := range stored.Timeline {
			if ev.OccurredAt.Before(before) {
				purged++
				continue
			}
			kept = append(kept, ev)
		}
		stored.Timeline = kept
	}
	return purged, nil
}

// Anonymized возвращает сохраненные обезличенные записи
func (m *MemoryStore) Anonymized() []models.AnonymizedIncident {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.AnonymizedIncident(nil), m.anonymized...)
}

func cloneDispatch(d *models.AlertDispatch) *models.AlertDispatch {
	c := *d
	c.Result.Channels = append([]models.Channel(nil), d.Result.Channels...)
	if d.Result.DeliveredAt != nil {
		t := *d.Result.DeliveredAt
		c.Result.DeliveredAt = &t
	}
	if d.Result.NextRetryAt != nil {
		t := *d.Result.NextRetryAt
		c.Result.NextRetryAt = &t
	}
	return &c
}
