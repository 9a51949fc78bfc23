package deletion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_orchestrator/internal/metrics"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/shenikar/incident_orchestrator/internal/notify"
	"github.com/sirupsen/logrus"
)

// JobStore - хранилище заданий на удаление
type JobStore interface {
	CreateDeletionJob(ctx context.Context, job *models.DeletionJob) error
	GetDeletionJobByIncident(ctx context.Context, incidentID uuid.UUID) (*models.DeletionJob, error)
	UpdateDeletionJob(ctx context.Context, job *models.DeletionJob) error
	// ClaimDueDeletionJobs атомарно переводит созревшие задания в in_progress
	ClaimDueDeletionJobs(ctx context.Context, now, staleBefore time.Time, limit int) ([]*models.DeletionJob, error)
	ListEscalatedDeletionJobs(ctx context.Context) ([]*models.DeletionJob, error)
}

// DataEraser удаляет персональные данные инцидента одной транзакцией
type DataEraser interface {
	EraseIncidentData(ctx context.Context, incidentID uuid.UUID, anonymized models.AnonymizedIncident) (models.DeletionReport, error)
	PurgeAuditEvents(ctx context.Context, before time.Time) (int64, error)
}

// IncidentSource читает инцидент из хранилища в обход кеша
type IncidentSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
}

type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

type Notifier interface {
	Deliver(ctx context.Context, channel models.Channel, recipient models.Recipient, payload models.AlertPayload) (notify.Outcome, error)
}

// Escalator сообщает операторам о задании, требующем ручной проверки
type Escalator interface {
	DeletionEscalated(ctx context.Context, job models.DeletionJob) error
}

type Options struct {
	Delay           time.Duration
	RetryInterval   time.Duration
	EscalationAfter time.Duration
	PollInterval    time.Duration
	AuditRetention  time.Duration
	BatchSize       int
}

func DefaultOptions() Options {
	return Options{
		Delay:           24 * time.Hour,
		RetryInterval:   time.Hour,
		EscalationAfter: 48 * time.Hour,
		PollInterval:    time.Minute,
		AuditRetention:  90 * 24 * time.Hour,
		BatchSize:       50,
	}
}

const confirmationText = "Your emergency incident %s has been closed and your personal data associated with it has been deleted."

// Scheduler планирует и выполняет удаление персональных данных закрытых инцидентов
type Scheduler struct {
	jobs      JobStore
	eraser    DataEraser
	incidents IncidentSource
	profiles  ProfileSource
	notifier  Notifier
	escalator Escalator
	metrics   *metrics.Metrics
	opts      Options
	logger    *logrus.Logger
	now       func() time.Time
}

func NewScheduler(jobs JobStore, eraser DataEraser, incidents IncidentSource, profiles ProfileSource, notifier Notifier, m *metrics.Metrics, opts Options, logger *logrus.Logger) *Scheduler {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	return &Scheduler{
		jobs:      jobs,
		eraser:    eraser,
		incidents: incidents,
		profiles:  profiles,
		notifier:  notifier,
		metrics:   m,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Scheduler) WithEscalator(e Escalator) *Scheduler {
	s.escalator = e
	return s
}

// ScheduleDataDeletion создает единственное задание на closedAt + задержка.
// Повторный вызов возвращает существующее задание вместе с ErrDeletionAlreadyScheduled.
func (s *Scheduler) ScheduleDataDeletion(ctx context.Context, incidentID uuid.UUID, closedAt time.Time) (*models.DeletionJob, error) {
	now := s.now()
	job := &models.DeletionJob{
		ID:           uuid.New(),
		IncidentID:   incidentID,
		ScheduledFor: closedAt.Add(s.opts.Delay),
		Status:       models.DeletionScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.jobs.CreateDeletionJob(ctx, job); err != nil {
		if errors.Is(err, models.ErrDeletionAlreadyScheduled) {
			existing, getErr := s.jobs.GetDeletionJobByIncident(ctx, incidentID)
			if getErr != nil {
				return nil, fmt.Errorf("deletion: could not load existing job: %w", getErr)
			}
			return existing, err
		}
		return nil, fmt.Errorf("deletion: could not schedule job: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"service":       "DeletionScheduler",
		"method":        "ScheduleDataDeletion",
		"incident_id":   incidentID,
		"scheduled_for": job.ScheduledFor,
	}).Info("Data deletion scheduled")
	return job, nil
}

// ExecuteDataDeletion выполняет задание: обезличивание и удаление одной транзакцией.
// Ошибка возвращается только если задание не удалось сохранить.
func (s *Scheduler) ExecuteDataDeletion(ctx context.Context, job *models.DeletionJob) error {
	if job.Terminal() {
		return nil
	}
	logger := s.logger.WithFields(logrus.Fields{
		"service":     "DeletionScheduler",
		"method":      "ExecuteDataDeletion",
		"job_id":      job.ID,
		"incident_id": job.IncidentID,
	})

	now := s.now()
	if job.FirstAttemptAt == nil {
		job.FirstAttemptAt = &now
	}
	job.Status = models.DeletionInProgress
	job.Attempts++
	job.UpdatedAt = now

	// адресат подтверждения сохраняется в задании до удаления: после него профиль уже не найти
	incident, loadErr := s.incidents.GetByID(ctx, job.IncidentID)
	if loadErr == nil && job.Confirmation == nil {
		job.Confirmation = s.confirmationFor(ctx, incident, logger)
	}
	if err := s.jobs.UpdateDeletionJob(ctx, job); err != nil {
		return fmt.Errorf("deletion: could not mark job in progress: %w", err)
	}
	if loadErr != nil {
		return s.fail(ctx, job, fmt.Errorf("could not load incident: %w", loadErr), logger)
	}

	report, err := s.eraser.EraseIncidentData(ctx, job.IncidentID, s.AnonymizeIncidentData(incident))
	if err != nil {
		return s.fail(ctx, job, fmt.Errorf("%w: %w", models.ErrDeletionFailed, err), logger)
	}

	confirmation := job.Confirmation
	done := s.now()
	job.Status = models.DeletionCompleted
	job.CompletedAt = &done
	job.NextAttemptAt = nil
	job.LastError = ""
	job.UpdatedAt = done
	job.Confirmation = nil
	if err := s.jobs.UpdateDeletionJob(ctx, job); err != nil {
		job.Confirmation = confirmation
		return fmt.Errorf("deletion: could not mark job completed: %w", err)
	}
	s.metrics.DeletionOutcomes.WithLabelValues("completed").Inc()

	logger.WithFields(logrus.Fields{
		"location_points":  report.LocationPoints,
		"voice_recordings": report.VoiceRecordings,
		"sensor_records":   report.SensorRecords,
		"personal_fields":  report.PersonalFields,
		"attempts":         job.Attempts,
	}).Info("Personal data deleted")

	s.confirm(ctx, job.IncidentID, confirmation, logger)
	return nil
}

// confirmationFor выбирает канал подтверждения по профилю: SMS, иначе push
func (s *Scheduler) confirmationFor(ctx context.Context, incident *models.Incident, logger *logrus.Entry) *models.DeletionConfirmation {
	if s.profiles == nil || incident.UserID == "" {
		return nil
	}
	profile, err := s.profiles.GetProfile(ctx, incident.UserID)
	if err != nil || profile == nil {
		logger.WithError(err).Warn("Could not load profile for deletion confirmation")
		return nil
	}

	recipient := models.Recipient{ID: profile.UserID, Name: profile.Name, Phone: profile.Phone, Address: profile.Phone}
	switch {
	case profile.Phone != "":
		return &models.DeletionConfirmation{Channel: models.ChannelSMS, Recipient: recipient}
	case profile.PushToken != "":
		recipient.Address = profile.PushToken
		return &models.DeletionConfirmation{Channel: models.ChannelPush, Recipient: recipient}
	default:
		logger.Warn("User has no channel for deletion confirmation")
		return nil
	}
}

func (s *Scheduler) fail(ctx context.Context, job *models.DeletionJob, cause error, logger *logrus.Entry) error {
	now := s.now()
	next := now.Add(s.opts.RetryInterval)
	job.Status = models.DeletionFailed
	job.LastError = cause.Error()
	job.UpdatedAt = now

	escalate := next.After(job.EscalationDeadline(s.opts.EscalationAfter))
	if escalate {
		job.RequiresManualReview = true
		job.NextAttemptAt = nil
	} else {
		job.NextAttemptAt = &next
	}

	if err := s.jobs.UpdateDeletionJob(ctx, job); err != nil {
		return fmt.Errorf("deletion: could not record failure: %w", err)
	}

	if !escalate {
		s.metrics.DeletionOutcomes.WithLabelValues("retry").Inc()
		logger.WithError(cause).WithField("next_attempt_at", next).Warn("Data deletion failed, retry scheduled")
		return nil
	}

	s.metrics.DeletionOutcomes.WithLabelValues("escalated").Inc()
	logger.WithError(cause).WithField("attempts", job.Attempts).Error("Data deletion requires manual review")
	if s.escalator != nil {
		if err := s.escalator.DeletionEscalated(ctx, *job); err != nil {
			logger.WithError(err).Error("Failed to alert operators about deletion job")
		}
	}
	return nil
}

func (s *Scheduler) confirm(ctx context.Context, incidentID uuid.UUID, target *models.DeletionConfirmation, logger *logrus.Entry) {
	if s.notifier == nil || target == nil {
		return
	}
	payload := models.AlertPayload{
		IncidentID: incidentID,
		Message:    fmt.Sprintf(confirmationText, incidentID),
	}
	if _, err := s.notifier.Deliver(ctx, target.Channel, target.Recipient, payload); err != nil {
		logger.WithError(err).Warn("Deletion confirmation was not delivered")
	}
}

// AnonymizeIncidentData строит обезличенную запись: тип, приоритет, длительности и грубый регион
func (s *Scheduler) AnonymizeIncidentData(incident *models.Incident) models.AnonymizedIncident {
	anon := models.AnonymizedIncident{
		ID:         uuid.New(),
		Region:     coarseRegion(incident.Location),
		OccurredAt: incident.CreatedAt.Truncate(time.Hour),
	}
	if incident.Classification != nil {
		anon.EmergencyType = incident.Classification.Type
		anon.Priority = incident.Classification.Priority
	}
	for _, ev := range incident.Timeline {
		if ev.ToStatus == models.StatusAcknowledged {
			anon.ResponseSeconds = int64(ev.OccurredAt.Sub(incident.CreatedAt).Seconds())
			break
		}
	}
	if incident.ClosedAt != nil {
		anon.ResolutionSeconds = int64(incident.ClosedAt.Sub(incident.CreatedAt).Seconds())
	}
	return anon
}

// coarseRegion округляет координаты до ячейки 0.1 градуса
func coarseRegion(loc models.GPSLocation) string {
	lat := math.Round(loc.Latitude*10) / 10
	lon := math.Round(loc.Longitude*10) / 10
	return fmt.Sprintf("%.1f,%.1f", lat, lon)
}

// RunDue выполняет созревшие задания и возвращает их число
func (s *Scheduler) RunDue(ctx context.Context) (int, error) {
	now := s.now()
	jobs, err := s.jobs.ClaimDueDeletionJobs(ctx, now, now.Add(-s.opts.RetryInterval), s.opts.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("deletion: could not claim due jobs: %w", err)
	}

	for _, job := range jobs {
		if err := s.ExecuteDataDeletion(ctx, job); err != nil {
			s.logger.WithError(err).WithField("job_id", job.ID).Error("Deletion job execution failed")
		}
	}
	return len(jobs), nil
}

// SweepAudit удаляет журнал событий обезличенных инцидентов старше срока хранения
func (s *Scheduler) SweepAudit(ctx context.Context) (int64, error) {
	purged, err := s.eraser.PurgeAuditEvents(ctx, s.now().Add(-s.opts.AuditRetention))
	if err != nil {
		return 0, fmt.Errorf("deletion: could not purge audit events: %w", err)
	}
	if purged > 0 {
		s.logger.WithField("purged", purged).Info("Expired audit events purged")
	}
	return purged, nil
}

// EscalatedJobs - задания, ожидающие ручной проверки
func (s *Scheduler) EscalatedJobs(ctx context.Context) ([]*models.DeletionJob, error) {
	jobs, err := s.jobs.ListEscalatedDeletionJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("deletion: could not list escalated jobs: %w", err)
	}
	return jobs, nil
}

// Start запускает периодический обход заданий; первый обход выполняется сразу
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.WithField("interval", s.opts.PollInterval).Info("Starting deletion runner...")
	go func() {
		ticker := time.NewTicker(s.opts.PollInterval)
		defer ticker.Stop()
		for {
			s.tick(ctx)
			select {
			case <-ctx.Done():
				s.logger.Info("Stopping deletion runner.")
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.RunDue(ctx); err != nil && ctx.Err() == nil {
		s.logger.WithError(err).Error("Deletion run failed")
	}
	if _, err := s.SweepAudit(ctx); err != nil && ctx.Err() == nil {
		s.logger.WithError(err).Error("Audit sweep failed")
	}
}
