package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_orchestrator/internal/models"
)

// redactedActor заменяет идентификатор пользователя в журнале после удаления
const redactedActor = "redacted"

const deletionJobColumns = `
	id, incident_id, scheduled_for, status, attempts, COALESCE(last_error, ''),
	first_attempt_at, next_attempt_at, requires_manual_review, completed_at, created_at, updated_at,
	confirmation`

// DeletionRepository хранит задания на удаление и выполняет само удаление.
// Реализует deletion.JobStore и deletion.DataEraser.
type DeletionRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewDeletionRepository(db *pgxpool.Pool, redisClient *redis.Client) *DeletionRepository {
	return &DeletionRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// CreateDeletionJob создает задание; на инцидент допускается только одно
func (r *DeletionRepository) CreateDeletionJob(ctx context.Context, job *models.DeletionJob) error {
	query := `
		INSERT INTO deletion_jobs (id, incident_id, scheduled_for, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.db.Exec(ctx, query,
		job.ID,
		job.IncidentID,
		job.ScheduledFor,
		job.Status,
		job.Attempts,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("incident %s: %w", job.IncidentID, models.ErrDeletionAlreadyScheduled)
		}
		return fmt.Errorf("failed to create deletion job: %w", err)
	}
	return nil
}

func (r *DeletionRepository) GetDeletionJobByIncident(ctx context.Context, incidentID uuid.UUID) (*models.DeletionJob, error) {
	query := `SELECT ` + deletionJobColumns + ` FROM deletion_jobs WHERE incident_id = $1;`
	job, err := scanDeletionJob(r.db.QueryRow(ctx, query, incidentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident %s: %w", incidentID, models.ErrDeletionJobNotFound)
		}
		return nil, fmt.Errorf("failed to get deletion job: %w", err)
	}
	return job, nil
}

func (r *DeletionRepository) UpdateDeletionJob(ctx context.Context, job *models.DeletionJob) error {
	confirmation, err := marshalNullable(job.Confirmation)
	if err != nil {
		return fmt.Errorf("failed to marshal deletion confirmation: %w", err)
	}
	query := `
		UPDATE deletion_jobs SET
			status = $1,
			attempts = $2,
			last_error = NULLIF($3, ''),
			first_attempt_at = $4,
			next_attempt_at = $5,
			requires_manual_review = $6,
			completed_at = $7,
			updated_at = $8,
			confirmation = $9
		WHERE id = $10;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		job.Status,
		job.Attempts,
		job.LastError,
		job.FirstAttemptAt,
		job.NextAttemptAt,
		job.RequiresManualReview,
		job.CompletedAt,
		job.UpdatedAt,
		confirmation,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update deletion job: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", job.ID, models.ErrDeletionJobNotFound)
	}
	return nil
}

// ClaimDueDeletionJobs забирает созревшие задания и зависшие in_progress.
// SKIP LOCKED не дает двум экземплярам взять одно задание.
func (r *DeletionRepository) ClaimDueDeletionJobs(ctx context.Context, now, staleBefore time.Time, limit int) ([]*models.DeletionJob, error) {
	query := `
		UPDATE deletion_jobs SET status = 'in_progress', updated_at = $1
		WHERE id IN (
			SELECT id FROM deletion_jobs
			WHERE NOT requires_manual_review
				AND (
					(status IN ('scheduled', 'failed') AND COALESCE(next_attempt_at, scheduled_for) <= $1)
					OR (status = 'in_progress' AND updated_at < $2)
				)
			ORDER BY COALESCE(next_attempt_at, scheduled_for)
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + deletionJobColumns + `;`
	rows, err := r.db.Query(ctx, query, now, staleBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim deletion jobs: %w", err)
	}
	return collectDeletionJobs(rows)
}

func (r *DeletionRepository) ListEscalatedDeletionJobs(ctx context.Context) ([]*models.DeletionJob, error) {
	query := `SELECT ` + deletionJobColumns + ` FROM deletion_jobs WHERE requires_manual_review ORDER BY updated_at;`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalated deletion jobs: %w", err)
	}
	return collectDeletionJobs(rows)
}

// EraseIncidentData удаляет персональные данные инцидента и сохраняет обезличенную запись.
// Все шаги выполняются в одной транзакции; повтор после успешного удаления ничего не меняет.
func (r *DeletionRepository) EraseIncidentData(ctx context.Context, incidentID uuid.UUID, record models.AnonymizedIncident) (models.DeletionReport, error) {
	var report models.DeletionReport

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		userID     string
		anonymized bool
	)
	lock := `SELECT COALESCE(user_id, ''), anonymized FROM incidents WHERE id = $1 FOR UPDATE;`
	if err := tx.QueryRow(ctx, lock, incidentID).Scan(&userID, &anonymized); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report, fmt.Errorf("incident with id %s: %w", incidentID, models.ErrIncidentNotFound)
		}
		return report, fmt.Errorf("failed to lock incident: %w", err)
	}
	if anonymized {
		return report, invalidateIncident(ctx, r.redisClient, incidentID)
	}

	scrub := `
		UPDATE incidents SET
			user_id = NULL,
			latitude = NULL,
			longitude = NULL,
			accuracy_m = NULL,
			located_at = NULL,
			assistance_session_id = NULL,
			resolution = NULL,
			anonymized = TRUE,
			updated_at = NOW()
		WHERE id = $1;
	`
	if _, err := tx.Exec(ctx, scrub, incidentID); err != nil {
		return report, fmt.Errorf("failed to scrub incident: %w", err)
	}
	report.PersonalFields++

	steps := []struct {
		query string
		args  []any
		count *int64
	}{
		{`DELETE FROM incident_locations WHERE incident_id = $1;`, []any{incidentID}, &report.LocationPoints},
		{`DELETE FROM incident_media WHERE incident_id = $1;`, []any{incidentID}, &report.VoiceRecordings},
		{`DELETE FROM incident_sensor_data WHERE incident_id = $1;`, []any{incidentID}, &report.SensorRecords},
		{`UPDATE alert_results SET recipient = '{}', payload = '{}' WHERE incident_id = $1;`, []any{incidentID}, &report.PersonalFields},
		{`UPDATE incident_events SET actor_id = $2 WHERE incident_id = $1 AND actor_id = $3;`, []any{incidentID, redactedActor, userID}, &report.PersonalFields},
	}
	for _, step := range steps {
		cmdTag, err := tx.Exec(ctx, step.query, step.args...)
		if err != nil {
			return models.DeletionReport{}, fmt.Errorf("failed to erase incident data: %w", err)
		}
		*step.count += cmdTag.RowsAffected()
	}

	insert := `
		INSERT INTO anonymized_incidents (id, emergency_type, priority, response_seconds,
			resolution_seconds, region, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = tx.Exec(ctx, insert,
		record.ID,
		record.EmergencyType,
		record.Priority,
		record.ResponseSeconds,
		record.ResolutionSeconds,
		record.Region,
		record.OccurredAt,
	)
	if err != nil {
		return models.DeletionReport{}, fmt.Errorf("failed to store anonymized incident: %w", err)
	}
	report.AnonymizedStored = 1

	if err := tx.Commit(ctx); err != nil {
		return models.DeletionReport{}, fmt.Errorf("failed to commit data deletion: %w", err)
	}
	if err := invalidateIncident(ctx, r.redisClient, incidentID); err != nil {
		return report, err
	}
	return report, nil
}

// PurgeAuditEvents удаляет журнал обезличенных инцидентов старше before
func (r *DeletionRepository) PurgeAuditEvents(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM incident_events e
		USING incidents i
		WHERE e.incident_id = i.id AND i.anonymized AND e.occurred_at < $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit events: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

func scanDeletionJob(row pgx.Row) (*models.DeletionJob, error) {
	var (
		job          = &models.DeletionJob{}
		confirmation []byte
	)
	err := row.Scan(
		&job.ID,
		&job.IncidentID,
		&job.ScheduledFor,
		&job.Status,
		&job.Attempts,
		&job.LastError,
		&job.FirstAttemptAt,
		&job.NextAttemptAt,
		&job.RequiresManualReview,
		&job.CompletedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
		&confirmation,
	)
	if err != nil {
		return nil, err
	}
	if job.Confirmation, err = unmarshalNullable[models.DeletionConfirmation](confirmation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deletion confirmation: %w", err)
	}
	return job, nil
}

func collectDeletionJobs(rows pgx.Rows) ([]*models.DeletionJob, error) {
	defer rows.Close()
	jobs := make([]*models.DeletionJob, 0)
	for rows.Next() {
		job, err := scanDeletionJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deletion job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error deletion job iteration: %w", err)
	}
	return jobs, nil
}
