package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/shenikar/incident_orchestrator/internal/service"
)

const (
	// incidentCacheTTL - срок жизни снимка инцидента в Redis
	incidentCacheTTL = 5 * time.Minute
	// ключ поколения живет заметно дольше снимка
	incidentGenerationTTL = 24 * time.Hour
)

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// Create записывает инцидент, его первое событие и первую точку одной транзакцией
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	classification, err := marshalNullable(incident.Classification)
	if err != nil {
		return fmt.Errorf("failed to marshal classification: %w", err)
	}
	routing, err := marshalNullable(incident.Routing)
	if err != nil {
		return fmt.Errorf("failed to marshal routing: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO incidents (id, user_id, status, signal_ref, classification, routing,
			latitude, longitude, accuracy_m, located_at, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, query,
		incident.ID,
		incident.UserID,
		incident.Status,
		incident.SignalRef,
		classification,
		routing,
		incident.Location.Latitude,
		incident.Location.Longitude,
		incident.Location.AccuracyM,
		incident.Location.RecordedAt,
		incident.Version,
		incident.CreatedAt,
		incident.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("signal %s: %w", incident.SignalRef, models.ErrDuplicateIncident)
		}
		return fmt.Errorf("failed to create incident: %w", err)
	}

	if err := insertEvents(ctx, tx, incident.Timeline); err != nil {
		return err
	}
	for _, loc := range incident.LocationHistory {
		if err := insertLocation(ctx, tx, incident.ID, loc); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID вместе с журналом, треком и оповещениями
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `
		SELECT
			id,
			COALESCE(user_id, ''),
			status,
			signal_ref,
			classification,
			routing,
			COALESCE(latitude, 0),
			COALESCE(longitude, 0),
			COALESCE(accuracy_m, 0),
			located_at,
			COALESCE(assistance_session_id, ''),
			COALESCE(resolution, ''),
			version,
			created_at,
			updated_at,
			closed_at
		FROM incidents
		WHERE id = $1;
	`
	// запись, журнал, трек и оповещения читаются из одного снимка базы
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		incident       = &models.Incident{}
		classification []byte
		routing        []byte
		locatedAt      *time.Time
	)
	err = tx.QueryRow(ctx, query, id).Scan(
		&incident.ID,
		&incident.UserID,
		&incident.Status,
		&incident.SignalRef,
		&classification,
		&routing,
		&incident.Location.Latitude,
		&incident.Location.Longitude,
		&incident.Location.AccuracyM,
		&locatedAt,
		&incident.AssistanceSessionID,
		&incident.Resolution,
		&incident.Version,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, models.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	if locatedAt != nil {
		incident.Location.RecordedAt = *locatedAt
	}
	if incident.Classification, err = unmarshalNullable[models.Classification](classification); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classification: %w", err)
	}
	if incident.Routing, err = unmarshalNullable[models.RoutingResult](routing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal routing: %w", err)
	}

	if incident.Timeline, err = listEvents(ctx, tx, id); err != nil {
		return nil, err
	}
	if incident.LocationHistory, err = listLocations(ctx, tx, id); err != nil {
		return nil, err
	}
	if incident.Alerts, err = listAlertResults(ctx, tx, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit read: %w", err)
	}
	return incident, nil
}

// SaveWithEvents обновляет инцидент при совпадении версии и дописывает события в той же транзакции.
// Текущее местоположение принадлежит AppendLocation и здесь не перезаписывается.
func (r *IncidentRepository) SaveWithEvents(ctx context.Context, incident *models.Incident, expectedVersion int64, events []models.IncidentEvent) error {
	classification, err := marshalNullable(incident.Classification)
	if err != nil {
		return fmt.Errorf("failed to marshal classification: %w", err)
	}
	routing, err := marshalNullable(incident.Routing)
	if err != nil {
		return fmt.Errorf("failed to marshal routing: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE incidents SET
			status = $1,
			classification = $2,
			routing = $3,
			assistance_session_id = NULLIF($4, ''),
			resolution = NULLIF($5, ''),
			version = $6,
			updated_at = $7,
			closed_at = $8
		WHERE id = $9 AND version = $10;
	`
	cmdTag, err := tx.Exec(ctx, query,
		incident.Status,
		classification,
		routing,
		incident.AssistanceSessionID,
		incident.Resolution,
		incident.Version,
		incident.UpdatedAt,
		incident.ClosedAt,
		incident.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}
	// 0 строк: версия уже сдвинута другим писателем
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident %s at version %d: %w", incident.ID, expectedVersion, models.ErrStaleWrite)
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit incident update: %w", err)
	}
	return nil
}

// AppendLocation добавляет точку в трек и делает ее текущим местоположением
func (r *IncidentRepository) AppendLocation(ctx context.Context, id uuid.UUID, location models.GPSLocation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE incidents SET
			latitude = $1,
			longitude = $2,
			accuracy_m = $3,
			located_at = $4,
			updated_at = NOW()
		WHERE id = $5;
	`
	cmdTag, err := tx.Exec(ctx, query,
		location.Latitude,
		location.Longitude,
		location.AccuracyM,
		location.RecordedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident location: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s: %w", id, models.ErrIncidentNotFound)
	}
	if err := insertLocation(ctx, tx, id, location); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit location: %w", err)
	}
	return nil
}

func listEvents(ctx context.Context, q querier, id uuid.UUID) ([]models.IncidentEvent, error) {
	query := `
		SELECT id, incident_id, event_type, COALESCE(from_status, ''), COALESCE(to_status, ''),
			description, actor_id, metadata, occurred_at
		FROM incident_events
		WHERE incident_id = $1
		ORDER BY seq;
	`
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list incident events: %w", err)
	}
	defer rows.Close()

	events := make([]models.IncidentEvent, 0)
	for rows.Next() {
		var (
			ev       models.IncidentEvent
			metadata []byte
		)
		err := rows.Scan(
			&ev.ID,
			&ev.IncidentID,
			&ev.Type,
			&ev.FromStatus,
			&ev.ToStatus,
			&ev.Description,
			&ev.ActorID,
			&metadata,
			&ev.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident event row: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &ev.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error event iteration: %w", err)
	}
	return events, nil
}

func listLocations(ctx context.Context, q querier, id uuid.UUID) ([]models.GPSLocation, error) {
	query := `
		SELECT latitude, longitude, COALESCE(accuracy_m, 0), recorded_at
		FROM incident_locations
		WHERE incident_id = $1
		ORDER BY id;
	`
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list incident locations: %w", err)
	}
	defer rows.Close()

	locations := make([]models.GPSLocation, 0)
	for rows.Next() {
		var loc models.GPSLocation
		if err := rows.Scan(&loc.Latitude, &loc.Longitude, &loc.AccuracyM, &loc.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error location iteration: %w", err)
	}
	return locations, nil
}

func listAlertResults(ctx context.Context, q querier, id uuid.UUID) ([]models.AlertResult, error) {
	dispatches, err := queryAlerts(ctx, q, `WHERE incident_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	results := make([]models.AlertResult, 0, len(dispatches))
	for _, d := range dispatches {
		results = append(results, d.Result)
	}
	return results, nil
}

// GetIncidentFromCache читает снимок инцидента и текущее поколение его кеша
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, int64, error) {
	if r.redisClient == nil {
		return nil, 0, nil
	}
	vals, err := r.redisClient.MGet(ctx, incidentCacheKey(id), incidentGenerationKey(id)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	var generation int64
	if raw, ok := vals[1].(string); ok {
		generation, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to parse incident cache generation: %w", err)
		}
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, generation, nil
	}

	incident := &models.Incident{}
	if err := json.Unmarshal([]byte(raw), incident); err != nil {
		return nil, generation, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, generation, nil
}

// setIfGeneration пишет снимок, только если поколение не менялось с момента чтения
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// SetIncidentCache сохраняет снимок, прочитанный при поколении generation.
// Если инцидент за это время инвалидирован, запись отбрасывается.
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident, generation int64) error {
	if r.redisClient == nil {
		return nil
	}
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	keys := []string{incidentCacheKey(incident.ID), incidentGenerationKey(incident.ID)}
	err = setIfGeneration.Run(ctx, r.redisClient, keys,
		strconv.FormatInt(generation, 10), val, incidentCacheTTL.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	return invalidateIncident(ctx, r.redisClient, id)
}

func incidentCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("incident:%s", id.String())
}

func incidentGenerationKey(id uuid.UUID) string {
	return fmt.Sprintf("incident:%s:gen", id.String())
}

// invalidateIncident сдвигает поколение и удаляет снимок: запоздалая запись
// снимка, прочитанного до изменения, будет отброшена
func invalidateIncident(ctx context.Context, client *redis.Client, id uuid.UUID) error {
	if client == nil {
		return nil
	}
	genKey := incidentGenerationKey(id)
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, incidentGenerationTTL)
		pipe.Del(ctx, incidentCacheKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}

func insertEvents(ctx context.Context, tx pgx.Tx, events []models.IncidentEvent) error {
	query := `
		INSERT INTO incident_events (id, incident_id, event_type, from_status, to_status,
			description, actor_id, metadata, occurred_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9);
	`
	for _, ev := range events {
		var metadata []byte
		if len(ev.Metadata) > 0 {
			var err error
			if metadata, err = json.Marshal(ev.Metadata); err != nil {
				return fmt.Errorf("failed to marshal event metadata: %w", err)
			}
		}
		_, err := tx.Exec(ctx, query,
			ev.ID,
			ev.IncidentID,
			ev.Type,
			ev.FromStatus,
			ev.ToStatus,
			ev.Description,
			ev.ActorID,
			metadata,
			ev.OccurredAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert incident event: %w", err)
		}
	}
	return nil
}

func insertLocation(ctx context.Context, tx pgx.Tx, id uuid.UUID, loc models.GPSLocation) error {
	query := `
		INSERT INTO incident_locations (incident_id, latitude, longitude, accuracy_m, recorded_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	if _, err := tx.Exec(ctx, query, id, loc.Latitude, loc.Longitude, loc.AccuracyM, loc.RecordedAt); err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// marshalNullable кодирует nil как SQL NULL, а не как JSON null
func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalNullable[T any](data []byte) (*T, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}
