package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_orchestrator/internal/metrics"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/shenikar/incident_orchestrator/internal/service/mocks"
	"github.com/shenikar/incident_orchestrator/internal/webhook"
	webhook_mocks "github.com/shenikar/incident_orchestrator/internal/webhook/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var responder = models.Actor{
	ID:           "responder-1",
	Kind:         models.ActorResponder,
	Capabilities: []models.Capability{models.CapabilityEmergencyResponder},
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return logger
}

// newTestIncidentService - вспомогательная функция для создания инстанса сервиса с моками.
func newTestIncidentService(t *testing.T) (*incidentService, *mocks.MockIncidentRepository, *mocks.MockDeletionScheduler, *webhook_mocks.MockWebhookPublisher) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockIncidentRepository(ctrl)
	deletionMock := mocks.NewMockDeletionScheduler(ctrl)
	webhookMock := webhook_mocks.NewMockWebhookPublisher(ctrl)

	service := NewIncidentService(repoMock, deletionMock, webhookMock, metrics.NewNop(), quietLogger())
	return service.(*incidentService), repoMock, deletionMock, webhookMock
}

func incidentIn(status models.IncidentStatus) *models.Incident {
	now := time.Now()
	return &models.Incident{
		ID:     uuid.New(),
		UserID: "user-1",
		Status: status,
		Classification: &models.Classification{
			Type:       models.EmergencyMedical,
			Priority:   models.PriorityMedium,
			Confidence: 0.9,
		},
		Location:  models.GPSLocation{Latitude: 55.75, Longitude: 37.61},
		Version:   4,
		CreatedAt: now,
		UpdatedAt: now,
		Timeline: []models.IncidentEvent{
			{Type: models.EventCreated, ToStatus: models.StatusTriggered, OccurredAt: now},
		},
	}
}

func TestGetIncident_Success_FromCache(t *testing.T) {
	// Подготовка
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	expectedIncident := incidentIn(models.StatusRouted)

	// Ожидания
	repoMock.EXPECT().
		GetIncidentFromCache(ctx, expectedIncident.ID).
		Return(expectedIncident, int64(3), nil).
		Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, expectedIncident.ID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expectedIncident, incident)
}

func TestGetIncident_Success_FromDB(t *testing.T) {
	// Подготовка
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	expectedIncident := incidentIn(models.StatusRouted)

	// Ожидания
	// 1. Промах кеша
	repoMock.EXPECT().
		GetIncidentFromCache(ctx, expectedIncident.ID).
		Return(nil, int64(7), nil).
		Times(1)

	// 2. Попадание в БД
	repoMock.EXPECT().
		GetByID(ctx, expectedIncident.ID).
		Return(expectedIncident, nil).
		Times(1)

	// 3. Запись в кеш
	repoMock.EXPECT().
		SetIncidentCache(ctx, expectedIncident, int64(7)).
		Return(nil).
		Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, expectedIncident.ID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expectedIncident, incident)
}

func TestGetIncident_NotFound(t *testing.T) {
	// Подготовка
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания
	repoMock.EXPECT().GetIncidentFromCache(ctx, incidentID).Return(nil, int64(0), nil).Times(1)
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(nil, models.ErrIncidentNotFound).Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, incidentID)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, models.ErrIncidentNotFound)
	assert.ErrorContains(t, err, "could not get incident")
}

func TestCreateIncident_Success(t *testing.T) {
	// Подготовка
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	signal := models.EmergencySignal{
		ID:       "sig-1",
		UserID:   "user-1",
		Source:   "fall_detection",
		Location: models.GPSLocation{Latitude: 55.75, Longitude: 37.61},
	}

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, inc *models.Incident) error {
			assert.Equal(t, models.StatusTriggered, inc.Status)
			assert.Equal(t, "sig-1", inc.SignalRef)
			require.Len(t, inc.Timeline, 1)
			assert.Equal(t, models.EventCreated, inc.Timeline[0].Type)
			return nil
		}).Times(1)

	// Действие
	incident, err := service.CreateIncident(ctx, signal)

	// Проверки
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, incident.ID)
	assert.Equal(t, models.StatusTriggered, incident.Status)
	assert.Equal(t, 1, incident.StatusEventCount())
	assert.False(t, incident.Location.RecordedAt.IsZero())
}

func TestCreateIncident_Duplicate(t *testing.T) {
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()

	repoMock.EXPECT().Create(ctx, gomock.Any()).Return(models.ErrDuplicateIncident).Times(1)

	incident, err := service.CreateIncident(ctx, models.EmergencySignal{ID: "sig-1", UserID: "user-1"})

	assert.Nil(t, incident)
	assert.ErrorIs(t, err, models.ErrDuplicateIncident)
}

func TestUpdateStatus_Success_BroadcastsToAlertedServices(t *testing.T) {
	// Подготовка
	service, repoMock, _, webhookMock := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusDispatched)
	existing.Alerts = []models.AlertResult{
		{RecipientID: "amb-1", RecipientClass: models.RecipientResponder},
		{RecipientID: "c-1", RecipientClass: models.RecipientContact},
	}

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)
	repoMock.EXPECT().
		SaveWithEvents(ctx, gomock.Any(), int64(4), gomock.Any()).
		DoAndReturn(func(ctx context.Context, inc *models.Incident, expected int64, events []models.IncidentEvent) error {
			assert.Equal(t, models.StatusAcknowledged, inc.Status)
			assert.Equal(t, int64(5), inc.Version)
			require.Len(t, events, 1)
			assert.Equal(t, models.StatusDispatched, events[0].FromStatus)
			assert.Equal(t, models.StatusAcknowledged, events[0].ToStatus)
			assert.Equal(t, responder.ID, events[0].ActorID)
			return nil
		}).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, existing.ID).Return(nil).Times(1)
	webhookMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Do(func(ctx context.Context, event webhook.StatusUpdateEvent) {
			assert.Equal(t, []string{"amb-1"}, event.ServiceIDs)
			assert.Equal(t, models.StatusAcknowledged, event.Status)
			assert.Equal(t, models.StatusDispatched, event.FromStatus)
		}).Return(nil).Times(1)

	// Действие
	incident, err := service.UpdateStatus(ctx, existing.ID, models.StatusAcknowledged, responder)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.StatusAcknowledged, incident.Status)
	assert.Equal(t, 2, incident.StatusEventCount())
	assert.Equal(t, models.StatusDispatched, existing.Status)
}

func TestUpdateStatus_SkipRejected(t *testing.T) {
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusDispatched)

	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)
	repoMock.EXPECT().SaveWithEvents(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	incident, err := service.UpdateStatus(ctx, existing.ID, models.StatusResponding, responder)

	assert.Nil(t, incident)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestUpdateStatus_BackwardRejected(t *testing.T) {
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusResponding)

	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)

	_, err := service.UpdateStatus(ctx, existing.ID, models.StatusAcknowledged, responder)

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestUpdateStatus_SameStatusIsNoop(t *testing.T) {
	service, repoMock, _, webhookMock := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusAcknowledged)

	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)
	repoMock.EXPECT().SaveWithEvents(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	webhookMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	incident, err := service.UpdateStatus(ctx, existing.ID, models.StatusAcknowledged, responder)

	require.NoError(t, err)
	assert.Equal(t, models.StatusAcknowledged, incident.Status)
	assert.Len(t, incident.Timeline, 1)
}

func TestUpdateStatus_ClosedOnlyThroughClose(t *testing.T) {
	service, _, _, _ := newTestIncidentService(t)

	_, err := service.UpdateStatus(context.Background(), uuid.New(), models.StatusClosed, responder)

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestUpdateStatus_StaleWriteBecomesInvalidTransition(t *testing.T) {
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusDispatched)

	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)
	repoMock.EXPECT().SaveWithEvents(ctx, gomock.Any(), int64(4), gomock.Any()).
		Return(fmt.Errorf("repository: %w", models.ErrStaleWrite)).Times(1)

	_, err := service.UpdateStatus(ctx, existing.ID, models.StatusAcknowledged, responder)

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	repoMock.EXPECT().GetByID(ctx, incidentID).Return(nil, models.ErrIncidentNotFound).Times(1)

	_, err := service.UpdateStatus(ctx, incidentID, models.StatusAcknowledged, responder)

	assert.ErrorIs(t, err, models.ErrIncidentNotFound)
}

func TestCloseIncident_UnauthorizedActor(t *testing.T) {
	service, repoMock, deletionMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	user := models.Actor{ID: "user-1", Kind: models.ActorUser}

	repoMock.EXPECT().GetByID(gomock.Any(), gomock.Any()).Times(0)
	deletionMock.EXPECT().ScheduleDataDeletion(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	incident, err := service.CloseIncident(ctx, uuid.New(), user, "resolved")

	assert.Nil(t, incident)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestCloseIncident_SchedulesDeletion(t *testing.T) {
	// Подготовка
	service, repoMock, deletionMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusResolved)
	var closedAt time.Time

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)
	repoMock.EXPECT().
		SaveWithEvents(ctx, gomock.Any(), int64(4), gomock.Any()).
		DoAndReturn(func(ctx context.Context, inc *models.Incident, expected int64, events []models.IncidentEvent) error {
			require.NotNil(t, inc.ClosedAt)
			closedAt = *inc.ClosedAt
			assert.Equal(t, models.StatusClosed, inc.Status)
			assert.Equal(t, "patient handed over", inc.Resolution)
			assert.Equal(t, models.EventClosed, events[0].Type)
			return nil
		}).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, existing.ID).Return(nil).Times(1)
	deletionMock.EXPECT().
		ScheduleDataDeletion(ctx, existing.ID, gomock.Any()).
		DoAndReturn(func(ctx context.Context, id uuid.UUID, at time.Time) (*models.DeletionJob, error) {
			assert.Equal(t, closedAt, at)
			return &models.DeletionJob{ID: uuid.New(), IncidentID: id, ScheduledFor: at.Add(24 * time.Hour)}, nil
		}).Times(1)

	// Действие
	incident, err := service.CloseIncident(ctx, existing.ID, responder, "patient handed over")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, incident.Status)
	require.NotNil(t, incident.ClosedAt)
}

func TestCloseIncident_AlreadyClosedEnsuresJob(t *testing.T) {
	service, repoMock, deletionMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusClosed)
	closedAt := time.Now().Add(-time.Hour)
	existing.ClosedAt = &closedAt

	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)
	repoMock.EXPECT().SaveWithEvents(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	deletionMock.EXPECT().
		ScheduleDataDeletion(ctx, existing.ID, closedAt).
		Return(&models.DeletionJob{IncidentID: existing.ID, ScheduledFor: closedAt.Add(24 * time.Hour)}, models.ErrDeletionAlreadyScheduled).
		Times(1)

	incident, err := service.CloseIncident(ctx, existing.ID, responder, "again")

	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, incident.Status)
}

func TestCloseIncident_NotResolved(t *testing.T) {
	service, repoMock, deletionMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusOnScene)

	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)
	deletionMock.EXPECT().ScheduleDataDeletion(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := service.CloseIncident(ctx, existing.ID, responder, "")

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestCloseIncident_SchedulingFailure(t *testing.T) {
	service, repoMock, deletionMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusResolved)

	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)
	repoMock.EXPECT().SaveWithEvents(ctx, gomock.Any(), int64(4), gomock.Any()).Return(nil).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, existing.ID).Return(nil).Times(1)
	deletionMock.EXPECT().ScheduleDataDeletion(ctx, existing.ID, gomock.Any()).Return(nil, errors.New("db down")).Times(1)

	_, err := service.CloseIncident(ctx, existing.ID, responder, "")

	assert.ErrorContains(t, err, "could not schedule data deletion")
}

func TestReclassify_FromDispatched(t *testing.T) {
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusDispatched)
	existing.Routing = &models.RoutingResult{Primary: []models.EmergencyService{{ID: "hosp-1"}}}

	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)
	repoMock.EXPECT().
		SaveWithEvents(ctx, gomock.Any(), int64(4), gomock.Any()).
		DoAndReturn(func(ctx context.Context, inc *models.Incident, expected int64, events []models.IncidentEvent) error {
			assert.Equal(t, models.EventReclassified, events[0].Type)
			assert.Equal(t, models.StatusDispatched, events[0].FromStatus)
			assert.Equal(t, models.StatusClassified, events[0].ToStatus)
			assert.Equal(t, "medical", events[0].Metadata["previous_type"])
			return nil
		}).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, existing.ID).Return(nil).Times(1)

	incident, err := service.Reclassify(ctx, existing.ID, models.Classification{
		Type:       models.EmergencyAccident,
		Priority:   models.PriorityLow,
		Confidence: 0.4,
	}, models.SystemActor)

	require.NoError(t, err)
	assert.Equal(t, models.StatusClassified, incident.Status)
	assert.Equal(t, models.EmergencyAccident, incident.Classification.Type)
	assert.Equal(t, models.PriorityHigh, incident.Classification.Priority)
	assert.Nil(t, incident.Routing)
}

func TestReclassify_AfterAcknowledgedRejected(t *testing.T) {
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusAcknowledged)

	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)

	_, err := service.Reclassify(ctx, existing.ID, models.Classification{Type: models.EmergencySafety}, models.SystemActor)

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestUpdateLocation_ClosedRejected(t *testing.T) {
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusClosed)

	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)
	repoMock.EXPECT().AppendLocation(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	err := service.UpdateLocation(ctx, existing.ID, models.GPSLocation{Latitude: 1, Longitude: 2})

	assert.ErrorIs(t, err, models.ErrIncidentClosed)
}

func TestUpdateLocation_Appends(t *testing.T) {
	service, repoMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	existing := incidentIn(models.StatusResponding)

	repoMock.EXPECT().GetByID(ctx, existing.ID).Return(existing, nil).Times(1)
	repoMock.EXPECT().
		AppendLocation(ctx, existing.ID, gomock.Any()).
		DoAndReturn(func(ctx context.Context, id uuid.UUID, loc models.GPSLocation) error {
			assert.Equal(t, 1.5, loc.Latitude)
			assert.False(t, loc.RecordedAt.IsZero())
			return nil
		}).Times(1)
	repoMock.EXPECT().InvalidateIncidentCache(ctx, existing.ID).Return(nil).Times(1)

	require.NoError(t, service.UpdateLocation(ctx, existing.ID, models.GPSLocation{Latitude: 1.5, Longitude: 2}))
}

func TestAppendNote_StatusEventRejected(t *testing.T) {
	service, _, _, _ := newTestIncidentService(t)

	err := service.AppendNote(context.Background(), uuid.New(), models.EventStatusChanged, "sneaky")

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

// memRepo - потокобезопасное хранилище с проверкой версии и кешем поколений для сценарных тестов
type memRepo struct {
	mu         sync.Mutex
	incidents  map[uuid.UUID]*models.Incident
	cache      map[uuid.UUID]*models.Incident
	generation map[uuid.UUID]int64
	// afterLoad вызывается после чтения из хранилища, до возврата снимка
	afterLoad  func()
}

func newMemRepo() *memRepo {
	return &memRepo{
		incidents:  make(map[uuid.UUID]*models.Incident),
		cache:      make(map[uuid.UUID]*models.Incident),
		generation: make(map[uuid.UUID]int64),
	}
}

func (r *memRepo) Create(_ context.Context, incident *models.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.incidents[incident.ID]; ok {
		return models.ErrDuplicateIncident
	}
	r.incidents[incident.ID] = incident.Clone()
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Incident, error) {
	r.mu.Lock()
	inc, ok := r.incidents[id]
	hook := r.afterLoad
	r.mu.Unlock()
	if !ok {
		return nil, models.ErrIncidentNotFound
	}
	snapshot := inc.Clone()
	if hook != nil {
		hook()
	}
	return snapshot, nil
}

func (r *memRepo) SaveWithEvents(_ context.Context, incident *models.Incident, expected int64, events []models.IncidentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.incidents[incident.ID]
	if !ok {
		return models.ErrIncidentNotFound
	}
	if current.Version != expected {
		return models.ErrStaleWrite
	}
	next := incident.Clone()
	next.Timeline = append(current.Clone().Timeline, events...)
	r.incidents[incident.ID] = next
	return nil
}

func (r *memRepo) AppendLocation(_ context.Context, id uuid.UUID, location models.GPSLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc := r.incidents[id]
	inc.Location = location
	inc.LocationHistory = append(inc.LocationHistory, location)
	return nil
}

func (r *memRepo) GetIncidentFromCache(_ context.Context, id uuid.UUID) (*models.Incident, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache[id].Clone(), r.generation[id], nil
}

func (r *memRepo) SetIncidentCache(_ context.Context, incident *models.Incident, generation int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation[incident.ID] == generation {
		r.cache[incident.ID] = incident.Clone()
	}
	return nil
}

func (r *memRepo) InvalidateIncidentCache(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation[id]++
	delete(r.cache, id)
	return nil
}

type recordingScheduler struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]time.Time
}

func (s *recordingScheduler) ScheduleDataDeletion(_ context.Context, id uuid.UUID, closedAt time.Time) (*models.DeletionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs == nil {
		s.jobs = make(map[uuid.UUID]time.Time)
	}
	if at, ok := s.jobs[id]; ok {
		return &models.DeletionJob{IncidentID: id, ScheduledFor: at}, models.ErrDeletionAlreadyScheduled
	}
	s.jobs[id] = closedAt.Add(24 * time.Hour)
	return &models.DeletionJob{IncidentID: id, ScheduledFor: s.jobs[id]}, nil
}

func newScenarioService() (IncidentService, *memRepo, *recordingScheduler) {
	repo := newMemRepo()
	scheduler := &recordingScheduler{}
	return NewIncidentService(repo, scheduler, nil, metrics.NewNop(), quietLogger()), repo, scheduler
}

func TestLifecycle_EventsEqualTransitionsPlusOne(t *testing.T) {
	service, _, scheduler := newScenarioService()
	ctx := context.Background()

	incident, err := service.CreateIncident(ctx, models.EmergencySignal{ID: "sig-9", UserID: "user-9", Source: "sos_button"})
	require.NoError(t, err)
	id := incident.ID

	_, err = service.SetClassification(ctx, id, models.Classification{Type: models.EmergencyMedical, Priority: models.PriorityHigh, Confidence: 0.95}, models.SystemActor)
	require.NoError(t, err)
	_, err = service.AttachRouting(ctx, id, &models.RoutingResult{Primary: []models.EmergencyService{{ID: "hosp-1"}}}, models.SystemActor)
	require.NoError(t, err)

	transitions := 2
	for _, st := range []models.IncidentStatus{
		models.StatusDispatched,
		models.StatusAcknowledged,
		models.StatusResponding,
		models.StatusOnScene,
		models.StatusResolved,
	} {
		_, err = service.UpdateStatus(ctx, id, st, responder)
		require.NoError(t, err)
		transitions++
	}

	closed, err := service.CloseIncident(ctx, id, responder, "done")
	require.NoError(t, err)
	transitions++

	assert.Equal(t, models.StatusClosed, closed.Status)
	assert.Equal(t, transitions+1, closed.StatusEventCount())
	assert.Equal(t, closed.ClosedAt.Add(24*time.Hour), scheduler.jobs[id])

	// повторное закрытие не добавляет событий и не создает второе задание
	again, err := service.CloseIncident(ctx, id, responder, "done")
	require.NoError(t, err)
	assert.Equal(t, transitions+1, again.StatusEventCount())
	assert.Len(t, scheduler.jobs, 1)

	// после closed переходы запрещены
	_, err = service.UpdateStatus(ctx, id, models.StatusResolved, responder)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestLifecycle_ConcurrentAcknowledgements(t *testing.T) {
	service, repo, _ := newScenarioService()
	ctx := context.Background()

	incident, err := service.CreateIncident(ctx, models.EmergencySignal{ID: "sig-c", UserID: "user-c"})
	require.NoError(t, err)
	_, err = service.SetClassification(ctx, incident.ID, models.Classification{Type: models.EmergencySafety, Confidence: 0.9, Priority: models.PriorityLow}, models.SystemActor)
	require.NoError(t, err)
	_, err = service.AttachRouting(ctx, incident.ID, &models.RoutingResult{}, models.SystemActor)
	require.NoError(t, err)
	_, err = service.UpdateStatus(ctx, incident.ID, models.StatusDispatched, models.SystemActor)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.UpdateStatus(ctx, incident.ID, models.StatusAcknowledged, responder)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	stored, err := repo.GetByID(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAcknowledged, stored.Status)
	acks := 0
	for _, ev := range stored.Timeline {
		if ev.ToStatus == models.StatusAcknowledged {
			acks++
		}
	}
	assert.Equal(t, 1, acks)
	assert.Equal(t, 5, stored.StatusEventCount())
}

func TestLifecycle_AnnotationsDoNotCountAsTransitions(t *testing.T) {
	service, _, _ := newScenarioService()
	ctx := context.Background()

	incident, err := service.CreateIncident(ctx, models.EmergencySignal{ID: "sig-a", UserID: "user-a"})
	require.NoError(t, err)
	require.NoError(t, service.RecordAlertFailure(ctx, incident.ID, models.AlertResult{
		ID:             uuid.New(),
		RecipientID:    "c-1",
		RecipientClass: models.RecipientContact,
		RetryCount:     3,
		Error:          "unreachable",
	}))

	stored, err := service.GetIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Timeline, 2)
	assert.Equal(t, 1, stored.StatusEventCount())
	assert.Equal(t, models.StatusTriggered, stored.Status)
	assert.Equal(t, models.EventAlertFailed, stored.Timeline[1].Type)
}

func TestGetIncident_StaleLoadNotCachedAfterConcurrentWrite(t *testing.T) {
	// Подготовка
	service, repo, _ := newScenarioService()
	ctx := context.Background()
	incident, err := service.CreateIncident(ctx, models.EmergencySignal{ID: "sig-race", UserID: "user-1", Source: "sos_button"})
	require.NoError(t, err)

	// изменение проходит между чтением из хранилища и записью в кеш
	repo.mu.Lock()
	repo.afterLoad = func() {
		repo.mu.Lock()
		repo.afterLoad = nil
		repo.mu.Unlock()
		_, err := service.SetClassification(ctx, incident.ID, models.Classification{Type: models.EmergencyMedical, Priority: models.PriorityHigh, Confidence: 0.9}, models.SystemActor)
		require.NoError(t, err)
	}
	repo.mu.Unlock()

	// Действие
	stale, err := service.GetIncident(ctx, incident.ID)
	require.NoError(t, err)
	fresh, err := service.GetIncident(ctx, incident.ID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.StatusTriggered, stale.Status)
	assert.Equal(t, models.StatusClassified, fresh.Status)
	cached, _, _ := repo.GetIncidentFromCache(ctx, incident.ID)
	require.NotNil(t, cached)
	assert.Equal(t, models.StatusClassified, cached.Status)
}
