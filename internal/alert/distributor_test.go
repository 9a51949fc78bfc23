package alert

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_orchestrator/internal/metrics"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/shenikar/incident_orchestrator/internal/notify"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deliveryCall struct {
	channel   models.Channel
	recipient models.Recipient
	payload   models.AlertPayload
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []deliveryCall
	fail  map[models.Channel]bool
}

func (n *fakeNotifier) Deliver(_ context.Context, channel models.Channel, recipient models.Recipient, payload models.AlertPayload) (notify.Outcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, deliveryCall{channel: channel, recipient: recipient, payload: payload})
	if n.fail[channel] {
		return notify.Outcome{}, errors.New("gateway unreachable")
	}
	return notify.Outcome{Channel: channel, MessageID: "msg", DeliveredAt: time.Now()}, nil
}

func (n *fakeNotifier) Calls() []deliveryCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]deliveryCall(nil), n.calls...)
}

type fakeRepo struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]models.AlertDispatch
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{alerts: make(map[uuid.UUID]models.AlertDispatch)}
}

func (r *fakeRepo) SaveAlert(_ context.Context, d *models.AlertDispatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[d.Result.ID] = *d
	return nil
}

func (r *fakeRepo) ListAlertsByIncident(_ context.Context, incidentID uuid.UUID) ([]*models.AlertDispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AlertDispatch
	for _, d := range r.alerts {
		if d.Result.IncidentID == incidentID {
			c := d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListRetryableAlerts(_ context.Context) ([]*models.AlertDispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AlertDispatch
	for _, d := range r.alerts {
		if d.Result.Status != models.DeliveryDelivered {
			c := d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeRepo) only(t *testing.T) models.AlertResult {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.alerts, 1)
	for _, d := range r.alerts {
		return d.Result
	}
	return models.AlertResult{}
}

type fakeIncidents struct {
	mu       sync.Mutex
	incident *models.Incident
	failures []models.AlertResult
}

func (f *fakeIncidents) GetIncident(_ context.Context, _ uuid.UUID) (*models.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.incident.Clone(), nil
}

func (f *fakeIncidents) RecordAlertFailure(_ context.Context, _ uuid.UUID, result models.AlertResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, result)
	return nil
}

func (f *fakeIncidents) Failures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.failures)
}

type fakeOps struct {
	mu        sync.Mutex
	exhausted []models.AlertResult
}

func (o *fakeOps) AlertExhausted(_ context.Context, result models.AlertResult) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exhausted = append(o.exhausted, result)
	return nil
}

func (o *fakeOps) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.exhausted)
}

func testIncident(status models.IncidentStatus) *models.Incident {
	now := time.Now()
	return &models.Incident{
		ID:     uuid.New(),
		UserID: "user-1",
		Status: status,
		Classification: &models.Classification{
			Type:       models.EmergencyMedical,
			Priority:   models.PriorityHigh,
			Confidence: 0.9,
		},
		Location: models.GPSLocation{Latitude: 55.75, Longitude: 37.61},
		Routing: &models.RoutingResult{
			Primary: []models.EmergencyService{{
				ID:      "hosp-1",
				Name:    "City Hospital",
				Type:    models.ServiceHospital,
				Contact: models.ServiceContact{Channel: models.ChannelSMS, Address: "+10000000001"},
			}},
			ComputedAt: now,
		},
		CreatedAt: now,
	}
}

func testProfile() *models.UserProfile {
	return &models.UserProfile{
		UserID:         "user-1",
		Name:           "Anna",
		MedicalSummary: "diabetic",
		TrustedContacts: []models.TrustedContact{
			{ID: "c-1", Name: "Ivan", Phone: "+10000000002", Preference: models.PreferBoth},
		},
	}
}

func newTestDistributor(n Notifier, repo Repository, incidents IncidentView) *Distributor {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	opts := DefaultOptions()
	opts.Workers = 2
	opts.BaseBackoff = time.Millisecond
	opts.MaxBackoff = 5 * time.Millisecond
	opts.LocationShareKey = "secret"
	return NewDistributor(n, repo, incidents, metrics.NewNop(), opts, logger)
}

func TestPriorityQueue_OrderAndFIFO(t *testing.T) {
	q := newPriorityQueue()
	mk := func(p models.Priority, id string) *models.AlertDispatch {
		return &models.AlertDispatch{Priority: p, Recipient: models.Recipient{ID: id}}
	}
	q.Push(mk(models.PriorityLow, "low"))
	q.Push(mk(models.PriorityHigh, "high-1"))
	q.Push(mk(models.PriorityMedium, "medium"))
	q.Push(mk(models.PriorityHigh, "high-2"))

	ctx := context.Background()
	var order []string
	for q.Len() > 0 {
		d, ok := q.Pop(ctx)
		require.True(t, ok)
		order = append(order, d.Recipient.ID)
	}
	assert.Equal(t, []string{"high-1", "high-2", "medium", "low"}, order)
}

func TestPriorityQueue_PopCancelled(t *testing.T) {
	q := newPriorityQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := q.Pop(ctx)
	assert.False(t, ok)
}

func TestAlertResponders_Delivered(t *testing.T) {
	notifier := &fakeNotifier{}
	repo := newFakeRepo()
	incident := testIncident(models.StatusRouted)
	incidents := &fakeIncidents{incident: incident}
	d := newTestDistributor(notifier, repo, incidents)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	results, err := d.AlertResponders(ctx, incident, testProfile())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.DeliveryPending, results[0].Status)
	assert.Equal(t, models.RecipientResponder, results[0].RecipientClass)

	require.Eventually(t, func() bool {
		return repo.only(t).Status == models.DeliveryDelivered
	}, time.Second, 5*time.Millisecond)

	calls := notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, models.ChannelSMS, calls[0].channel)
	assert.Equal(t, "+10000000001", calls[0].recipient.Phone)
	assert.Equal(t, models.EmergencyMedical, calls[0].payload.EmergencyType)
	assert.Equal(t, models.PriorityHigh, calls[0].payload.Priority)
	assert.Equal(t, incident.Location, calls[0].payload.Location)
	assert.Equal(t, "Anna; diabetic", calls[0].payload.ProfileSummary)
	assert.Empty(t, calls[0].payload.LiveLocationURL)
}

func TestAlertResponders_ExhaustsAfterThreeFailures(t *testing.T) {
	notifier := &fakeNotifier{fail: map[models.Channel]bool{models.ChannelSMS: true}}
	repo := newFakeRepo()
	incident := testIncident(models.StatusRouted)
	incidents := &fakeIncidents{incident: incident}
	ops := &fakeOps{}
	d := newTestDistributor(notifier, repo, incidents).WithOperatorAlerter(ops)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	_, err := d.AlertResponders(ctx, incident, testProfile())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		r := repo.only(t)
		return r.Exhausted()
	}, time.Second, 5*time.Millisecond)

	// время на возможную лишнюю попытку
	time.Sleep(30 * time.Millisecond)

	result := repo.only(t)
	assert.Equal(t, models.DeliveryFailed, result.Status)
	assert.Equal(t, 3, result.RetryCount)
	assert.Nil(t, result.NextRetryAt)
	assert.Contains(t, result.Error, "gateway unreachable")
	assert.Len(t, notifier.Calls(), 3)
	assert.Equal(t, 1, incidents.Failures())
	assert.Equal(t, 1, ops.Count())
}

func TestAlertContacts_BothChannelsOneSucceeds(t *testing.T) {
	notifier := &fakeNotifier{fail: map[models.Channel]bool{models.ChannelSMS: true}}
	repo := newFakeRepo()
	incident := testIncident(models.StatusClassified)
	incidents := &fakeIncidents{incident: incident}
	d := newTestDistributor(notifier, repo, incidents)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	results, err := d.AlertContacts(ctx, incident, testProfile())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []models.Channel{models.ChannelSMS, models.ChannelCall}, results[0].Channels)

	require.Eventually(t, func() bool {
		return repo.only(t).Status == models.DeliveryDelivered
	}, time.Second, 5*time.Millisecond)

	calls := notifier.Calls()
	require.Len(t, calls, 2)
	for _, c := range calls {
		assert.Contains(t, c.payload.LiveLocationURL, incident.ID.String())
		assert.Contains(t, c.payload.LiveLocationURL, "contact=c-1")
		assert.Contains(t, c.payload.LiveLocationURL, "sig=")
	}
	assert.Equal(t, 0, incidents.Failures())
}

func TestAlertContacts_NoContacts(t *testing.T) {
	incident := testIncident(models.StatusClassified)
	d := newTestDistributor(&fakeNotifier{}, newFakeRepo(), &fakeIncidents{incident: incident})

	results, err := d.AlertContacts(context.Background(), incident, &models.UserProfile{UserID: "user-1"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAlert_RejectedForClosedIncident(t *testing.T) {
	incident := testIncident(models.StatusClosed)
	repo := newFakeRepo()
	d := newTestDistributor(&fakeNotifier{}, repo, &fakeIncidents{incident: incident})

	_, err := d.AlertResponders(context.Background(), incident, testProfile())
	assert.ErrorIs(t, err, models.ErrIncidentClosed)

	_, err = d.AlertContacts(context.Background(), incident, testProfile())
	assert.ErrorIs(t, err, models.ErrIncidentClosed)
	assert.Equal(t, 0, d.Pending())
}

func TestAlertResponders_NoRouting(t *testing.T) {
	incident := testIncident(models.StatusRouted)
	incident.Routing = nil
	d := newTestDistributor(&fakeNotifier{}, newFakeRepo(), &fakeIncidents{incident: incident})

	_, err := d.AlertResponders(context.Background(), incident, testProfile())
	assert.ErrorIs(t, err, models.ErrNoServiceAvailable)
}

func TestRetryFailedAlerts_RequeuesWaitingAlert(t *testing.T) {
	notifier := &fakeNotifier{fail: map[models.Channel]bool{models.ChannelSMS: true}}
	repo := newFakeRepo()
	incident := testIncident(models.StatusRouted)
	incidents := &fakeIncidents{incident: incident}
	d := newTestDistributor(notifier, repo, incidents)
	d.opts.BaseBackoff = time.Hour
	d.opts.MaxBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	_, err := d.AlertResponders(ctx, incident, testProfile())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		r := repo.only(t)
		return r.Status == models.DeliveryFailed && r.RetryCount == 1
	}, time.Second, 5*time.Millisecond)

	notifier.mu.Lock()
	notifier.fail = nil
	notifier.mu.Unlock()

	n, err := d.RetryFailedAlerts(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Eventually(t, func() bool {
		return repo.only(t).Status == models.DeliveryDelivered
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, repo.only(t).RetryCount)
}

func TestRecover_RequeuesPersistedAlerts(t *testing.T) {
	notifier := &fakeNotifier{}
	repo := newFakeRepo()
	incident := testIncident(models.StatusDispatched)
	now := time.Now()
	_ = repo.SaveAlert(context.Background(), &models.AlertDispatch{
		Result: models.AlertResult{
			ID:             uuid.New(),
			IncidentID:     incident.ID,
			RecipientID:    "hosp-1",
			RecipientClass: models.RecipientResponder,
			Channels:       []models.Channel{models.ChannelSMS},
			Status:         models.DeliveryFailed,
			RetryCount:     2,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		Recipient: models.Recipient{ID: "hosp-1", Phone: "+10000000001"},
		Priority:  models.PriorityHigh,
	})
	d := newTestDistributor(notifier, repo, &fakeIncidents{incident: incident})

	n, err := d.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	require.Eventually(t, func() bool {
		return repo.only(t).Status == models.DeliveryDelivered
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, repo.only(t).RetryCount)
}

func TestBackoff_Doubles(t *testing.T) {
	d := newTestDistributor(&fakeNotifier{}, newFakeRepo(), &fakeIncidents{})
	d.opts.BaseBackoff = 100 * time.Millisecond
	d.opts.MaxBackoff = 300 * time.Millisecond

	assert.Equal(t, 100*time.Millisecond, d.backoff(1))
	assert.Equal(t, 200*time.Millisecond, d.backoff(2))
	assert.Equal(t, 300*time.Millisecond, d.backoff(3))
}

func failedDispatch(incidentID uuid.UUID, retries int) *models.AlertDispatch {
	now := time.Now()
	return &models.AlertDispatch{
		Result: models.AlertResult{
			ID:             uuid.New(),
			IncidentID:     incidentID,
			RecipientID:    "hosp-1",
			RecipientClass: models.RecipientResponder,
			Channels:       []models.Channel{models.ChannelSMS},
			Status:         models.DeliveryFailed,
			RetryCount:     retries,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		Recipient: models.Recipient{ID: "hosp-1", Phone: "+10000000001"},
		Priority:  models.PriorityHigh,
	}
}

func TestRetryFailedAlerts_ClosedIncident(t *testing.T) {
	notifier := &fakeNotifier{}
	repo := newFakeRepo()
	incident := testIncident(models.StatusClosed)
	_ = repo.SaveAlert(context.Background(), failedDispatch(incident.ID, 1))
	d := newTestDistributor(notifier, repo, &fakeIncidents{incident: incident})

	n, err := d.RetryFailedAlerts(context.Background(), incident.ID)

	assert.ErrorIs(t, err, models.ErrIncidentClosed)
	assert.Zero(t, n)
	assert.Equal(t, 0, d.Pending())
	assert.Empty(t, notifier.Calls())
}

func TestRecover_SkipsClosedIncident(t *testing.T) {
	repo := newFakeRepo()
	incident := testIncident(models.StatusClosed)
	_ = repo.SaveAlert(context.Background(), failedDispatch(incident.ID, 1))
	d := newTestDistributor(&fakeNotifier{}, repo, &fakeIncidents{incident: incident})

	n, err := d.Recover(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 0, d.Pending())
}

// blockingNotifier держит доставку до отмены контекста
type blockingNotifier struct {
	started chan struct{}
	once    sync.Once
}

func (n *blockingNotifier) Deliver(ctx context.Context, _ models.Channel, _ models.Recipient, _ models.AlertPayload) (notify.Outcome, error) {
	n.once.Do(func() { close(n.started) })
	<-ctx.Done()
	return notify.Outcome{}, ctx.Err()
}

func TestAttempt_ShutdownDoesNotConsumeAttempt(t *testing.T) {
	notifier := &blockingNotifier{started: make(chan struct{})}
	repo := newFakeRepo()
	incident := testIncident(models.StatusRouted)
	d := newTestDistributor(notifier, repo, &fakeIncidents{incident: incident})

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	_, err := d.AlertResponders(ctx, incident, testProfile())
	require.NoError(t, err)

	select {
	case <-notifier.started:
	case <-time.After(time.Second):
		t.Fatal("delivery was not attempted")
	}
	cancel()
	d.Wait()

	result := repo.only(t)
	assert.Equal(t, models.DeliveryPending, result.Status)
	assert.Zero(t, result.RetryCount)
	assert.Nil(t, result.NextRetryAt)

	// после рестарта задание возвращается в очередь
	restarted := newTestDistributor(&fakeNotifier{}, repo, &fakeIncidents{incident: incident})
	n, err := restarted.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
