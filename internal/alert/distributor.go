package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_orchestrator/internal/metrics"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/shenikar/incident_orchestrator/internal/notify"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Notifier - примитив доставки по одному каналу
type Notifier interface {
	Deliver(ctx context.Context, channel models.Channel, recipient models.Recipient, payload models.AlertPayload) (notify.Outcome, error)
}

// Repository хранит задания доставки, чтобы переживать рестарт
type Repository interface {
	SaveAlert(ctx context.Context, dispatch *models.AlertDispatch) error
	ListAlertsByIncident(ctx context.Context, incidentID uuid.UUID) ([]*models.AlertDispatch, error)
	ListRetryableAlerts(ctx context.Context) ([]*models.AlertDispatch, error)
}

// IncidentView - то, что распределителю нужно от жизненного цикла инцидента
type IncidentView interface {
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	RecordAlertFailure(ctx context.Context, incidentID uuid.UUID, result models.AlertResult) error
}

// OperatorAlerter поднимает тревогу для операторов при исчерпании попыток
type OperatorAlerter interface {
	AlertExhausted(ctx context.Context, result models.AlertResult) error
}

type Options struct {
	Workers          int
	MaxAttempts      int
	BaseBackoff      time.Duration
	MaxBackoff       time.Duration
	AttemptTimeout   time.Duration
	ResponderTarget  time.Duration
	ContactTarget    time.Duration
	LocationShareURL string
	LocationShareKey string
}

func DefaultOptions() Options {
	return Options{
		Workers:          8,
		MaxAttempts:      models.MaxDeliveryAttempts,
		BaseBackoff:      500 * time.Millisecond,
		MaxBackoff:       5 * time.Second,
		AttemptTimeout:   10 * time.Second,
		ResponderTarget:  3 * time.Second,
		ContactTarget:    5 * time.Second,
		LocationShareURL: "https://share.example.org/live",
	}
}

// Distributor рассылает оповещения службам и доверенным контактам.
// Каждое задание принадлежит ровно одному владельцу: очереди, воркеру или таймеру повтора.
type Distributor struct {
	queue     *priorityQueue
	notifier  Notifier
	repo      Repository
	incidents IncidentView
	ops       OperatorAlerter
	metrics   *metrics.Metrics
	opts      Options
	logger    *logrus.Logger
	now       func() time.Time

	mu     sync.Mutex
	// active: задание в очереди или в работе (nil) либо ждет повтора (таймер)
	active map[uuid.UUID]*time.Timer
	wg     sync.WaitGroup
}

func NewDistributor(notifier Notifier, repo Repository, incidents IncidentView, m *metrics.Metrics, opts Options, logger *logrus.Logger) *Distributor {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxAttempts <= 0 || opts.MaxAttempts > models.MaxDeliveryAttempts {
		opts.MaxAttempts = models.MaxDeliveryAttempts
	}
	return &Distributor{
		queue:     newPriorityQueue(),
		notifier:  notifier,
		repo:      repo,
		incidents: incidents,
		metrics:   m,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		active:    make(map[uuid.UUID]*time.Timer),
	}
}

func (d *Distributor) WithOperatorAlerter(ops OperatorAlerter) *Distributor {
	d.ops = ops
	return d
}

// Start запускает воркеры; они завершаются с отменой ctx
func (d *Distributor) Start(ctx context.Context) {
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go func(workerID int) {
			defer d.wg.Done()
			d.worker(ctx, workerID)
		}(i)
	}
	d.logger.WithField("workers", d.opts.Workers).Info("Alert distributor started")
}

// Wait дожидается завершения воркеров и останавливает таймеры повторов
func (d *Distributor) Wait() {
	d.wg.Wait()
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, t := range d.active {
		if t != nil {
			t.Stop()
		}
		delete(d.active, id)
	}
}

// AlertResponders ставит в очередь оповещения основных служб из результата маршрутизации
func (d *Distributor) AlertResponders(ctx context.Context, incident *models.Incident, profile *models.UserProfile) ([]models.AlertResult, error) {
	logger := d.logger.WithFields(logrus.Fields{
		"service":     "AlertDistributor",
		"method":      "AlertResponders",
		"incident_id": incident.ID,
	})

	if err := d.ensureOpen(ctx, incident.ID); err != nil {
		return nil, err
	}
	if incident.Routing == nil || len(incident.Routing.Primary) == 0 {
		return nil, fmt.Errorf("alert: incident %s has no routed services: %w", incident.ID, models.ErrNoServiceAvailable)
	}

	base := d.basePayload(incident, profile)
	baseline := incident.Routing.ComputedAt
	if baseline.IsZero() {
		baseline = d.now()
	}

	dispatches := make([]*models.AlertDispatch, 0, len(incident.Routing.Primary))
	for _, svc := range incident.Routing.Primary {
		channel := svc.Contact.Channel
		if channel == "" {
			channel = models.ChannelPush
		}
		recipient := models.Recipient{
			ID:      svc.ID,
			Name:    svc.Name,
			Class:   models.RecipientResponder,
			Address: svc.Contact.Address,
		}
		if channel != models.ChannelPush {
			recipient.Phone = svc.Contact.Address
		}
		dispatches = append(dispatches, d.newDispatch(incident, recipient, []models.Channel{channel}, base, baseline, d.opts.ResponderTarget))
	}

	results, err := d.enqueueAll(ctx, dispatches)
	if err != nil {
		return nil, err
	}
	logger.WithField("count", len(results)).Info("Responder alerts enqueued")
	return results, nil
}

// AlertContacts ставит в очередь оповещения доверенных контактов пользователя
func (d *Distributor) AlertContacts(ctx context.Context, incident *models.Incident, profile *models.UserProfile) ([]models.AlertResult, error) {
	logger := d.logger.WithFields(logrus.Fields{
		"service":     "AlertDistributor",
		"method":      "AlertContacts",
		"incident_id": incident.ID,
	})

	if err := d.ensureOpen(ctx, incident.ID); err != nil {
		return nil, err
	}
	if profile == nil || len(profile.TrustedContacts) == 0 {
		logger.Info("No trusted contacts to alert")
		return nil, nil
	}

	base := d.basePayload(incident, profile)
	dispatches := make([]*models.AlertDispatch, 0, len(profile.TrustedContacts))
	for _, contact := range profile.TrustedContacts {
		payload := base
		payload.LiveLocationURL = liveLocationLink(d.opts.LocationShareURL, d.opts.LocationShareKey, incident.ID, contact.ID)
		recipient := models.Recipient{
			ID:      contact.ID,
			Name:    contact.Name,
			Class:   models.RecipientContact,
			Address: contact.Phone,
			Phone:   contact.Phone,
		}
		dispatches = append(dispatches, d.newDispatch(incident, recipient, contact.Preference.Channels(), payload, incident.CreatedAt, d.opts.ContactTarget))
	}

	results, err := d.enqueueAll(ctx, dispatches)
	if err != nil {
		return nil, err
	}
	logger.WithField("count", len(results)).Info("Contact alerts enqueued")
	return results, nil
}

// RetryFailedAlerts немедленно перезапускает неисчерпанные неудачные оповещения инцидента
func (d *Distributor) RetryFailedAlerts(ctx context.Context, incidentID uuid.UUID) (int, error) {
	if err := d.ensureOpen(ctx, incidentID); err != nil {
		return 0, err
	}
	dispatches, err := d.repo.ListAlertsByIncident(ctx, incidentID)
	if err != nil {
		return 0, fmt.Errorf("alert: could not list alerts: %w", err)
	}

	requeued := 0
	for _, dispatch := range dispatches {
		if dispatch.Result.Status != models.DeliveryFailed || dispatch.Result.RetryCount >= d.opts.MaxAttempts {
			continue
		}
		if d.takeOver(dispatch.Result.ID) {
			d.queue.Push(dispatch)
			requeued++
		}
	}

	d.logger.WithFields(logrus.Fields{
		"incident_id": incidentID,
		"requeued":    requeued,
	}).Info("Failed alerts requeued")
	return requeued, nil
}

// Recover возвращает в очередь незавершенные задания после рестарта
func (d *Distributor) Recover(ctx context.Context) (int, error) {
	dispatches, err := d.repo.ListRetryableAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("alert: could not list retryable alerts: %w", err)
	}

	recovered := 0
	open := make(map[uuid.UUID]bool)
	for _, dispatch := range dispatches {
		if dispatch.Result.RetryCount >= d.opts.MaxAttempts {
			continue
		}
		incidentID := dispatch.Result.IncidentID
		isOpen, seen := open[incidentID]
		if !seen {
			isOpen = d.recoverable(ctx, incidentID)
			open[incidentID] = isOpen
		}
		if !isOpen {
			continue
		}
		if d.takeOver(dispatch.Result.ID) {
			d.queue.Push(dispatch)
			recovered++
		}
	}
	if recovered > 0 {
		d.logger.WithField("count", recovered).Info("Recovered pending alerts")
	}
	return recovered, nil
}

// Pending - число заданий в очереди
func (d *Distributor) Pending() int {
	return d.queue.Len()
}

// recoverable: закрытый или удаленный инцидент не оповещается повторно.
// При прочих ошибках задание все равно возвращается в очередь.
func (d *Distributor) recoverable(ctx context.Context, incidentID uuid.UUID) bool {
	err := d.ensureOpen(ctx, incidentID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, models.ErrIncidentClosed), errors.Is(err, models.ErrIncidentNotFound):
		d.logger.WithField("incident_id", incidentID).Info("Skipping pending alerts of closed incident")
		return false
	default:
		d.logger.WithError(err).WithField("incident_id", incidentID).Warn("Could not check incident state, requeueing alerts")
		return true
	}
}

func (d *Distributor) ensureOpen(ctx context.Context, incidentID uuid.UUID) error {
	current, err := d.incidents.GetIncident(ctx, incidentID)
	if err != nil {
		return fmt.Errorf("alert: could not load incident: %w", err)
	}
	if current.Status == models.StatusClosed {
		return models.ErrIncidentClosed
	}
	return nil
}

func (d *Distributor) basePayload(incident *models.Incident, profile *models.UserProfile) models.AlertPayload {
	payload := models.AlertPayload{
		IncidentID:     incident.ID,
		Location:       incident.Location,
		ProfileSummary: profile.Summary(),
	}
	if incident.Classification != nil {
		payload.EmergencyType = incident.Classification.Type
		payload.Priority = incident.Classification.Priority
	}
	return payload
}

func (d *Distributor) newDispatch(incident *models.Incident, recipient models.Recipient, channels []models.Channel, payload models.AlertPayload, baseline time.Time, target time.Duration) *models.AlertDispatch {
	now := d.now()
	return &models.AlertDispatch{
		Result: models.AlertResult{
			ID:             uuid.New(),
			IncidentID:     incident.ID,
			RecipientID:    recipient.ID,
			RecipientClass: recipient.Class,
			Channels:       channels,
			Status:         models.DeliveryPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		Recipient:     recipient,
		Payload:       payload,
		Priority:      payload.Priority,
		Baseline:      baseline,
		TargetLatency: target,
	}
}

func (d *Distributor) enqueueAll(ctx context.Context, dispatches []*models.AlertDispatch) ([]models.AlertResult, error) {
	results := make([]models.AlertResult, 0, len(dispatches))
	for _, dispatch := range dispatches {
		if err := d.repo.SaveAlert(ctx, dispatch); err != nil {
			return results, fmt.Errorf("alert: could not save alert: %w", err)
		}
		results = append(results, dispatch.Result)
	}
	for _, dispatch := range dispatches {
		d.mu.Lock()
		d.active[dispatch.Result.ID] = nil
		d.mu.Unlock()
		d.queue.Push(dispatch)
	}
	return results, nil
}

// takeOver забирает задание во владение; false, если оно уже в очереди или в работе
func (d *Distributor) takeOver(id uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	timer, ok := d.active[id]
	if ok {
		if timer == nil || !timer.Stop() {
			return false
		}
	}
	d.active[id] = nil
	return true
}

func (d *Distributor) release(id uuid.UUID) {
	d.mu.Lock()
	delete(d.active, id)
	d.mu.Unlock()
}

func (d *Distributor) worker(ctx context.Context, workerID int) {
	for {
		dispatch, ok := d.queue.Pop(ctx)
		if !ok {
			return
		}
		d.attempt(ctx, dispatch, workerID)
	}
}

func (d *Distributor) attempt(ctx context.Context, dispatch *models.AlertDispatch, workerID int) {
	result := &dispatch.Result
	logger := d.logger.WithFields(logrus.Fields{
		"worker_id":       workerID,
		"alert_id":        result.ID,
		"incident_id":     result.IncidentID,
		"recipient_id":    result.RecipientID,
		"recipient_class": result.RecipientClass,
		"attempt":         result.RetryCount + 1,
	})
	class := string(result.RecipientClass)
	d.metrics.AlertAttempts.WithLabelValues(class).Inc()

	attemptCtx, cancel := context.WithTimeout(ctx, d.opts.AttemptTimeout)
	err := d.deliver(attemptCtx, dispatch)
	cancel()

	now := d.now()
	result.UpdatedAt = now

	if err == nil {
		result.Status = models.DeliveryDelivered
		result.Error = ""
		result.DeliveredAt = &now
		result.NextRetryAt = nil
		d.save(dispatch, logger)
		d.release(result.ID)
		d.metrics.AlertOutcomes.WithLabelValues(class, "delivered").Inc()
		d.observeLatency(dispatch, now, logger)
		logger.Info("Alert delivered")
		return
	}

	if ctx.Err() != nil {
		// попытка прервана остановкой и не засчитывается; задание подберет Recover
		d.release(result.ID)
		logger.WithError(err).Warn("Alert attempt interrupted by shutdown")
		return
	}

	result.RetryCount++
	result.Status = models.DeliveryFailed
	result.Error = err.Error()

	if result.RetryCount >= d.opts.MaxAttempts {
		result.NextRetryAt = nil
		d.save(dispatch, logger)
		d.release(result.ID)
		d.metrics.AlertOutcomes.WithLabelValues(class, "exhausted").Inc()
		d.observeLatency(dispatch, now, logger)
		logger.WithError(err).Error("Alert delivery exhausted all attempts")
		d.onExhausted(*result, logger)
		return
	}

	backoff := d.backoff(result.RetryCount)
	next := now.Add(backoff)
	result.NextRetryAt = &next
	d.save(dispatch, logger)
	d.metrics.AlertOutcomes.WithLabelValues(class, "retry").Inc()
	logger.WithError(err).WithField("backoff", backoff).Warn("Alert delivery failed, scheduling retry")

	d.mu.Lock()
	d.active[result.ID] = time.AfterFunc(backoff, func() {
		d.mu.Lock()
		if _, ok := d.active[result.ID]; !ok {
			d.mu.Unlock()
			return
		}
		d.active[result.ID] = nil
		d.mu.Unlock()
		d.queue.Push(dispatch)
	})
	d.mu.Unlock()
}

// deliver пробует все каналы получателя; успех любого канала считается доставкой
func (d *Distributor) deliver(ctx context.Context, dispatch *models.AlertDispatch) error {
	channels := dispatch.Result.Channels
	if len(channels) == 1 {
		_, err := d.notifier.Deliver(ctx, channels[0], dispatch.Recipient, dispatch.Payload)
		return err
	}

	var (
		g         errgroup.Group
		mu        sync.Mutex
		delivered int
	)
	for _, channel := range channels {
		g.Go(func() error {
			if _, err := d.notifier.Deliver(ctx, channel, dispatch.Recipient, dispatch.Payload); err != nil {
				return err
			}
			mu.Lock()
			delivered++
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if delivered > 0 {
		return nil
	}
	if err == nil {
		err = errors.New("no channel delivered")
	}
	return err
}

func (d *Distributor) backoff(failures int) time.Duration {
	delay := d.opts.BaseBackoff
	for i := 1; i < failures; i++ {
		delay *= 2
	}
	if d.opts.MaxBackoff > 0 && delay > d.opts.MaxBackoff {
		delay = d.opts.MaxBackoff
	}
	return delay
}

func (d *Distributor) save(dispatch *models.AlertDispatch, logger *logrus.Entry) {
	if err := d.repo.SaveAlert(context.Background(), dispatch); err != nil {
		logger.WithError(err).Error("Failed to persist alert state")
	}
}

func (d *Distributor) observeLatency(dispatch *models.AlertDispatch, now time.Time, logger *logrus.Entry) {
	if dispatch.Baseline.IsZero() {
		return
	}
	class := string(dispatch.Result.RecipientClass)
	elapsed := now.Sub(dispatch.Baseline)
	d.metrics.AlertLatency.WithLabelValues(class).Observe(elapsed.Seconds())
	if dispatch.TargetLatency > 0 && elapsed > dispatch.TargetLatency {
		d.metrics.AlertTargetMiss.WithLabelValues(class).Inc()
		logger.WithFields(logrus.Fields{
			"elapsed": elapsed,
			"target":  dispatch.TargetLatency,
		}).Warn("Alert reached final state after target latency")
	}
}

func (d *Distributor) onExhausted(result models.AlertResult, logger *logrus.Entry) {
	ctx := context.Background()
	if err := d.incidents.RecordAlertFailure(ctx, result.IncidentID, result); err != nil {
		logger.WithError(err).Error("Failed to record alert failure on incident timeline")
	}
	if d.ops != nil && result.RecipientClass == models.RecipientResponder {
		if err := d.ops.AlertExhausted(ctx, result); err != nil {
			logger.WithError(err).Error("Failed to raise operator alert")
		}
	}
}
