package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_orchestrator/internal/metrics"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/sirupsen/logrus"
)

type Classifier interface {
	Classify(ctx context.Context, signal models.EmergencySignal) (*models.Classification, error)
}

type ProfileProvider interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

type Router interface {
	RouteEmergency(ctx context.Context, classification models.Classification, location models.GPSLocation) (*models.RoutingResult, error)
}

// AlertDistributor - асинхронная рассылка оповещений
type AlertDistributor interface {
	AlertResponders(ctx context.Context, incident *models.Incident, profile *models.UserProfile) ([]models.AlertResult, error)
	AlertContacts(ctx context.Context, incident *models.Incident, profile *models.UserProfile) ([]models.AlertResult, error)
	RetryFailedAlerts(ctx context.Context, incidentID uuid.UUID) (int, error)
}

// EmergencyOrchestrator проводит сигнал через классификацию, маршрутизацию и оповещение
type EmergencyOrchestrator interface {
	HandleSignal(ctx context.Context, signal models.EmergencySignal, hint *models.Classification) (*models.SignalOutcome, error)
	Reroute(ctx context.Context, id uuid.UUID, classification models.Classification, actor models.Actor) (*models.SignalOutcome, error)
	RetryFailedAlerts(ctx context.Context, id uuid.UUID) (int, error)
}

type OrchestratorOptions struct {
	ClassifyTimeout  time.Duration
	FallbackGuidance []string
}

type orchestrator struct {
	incidents   IncidentService
	classifier  Classifier
	profiles    ProfileProvider
	router      Router
	distributor AlertDistributor
	metrics     *metrics.Metrics
	opts        OrchestratorOptions
	logger      *logrus.Logger
}

func NewOrchestrator(incidents IncidentService, classifier Classifier, profiles ProfileProvider, router Router, distributor AlertDistributor, m *metrics.Metrics, opts OrchestratorOptions, logger *logrus.Logger) EmergencyOrchestrator {
	return &orchestrator{
		incidents:   incidents,
		classifier:  classifier,
		profiles:    profiles,
		router:      router,
		distributor: distributor,
		metrics:     m,
		opts:        opts,
		logger:      logger,
	}
}

// HandleSignal: инцидент, классификация, контакты, маршрутизация, службы, dispatched
func (o *orchestrator) HandleSignal(ctx context.Context, signal models.EmergencySignal, hint *models.Classification) (*models.SignalOutcome, error) {
	log := o.logger.WithFields(logrus.Fields{
		"service":    "orchestrator",
		"method":     "HandleSignal",
		"user_id":    signal.UserID,
		"signal_ref": signal.ID,
	})

	incident, err := o.incidents.CreateIncident(ctx, signal)
	if err != nil {
		return nil, err
	}
	log = log.WithField("incident_id", incident.ID)
	// инцидент уже сохранен: обрыв запроса не должен оставлять его без маршрута
	ctx = context.WithoutCancel(ctx)

	classification := o.classify(ctx, signal, hint, log)
	profile := o.profile(ctx, signal.UserID, log)

	incident, err = o.incidents.SetClassification(ctx, incident.ID, classification, models.SystemActor)
	if err != nil {
		return nil, err
	}

	outcome := &models.SignalOutcome{Incident: incident}
	outcome.ContactAlerts, err = o.distributor.AlertContacts(ctx, incident, profile)
	if err != nil {
		log.WithError(err).Error("Failed to enqueue trusted contact alerts")
	}

	if err := o.routeAndDispatch(ctx, outcome, profile, log); err != nil {
		return outcome, err
	}
	log.WithFields(logrus.Fields{
		"status":     outcome.Incident.Status,
		"contacts":   len(outcome.ContactAlerts),
		"responders": len(outcome.ResponderAlerts),
	}).Info("Signal handled")
	return outcome, nil
}

// Reroute переклассифицирует инцидент, строит новый маршрут и оповещает еще не оповещенные службы
func (o *orchestrator) Reroute(ctx context.Context, id uuid.UUID, classification models.Classification, actor models.Actor) (*models.SignalOutcome, error) {
	log := o.logger.WithFields(logrus.Fields{
		"service":     "orchestrator",
		"method":      "Reroute",
		"incident_id": id,
	})

	incident, err := o.incidents.Reclassify(ctx, id, classification, actor)
	if err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	profile := o.profile(ctx, incident.UserID, log)

	outcome := &models.SignalOutcome{Incident: incident}
	if err := o.routeAndDispatch(ctx, outcome, profile, log); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (o *orchestrator) RetryFailedAlerts(ctx context.Context, id uuid.UUID) (int, error) {
	incident, err := o.incidents.GetIncident(ctx, id)
	if err != nil {
		return 0, err
	}
	if incident.Status == models.StatusClosed {
		return 0, fmt.Errorf("service: incident %s: %w", id, models.ErrIncidentClosed)
	}
	return o.distributor.RetryFailedAlerts(ctx, id)
}

func (o *orchestrator) routeAndDispatch(ctx context.Context, outcome *models.SignalOutcome, profile *models.UserProfile, log *logrus.Entry) error {
	incident := outcome.Incident
	routing, err := o.router.RouteEmergency(ctx, *incident.Classification, incident.Location)
	if err != nil || routing == nil || routing.NoServiceAvailable {
		if err == nil {
			err = models.ErrNoServiceAvailable
		}
		o.metrics.RoutingNoService.Inc()
		log.WithError(err).Warn("No emergency service available, returning fallback guidance")
		outcome.FallbackGuidance = o.opts.FallbackGuidance
		eventType, note := o.noServiceNote(incident)
		if noteErr := o.incidents.AppendNote(ctx, incident.ID, eventType, note); noteErr != nil {
			log.WithError(noteErr).Error("Failed to record missing service on timeline")
		}
		return nil
	}

	incident, err = o.incidents.AttachRouting(ctx, incident.ID, routing, models.SystemActor)
	if err != nil {
		return err
	}
	outcome.Incident = incident

	target := incident.Clone()
	target.Routing.Primary = notYetAlerted(routing.Primary, incident.ResponderServiceIDs())
	if len(target.Routing.Primary) > 0 {
		outcome.ResponderAlerts, err = o.distributor.AlertResponders(ctx, target, profile)
		if err != nil {
			log.WithError(err).Error("Failed to enqueue responder alerts")
			return nil
		}
	}

	incident, err = o.incidents.UpdateStatus(ctx, incident.ID, models.StatusDispatched, models.SystemActor)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			log.WithError(err).Warn("Incident moved on before dispatch was recorded")
			return nil
		}
		return err
	}
	outcome.Incident = incident
	return nil
}

// noServiceNote описывает отсутствие службы. Если службы уже были оповещены
// прежним маршрутом, фиксируется неудачная перемаршрутизация с их перечнем.
func (o *orchestrator) noServiceNote(incident *models.Incident) (models.EventType, string) {
	if engaged := incident.ResponderServiceIDs(); len(engaged) > 0 {
		return models.EventRerouteFailed, fmt.Sprintf("Reroute found no emergency service; previously alerted services remain engaged: %s",
			strings.Join(engaged, ", "))
	}
	return models.EventNoService, fmt.Sprintf("No emergency service available; user directed to %s", strings.Join(o.opts.FallbackGuidance, ", "))
}

// classify использует переданную классификацию, иначе внешний классификатор с таймаутом.
// Отказ классификатора дает medical/high с нулевой уверенностью.
func (o *orchestrator) classify(ctx context.Context, signal models.EmergencySignal, hint *models.Classification, log *logrus.Entry) models.Classification {
	if hint != nil {
		c := *hint
		if c.ClassifiedAt.IsZero() {
			c.ClassifiedAt = time.Now()
		}
		return c
	}

	if o.classifier != nil {
		cctx, cancel := context.WithTimeout(ctx, o.opts.ClassifyTimeout)
		defer cancel()
		c, err := o.classifier.Classify(cctx, signal)
		if err == nil && c != nil {
			return *c
		}
		log.WithError(err).Warn("Classifier unavailable, using fallback classification")
	}

	return models.Classification{
		Type:         models.EmergencyMedical,
		Priority:     models.PriorityHigh,
		Confidence:   0,
		Reasoning:    "classifier unavailable",
		ClassifiedAt: time.Now(),
	}
}

func (o *orchestrator) profile(ctx context.Context, userID string, log *logrus.Entry) *models.UserProfile {
	if o.profiles == nil {
		return &models.UserProfile{UserID: userID}
	}
	p, err := o.profiles.GetProfile(ctx, userID)
	if err != nil || p == nil {
		log.WithError(err).Warn("User profile unavailable")
		return &models.UserProfile{UserID: userID}
	}
	return p
}

func notYetAlerted(services []models.EmergencyService, alerted []string) []models.EmergencyService {
	if len(alerted) == 0 {
		return services
	}
	seen := make(map[string]bool, len(alerted))
	for _, id := range alerted {
		seen[id] = true
	}
	out := make([]models.EmergencyService, 0, len(services))
	for _, svc := range services {
		if !seen[svc.ID] {
			out = append(out, svc)
		}
	}
	return out
}
