package routing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shenikar/incident_orchestrator/internal/config"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/sirupsen/logrus"
)

// ServiceRegistry - внешний реестр служб, доступный только на чтение
type ServiceRegistry interface {
	Candidates(ctx context.Context, center models.GPSLocation, radiusKm float64) ([]models.EmergencyService, error)
	CheckAvailability(ctx context.Context, serviceIDs []string) (map[string]models.Availability, error)
}

// TrafficProvider - необязательный источник поправки на дорожную обстановку.
// Возвращает множитель к историческому среднему времени реагирования.
type TrafficProvider interface {
	TrafficFactor(ctx context.Context, service models.EmergencyService, destination models.GPSLocation) (float64, bool)
}

type Options struct {
	ServicesPerTier int
	InitialRadiusKm float64
	RadiusStepKm    float64
	MaxRadiusKm     float64
	Budget          time.Duration
}

func DefaultOptions() Options {
	return Options{
		ServicesPerTier: 3,
		InitialRadiusKm: 10,
		RadiusStepKm:    50,
		MaxRadiusKm:     500,
		Budget:          5 * time.Second,
	}
}

// RankedService - кандидат с рассчитанным расстоянием
type RankedService struct {
	Service    models.EmergencyService
	DistanceKm float64
}

type Engine struct {
	registry ServiceRegistry
	traffic  TrafficProvider
	policy   *config.RoutingPolicy
	opts     Options
	logger   *logrus.Logger
	now      func() time.Time
}

func NewEngine(registry ServiceRegistry, policy *config.RoutingPolicy, opts Options, logger *logrus.Logger) *Engine {
	if policy == nil {
		policy = config.DefaultRoutingPolicy()
	}
	if opts.ServicesPerTier <= 0 {
		opts.ServicesPerTier = DefaultOptions().ServicesPerTier
	}
	if opts.RadiusStepKm <= 0 {
		opts.RadiusStepKm = DefaultOptions().RadiusStepKm
	}
	if opts.MaxRadiusKm < opts.InitialRadiusKm {
		opts.MaxRadiusKm = opts.InitialRadiusKm
	}
	if opts.Budget <= 0 {
		opts.Budget = DefaultOptions().Budget
	}
	return &Engine{
		registry: registry,
		policy:   policy,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// WithTraffic подключает поправку на трафик
func (e *Engine) WithTraffic(traffic TrafficProvider) *Engine {
	e.traffic = traffic
	return e
}

// Rank фильтрует и сортирует кандидатов. Чистая функция: не обращается к реестру.
func Rank(policy *config.RoutingPolicy, classification models.Classification, location models.GPSLocation, candidates []models.EmergencyService, radiusKm float64) []RankedService {
	ranked := make([]RankedService, 0, len(candidates))
	for _, c := range candidates {
		if c.Availability == models.Unavailable {
			continue
		}
		if !policy.Allows(classification.Type, c.Type) {
			continue
		}
		d := serviceDistanceKm(c, location)
		if d > radiusKm {
			continue
		}
		ranked = append(ranked, RankedService{Service: c, DistanceKm: d})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		if a.Service.PerformanceScore != b.Service.PerformanceScore {
			return a.Service.PerformanceScore > b.Service.PerformanceScore
		}
		return a.Service.AvgResponseMinutes < b.Service.AvgResponseMinutes
	})
	return ranked
}

// RouteEmergency подбирает службы с расширением радиуса поиска.
// Если подходящих служб нет даже на максимальном радиусе, возвращает пустой результат
// вместе с models.ErrNoServiceAvailable: вызывающий обязан продолжить резервный сценарий.
func (e *Engine) RouteEmergency(ctx context.Context, classification models.Classification, location models.GPSLocation) (*models.RoutingResult, error) {
	log := e.logger.WithFields(logrus.Fields{
		"service":  "routing",
		"method":   "RouteEmergency",
		"type":     classification.Type,
		"priority": classification.Priority,
	})

	ctx, cancel := context.WithTimeout(ctx, e.opts.Budget)
	defer cancel()

	var snapshot []models.EmergencyService
	radius := e.opts.InitialRadiusKm
	for {
		// каждый проход - новая выборка, прежние результаты не переиспользуются
		if ctx.Err() == nil {
			fresh, err := e.registry.Candidates(ctx, location, radius)
			if err != nil {
				log.WithError(err).WithField("radius_km", radius).Warn("Candidate lookup failed, using last snapshot")
			} else {
				snapshot = fresh
			}
		}

		ranked := Rank(e.policy, classification, location, snapshot, radius)
		if len(ranked) > 0 {
			result := e.buildResult(ctx, classification, location, ranked, radius)
			log.WithFields(logrus.Fields{
				"radius_km": radius,
				"primary":   len(result.Primary),
				"backup":    len(result.Backup),
			}).Info("Routing completed")
			return result, nil
		}

		if radius >= e.opts.MaxRadiusKm {
			break
		}
		radius += e.opts.RadiusStepKm
		if radius > e.opts.MaxRadiusKm {
			radius = e.opts.MaxRadiusKm
		}
		log.WithField("radius_km", radius).Debug("No candidates, expanding search radius")
	}

	log.Warn("No emergency service available within maximum radius")
	return &models.RoutingResult{
		Primary:            []models.EmergencyService{},
		Backup:             []models.EmergencyService{},
		EstimatedMinutes:   map[string]float64{},
		DistancesKm:        map[string]float64{},
		Reasoning:          fmt.Sprintf("no %s service within %.0f km", classification.Type, e.opts.MaxRadiusKm),
		SearchRadiusKm:     e.opts.MaxRadiusKm,
		NoServiceAvailable: true,
		ComputedAt:         e.now(),
	}, fmt.Errorf("routing: %w", models.ErrNoServiceAvailable)
}

// CheckAvailability опрашивает реестр о текущей доступности служб
func (e *Engine) CheckAvailability(ctx context.Context, serviceIDs []string) (map[string]models.Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Budget)
	defer cancel()

	availability, err := e.registry.CheckAvailability(ctx, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("routing: could not check availability: %w", err)
	}
	return availability, nil
}

func (e *Engine) buildResult(ctx context.Context, classification models.Classification, location models.GPSLocation, ranked []RankedService, radius float64) *models.RoutingResult {
	k := e.opts.ServicesPerTier
	result := &models.RoutingResult{
		Primary:          make([]models.EmergencyService, 0, k),
		Backup:           make([]models.EmergencyService, 0, k),
		EstimatedMinutes: make(map[string]float64),
		DistancesKm:      make(map[string]float64),
		SearchRadiusKm:   radius,
		ComputedAt:       e.now(),
	}

	names := make([]string, 0, 2*k)
	for i, r := range ranked {
		if i >= 2*k {
			break
		}
		if i < k {
			result.Primary = append(result.Primary, r.Service)
		} else {
			result.Backup = append(result.Backup, r.Service)
		}
		result.DistancesKm[r.Service.ID] = r.DistanceKm
		result.EstimatedMinutes[r.Service.ID] = e.estimateMinutes(ctx, r.Service, location)
		names = append(names, fmt.Sprintf("%s(%.1fkm)", r.Service.ID, r.DistanceKm))
	}

	result.Reasoning = fmt.Sprintf("type=%s priority=%s radius=%.0fkm matched=%d ranked=[%s]",
		classification.Type, classification.Priority, radius, len(ranked), strings.Join(names, ", "))
	return result
}

func (e *Engine) estimateMinutes(ctx context.Context, service models.EmergencyService, location models.GPSLocation) float64 {
	if e.traffic == nil {
		return service.AvgResponseMinutes
	}
	factor, ok := e.traffic.TrafficFactor(ctx, service, location)
	if !ok || factor <= 0 {
		return service.AvgResponseMinutes
	}
	return service.AvgResponseMinutes * factor
}
