package registry

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/sirupsen/logrus"
)

// Source - источник данных внешнего реестра экстренных служб
type Source interface {
	FetchServices(ctx context.Context, center models.GPSLocation, radiusKm float64) ([]models.EmergencyService, error)
	FetchAvailability(ctx context.Context, serviceIDs []string) (map[string]models.Availability, error)
}

type snapshot struct {
	services  []models.EmergencyService
	fetchedAt time.Time
}

type pushedAvailability struct {
	availability models.Availability
	observedAt   time.Time
}

// Registry кэширует выборки реестра по ячейкам и хранит push-обновления доступности.
// Push-обновления считаются источником истины, опрос - лишь сверка для служб без свежего push.
type Registry struct {
	source   Source
	cache    *lru.Cache[string, snapshot]
	cacheTTL time.Duration
	pushTTL  time.Duration
	logger   *logrus.Logger
	now      func() time.Time

	mu     sync.RWMutex
	pushed map[string]pushedAvailability
}

func New(source Source, cacheSize int, cacheTTL, pushTTL time.Duration, logger *logrus.Logger) (*Registry, error) {
	cache, err := lru.New[string, snapshot](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("registry: could not create cache: %w", err)
	}
	return &Registry{
		source:   source,
		cache:    cache,
		cacheTTL: cacheTTL,
		pushTTL:  pushTTL,
		logger:   logger,
		now:      time.Now,
		pushed:   make(map[string]pushedAvailability),
	}, nil
}

// cellKey округляет центр до ~1 км, чтобы соседние запросы попадали в одну запись кэша
func cellKey(center models.GPSLocation, radiusKm float64) string {
	return fmt.Sprintf("%.2f:%.2f:%.0f", math.Round(center.Latitude*100)/100, math.Round(center.Longitude*100)/100, radiusKm)
}

// Candidates возвращает службы в радиусе с примененными push-обновлениями
func (r *Registry) Candidates(ctx context.Context, center models.GPSLocation, radiusKm float64) ([]models.EmergencyService, error) {
	key := cellKey(center, radiusKm)
	if snap, ok := r.cache.Get(key); ok && r.now().Sub(snap.fetchedAt) < r.cacheTTL {
		return r.overlay(snap.services), nil
	}

	services, err := r.source.FetchServices(ctx, center, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("registry: could not fetch services: %w", err)
	}
	r.cache.Add(key, snapshot{services: services, fetchedAt: r.now()})
	return r.overlay(services), nil
}

// CheckAvailability опрашивает реестр и сверяет ответ с push-обновлениями
func (r *Registry) CheckAvailability(ctx context.Context, serviceIDs []string) (map[string]models.Availability, error) {
	polled, err := r.source.FetchAvailability(ctx, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("registry: could not poll availability: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	result := make(map[string]models.Availability, len(serviceIDs))
	for _, id := range serviceIDs {
		if p, ok := r.pushed[id]; ok && now.Sub(p.observedAt) < r.pushTTL {
			if polledValue, has := polled[id]; has && polledValue != p.availability {
				r.logger.WithFields(logrus.Fields{
					"service_id": id,
					"pushed":     p.availability,
					"polled":     polledValue,
				}).Debug("Availability poll disagrees with push, keeping push")
			}
			result[id] = p.availability
			continue
		}
		if polledValue, has := polled[id]; has {
			result[id] = polledValue
		} else {
			result[id] = models.Unavailable
		}
	}
	return result, nil
}

// ApplyAvailabilityUpdate принимает push-обновление; устаревшие по времени наблюдения игнорируются
func (r *Registry) ApplyAvailabilityUpdate(serviceID string, availability models.Availability, observedAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.pushed[serviceID]; ok && current.observedAt.After(observedAt) {
		return false
	}
	r.pushed[serviceID] = pushedAvailability{availability: availability, observedAt: observedAt}
	return true
}

// Refresh сбрасывает кэш выборок (например, после внешнего обновления реестра)
func (r *Registry) Refresh() {
	r.cache.Purge()
}

func (r *Registry) overlay(services []models.EmergencyService) []models.EmergencyService {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	out := make([]models.EmergencyService, len(services))
	copy(out, services)
	for i := range out {
		if p, ok := r.pushed[out[i].ID]; ok && now.Sub(p.observedAt) < r.pushTTL {
			out[i].Availability = p.availability
		}
	}
	return out
}
