package routing

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shenikar/incident_orchestrator/internal/config"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry отдает фиксированный набор служб, отсекая по радиусу как настоящий реестр
type fakeRegistry struct {
	services []models.EmergencyService
	calls    []float64
	block    bool
	err      error
}

func (f *fakeRegistry) Candidates(ctx context.Context, center models.GPSLocation, radiusKm float64) ([]models.EmergencyService, error) {
	f.calls = append(f.calls, radiusKm)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.EmergencyService, 0)
	for _, s := range f.services {
		if DistanceKm(s.Latitude, s.Longitude, center.Latitude, center.Longitude) <= radiusKm {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRegistry) CheckAvailability(ctx context.Context, ids []string) (map[string]models.Availability, error) {
	out := make(map[string]models.Availability)
	for _, s := range f.services {
		out[s.ID] = s.Availability
	}
	return out, nil
}

type fixedTraffic float64

func (f fixedTraffic) TrafficFactor(ctx context.Context, s models.EmergencyService, dst models.GPSLocation) (float64, bool) {
	return float64(f), true
}

var origin = models.GPSLocation{Latitude: 55.0, Longitude: 37.0}

// at возвращает службу, смещенную на dLat градусов к северу от origin
func at(id string, st models.ServiceType, dLat float64) models.EmergencyService {
	return models.EmergencyService{
		ID:                 id,
		Name:               id,
		Type:               st,
		Latitude:           origin.Latitude + dLat,
		Longitude:          origin.Longitude,
		Availability:       models.Available,
		AvgResponseMinutes: 10,
		PerformanceScore:   0.5,
	}
}

func newTestEngine(reg ServiceRegistry) *Engine {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return NewEngine(reg, config.DefaultRoutingPolicy(), DefaultOptions(), logger)
}

func medical(priority models.Priority) models.Classification {
	return models.Classification{Type: models.EmergencyMedical, Priority: priority, Confidence: 0.9}
}

func TestDistanceKm(t *testing.T) {
	// один градус широты ~ 111.2 км
	assert.InDelta(t, 111.19, DistanceKm(0, 0, 1, 0), 0.1)
	assert.Equal(t, 0.0, DistanceKm(10, 10, 10, 10))
}

func TestRank_FiltersByCapabilityAndAvailability(t *testing.T) {
	busy := at("amb-busy", models.ServiceAmbulance, 0.02)
	busy.Availability = models.Busy
	down := at("hosp-down", models.ServiceHospital, 0.01)
	down.Availability = models.Unavailable
	candidates := []models.EmergencyService{
		at("police-1", models.ServicePolice, 0.01),
		down,
		busy,
		at("hosp-1", models.ServiceHospital, 0.03),
	}

	ranked := Rank(config.DefaultRoutingPolicy(), medical(models.PriorityHigh), origin, candidates, 50)

	require.Len(t, ranked, 2)
	for _, r := range ranked {
		assert.Contains(t, []models.ServiceType{models.ServiceHospital, models.ServiceAmbulance}, r.Service.Type)
		assert.NotEqual(t, models.Unavailable, r.Service.Availability)
	}
	assert.Equal(t, "amb-busy", ranked[0].Service.ID)
}

func TestRank_SortsByDistanceThenPerformanceThenResponse(t *testing.T) {
	a := at("a", models.ServiceHospital, 0.05)
	b := at("b", models.ServiceHospital, 0.05)
	b.PerformanceScore = 0.9
	c := at("c", models.ServiceHospital, 0.05)
	c.PerformanceScore = 0.9
	c.AvgResponseMinutes = 4
	near := at("near", models.ServiceAmbulance, 0.01)

	ranked := Rank(config.DefaultRoutingPolicy(), medical(models.PriorityLow), origin, []models.EmergencyService{a, b, c, near}, 100)

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Service.ID
	}
	assert.Equal(t, []string{"near", "c", "b", "a"}, ids)
	for i := 0; i+1 < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i].DistanceKm, ranked[i+1].DistanceKm)
	}
}

func TestRouteEmergency_PartitionsPrimaryAndBackup(t *testing.T) {
	reg := &fakeRegistry{}
	for i := 0; i < 8; i++ {
		reg.services = append(reg.services, at(string(rune('a'+i)), models.ServiceAmbulance, 0.001*float64(i+1)))
	}
	engine := newTestEngine(reg)

	result, err := engine.RouteEmergency(context.Background(), medical(models.PriorityHigh), origin)
	require.NoError(t, err)

	require.Len(t, result.Primary, 3)
	require.Len(t, result.Backup, 3)
	assert.Equal(t, "a", result.Primary[0].ID)
	assert.Equal(t, "d", result.Backup[0].ID)
	assert.Len(t, result.EstimatedMinutes, 6)
	assert.False(t, result.NoServiceAvailable)

	all := result.Services()
	for i := 0; i+1 < len(all); i++ {
		assert.LessOrEqual(t, result.DistancesKm[all[i].ID], result.DistancesKm[all[i+1].ID])
	}
}

func TestRouteEmergency_ExpandsRadiusOnce(t *testing.T) {
	// больница примерно в 59.5 км: за пределами 10 км, но в пределах первого расширения до 60 км
	reg := &fakeRegistry{services: []models.EmergencyService{at("far-hospital", models.ServiceHospital, 0.535)}}
	engine := newTestEngine(reg)

	result, err := engine.RouteEmergency(context.Background(), medical(models.PriorityHigh), origin)
	require.NoError(t, err)

	require.Len(t, result.Primary, 1)
	assert.Equal(t, "far-hospital", result.Primary[0].ID)
	assert.Equal(t, 60.0, result.SearchRadiusKm)
	assert.Equal(t, []float64{10, 60}, reg.calls)
}

func TestRouteEmergency_NoServiceAvailable(t *testing.T) {
	reg := &fakeRegistry{services: []models.EmergencyService{at("police", models.ServicePolice, 0.01)}}
	engine := newTestEngine(reg)

	result, err := engine.RouteEmergency(context.Background(), medical(models.PriorityHigh), origin)

	require.ErrorIs(t, err, models.ErrNoServiceAvailable)
	require.NotNil(t, result)
	assert.True(t, result.NoServiceAvailable)
	assert.Empty(t, result.Primary)
	assert.Empty(t, result.Backup)
	assert.Equal(t, 500.0, result.SearchRadiusKm)
	// 10, 60, 110, ..., 460, 500
	assert.Equal(t, 500.0, reg.calls[len(reg.calls)-1])
	assert.Len(t, reg.calls, 11)
}

func TestRouteEmergency_RegistryErrorFallsThrough(t *testing.T) {
	reg := &fakeRegistry{err: errors.New("registry down")}
	engine := newTestEngine(reg)

	result, err := engine.RouteEmergency(context.Background(), medical(models.PriorityHigh), origin)
	require.ErrorIs(t, err, models.ErrNoServiceAvailable)
	assert.True(t, result.NoServiceAvailable)
}

func TestRouteEmergency_RespectsBudget(t *testing.T) {
	reg := &fakeRegistry{block: true}
	opts := DefaultOptions()
	opts.Budget = 50 * time.Millisecond
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	engine := NewEngine(reg, nil, opts, logger)

	start := time.Now()
	_, err := engine.RouteEmergency(context.Background(), medical(models.PriorityHigh), origin)

	require.ErrorIs(t, err, models.ErrNoServiceAvailable)
	assert.Less(t, time.Since(start), time.Second)
	// после исчерпания бюджета реестр больше не опрашивается
	assert.Len(t, reg.calls, 1)
}

func TestRouteEmergency_TrafficAdjustsEstimate(t *testing.T) {
	reg := &fakeRegistry{services: []models.EmergencyService{at("amb", models.ServiceAmbulance, 0.01)}}

	plain, err := newTestEngine(reg).RouteEmergency(context.Background(), medical(models.PriorityHigh), origin)
	require.NoError(t, err)
	assert.Equal(t, 10.0, plain.EstimatedMinutes["amb"])

	adjusted, err := newTestEngine(reg).WithTraffic(fixedTraffic(1.5)).RouteEmergency(context.Background(), medical(models.PriorityHigh), origin)
	require.NoError(t, err)
	assert.Equal(t, 15.0, adjusted.EstimatedMinutes["amb"])
}

func TestEnforceConfidenceOverride(t *testing.T) {
	low := models.EnforceConfidenceOverride(models.Classification{Type: models.EmergencyMedical, Priority: models.PriorityLow, Confidence: 0.4})
	assert.Equal(t, models.PriorityHigh, low.Priority)

	confident := models.EnforceConfidenceOverride(models.Classification{Type: models.EmergencyMedical, Priority: models.PriorityLow, Confidence: 0.7})
	assert.Equal(t, models.PriorityLow, confident.Priority)
}
