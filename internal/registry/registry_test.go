package registry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	services     []models.EmergencyService
	availability map[string]models.Availability
	fetches      int
}

func (s *countingSource) FetchServices(ctx context.Context, center models.GPSLocation, radiusKm float64) ([]models.EmergencyService, error) {
	s.fetches++
	return s.services, nil
}

func (s *countingSource) FetchAvailability(ctx context.Context, ids []string) (map[string]models.Availability, error) {
	return s.availability, nil
}

func newTestRegistry(t *testing.T, src Source) *Registry {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	reg, err := New(src, 16, time.Minute, 10*time.Minute, logger)
	require.NoError(t, err)
	return reg
}

func TestCandidates_CachesByCell(t *testing.T) {
	src := &countingSource{services: []models.EmergencyService{{ID: "h1", Availability: models.Available}}}
	reg := newTestRegistry(t, src)
	center := models.GPSLocation{Latitude: 55.7512, Longitude: 37.6184}

	_, err := reg.Candidates(context.Background(), center, 10)
	require.NoError(t, err)
	_, err = reg.Candidates(context.Background(), models.GPSLocation{Latitude: 55.7514, Longitude: 37.6181}, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, src.fetches)

	// новый радиус - новая запись кэша
	_, err = reg.Candidates(context.Background(), center, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, src.fetches)

	reg.Refresh()
	_, err = reg.Candidates(context.Background(), center, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, src.fetches)
}

func TestCandidates_PushOverridesSnapshot(t *testing.T) {
	src := &countingSource{services: []models.EmergencyService{{ID: "h1", Availability: models.Available}}}
	reg := newTestRegistry(t, src)

	reg.ApplyAvailabilityUpdate("h1", models.Unavailable, time.Now())
	services, err := reg.Candidates(context.Background(), models.GPSLocation{}, 10)
	require.NoError(t, err)

	require.Len(t, services, 1)
	assert.Equal(t, models.Unavailable, services[0].Availability)
	// снимок в кэше не изменяется
	assert.Equal(t, models.Available, src.services[0].Availability)
}

func TestCheckAvailability_PushIsAuthoritative(t *testing.T) {
	src := &countingSource{availability: map[string]models.Availability{
		"h1": models.Available,
		"h2": models.Busy,
	}}
	reg := newTestRegistry(t, src)
	reg.ApplyAvailabilityUpdate("h1", models.Busy, time.Now())

	got, err := reg.CheckAvailability(context.Background(), []string{"h1", "h2", "h3"})
	require.NoError(t, err)

	assert.Equal(t, models.Busy, got["h1"])
	assert.Equal(t, models.Busy, got["h2"])
	assert.Equal(t, models.Unavailable, got["h3"])
}

func TestApplyAvailabilityUpdate_IgnoresOlderPush(t *testing.T) {
	reg := newTestRegistry(t, &countingSource{})
	now := time.Now()

	assert.True(t, reg.ApplyAvailabilityUpdate("h1", models.Busy, now))
	assert.False(t, reg.ApplyAvailabilityUpdate("h1", models.Available, now.Add(-time.Minute)))

	got, err := reg.CheckAvailability(context.Background(), []string{"h1"})
	require.NoError(t, err)
	assert.Equal(t, models.Busy, got["h1"])
}
