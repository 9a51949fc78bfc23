package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	id  string
	err error
}

func (s stubSender) Send(ctx context.Context, r models.Recipient, p models.AlertPayload) (string, error) {
	return s.id, s.err
}

func newTestDispatcher() *Dispatcher {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return NewDispatcher(logger)
}

func TestDeliver_UnknownChannel(t *testing.T) {
	d := newTestDispatcher()

	_, err := d.Deliver(context.Background(), models.ChannelPush, models.Recipient{ID: "r"}, models.AlertPayload{})
	require.ErrorIs(t, err, ErrChannelNotConfigured)
}

func TestDeliver_SenderResult(t *testing.T) {
	d := newTestDispatcher()
	d.Register(models.ChannelSMS, stubSender{id: "SM123"})
	d.Register(models.ChannelCall, stubSender{err: errors.New("busy line")})

	out, err := d.Deliver(context.Background(), models.ChannelSMS, models.Recipient{ID: "r"}, models.AlertPayload{})
	require.NoError(t, err)
	assert.Equal(t, "SM123", out.MessageID)
	assert.Equal(t, models.ChannelSMS, out.Channel)

	_, err = d.Deliver(context.Background(), models.ChannelCall, models.Recipient{ID: "r"}, models.AlertPayload{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "busy line")
}

func TestFormatAlertText_CarriesRequiredFields(t *testing.T) {
	id := uuid.New()
	text := FormatAlertText(models.AlertPayload{
		IncidentID:      id,
		EmergencyType:   models.EmergencyMedical,
		Priority:        models.PriorityHigh,
		Location:        models.GPSLocation{Latitude: 55.75, Longitude: 37.61},
		ProfileSummary:  "Anna; diabetic",
		LiveLocationURL: "https://share/x",
	})

	assert.Contains(t, text, id.String())
	assert.Contains(t, text, "MEDICAL")
	assert.Contains(t, text, "high")
	assert.Contains(t, text, "55.75000,37.61000")
	assert.Contains(t, text, "Anna; diabetic")
	assert.Contains(t, text, "https://share/x")
}
