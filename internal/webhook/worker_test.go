package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_orchestrator/internal/config"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(url string) *WebhookWorker {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	cfg := &config.Config{
		WebhookURL:        url,
		WebhookSecret:     "s3cret",
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  time.Millisecond,
	}
	return NewWebhookWorker(nil, logger, cfg)
}

func testEvent() (StatusUpdateEvent, string) {
	event := StatusUpdateEvent{
		IncidentID: uuid.New(),
		FromStatus: models.StatusDispatched,
		Status:     models.StatusAcknowledged,
		ServiceIDs: []string{"amb-1", "hosp-2"},
		ActorID:    "responder-7",
		OccurredAt: time.Now().UTC(),
	}
	raw, _ := json.Marshal(event)
	return event, string(raw)
}

func TestProcessEvent_SignedDelivery(t *testing.T) {
	event, raw := testEvent()
	var gotSignature, gotIncident string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
		gotIncident = r.Header.Get("X-Incident-ID")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	err := newTestWorker(server.URL).processEvent(context.Background(), event, raw)
	require.NoError(t, err)
	assert.Equal(t, generateHMACSHA256(raw, "s3cret"), gotSignature)
	assert.Equal(t, event.IncidentID.String(), gotIncident)
	assert.JSONEq(t, raw, string(gotBody))
}

func TestProcessEvent_RetriesThenSucceeds(t *testing.T) {
	event, raw := testEvent()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := newTestWorker(server.URL).processEvent(context.Background(), event, raw)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestProcessEvent_GivesUp(t *testing.T) {
	event, raw := testEvent()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := newTestWorker(server.URL).processEvent(context.Background(), event, raw)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestProcessEvent_NoURLConfigured(t *testing.T) {
	event, raw := testEvent()
	err := newTestWorker("").processEvent(context.Background(), event, raw)
	assert.NoError(t, err)
}
