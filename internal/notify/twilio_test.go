package notify

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hangingTransport не отвечает, пока контекст запроса жив
type hangingTransport struct {
	aborted chan struct{}
}

func (t *hangingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	<-req.Context().Done()
	close(t.aborted)
	return nil, req.Context().Err()
}

// okTransport отвечает созданным сообщением
type okTransport struct {
	path string
}

func (t *okTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.path = req.URL.Path
	return &http.Response{
		StatusCode: http.StatusCreated,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"sid": "SM42"}`)),
		Request:    req,
	}, nil
}

func TestTwilioSend_RequestAbortedWithContext(t *testing.T) {
	// Подготовка
	transport := &hangingTransport{aborted: make(chan struct{})}
	sender := NewTwilioSMS("AC123", "token", "+10000000000")
	sender.transport = transport
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Действие
	_, err := sender.Send(ctx, models.Recipient{Phone: "+10000000001"}, models.AlertPayload{})

	// Проверки
	require.Error(t, err)
	select {
	case <-transport.aborted:
	default:
		t.Fatal("request kept running after the attempt timed out")
	}
}

func TestTwilioSend_CancelledBeforeCall(t *testing.T) {
	transport := &okTransport{}
	sender := NewTwilioSMS("AC123", "token", "+10000000000")
	sender.transport = transport
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sender.Send(ctx, models.Recipient{Phone: "+10000000001"}, models.AlertPayload{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, transport.path)
}

func TestTwilioSend_MessageSID(t *testing.T) {
	transport := &okTransport{}
	sender := NewTwilioSMS("AC123", "token", "+10000000000")
	sender.transport = transport

	sid, err := sender.Send(context.Background(), models.Recipient{Phone: "+10000000001"}, models.AlertPayload{})

	require.NoError(t, err)
	assert.Equal(t, "SM42", sid)
	assert.Contains(t, transport.path, "/Accounts/AC123/Messages.json")
}
