package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/twilio/twilio-go"
	twilioClient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// twilioRequestTimeout ограничивает запрос, если у ctx нет своего срока
const twilioRequestTimeout = 10 * time.Second

// TwilioSender отправляет SMS и совершает голосовые звонки через Twilio
type TwilioSender struct {
	accountSID string
	authToken  string
	fromNumber string
	voice      bool
	transport  http.RoundTripper
}

// NewTwilioSMS создает транспорт канала sms
func NewTwilioSMS(accountSID, authToken, fromNumber string) *TwilioSender {
	return &TwilioSender{accountSID: accountSID, authToken: authToken, fromNumber: fromNumber}
}

// NewTwilioVoice создает транспорт канала call: текст оповещения зачитывается через TwiML
func NewTwilioVoice(accountSID, authToken, fromNumber string) *TwilioSender {
	return &TwilioSender{accountSID: accountSID, authToken: authToken, fromNumber: fromNumber, voice: true}
}

// ctxTransport привязывает HTTP-запросы SDK к контексту попытки:
// по таймауту запрос обрывается, а не продолжает выполняться в фоне
type ctxTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req.WithContext(t.ctx))
}

// restClient собирает клиент SDK, запросы которого живут не дольше ctx
func (s *TwilioSender) restClient(ctx context.Context) *twilio.RestClient {
	next := s.transport
	if next == nil {
		next = http.DefaultTransport
	}
	c := &twilioClient.Client{
		Credentials: twilioClient.NewCredentials(s.accountSID, s.authToken),
		HTTPClient: &http.Client{
			Transport: ctxTransport{ctx: ctx, next: next},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	c.SetAccountSid(s.accountSID)
	return twilio.NewRestClientWithParams(twilio.ClientParams{Client: c})
}

func (s *TwilioSender) Send(ctx context.Context, recipient models.Recipient, payload models.AlertPayload) (string, error) {
	to := recipient.Phone
	if to == "" {
		to = recipient.Address
	}
	if to == "" {
		return "", errors.New("recipient has no phone number")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, twilioRequestTimeout)
		defer cancel()
	}

	client := s.restClient(ctx)
	text := FormatAlertText(payload)
	if s.voice {
		params := &twilioApi.CreateCallParams{}
		params.SetTo(to)
		params.SetFrom(s.fromNumber)
		params.SetTwiml(fmt.Sprintf("<Response><Say loop=\"2\">%s</Say></Response>", html.EscapeString(text)))

		resp, err := client.Api.CreateCall(params)
		if err != nil {
			return "", fmt.Errorf("twilio call failed: %w", err)
		}
		return derefSID(resp.Sid), nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.fromNumber)
	params.SetBody(text)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio sms failed: %w", err)
	}
	return derefSID(resp.Sid), nil
}

func derefSID(sid *string) string {
	if sid == nil {
		return ""
	}
	return *sid
}
