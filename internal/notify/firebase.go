package notify

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"google.golang.org/api/option"
)

// FirebasePush доставляет оповещения в приложения экстренных служб через FCM
type FirebasePush struct {
	client *messaging.Client
}

func NewFirebasePush(ctx context.Context, credentialsPath, projectID string) (*FirebasePush, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize FCM client: %w", err)
	}
	return &FirebasePush{client: client}, nil
}

func (p *FirebasePush) Send(ctx context.Context, recipient models.Recipient, payload models.AlertPayload) (string, error) {
	if recipient.Address == "" {
		return "", errors.New("recipient has no device token")
	}

	message := &messaging.Message{
		Token: recipient.Address,
		Notification: &messaging.Notification{
			Title: fmt.Sprintf("EMERGENCY: %s", payload.EmergencyType),
			Body:  FormatAlertText(payload),
		},
		Data: map[string]string{
			"type":        "emergency_dispatch",
			"incident_id": payload.IncidentID.String(),
			"emergency":   string(payload.EmergencyType),
			"priority":    string(payload.Priority),
			"latitude":    fmt.Sprintf("%.6f", payload.Location.Latitude),
			"longitude":   fmt.Sprintf("%.6f", payload.Location.Longitude),
			"profile":     payload.ProfileSummary,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "emergency",
			},
		},
	}

	id, err := p.client.Send(ctx, message)
	if err != nil {
		return "", fmt.Errorf("fcm send failed: %w", err)
	}
	return id, nil
}
