package models

import (
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelSMS  Channel = "sms"
	ChannelCall Channel = "call"
	ChannelPush Channel = "push"
)

// ContactPreference - предпочтение доверенного контакта: sms, call или both
type ContactPreference string

const (
	PreferSMS  ContactPreference = "sms"
	PreferCall ContactPreference = "call"
	PreferBoth ContactPreference = "both"
)

// Channels раскрывает предпочтение в список каналов
func (p ContactPreference) Channels() []Channel {
	switch p {
	case PreferCall:
		return []Channel{ChannelCall}
	case PreferBoth:
		return []Channel{ChannelSMS, ChannelCall}
	default:
		return []Channel{ChannelSMS}
	}
}

type RecipientClass string

const (
	RecipientResponder RecipientClass = "responder"
	RecipientContact   RecipientClass = "contact"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// MaxDeliveryAttempts - общее число попыток доставки одного оповещения
const MaxDeliveryAttempts = 3

// AlertResult - состояние доставки одного оповещения одному получателю
type AlertResult struct {
	ID             uuid.UUID      `json:"id"`
	IncidentID     uuid.UUID      `json:"incident_id"`
	RecipientID    string         `json:"recipient_id"`
	RecipientClass RecipientClass `json:"recipient_class"`
	Channels       []Channel      `json:"channels"`
	Status         DeliveryStatus `json:"status"`
	RetryCount     int            `json:"retry_count"`
	Error          string         `json:"error,omitempty"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
	NextRetryAt    *time.Time     `json:"next_retry_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Exhausted сообщает, что попытки доставки исчерпаны
func (a *AlertResult) Exhausted() bool {
	return a.Status == DeliveryFailed && a.RetryCount >= MaxDeliveryAttempts
}

// Recipient - адресат оповещения
type Recipient struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Class   RecipientClass `json:"class"`
	Address string         `json:"address"`
	Phone   string         `json:"phone,omitempty"`
}

// AlertPayload - содержимое оповещения, общее для всех каналов
type AlertPayload struct {
	IncidentID      uuid.UUID     `json:"incident_id"`
	EmergencyType   EmergencyType `json:"emergency_type"`
	Priority        Priority      `json:"priority"`
	Location        GPSLocation   `json:"location"`
	ProfileSummary  string        `json:"profile_summary"`
	LiveLocationURL string        `json:"live_location_url,omitempty"`
	Message         string        `json:"message,omitempty"`
}

// TrustedContact - доверенный контакт из профиля пользователя
type TrustedContact struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Phone      string            `json:"phone"`
	Preference ContactPreference `json:"preference"`
}

// UserProfile - данные профиля, получаемые у внешнего сервиса
type UserProfile struct {
	UserID          string           `json:"user_id"`
	Name            string           `json:"name"`
	Phone           string           `json:"phone"`
	PushToken       string           `json:"push_token,omitempty"`
	MedicalSummary  string           `json:"medical_summary,omitempty"`
	TrustedContacts []TrustedContact `json:"trusted_contacts"`
}

// Summary - краткая сводка профиля для оповещений
func (p *UserProfile) Summary() string {
	if p == nil {
		return "unknown user"
	}
	if p.MedicalSummary == "" {
		return p.Name
	}
	return p.Name + "; " + p.MedicalSummary
}

// AlertDispatch - сохраняемое задание доставки: результат плюс все, что нужно для повторной попытки
type AlertDispatch struct {
	Result        AlertResult   `json:"result"`
	Recipient     Recipient     `json:"recipient"`
	Payload       AlertPayload  `json:"payload"`
	Priority      Priority      `json:"priority"`
	Baseline      time.Time     `json:"baseline"`
	TargetLatency time.Duration `json:"target_latency"`
}
