package models

import "errors"

var (
	// ошибки конечного автомата возвращаются вызывающему синхронно
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("actor is not authorized")
	ErrDuplicateIncident = errors.New("duplicate incident id")
	ErrIncidentNotFound  = errors.New("incident not found")
	ErrIncidentClosed    = errors.New("incident is closed")
	ErrStaleWrite        = errors.New("incident was modified concurrently")

	ErrNoServiceAvailable = errors.New("no emergency service available")
	ErrDeliveryFailed     = errors.New("alert delivery failed")

	ErrDeletionFailed           = errors.New("data deletion failed")
	ErrDeletionAlreadyScheduled = errors.New("deletion already scheduled")
	ErrDeletionJobNotFound      = errors.New("deletion job not found")
)
