package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/incident_orchestrator/internal/config"
	"github.com/shenikar/incident_orchestrator/internal/models"
	"github.com/shenikar/incident_orchestrator/internal/service"
	"github.com/sirupsen/logrus"
)

// AvailabilitySink принимает push-обновления доступности служб
type AvailabilitySink interface {
	ApplyAvailabilityUpdate(serviceID string, availability models.Availability, observedAt time.Time) bool
}

// DeletionReview - операторский просмотр заданий удаления
type DeletionReview interface {
	EscalatedJobs(ctx context.Context) ([]*models.DeletionJob, error)
}

type Handler struct {
	incidentService service.IncidentService
	orchestrator    service.EmergencyOrchestrator
	availability    AvailabilitySink
	deletions       DeletionReview
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(incidentService service.IncidentService, orchestrator service.EmergencyOrchestrator, availability AvailabilitySink, deletions DeletionReview, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		incidentService: incidentService,
		orchestrator:    orchestrator,
		availability:    availability,
		deletions:       deletions,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
	}
}

// bind разбирает JSON и проверяет его валидатором; при ошибке ответ уже отправлен
func (h *Handler) bind(c *gin.Context, log *logrus.Entry, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return uuid.Nil, false
	}
	return id, true
}

func requireActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "actor token required"})
	}
	return actor, ok
}

// respondError переводит доменные ошибки в коды HTTP
func respondError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, models.ErrIncidentNotFound):
		log.WithError(err).Warn("Incident not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
	case errors.Is(err, models.ErrUnauthorized):
		log.WithError(err).Warn("Actor not authorized")
		c.JSON(http.StatusForbidden, gin.H{"error": "actor is not authorized"})
	case errors.Is(err, models.ErrInvalidTransition):
		log.WithError(err).Warn("Invalid status transition")
		c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
	case errors.Is(err, models.ErrIncidentClosed):
		log.WithError(err).Warn("Incident is closed")
		c.JSON(http.StatusConflict, gin.H{"error": "incident is closed"})
	case errors.Is(err, models.ErrDuplicateIncident):
		log.WithError(err).Warn("Duplicate signal")
		c.JSON(http.StatusConflict, gin.H{"error": "signal already handled"})
	default:
		log.WithError(err).Error("Request failed in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// @Summary Raise an emergency signal
// @Description Creates an incident and runs classification, contact alerts, routing and responder dispatch. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param signal body SignalRequest true "Emergency signal"
// @Success 201 {object} SignalResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Signal already handled"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input SignalRequest
	log := h.logger.WithField("method", "createIncident")
	if !h.bind(c, log, &input) {
		return
	}

	signal, hint := SignalToModel(input, time.Now())
	outcome, err := h.orchestrator.HandleSignal(c.Request.Context(), signal, hint)
	if err != nil {
		if outcome != nil && outcome.Incident != nil {
			// инцидент создан, но конвейер остановился
			log.WithError(err).WithField("incident_id", outcome.Incident.ID).Error("Signal pipeline interrupted")
			c.JSON(http.StatusAccepted, ModelToSignalResponse(outcome))
			return
		}
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToSignalResponse(outcome))
}

// @Summary Get incident by ID
// @Description Get a single incident with its timeline and alert results. Requires API key.
// @Tags Incidents
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Advance incident status
// @Description Moves the incident to the next status of the chain. Requires API key and actor token.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param status body UpdateStatusRequest true "Target status"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Invalid status transition"
// @Router /incidents/{id}/status [put]
func (h *Handler) updateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "updateStatus").WithField("id", id)
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var input UpdateStatusRequest
	if !h.bind(c, log, &input) {
		return
	}

	incident, err := h.incidentService.UpdateStatus(c.Request.Context(), id, models.IncidentStatus(input.Status), actor)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Close an incident
// @Description Closes a resolved incident and schedules personal data deletion. Requires emergency_responder capability.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param close body CloseIncidentRequest true "Resolution"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Actor is not authorized"
// @Failure 409 {object} map[string]string "Invalid status transition"
// @Router /incidents/{id}/close [post]
func (h *Handler) closeIncident(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "closeIncident").WithField("id", id)
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var input CloseIncidentRequest
	if !h.bind(c, log, &input) {
		return
	}

	incident, err := h.incidentService.CloseIncident(c.Request.Context(), id, actor, input.Resolution)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Reclassify an incident
// @Description Returns the incident to classified, reroutes it and alerts newly selected services. Requires actor token.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param classification body ReclassifyRequest true "New classification"
// @Success 200 {object} SignalResponse
// @Failure 400 {object} map[string]string "Invalid incident ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Invalid status transition"
// @Router /incidents/{id}/reclassify [post]
func (h *Handler) reclassifyIncident(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "reclassifyIncident").WithField("id", id)
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var input ReclassifyRequest
	if !h.bind(c, log, &input) {
		return
	}

	outcome, err := h.orchestrator.Reroute(c.Request.Context(), id, ReclassifyToModel(input, time.Now()), actor)
	if err != nil {
		if outcome != nil && outcome.Incident != nil {
			log.WithError(err).Error("Reroute interrupted")
			c.JSON(http.StatusAccepted, ModelToSignalResponse(outcome))
			return
		}
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToSignalResponse(outcome))
}

// @Summary Append a location point
// @Description Adds a point from the live location stream to an open incident. Requires API key.
// @Tags Incidents
// @Accept json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param location body LocationUpdateRequest true "Location point"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid incident ID or request body"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Incident is closed"
// @Router /incidents/{id}/location [post]
func (h *Handler) updateLocation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "updateLocation").WithField("id", id)

	var input LocationUpdateRequest
	if !h.bind(c, log, &input) {
		return
	}

	if err := h.incidentService.UpdateLocation(c.Request.Context(), id, LocationToModel(input)); err != nil {
		respondError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Retry failed alerts
// @Description Requeues failed alerts of the incident that still have attempts left. Requires API key.
// @Tags Alerts
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 202 {object} RetryResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id}/alerts/retry [post]
func (h *Handler) retryAlerts(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "retryAlerts").WithField("id", id)

	requeued, err := h.orchestrator.RetryFailedAlerts(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusAccepted, RetryResponse{Requeued: requeued})
}

// @Summary Push service availability
// @Description Applies an availability update pushed by an emergency service. Stale updates are ignored. Requires API key.
// @Tags Services
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param update body AvailabilityUpdateRequest true "Availability update"
// @Success 200 {object} map[string]bool "applied"
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Router /services/availability [post]
func (h *Handler) pushAvailability(c *gin.Context) {
	var input AvailabilityUpdateRequest
	log := h.logger.WithField("method", "pushAvailability")
	if !h.bind(c, log, &input) {
		return
	}

	applied := h.availability.ApplyAvailabilityUpdate(input.ServiceID, models.Availability(input.Availability), input.ObservedAt)
	log.WithFields(logrus.Fields{
		"service_id":   input.ServiceID,
		"availability": input.Availability,
		"applied":      applied,
	}).Info("Availability update received")
	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

// @Summary List escalated deletion jobs
// @Description Deletion jobs that exhausted automatic retries and require manual review. Requires API key.
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} DeletionJobResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /deletion-jobs/escalated [get]
func (h *Handler) escalatedDeletionJobs(c *gin.Context) {
	log := h.logger.WithField("method", "escalatedDeletionJobs")

	jobs, err := h.deletions.EscalatedJobs(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list escalated deletion jobs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ModelsToDeletionJobResponses(jobs))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
