package v1

import (
	"time"

	"github.com/shenikar/incident_orchestrator/internal/models"
)

// SignalToModel преобразует DTO сигнала в доменный сигнал и необязательную классификацию
func SignalToModel(req SignalRequest, receivedAt time.Time) (models.EmergencySignal, *models.Classification) {
	signal := models.EmergencySignal{
		ID:     req.SignalID,
		UserID: req.UserID,
		Source: req.Source,
		Location: models.GPSLocation{
			Latitude:   req.Latitude,
			Longitude:  req.Longitude,
			AccuracyM:  req.AccuracyM,
			RecordedAt: receivedAt,
		},
		ReceivedAt: receivedAt,
	}
	if req.Classification == nil {
		return signal, nil
	}
	hint := ReclassifyRequest(*req.Classification)
	c := ReclassifyToModel(hint, receivedAt)
	return signal, &c
}

func ReclassifyToModel(req ReclassifyRequest, at time.Time) models.Classification {
	return models.Classification{
		Type:         models.EmergencyType(req.Type),
		Priority:     models.Priority(req.Priority),
		Confidence:   req.Confidence,
		Reasoning:    req.Reasoning,
		ClassifiedAt: at,
	}
}

func LocationToModel(req LocationUpdateRequest) models.GPSLocation {
	loc := models.GPSLocation{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		AccuracyM: req.AccuracyM,
	}
	if req.RecordedAt != nil {
		loc.RecordedAt = *req.RecordedAt
	}
	return loc
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	resp := &IncidentResponse{
		ID:                model.ID,
		UserID:            model.UserID,
		Status:            string(model.Status),
		Latitude:          model.Location.Latitude,
		Longitude:         model.Location.Longitude,
		Alerts:            ModelsToAlertResponses(model.Alerts),
		Timeline:          make([]EventResponse, 0, len(model.Timeline)),
		Resolution:        model.Resolution,
		Version:           model.Version,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
		ClosedAt:          model.ClosedAt,
		DeletionScheduled: model.Status == models.StatusClosed,
	}
	if c := model.Classification; c != nil {
		resp.EmergencyType = string(c.Type)
		resp.Priority = string(c.Priority)
		resp.Confidence = c.Confidence
	}
	if r := model.Routing; r != nil {
		resp.PrimaryServices = serviceIDs(r.Primary)
		resp.BackupServices = serviceIDs(r.Backup)
		if len(r.Primary) > 0 {
			resp.EstimatedMinutes = r.EstimatedMinutes[r.Primary[0].ID]
		}
	}
	for _, ev := range model.Timeline {
		resp.Timeline = append(resp.Timeline, EventResponse{
			Type:        string(ev.Type),
			FromStatus:  string(ev.FromStatus),
			ToStatus:    string(ev.ToStatus),
			Description: ev.Description,
			ActorID:     ev.ActorID,
			Metadata:    ev.Metadata,
			OccurredAt:  ev.OccurredAt,
		})
	}
	return resp
}

func ModelToSignalResponse(outcome *models.SignalOutcome) *SignalResponse {
	return &SignalResponse{
		Incident:         ModelToIncidentResponse(outcome.Incident),
		ContactAlerts:    ModelsToAlertResponses(outcome.ContactAlerts),
		ResponderAlerts:  ModelsToAlertResponses(outcome.ResponderAlerts),
		FallbackGuidance: outcome.FallbackGuidance,
	}
}

// ModelsToAlertResponses преобразует слайс результатов доставки в слайс DTO
func ModelsToAlertResponses(results []models.AlertResult) []AlertResponse {
	responses := make([]AlertResponse, len(results))
	for i, r := range results {
		channels := make([]string, len(r.Channels))
		for j, ch := range r.Channels {
			channels[j] = string(ch)
		}
		responses[i] = AlertResponse{
			ID:             r.ID,
			RecipientID:    r.RecipientID,
			RecipientClass: string(r.RecipientClass),
			Channels:       channels,
			Status:         string(r.Status),
			RetryCount:     r.RetryCount,
			Error:          r.Error,
			DeliveredAt:    r.DeliveredAt,
		}
	}
	return responses
}

func ModelsToDeletionJobResponses(jobs []*models.DeletionJob) []DeletionJobResponse {
	responses := make([]DeletionJobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = DeletionJobResponse{
			ID:             job.ID,
			IncidentID:     job.IncidentID,
			Status:         string(job.Status),
			Attempts:       job.Attempts,
			LastError:      job.LastError,
			ScheduledFor:   job.ScheduledFor,
			FirstAttemptAt: job.FirstAttemptAt,
			UpdatedAt:      job.UpdatedAt,
		}
	}
	return responses
}

func serviceIDs(services []models.EmergencyService) []string {
	ids := make([]string, len(services))
	for i, svc := range services {
		ids[i] = svc.ID
	}
	return ids
}
