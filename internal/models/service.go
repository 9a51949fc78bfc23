package models

import "time"

type ServiceType string

const (
	ServiceHospital  ServiceType = "hospital"
	ServiceAmbulance ServiceType = "ambulance"
	ServicePolice    ServiceType = "police"
	ServiceFire      ServiceType = "fire"
	ServiceRescue    ServiceType = "rescue"
)

type Availability string

const (
	Available   Availability = "available"
	Busy        Availability = "busy"
	Unavailable Availability = "unavailable"
)

// ServiceContact - канал интеграции, через который оповещается служба
type ServiceContact struct {
	Channel Channel `json:"channel"`
	Address string  `json:"address"`
}

// EmergencyService - справочные данные реестра служб, ядро их не изменяет
type EmergencyService struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Type               ServiceType    `json:"type"`
	Latitude           float64        `json:"latitude"`
	Longitude          float64        `json:"longitude"`
	Capabilities       []string       `json:"capabilities,omitempty"`
	Availability       Availability   `json:"availability"`
	AvgResponseMinutes float64        `json:"avg_response_minutes"`
	PerformanceScore   float64        `json:"performance_score"`
	Contact            ServiceContact `json:"contact"`
}

// RoutingResult - неизменяемый результат маршрутизации
type RoutingResult struct {
	Primary            []EmergencyService `json:"primary"`
	Backup             []EmergencyService `json:"backup"`
	EstimatedMinutes   map[string]float64 `json:"estimated_minutes"`
	DistancesKm        map[string]float64 `json:"distances_km"`
	Reasoning          string             `json:"reasoning"`
	SearchRadiusKm     float64            `json:"search_radius_km"`
	NoServiceAvailable bool               `json:"no_service_available"`
	ComputedAt         time.Time          `json:"computed_at"`
}

// Services возвращает основные и резервные службы в порядке ранжирования
func (r *RoutingResult) Services() []EmergencyService {
	out := make([]EmergencyService, 0, len(r.Primary)+len(r.Backup))
	out = append(out, r.Primary...)
	return append(out, r.Backup...)
}

func (r *RoutingResult) Clone() *RoutingResult {
	c := *r
	c.Primary = append([]EmergencyService(nil), r.Primary...)
	c.Backup = append([]EmergencyService(nil), r.Backup...)
	c.EstimatedMinutes = make(map[string]float64, len(r.EstimatedMinutes))
	for k, v := range r.EstimatedMinutes {
		c.EstimatedMinutes[k] = v
	}
	c.DistancesKm = make(map[string]float64, len(r.DistancesKm))
	for k, v := range r.DistancesKm {
		c.DistancesKm[k] = v
	}
	return &c
}
