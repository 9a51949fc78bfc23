package models

import "time"

type EmergencyType string

const (
	EmergencyMedical  EmergencyType = "medical"
	EmergencyAccident EmergencyType = "accident"
	EmergencySafety   EmergencyType = "safety"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank возвращает порядок обслуживания: меньше - раньше
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// LowConfidenceThreshold - ниже этого порога приоритет принудительно high
const LowConfidenceThreshold = 0.70

// Classification - результат внешнего классификатора
type Classification struct {
	Type         EmergencyType `json:"type"`
	Priority     Priority      `json:"priority"`
	Confidence   float64       `json:"confidence"`
	Reasoning    string        `json:"reasoning"`
	ClassifiedAt time.Time     `json:"classified_at"`
}

// EnforceConfidenceOverride поднимает приоритет до high при низкой уверенности модели
func EnforceConfidenceOverride(c Classification) Classification {
	if c.Confidence < LowConfidenceThreshold {
		c.Priority = PriorityHigh
	}
	return c
}
