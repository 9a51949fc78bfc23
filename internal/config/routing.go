package config

import (
	"fmt"
	"os"

	"github.com/shenikar/incident_orchestrator/internal/models"
	"gopkg.in/yaml.v3"
)

// RoutingPolicy - соответствие типа происшествия допустимым типам служб
type RoutingPolicy struct {
	Capabilities map[models.EmergencyType][]models.ServiceType `yaml:"capabilities"`
}

// DefaultRoutingPolicy возвращает базовое соответствие типов
func DefaultRoutingPolicy() *RoutingPolicy {
	return &RoutingPolicy{
		Capabilities: map[models.EmergencyType][]models.ServiceType{
			models.EmergencyMedical:  {models.ServiceHospital, models.ServiceAmbulance},
			models.EmergencyAccident: {models.ServiceAmbulance, models.ServicePolice, models.ServiceFire, models.ServiceRescue},
			models.EmergencySafety:   {models.ServicePolice},
		},
	}
}

// LoadRoutingPolicy читает политику из YAML; пустой путь означает политику по умолчанию.
// Типы происшествий, не упомянутые в файле, сохраняют соответствие по умолчанию.
func LoadRoutingPolicy(path string) (*RoutingPolicy, error) {
	policy := DefaultRoutingPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routing policy: %w", err)
	}

	var override RoutingPolicy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse routing policy: %w", err)
	}

	for emergencyType, serviceTypes := range override.Capabilities {
		if len(serviceTypes) == 0 {
			return nil, fmt.Errorf("routing policy: empty service list for %q", emergencyType)
		}
		policy.Capabilities[emergencyType] = serviceTypes
	}
	return policy, nil
}

// Allows сообщает, подходит ли тип службы для типа происшествия
func (p *RoutingPolicy) Allows(emergencyType models.EmergencyType, serviceType models.ServiceType) bool {
	for _, st := range p.Capabilities[emergencyType] {
		if st == serviceType {
			return true
		}
	}
	return false
}
