package models

type ActorKind string

const (
	ActorUser      ActorKind = "user"
	ActorService   ActorKind = "service"
	ActorResponder ActorKind = "responder"
)

type Capability string

// CapabilityEmergencyResponder разрешает подтверждать, продвигать и закрывать инциденты
const CapabilityEmergencyResponder Capability = "emergency_responder"

// Actor - инициатор изменения: пользователь, служба или сотрудник экстренной службы
type Actor struct {
	ID           string       `json:"id"`
	Kind         ActorKind    `json:"kind"`
	Capabilities []Capability `json:"capabilities,omitempty"`
}

func (a Actor) HasCapability(c Capability) bool {
	for _, have := range a.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// SystemActor - внутренний актор оркестратора
var SystemActor = Actor{ID: "system:orchestrator", Kind: ActorService}
