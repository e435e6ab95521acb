package queue

import (
	"fmt"
	"strings"

	"github.com/kursadbilgin/funnel-engine/internal/domain"
)

// CommunicationMessage is the broker payload for a logged outbound message.
type CommunicationMessage struct {
	CommunicationID string          `json:"communicationId"`
	CallID          string          `json:"callId"`
	ActorID         string          `json:"actorId,omitempty"`
	Kind            domain.CommKind `json:"kind"`
}

func (m CommunicationMessage) Validate() error {
	if strings.TrimSpace(m.CommunicationID) == "" {
		return fmt.Errorf("communicationId is required")
	}
	if strings.TrimSpace(m.CallID) == "" {
		return fmt.Errorf("callId is required")
	}
	if !m.Kind.IsValid() {
		return fmt.Errorf("invalid kind %q", m.Kind)
	}
	return nil
}
