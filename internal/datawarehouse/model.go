package datawarehouse

import (
	"time"

	"github.com/google/uuid"
)

// EMSSnapshot is the warehouse view of an EMS integration state.
// LastCommunicationConfigIntegrationDate is nil when the EMS was never
// integrated.
type EMSSnapshot struct {
	EMSGUID                                uuid.UUID  `json:"emsGuid"`
	LastCommunicationConfigIntegrationDate *time.Time `json:"lastCommunicationConfigIntegrationDate,omitempty"`
	CapturedAt                             time.Time  `json:"capturedAt"`
}
