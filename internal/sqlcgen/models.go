package sqlcgen

import (
	"time"

	"github.com/google/uuid"
)

type DwhEmsSnapshot struct {
	ID                                     int64
	EmsGuid                                uuid.UUID
	LastCommunicationConfigIntegrationDate *time.Time
	CapturedAt                             time.Time
}
