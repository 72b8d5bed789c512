package stockevent

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single quantity-change record handed to the event processing pipeline.
type Event struct {
	FacilityID     uuid.UUID `json:"facilityId"`
	ProgramID      uuid.UUID `json:"programId"`
	OccurredDate   time.Time `json:"occurredDate"`
	Signature      string    `json:"signature,omitempty"`
	DocumentNumber string    `json:"documentNumber,omitempty"`
	OrderableID    uuid.UUID `json:"orderableId"`
	Quantity       int       `json:"quantity"`
}

// Envelope carries an event together with the key that makes its delivery idempotent.
type Envelope struct {
	SourceKey string `json:"sourceKey"`
	Event     Event  `json:"event"`
}
