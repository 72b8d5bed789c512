package physicalinventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/stockmanagement/internal/platform/httpx"
)

// PhysicalInventory is a counted stock submission for one program at one facility.
type PhysicalInventory struct {
	ProgramID      uuid.UUID  `json:"programId" validate:"required"`
	FacilityID     uuid.UUID  `json:"facilityId" validate:"required"`
	IsDraft        bool       `json:"isDraft"`
	OccurredDate   time.Time  `json:"occurredDate" validate:"required"`
	Signature      string     `json:"signature,omitempty" validate:"max=255"`
	DocumentNumber string     `json:"documentNumber,omitempty" validate:"max=255"`
	LineItems      []LineItem `json:"lineItems" validate:"required,dive"`
}

// LineItem is one counted orderable.
type LineItem struct {
	Orderable *OrderableRef `json:"orderable" validate:"required"`
	Quantity  *int          `json:"quantity" validate:"required,gte=0"`
}

// OrderableRef references an orderable by identifier.
type OrderableRef struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

// SubmitResult reports what a submission produced.
type SubmitResult struct {
	DocumentNumber string `json:"documentNumber,omitempty"`
	Events         int    `json:"events"`
}

// ErrInvalidInput indicates a submission that breaks the mapper's input contract.
var ErrInvalidInput = fmt.Errorf("physicalinventory: invalid input: %w", httpx.ErrValidation)

// ErrDraftNotSubmittable is returned when a draft is submitted for processing.
var ErrDraftNotSubmittable = fmt.Errorf("physicalinventory: draft cannot be submitted: %w", httpx.ErrUnprocessable)

// ErrAlreadySubmitted is returned for a repeated document number.
var ErrAlreadySubmitted = fmt.Errorf("physicalinventory: document already submitted: %w", httpx.ErrDuplicate)
