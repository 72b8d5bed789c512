package physicalinventory

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/odyssey-erp/stockmanagement/internal/stockevent"
)

// ToEvents derives one stock event per line item, in line item order. Header
// fields are copied onto every event; quantity and orderable come from the line.
func ToEvents(inv PhysicalInventory) ([]stockevent.Event, error) {
	if inv.LineItems == nil {
		return nil, fmt.Errorf("%w: line items required", ErrInvalidInput)
	}
	events := make([]stockevent.Event, 0, len(inv.LineItems))
	for i, line := range inv.LineItems {
		if line.Orderable == nil || line.Orderable.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: line item %d has no orderable", ErrInvalidInput, i)
		}
		if line.Quantity == nil {
			return nil, fmt.Errorf("%w: line item %d has no quantity", ErrInvalidInput, i)
		}
		events = append(events, stockevent.Event{
			FacilityID:     inv.FacilityID,
			ProgramID:      inv.ProgramID,
			OccurredDate:   inv.OccurredDate,
			Signature:      inv.Signature,
			DocumentNumber: inv.DocumentNumber,
			OrderableID:    line.Orderable.ID,
			Quantity:       *line.Quantity,
		})
	}
	return events, nil
}
