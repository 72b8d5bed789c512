package referencedata

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Facility is the subset of facility data used for permission decisions.
type Facility struct {
	ID   uuid.UUID    `json:"id"`
	Code string       `json:"code"`
	Type FacilityType `json:"type"`
}

// FacilityType classifies facilities.
type FacilityType struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
}

// Facility loads one facility.
func (c *Client) Facility(ctx context.Context, id uuid.UUID) (Facility, error) {
	var f Facility
	if err := c.getJSON(ctx, fmt.Sprintf("/api/facilities/%s", id), nil, &f); err != nil {
		return Facility{}, err
	}
	return f, nil
}
