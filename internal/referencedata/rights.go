package referencedata

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/odyssey-erp/stockmanagement/internal/permission"
)

// ErrRightNotFound indicates the reference data service knows no right by that name.
var ErrRightNotFound = errors.New("referencedata: right not found")

type rightDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type"`
}

// FindRightByName resolves a right's identifier.
func (c *Client) FindRightByName(ctx context.Context, name permission.Right) (permission.RightRef, error) {
	var rights []rightDTO
	if err := c.getJSON(ctx, "/api/rights/search", url.Values{"name": {string(name)}}, &rights); err != nil {
		return permission.RightRef{}, err
	}
	for _, r := range rights {
		if r.Name == string(name) {
			return permission.RightRef{ID: r.ID, Name: name}, nil
		}
	}
	return permission.RightRef{}, fmt.Errorf("%w: %s", ErrRightNotFound, name)
}
