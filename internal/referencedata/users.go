package referencedata

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/odyssey-erp/stockmanagement/internal/permission"
)

// HasRight asks whether the user holds the right in the given scope. Unset scope
// components are left out of the query. A body without a result yields nil.
func (c *Client) HasRight(ctx context.Context, userID, rightID uuid.UUID, program, facility, warehouse uuid.NullUUID) (*permission.RightResult, error) {
	query := url.Values{}
	query.Set("rightId", rightID.String())
	setScope(query, "programId", program)
	setScope(query, "facilityId", facility)
	setScope(query, "warehouseId", warehouse)

	var result *permission.RightResult
	if err := c.getJSON(ctx, fmt.Sprintf("/api/users/%s/hasRight", userID), query, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// PermissionStrings lists the user's rights as "RIGHT|facilityId|programId" entries.
func (c *Client) PermissionStrings(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var perms []string
	if err := c.getJSON(ctx, fmt.Sprintf("/api/users/%s/permissionStrings", userID), nil, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}

func setScope(query url.Values, key string, id uuid.NullUUID) {
	if id.Valid {
		query.Set(key, id.UUID.String())
	}
}
