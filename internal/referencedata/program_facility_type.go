package referencedata

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/stockmanagement/internal/permission"
)

// UserResolver resolves the acting user.
type UserResolver interface {
	CurrentUser(ctx context.Context) (permission.User, error)
}

// ProgramFacilityTypeChecker permits a program and facility type pair when the user
// holds any right for that program at a facility of that type.
type ProgramFacilityTypeChecker struct {
	client *Client
	users  UserResolver
}

// NewProgramFacilityTypeChecker constructs the fallback checker.
func NewProgramFacilityTypeChecker(client *Client, users UserResolver) *ProgramFacilityTypeChecker {
	return &ProgramFacilityTypeChecker{client: client, users: users}
}

// CheckProgramFacility returns a permission error of kind SecondaryDenied when no
// supervised facility of the type serves the program. Remote failures are CheckFailed.
func (c *ProgramFacilityTypeChecker) CheckProgramFacility(ctx context.Context, programID, facilityTypeID uuid.UUID) error {
	user, err := c.users.CurrentUser(ctx)
	if err != nil {
		return err
	}
	perms, err := c.client.PermissionStrings(ctx, user.ID)
	if err != nil {
		return permission.CheckFailed(err)
	}
	seen := make(map[uuid.UUID]struct{})
	for _, facilityID := range facilitiesForProgram(perms, programID) {
		if _, ok := seen[facilityID]; ok {
			continue
		}
		seen[facilityID] = struct{}{}
		facility, err := c.client.Facility(ctx, facilityID)
		if err != nil {
			return permission.CheckFailed(err)
		}
		if facility.Type.ID == facilityTypeID {
			return nil
		}
	}
	return permission.SecondaryDenied(fmt.Sprintf("program %s, facility type %s", programID, facilityTypeID))
}

// facilitiesForProgram picks facility ids out of "RIGHT|facilityId|programId" strings.
func facilitiesForProgram(perms []string, programID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range perms {
		parts := strings.Split(p, "|")
		if len(parts) != 3 {
			continue
		}
		program, err := uuid.Parse(parts[2])
		if err != nil || program != programID {
			continue
		}
		facility, err := uuid.Parse(parts[1])
		if err != nil {
			continue
		}
		ids = append(ids, facility)
	}
	return ids
}
