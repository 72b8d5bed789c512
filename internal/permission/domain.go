package permission

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Right names a capability held by a user in the reference data service.
type Right string

// Stock management rights.
const (
	RightStockCardTemplatesManage Right = "STOCK_CARD_TEMPLATES_MANAGE"
	RightReasonsManage            Right = "STOCK_CARD_LINE_ITEM_REASONS_MANAGE"
	RightReasonsView              Right = "STOCK_CARD_LINE_ITEM_REASONS_VIEW"
	RightOrganizationsManage      Right = "ORGANIZATIONS_MANAGE"
	RightStockSourcesManage       Right = "STOCK_SOURCES_MANAGE"
	RightStockDestinationsManage  Right = "STOCK_DESTINATIONS_MANAGE"
	RightStockInventoriesEdit     Right = "STOCK_INVENTORIES_EDIT"
	RightStockAdjust              Right = "STOCK_ADJUST"
	RightStockCardsView           Right = "STOCK_CARDS_VIEW"
)

// ScopeKind tells which scope components an operation is checked against.
type ScopeKind uint8

const (
	// ScopeUnscoped checks the right without program, facility or warehouse.
	ScopeUnscoped ScopeKind = iota
	// ScopeProgramFacility checks the right at a program and facility.
	ScopeProgramFacility
	// ScopeProgramFacilityType checks the right unscoped and falls back to the
	// program and facility type permission.
	ScopeProgramFacilityType
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeUnscoped:
		return "unscoped"
	case ScopeProgramFacility:
		return "program_facility"
	case ScopeProgramFacilityType:
		return "program_facility_type"
	default:
		return "unknown"
	}
}

// Operation is a protected stock management operation.
type Operation struct {
	Name  string
	Right Right
	Scope ScopeKind
}

// Protected operations.
var (
	OpCreateStockCardTemplate = Operation{Name: "create-stock-card-template", Right: RightStockCardTemplatesManage, Scope: ScopeUnscoped}
	OpEditPhysicalInventory   = Operation{Name: "edit-physical-inventory", Right: RightStockInventoriesEdit, Scope: ScopeProgramFacility}
	OpMakeAdjustment          = Operation{Name: "make-adjustment", Right: RightStockAdjust, Scope: ScopeProgramFacility}
	OpViewStockCard           = Operation{Name: "view-stock-card", Right: RightStockCardsView, Scope: ScopeProgramFacility}
	OpManageStockSources      = Operation{Name: "manage-stock-sources", Right: RightStockSourcesManage, Scope: ScopeUnscoped}
	OpManageStockDestinations = Operation{Name: "manage-stock-destinations", Right: RightStockDestinationsManage, Scope: ScopeUnscoped}
	OpViewReasons             = Operation{Name: "view-reasons", Right: RightReasonsView, Scope: ScopeProgramFacilityType}
	OpManageReasons           = Operation{Name: "manage-reasons", Right: RightReasonsManage, Scope: ScopeUnscoped}
	OpManageOrganizations     = Operation{Name: "manage-organizations", Right: RightOrganizationsManage, Scope: ScopeUnscoped}
)

// Operations lists every protected operation.
func Operations() []Operation {
	return []Operation{
		OpCreateStockCardTemplate,
		OpEditPhysicalInventory,
		OpMakeAdjustment,
		OpViewStockCard,
		OpManageStockSources,
		OpManageStockDestinations,
		OpViewReasons,
		OpManageReasons,
		OpManageOrganizations,
	}
}

// LookupOperation resolves an operation by name.
func LookupOperation(name string) (Operation, bool) {
	name = strings.TrimSpace(strings.ToLower(name))
	for _, op := range Operations() {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// Scope narrows where a right applies. Unset components mean "ignore this dimension".
type Scope struct {
	ProgramID      uuid.NullUUID
	FacilityID     uuid.NullUUID
	WarehouseID    uuid.NullUUID
	FacilityTypeID uuid.NullUUID
}

// ID wraps a non-nil identifier as a set scope component.
func ID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

// User is the authenticated actor.
type User struct {
	ID       uuid.UUID
	Username string
}

// RightRef identifies a right in the reference data service.
type RightRef struct {
	ID   uuid.UUID
	Name Right
}

// RightResult is the authority's answer. A nil *RightResult means no answer was given.
type RightResult struct {
	Result bool `json:"result"`
}

// AuthenticationContext resolves the acting user and right identifiers.
type AuthenticationContext interface {
	CurrentUser(ctx context.Context) (User, error)
	RightByName(ctx context.Context, name Right) (RightRef, error)
}

// RightsAuthority answers "does the user hold the right in this scope".
type RightsAuthority interface {
	HasRight(ctx context.Context, userID, rightID uuid.UUID, program, facility, warehouse uuid.NullUUID) (*RightResult, error)
}

// ProgramFacilityTypePermission checks a program and facility type pair for the current user.
type ProgramFacilityTypePermission interface {
	CheckProgramFacility(ctx context.Context, programID, facilityTypeID uuid.UUID) error
}
