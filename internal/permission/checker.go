package permission

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// Recorder receives the outcome of every right check.
type Recorder interface {
	ObservePermissionCheck(right, outcome string)
}

// Checker gates stock management operations behind the rights authority.
type Checker struct {
	auth     AuthenticationContext
	rights   RightsAuthority
	fallback ProgramFacilityTypePermission
	logger   *slog.Logger
	metrics  Recorder
}

// NewChecker builds a Checker. logger and metrics may be nil.
func NewChecker(auth AuthenticationContext, rights RightsAuthority, fallback ProgramFacilityTypePermission, logger *slog.Logger, metrics Recorder) *Checker {
	return &Checker{auth: auth, rights: rights, fallback: fallback, logger: logger, metrics: metrics}
}

// Require checks the current user may perform op within scope. Scope components
// not used by the operation are ignored.
func (c *Checker) Require(ctx context.Context, op Operation, scope Scope) error {
	switch op.Scope {
	case ScopeProgramFacility:
		return c.CheckRight(ctx, op.Right, scope.ProgramID, scope.FacilityID, uuid.NullUUID{})
	case ScopeProgramFacilityType:
		return c.canViewStockAssignable(ctx, op.Right, scope.ProgramID.UUID, scope.FacilityTypeID.UUID)
	default:
		return c.CheckRight(ctx, op.Right, uuid.NullUUID{}, uuid.NullUUID{}, uuid.NullUUID{})
	}
}

// CanViewReasons checks the reasons view right, falling back to the program and
// facility type permission when the right is not held.
func (c *Checker) CanViewReasons(ctx context.Context, programID, facilityTypeID uuid.UUID) error {
	return c.canViewStockAssignable(ctx, RightReasonsView, programID, facilityTypeID)
}

// CheckRight asks the authority whether the current user holds right in the given scope.
func (c *Checker) CheckRight(ctx context.Context, right Right, program, facility, warehouse uuid.NullUUID) error {
	user, err := c.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	ref, err := c.auth.RightByName(ctx, right)
	if err != nil {
		return err
	}
	result, err := c.rights.HasRight(ctx, user.ID, ref.ID, program, facility, warehouse)
	if err != nil {
		c.observe(right, KindCheckFailed.String())
		if c.logger != nil {
			c.logger.Warn("permission check failed",
				slog.String("right", string(right)),
				slog.String("user_id", user.ID.String()),
				slog.Any("error", err))
		}
		return CheckFailed(err)
	}
	if result == nil || !result.Result {
		c.observe(right, KindRightNotHeld.String())
		if c.logger != nil {
			c.logger.Info("permission denied",
				slog.String("right", string(right)),
				slog.String("user_id", user.ID.String()))
		}
		return NotHeld(right)
	}
	c.observe(right, "granted")
	return nil
}

func (c *Checker) canViewStockAssignable(ctx context.Context, right Right, programID, facilityTypeID uuid.UUID) error {
	err := c.CheckRight(ctx, right, uuid.NullUUID{}, uuid.NullUUID{}, uuid.NullUUID{})
	if err == nil || !errors.Is(err, ErrRightNotHeld) {
		return err
	}
	if c.fallback == nil {
		return err
	}
	return c.fallback.CheckProgramFacility(ctx, programID, facilityTypeID)
}

func (c *Checker) observe(right Right, outcome string) {
	if c.metrics != nil {
		c.metrics.ObservePermissionCheck(string(right), outcome)
	}
}
