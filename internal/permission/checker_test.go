package permission

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockmanagement/internal/platform/httpx"
)

type stubAuth struct {
	user    User
	userErr error
	rights  map[Right]uuid.UUID
}

func (s *stubAuth) CurrentUser(ctx context.Context) (User, error) {
	if s.userErr != nil {
		return User{}, s.userErr
	}
	return s.user, nil
}

func (s *stubAuth) RightByName(ctx context.Context, name Right) (RightRef, error) {
	id, ok := s.rights[name]
	if !ok {
		return RightRef{}, errors.New("right not found")
	}
	return RightRef{ID: id, Name: name}, nil
}

type rightCall struct {
	userID, rightID              uuid.UUID
	program, facility, warehouse uuid.NullUUID
}

type stubAuthority struct {
	result *RightResult
	err    error
	calls  []rightCall
}

func (s *stubAuthority) HasRight(ctx context.Context, userID, rightID uuid.UUID, program, facility, warehouse uuid.NullUUID) (*RightResult, error) {
	s.calls = append(s.calls, rightCall{userID, rightID, program, facility, warehouse})
	return s.result, s.err
}

type fallbackCall struct {
	program, facilityType uuid.UUID
}

type stubFallback struct {
	err   error
	calls []fallbackCall
}

func (s *stubFallback) CheckProgramFacility(ctx context.Context, programID, facilityTypeID uuid.UUID) error {
	s.calls = append(s.calls, fallbackCall{programID, facilityTypeID})
	return s.err
}

type countingRecorder map[string]int

func (c countingRecorder) ObservePermissionCheck(right, outcome string) {
	c[right+":"+outcome]++
}

func newAuth() *stubAuth {
	rights := make(map[Right]uuid.UUID)
	for _, op := range Operations() {
		rights[op.Right] = uuid.New()
	}
	return &stubAuth{user: User{ID: uuid.New(), Username: "administrator"}, rights: rights}
}

func granted(v bool) *RightResult {
	return &RightResult{Result: v}
}

func TestCheckRightGranted(t *testing.T) {
	auth := newAuth()
	authority := &stubAuthority{result: granted(true)}
	metrics := countingRecorder{}
	checker := NewChecker(auth, authority, nil, nil, metrics)

	program, facility, warehouse := ID(uuid.New()), ID(uuid.New()), ID(uuid.New())
	err := checker.CheckRight(context.Background(), RightStockAdjust, program, facility, warehouse)
	require.NoError(t, err)
	require.Len(t, authority.calls, 1)
	call := authority.calls[0]
	require.Equal(t, auth.user.ID, call.userID)
	require.Equal(t, auth.rights[RightStockAdjust], call.rightID)
	require.Equal(t, program, call.program)
	require.Equal(t, facility, call.facility)
	require.Equal(t, warehouse, call.warehouse)
	require.Equal(t, 1, metrics["STOCK_ADJUST:granted"])
}

func TestCheckRightDeniedWhenFalseOrAbsent(t *testing.T) {
	for name, result := range map[string]*RightResult{"false": granted(false), "absent": nil} {
		t.Run(name, func(t *testing.T) {
			checker := NewChecker(newAuth(), &stubAuthority{result: result}, nil, nil, nil)
			err := checker.CheckRight(context.Background(), RightStockInventoriesEdit, uuid.NullUUID{}, uuid.NullUUID{}, uuid.NullUUID{})
			require.ErrorIs(t, err, ErrRightNotHeld)
			require.NotErrorIs(t, err, ErrCheckFailed)
			require.ErrorIs(t, err, httpx.ErrForbidden)

			var pe *Error
			require.ErrorAs(t, err, &pe)
			require.Equal(t, RightStockInventoriesEdit, pe.Right)
			require.Equal(t, MessageNoFollowingPermission, pe.MessageKey())
			require.Contains(t, pe.Error(), "STOCK_INVENTORIES_EDIT")
		})
	}
}

func TestCheckRightTransportFailure(t *testing.T) {
	upstream := errors.New("404 Not Found: user does not exist")
	checker := NewChecker(newAuth(), &stubAuthority{err: upstream}, nil, nil, nil)

	err := checker.CheckRight(context.Background(), RightStockCardsView, uuid.NullUUID{}, uuid.NullUUID{}, uuid.NullUUID{})
	require.ErrorIs(t, err, ErrCheckFailed)
	require.NotErrorIs(t, err, ErrRightNotHeld)
	require.ErrorIs(t, err, upstream)

	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindCheckFailed, kind)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, upstream.Error(), pe.Detail)
	require.Equal(t, MessageCheckFailed, pe.MessageKey())
}

func TestCheckRightPropagatesAuthErrors(t *testing.T) {
	authErr := errors.New("no authenticated user")
	auth := newAuth()
	auth.userErr = authErr
	authority := &stubAuthority{result: granted(true)}
	checker := NewChecker(auth, authority, nil, nil, nil)

	err := checker.CheckRight(context.Background(), RightStockAdjust, uuid.NullUUID{}, uuid.NullUUID{}, uuid.NullUUID{})
	require.ErrorIs(t, err, authErr)
	_, ok := KindOf(err)
	require.False(t, ok)
	require.Empty(t, authority.calls)
}

func TestRequireScopesPerOperation(t *testing.T) {
	program, facility := uuid.New(), uuid.New()
	scope := Scope{
		ProgramID:      ID(program),
		FacilityID:     ID(facility),
		WarehouseID:    ID(uuid.New()),
		FacilityTypeID: ID(uuid.New()),
	}
	for _, op := range Operations() {
		if op.Scope == ScopeProgramFacilityType {
			continue
		}
		t.Run(op.Name, func(t *testing.T) {
			auth := newAuth()
			authority := &stubAuthority{result: granted(true)}
			checker := NewChecker(auth, authority, nil, nil, nil)

			require.NoError(t, checker.Require(context.Background(), op, scope))
			require.Len(t, authority.calls, 1)
			call := authority.calls[0]
			require.Equal(t, auth.rights[op.Right], call.rightID)
			require.False(t, call.warehouse.Valid)
			switch op.Scope {
			case ScopeProgramFacility:
				require.Equal(t, ID(program), call.program)
				require.Equal(t, ID(facility), call.facility)
			default:
				require.False(t, call.program.Valid)
				require.False(t, call.facility.Valid)
			}
		})
	}
}

func TestCanViewReasonsPrimaryGranted(t *testing.T) {
	authority := &stubAuthority{result: granted(true)}
	fallback := &stubFallback{}
	checker := NewChecker(newAuth(), authority, fallback, nil, nil)

	require.NoError(t, checker.CanViewReasons(context.Background(), uuid.New(), uuid.New()))
	require.Len(t, authority.calls, 1)
	require.False(t, authority.calls[0].program.Valid)
	require.Empty(t, fallback.calls)
}

func TestCanViewReasonsFallsBackOnce(t *testing.T) {
	program, facilityType := uuid.New(), uuid.New()
	authority := &stubAuthority{result: granted(false)}
	fallback := &stubFallback{}
	checker := NewChecker(newAuth(), authority, fallback, nil, nil)

	err := checker.Require(context.Background(), OpViewReasons, Scope{ProgramID: ID(program), FacilityTypeID: ID(facilityType)})
	require.NoError(t, err)
	require.Len(t, authority.calls, 1)
	require.Equal(t, []fallbackCall{{program, facilityType}}, fallback.calls)
}

func TestCanViewReasonsFallbackDenied(t *testing.T) {
	fallback := &stubFallback{err: SecondaryDenied("facility type not supported")}
	checker := NewChecker(newAuth(), &stubAuthority{}, fallback, nil, nil)

	err := checker.CanViewReasons(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrSecondaryDenied)
	require.NotErrorIs(t, err, ErrRightNotHeld)
	require.Len(t, fallback.calls, 1)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, MessageProgramFacilityType, pe.MessageKey())
}

func TestCanViewReasonsSkipsFallbackWhenCheckFailed(t *testing.T) {
	fallback := &stubFallback{}
	checker := NewChecker(newAuth(), &stubAuthority{err: errors.New("503 Service Unavailable")}, fallback, nil, nil)

	err := checker.CanViewReasons(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrCheckFailed)
	require.Empty(t, fallback.calls)
}

func TestLookupOperation(t *testing.T) {
	op, ok := LookupOperation(" Make-Adjustment ")
	require.True(t, ok)
	require.Equal(t, OpMakeAdjustment, op)

	_, ok = LookupOperation("approve-requisition")
	require.False(t, ok)
}
