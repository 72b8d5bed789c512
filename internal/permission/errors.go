package permission

import (
	"errors"
	"fmt"

	"github.com/odyssey-erp/stockmanagement/internal/platform/httpx"
)

// Kind classifies permission failures.
type Kind uint8

const (
	// KindRightNotHeld means the authority answered and the user lacks the right.
	KindRightNotHeld Kind = iota + 1
	// KindCheckFailed means no answer could be obtained from the authority.
	KindCheckFailed
	// KindSecondaryDenied means the program and facility type fallback refused access.
	KindSecondaryDenied
)

func (k Kind) String() string {
	switch k {
	case KindRightNotHeld:
		return "right_not_held"
	case KindCheckFailed:
		return "check_failed"
	case KindSecondaryDenied:
		return "secondary_denied"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against *Error.
var (
	ErrRightNotHeld    = errors.New("permission: right not held")
	ErrCheckFailed     = errors.New("permission: check failed")
	ErrSecondaryDenied = errors.New("permission: program and facility type not permitted")
)

// Message keys carried to API clients.
const (
	MessageNoFollowingPermission = "stockmanagement.error.authorization.noFollowingPermission"
	MessageCheckFailed           = "stockmanagement.error.authorization.failed"
	MessageProgramFacilityType   = "stockmanagement.error.authorization.programFacilityType"
)

// Error is a structured permission failure.
type Error struct {
	Kind   Kind
	Right  Right
	Detail string
	Err    error
}

// NotHeld builds a RightNotHeld error.
func NotHeld(right Right) *Error {
	return &Error{Kind: KindRightNotHeld, Right: right}
}

// CheckFailed builds a CheckFailed error from an upstream failure.
func CheckFailed(err error) *Error {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &Error{Kind: KindCheckFailed, Detail: detail, Err: err}
}

// SecondaryDenied builds a fallback denial with a human readable detail.
func SecondaryDenied(detail string) *Error {
	return &Error{Kind: KindSecondaryDenied, Detail: detail}
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRightNotHeld:
		return fmt.Sprintf("permission: you do not have the following permission: %s", e.Right)
	case KindCheckFailed:
		return fmt.Sprintf("permission: check failed: %s", e.Detail)
	case KindSecondaryDenied:
		if e.Detail == "" {
			return ErrSecondaryDenied.Error()
		}
		return fmt.Sprintf("%s: %s", ErrSecondaryDenied.Error(), e.Detail)
	default:
		return "permission: denied"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels. Every kind is also an httpx.ErrForbidden.
func (e *Error) Is(target error) bool {
	switch target {
	case httpx.ErrForbidden:
		return true
	case ErrRightNotHeld:
		return e.Kind == KindRightNotHeld
	case ErrCheckFailed:
		return e.Kind == KindCheckFailed
	case ErrSecondaryDenied:
		return e.Kind == KindSecondaryDenied
	}
	return false
}

// MessageKey returns the client facing message key for the failure.
func (e *Error) MessageKey() string {
	switch e.Kind {
	case KindCheckFailed:
		return MessageCheckFailed
	case KindSecondaryDenied:
		return MessageProgramFacilityType
	default:
		return MessageNoFollowingPermission
	}
}

// KindOf extracts the permission kind carried by err.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
