package plan

import (
	"errors"
	"fmt"
)

// CompileErrorCode categorizes compilation failures.
type CompileErrorCode string

const (
	// ErrCodeIDTypeMismatch indicates a scan's ids are not all of one kind.
	ErrCodeIDTypeMismatch CompileErrorCode = "ID_TYPE_MISMATCH"

	// ErrCodeReservedLabel indicates a user label uses the synthetic marker.
	ErrCodeReservedLabel CompileErrorCode = "RESERVED_LABEL"

	// ErrCodeUnknownEntity indicates the resolver has no tables for an entity.
	ErrCodeUnknownEntity CompileErrorCode = "UNKNOWN_ENTITY"

	// ErrCodeInvalidLink indicates a branch scan follows a link that does not
	// lead to its entity type.
	ErrCodeInvalidLink CompileErrorCode = "INVALID_LINK"
)

// CompileError is a malformed-input failure detected while compiling.
// The pipeline is never modified when one is returned.
type CompileError struct {
	Code     CompileErrorCode
	Message  string
	Position int
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s (position %d)", e.Code, e.Message, e.Position)
}

// IsIDTypeMismatch reports whether err is a heterogeneous id failure.
func IsIDTypeMismatch(err error) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeIDTypeMismatch
	}
	return false
}

// IsReservedLabel reports whether err rejects a label using the synthetic
// marker.
func IsReservedLabel(err error) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeReservedLabel
	}
	return false
}
