package topology

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error codes for topology loading and resolution.
const (
	ErrCodeLoadFailed    = "T001"
	ErrCodeNotFound      = "T002"
	ErrCodeInvalidType   = "T003"
	ErrCodeNoTables      = "T004"
	ErrCodeInvalidLink   = "T005"
	ErrCodeConflict      = "T006"
	ErrCodeDuplicate     = "T007"
	ErrCodeUnknownEntity = "T008"
	ErrCodeNoEntities    = "T009"
)

// LoadError reports a topology problem with its CUE position when known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
