package overtime

import "github.com/ogurasousui/codex-timeclock/internal/core/fault"

var (
	ErrInvalidEmployeeID  = fault.New(fault.ErrValidation, "overtime: invalid employee id")
	ErrInvalidSessionID   = fault.New(fault.ErrValidation, "overtime: invalid session id")
	ErrInvalidStatus      = fault.New(fault.ErrValidation, "overtime: invalid status")
	ErrEmployeeNotFound   = fault.New(fault.ErrNotFound, "overtime: employee not found")
	ErrSessionNotFound    = fault.New(fault.ErrNotFound, "overtime: session not found")
	ErrSessionAlreadyOpen = fault.New(fault.ErrConflict, "overtime: a session is already open today")
	ErrNoOpenSession      = fault.New(fault.ErrConflict, "overtime: no open session today")
	ErrSessionStillOpen   = fault.New(fault.ErrConflict, "overtime: session must be closed before a decision")
	ErrAlreadyDecided     = fault.New(fault.ErrConflict, "overtime: session already decided")
	ErrSelfDecision       = fault.New(fault.ErrPermissionDenied, "overtime: employees cannot decide their own sessions")
)
