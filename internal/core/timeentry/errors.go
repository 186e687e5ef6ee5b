package timeentry

import "github.com/ogurasousui/codex-timeclock/internal/core/fault"

var (
	ErrInvalidEmployeeID = fault.New(fault.ErrValidation, "timeentry: invalid employee id")
	ErrInvalidKind       = fault.New(fault.ErrValidation, "timeentry: invalid kind")
	ErrEmployeeNotFound  = fault.New(fault.ErrNotFound, "timeentry: employee not found")
	ErrShiftAlreadyOpen  = fault.New(fault.ErrConflict, "timeentry: a shift is already open today")
	ErrNoOpenShift       = fault.New(fault.ErrConflict, "timeentry: no open shift today")
)
