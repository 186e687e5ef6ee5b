package employee

import "github.com/ogurasousui/codex-timeclock/internal/core/fault"

var (
	ErrInvalidID             = fault.New(fault.ErrValidation, "employee: invalid id")
	ErrInvalidName           = fault.New(fault.ErrValidation, "employee: invalid name")
	ErrInvalidEmail          = fault.New(fault.ErrValidation, "employee: invalid email")
	ErrInvalidEmailDomain    = fault.New(fault.ErrValidation, "employee: email domain not allowed")
	ErrInvalidDepartment     = fault.New(fault.ErrValidation, "employee: invalid department")
	ErrInvalidHourlyRate     = fault.New(fault.ErrValidation, "employee: hourly rate must be a non-negative amount with at most 2 decimal places")
	ErrEmployeeNotFound      = fault.New(fault.ErrNotFound, "employee: not found")
	ErrEmployeeAlreadyExists = fault.New(fault.ErrConflict, "employee: already registered")
	ErrEmailAlreadyExists    = fault.New(fault.ErrConflict, "employee: email already exists")
)
