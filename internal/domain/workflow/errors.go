package workflow

import "errors"

var (
	// ErrPermissionDenied is returned when the (role, status) pair has no entry for the action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrMandatoryRemarksMissing is returned when a transition requiring remarks gets blank text
	ErrMandatoryRemarksMissing = errors.New("mandatory remarks missing")
)
