package chatstate

import "errors"

var (
	// ErrBusy is returned when a send is attempted while another is in flight.
	ErrBusy       = errors.New("a message is already being sent")
	ErrValidation = errors.New("validation failed")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return "validation failed: " + e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
