package daikin280

import (
	"errors"
	"fmt"
)

type DaikinError struct {
	Message string
	Err     error
}

func (e *DaikinError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("daikin error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("daikin error: %s", e.Message)
}

func (e *DaikinError) Unwrap() error {
	return e.Err
}

func NewDaikinError(message string, err error) *DaikinError {
	return &DaikinError{
		Message: message,
		Err:     err,
	}
}

// ConnectionError covers transport failures: connection refused, timeouts,
// non-2xx HTTP statuses.
type ConnectionError struct {
	*DaikinError
}

func NewConnectionError(message string, err error) *ConnectionError {
	return &ConnectionError{
		DaikinError: NewDaikinError(message, err),
	}
}

// ProtocolError covers responses whose shape cannot be interpreted, such as
// bodies that are not JSON or lack the responses container.
type ProtocolError struct {
	*DaikinError
}

func NewProtocolError(message string, err error) *ProtocolError {
	return &ProtocolError{
		DaikinError: NewDaikinError(message, err),
	}
}

// RejectionError is a device refusal of a written value (rsc 4000). It is
// recoverable: the setpoint negotiator probes neighbouring values when it
// sees one.
type RejectionError struct {
	Endpoint string
	Code     int
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("device rejected request to %s (error code: %d)", e.Endpoint, e.Code)
}

// StatusError is any other non-success rsc. It always aborts the operation
// that triggered it.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("device error for %s: code %d", e.Endpoint, e.Code)
}

// UnsupportedOperationError reports a command that the current mode has no
// parameter for. It is raised before any device call is made.
type UnsupportedOperationError struct {
	Op   string
	Mode HVACMode
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("cannot %s in %s mode", e.Op, e.Mode)
}

// IsRejection reports whether err is a value rejection, as opposed to a
// transport or device failure.
func IsRejection(err error) bool {
	var rejection *RejectionError
	return errors.As(err, &rejection)
}
