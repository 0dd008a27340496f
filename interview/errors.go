package interview

import (
	"errors"
	"fmt"
)

var (
	errEmptyResponse    = errors.New("response carried neither tool invocations nor text")
	errNoDecodableCalls = errors.New("no invocation in the batch decoded")
)

// TransportError reports a failed completion call. The turn mutated nothing
// and charged nothing; the caller may retry the whole turn.
type TransportError struct {
	Stage Need
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("interview: completion call failed at stage %q: %v", e.Stage, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResultError reports a structured invocation that could not be
// decoded. It carries the stage and the shape actually received so one bad
// remote response is diagnosable instead of fatal to the process. Usage for
// the failed call has already been charged.
type MalformedResultError struct {
	Stage Need
	// Calls is the number of tool invocations in the response, zero when the
	// response carried neither invocations nor text.
	Calls int
	// Arguments is the raw argument payload of the offending invocation.
	Arguments string
	Err       error
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("interview: malformed structured result at stage %q (%d calls, args %q): %v",
		e.Stage, e.Calls, e.Arguments, e.Err)
}

func (e *MalformedResultError) Unwrap() error { return e.Err }
