package capability

import "fmt"

// UnknownCapabilityError marks a protocol error: the oracle requested a name
// no handler is registered for. Fatal to the turn.
type UnknownCapabilityError struct {
	Name string
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("unknown capability: %s", e.Name)
}

// InvalidArgumentsError is a local validation failure. It is reported back to
// the oracle as a failed capability result so it can retry with corrected
// arguments.
type InvalidArgumentsError struct {
	Capability string
	Reason     string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("%s: invalid arguments: %s", e.Capability, e.Reason)
}

// ExecutionError wraps a downstream collaborator failure. Non-fatal; the
// oracle decides whether to retry or tell the user.
type ExecutionError struct {
	Capability string
	Err        error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: execution failed: %v", e.Capability, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
