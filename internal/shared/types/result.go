package types

import (
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
)

// Result is the envelope every invocation returns.
type Result struct {
	Success bool          `json:"success"`
	Data    interface{}   `json:"data"`
	Error   *string       `json:"error,omitempty"`
	Details *ErrorDetails `json:"details,omitempty"`

	// Effect names an action the external layer must perform, such as
	// "change_directory". Its parameters travel in Data.
	Effect string `json:"effect,omitempty"`
}

// ErrorDetails is the structured form of a failure.
type ErrorDetails struct {
	Kind       string `json:"kind"`
	Op         string `json:"op,omitempty"`
	Path       string `json:"path,omitempty"`
	Capability string `json:"capability,omitempty"`
}

// Success wraps data in a successful envelope.
func Success(data interface{}) *Result {
	return &Result{Success: true, Data: data}
}

// WithEffect wraps data in a successful envelope requesting effect.
func WithEffect(effect string, data interface{}) *Result {
	return &Result{Success: true, Data: data, Effect: effect}
}

// Failure wraps a message in a failed envelope.
func Failure(message string) *Result {
	msg := message
	return &Result{Success: false, Error: &msg}
}

// FromError converts err into a failed envelope. Kernel errors keep
// their structure in Details.
func FromError(err error) *Result {
	res := Failure(err.Error())
	if e, ok := errs.As(err); ok {
		res.Details = &ErrorDetails{
			Kind:       e.Kind.String(),
			Op:         e.Op,
			Path:       e.Path,
			Capability: e.Capability,
		}
	}
	return res
}
