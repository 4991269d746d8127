// Package params binds loosely typed invocation parameters to the typed
// argument structs of the providers.
package params

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// Decode fills out, a pointer to a struct with mapstructure tags, from
// in. Scalars are converted weakly: "true" binds to a bool, 42 binds to
// a string. Fields missing from in keep their current value, so callers
// preset defaults before decoding.
func Decode(op string, in interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(in); err != nil {
		return errs.Newf(errs.KindInvalidArgument, op, "", "invalid arguments: %v", err)
	}
	return nil
}

// UserContext is the optional parameter that carries the acting user
// inline, for callers that pass it positionally instead of in the
// request context.
const UserContext = "user_context"

// Caller returns the acting user of a call: the request context when
// present, else the user_context parameter. The inline form also
// accepts {"name": user}.
func Caller(op string, p map[string]interface{}, c *types.Context) (kernel.Context, error) {
	raw, ok := p[UserContext]
	if c != nil || !ok || raw == nil {
		return KernelContext(op, c)
	}
	var inline struct {
		types.Context `mapstructure:",squash"`

		Name string `mapstructure:"name"`
	}
	if err := Decode(op, raw, &inline); err != nil {
		return kernel.Context{}, err
	}
	if inline.User == "" {
		inline.User = inline.Name
	}
	return KernelContext(op, &inline.Context)
}

// KernelContext converts the boundary context of a call. Operations that
// act on behalf of a user cannot run without one.
func KernelContext(op string, c *types.Context) (kernel.Context, error) {
	if c == nil || c.User == "" {
		return kernel.Context{}, errs.Newf(errs.KindInvalidArgument, op, "", "a user context is required")
	}
	return kernel.Context{
		CurrentPath: c.CurrentPath,
		User:        c.User,
		UserGroups:  c.UserGroups,
		MaxVFSSize:  c.MaxVFSSize,
	}, nil
}

// Reply turns a kernel outcome into an envelope. Domain failures travel
// in the envelope, never as a Go error.
func Reply(data interface{}, err error) (*types.Result, error) {
	if err != nil {
		return types.FromError(err), nil
	}
	return types.Success(data), nil
}

// Unknown is the envelope for a tool ID the provider does not serve.
func Unknown(toolID string) (*types.Result, error) {
	return types.Failure(fmt.Sprintf("unknown tool: %s", toolID)), nil
}
