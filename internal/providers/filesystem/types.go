package filesystem

import (
	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// FilesystemOps provides the kernel handle shared by every operation
// group.
type FilesystemOps struct {
	Kernel *kernel.Kernel
}

// bind decodes the call parameters into args and resolves the acting
// user.
func (ops *FilesystemOps) bind(op string, p map[string]interface{}, callCtx *types.Context, args interface{}) (kernel.Context, error) {
	if err := params.Decode(op, p, args); err != nil {
		return kernel.Context{}, err
	}
	return params.Caller(op, p, callCtx)
}

// userContext is the optional inline identity parameter accepted after
// an operation's required arguments.
var userContext = types.Parameter{
	Name:        params.UserContext,
	Type:        "object",
	Description: "Acting user, when not supplied in the request context",
}

type pathArgs struct {
	Path string `mapstructure:"path"`
}
