package session

import (
	"context"

	sessionstate "github.com/GriffinCanCode/AgentOS/kernel/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// EnvProvider serves the environment variable stack.
type EnvProvider struct {
	kernel *kernel.Kernel
}

// NewEnvProvider creates an env provider
func NewEnvProvider(k *kernel.Kernel) *EnvProvider {
	return &EnvProvider{kernel: k}
}

// Definition returns service metadata
func (e *EnvProvider) Definition() types.Service {
	name := types.Parameter{Name: "var_name", Type: "string", Description: "Variable name", Required: true}
	return types.Service{
		ID:           "env",
		Name:         "Environment Service",
		Description:  "Shell environment variables with subshell scopes",
		Category:     types.CategorySession,
		Capabilities: []string{"get", "set", "unset", "scope"},
		Tools: []types.Tool{
			{
				ID:          "env.get",
				Name:        "Get Variable",
				Description: "Value of a variable, empty when unset",
				Parameters:  []types.Parameter{name},
				Returns:     "string",
			},
			{
				ID:          "env.set",
				Name:        "Set Variable",
				Description: "Assign a variable",
				Parameters: []types.Parameter{
					name,
					{Name: "value", Type: "string", Description: "Value", Required: false},
				},
				Returns: "boolean",
				Mutates: true,
			},
			{
				ID:          "env.unset",
				Name:        "Unset Variable",
				Description: "Remove a variable",
				Parameters:  []types.Parameter{name},
				Returns:     "boolean",
				Mutates:     true,
			},
			{
				ID:          "env.get_all",
				Name:        "All Variables",
				Description: "Every variable of the active scope",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "env.load",
				Name:        "Load Variables",
				Description: "Replace the active scope",
				Parameters: []types.Parameter{
					{Name: "vars", Type: "object", Description: "Variables", Required: true},
				},
				Returns: "boolean",
				Mutates: true,
			},
			{
				ID:          "env.push",
				Name:        "Push Scope",
				Description: "Enter a subshell scope copying the current one",
				Parameters:  []types.Parameter{},
				Returns:     "number",
			},
			{
				ID:          "env.pop",
				Name:        "Pop Scope",
				Description: "Leave a subshell scope; the base scope stays",
				Parameters:  []types.Parameter{},
				Returns:     "boolean",
			},
			{
				ID:          "env.reset",
				Name:        "Reset",
				Description: "Drop every scope and restore the login environment",
				Parameters:  []types.Parameter{},
				Returns:     "object",
				Mutates:     true,
			},
		},
	}
}

type envArgs struct {
	Name  string            `mapstructure:"var_name"`
	Value string            `mapstructure:"value"`
	Vars  map[string]string `mapstructure:"vars"`
}

// Execute runs an env operation
func (e *EnvProvider) Execute(ctx context.Context, toolID string, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	env := e.kernel.Session().Env
	var args envArgs
	if err := params.Decode(toolID, p, &args); err != nil {
		return params.Reply(nil, err)
	}

	switch toolID {
	case "env.get":
		return types.Success(env.Get(args.Name)), nil
	case "env.set":
		if err := env.Set(args.Name, args.Value); err != nil {
			return params.Reply(nil, err)
		}
		return types.Success(true), nil
	case "env.unset":
		env.Unset(args.Name)
		return types.Success(true), nil
	case "env.get_all":
		return types.Success(env.All()), nil
	case "env.load":
		env.Load(args.Vars)
		return types.Success(true), nil
	case "env.push":
		env.Push()
		return types.Success(env.Depth()), nil
	case "env.pop":
		return types.Success(env.Pop()), nil
	case "env.reset":
		user := e.kernel.Session().Identity.Current()
		env.Reset(sessionstate.BaseEnvironment(user, e.kernel.Config().Hostname))
		return types.Success(env.All()), nil
	default:
		return params.Unknown(toolID)
	}
}
