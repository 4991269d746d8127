package session

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// Provider serves the identity stack and the session document.
type Provider struct {
	kernel *kernel.Kernel
}

// NewProvider creates a session provider
func NewProvider(k *kernel.Kernel) *Provider {
	return &Provider{kernel: k}
}

// Definition returns service metadata
func (s *Provider) Definition() types.Service {
	return types.Service{
		ID:           "session",
		Name:         "Session Service",
		Description:  "Login identity stack and session persistence",
		Category:     types.CategorySession,
		Capabilities: []string{"su", "logout", "save", "restore"},
		Tools: []types.Tool{
			{
				ID:          "session.push",
				Name:        "Push Identity",
				Description: "Switch to a user, remembering the current one",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "User to switch to", Required: true},
				},
				Returns: "array",
			},
			{
				ID:          "session.pop",
				Name:        "Pop Identity",
				Description: "Return to the previous user; null at the login user",
				Parameters:  []types.Parameter{},
				Returns:     "string",
			},
			{
				ID:          "session.get_stack",
				Name:        "Get Stack",
				Description: "Identity stack from login user to current",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "session.get_current_user",
				Name:        "Current User",
				Description: "Top of the identity stack",
				Parameters:  []types.Parameter{},
				Returns:     "string",
			},
			{
				ID:          "session.clear",
				Name:        "Clear Stack",
				Description: "Reset the stack to a single login user",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "Login user", Required: true},
				},
				Returns: "array",
			},
			{
				ID:          "session.get_session_state",
				Name:        "Get Session State",
				Description: "History, environment and aliases as a JSON document",
				Parameters:  []types.Parameter{},
				Returns:     "string",
			},
			{
				ID:          "session.load_session_state",
				Name:        "Load Session State",
				Description: "Apply a session JSON document",
				Parameters: []types.Parameter{
					{Name: "state_json", Type: "string", Description: "Session document", Required: false},
				},
				Returns: "boolean",
				Mutates: true,
			},
		},
	}
}

type userArgs struct {
	Username string `mapstructure:"username"`
}

type stateArgs struct {
	StateJSON string `mapstructure:"state_json"`
}

// Execute runs a session operation
func (s *Provider) Execute(ctx context.Context, toolID string, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	identity := s.kernel.Session().Identity

	switch toolID {
	case "session.push":
		var args userArgs
		if err := params.Decode("push", p, &args); err != nil {
			return params.Reply(nil, err)
		}
		identity.Push(args.Username)
		return types.Success(identity.Stack()), nil

	case "session.pop":
		if user, ok := identity.Pop(); ok {
			return types.Success(user), nil
		}
		return types.Success(nil), nil

	case "session.get_stack":
		return types.Success(identity.Stack()), nil

	case "session.get_current_user":
		return types.Success(identity.Current()), nil

	case "session.clear":
		var args userArgs
		if err := params.Decode("clear", p, &args); err != nil {
			return params.Reply(nil, err)
		}
		identity.Clear(args.Username)
		return types.Success(identity.Stack()), nil

	case "session.get_session_state":
		return params.Reply(s.kernel.SessionState())

	case "session.load_session_state":
		var args stateArgs
		if err := params.Decode("load_session_state", p, &args); err != nil {
			return params.Reply(nil, err)
		}
		if err := s.kernel.LoadSessionState(args.StateJSON); err != nil {
			return params.Reply(nil, err)
		}
		return types.Success(true), nil

	default:
		return params.Unknown(toolID)
	}
}
