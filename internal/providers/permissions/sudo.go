package permissions

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// SudoProvider evaluates /etc/sudoers and keeps credential timestamps.
type SudoProvider struct {
	kernel *kernel.Kernel
}

// NewSudoProvider creates a sudo provider
func NewSudoProvider(k *kernel.Kernel) *SudoProvider {
	return &SudoProvider{kernel: k}
}

// Definition returns service metadata
func (s *SudoProvider) Definition() types.Service {
	user := types.Parameter{Name: "username", Type: "string", Description: "Username", Required: true}
	return types.Service{
		ID:          "sudo",
		Name:        "Sudo Service",
		Description: "Privilege escalation policy and credential caching",
		Category:    types.CategorySecurity,
		Capabilities: []string{
			"policy",
			"timestamps",
		},
		Tools: []types.Tool{
			{
				ID:          "sudo.can_user_run_command",
				Name:        "Check Policy",
				Description: "Whether the sudoers policy lets a user run a command as root",
				Parameters: []types.Parameter{
					user,
					{Name: "command", Type: "string", Description: "Command name", Required: true},
				},
				Returns: "boolean",
			},
			{
				ID:          "sudo.is_timestamp_valid",
				Name:        "Timestamp Valid",
				Description: "Whether the user authenticated recently enough to skip the password",
				Parameters:  []types.Parameter{user},
				Returns:     "boolean",
			},
			{
				ID:          "sudo.update_timestamp",
				Name:        "Update Timestamp",
				Description: "Record a successful authentication",
				Parameters:  []types.Parameter{user},
				Returns:     "boolean",
			},
			{
				ID:          "sudo.clear_timestamp",
				Name:        "Clear Timestamp",
				Description: "Forget a cached authentication",
				Parameters:  []types.Parameter{user},
				Returns:     "boolean",
			},
		},
	}
}

type sudoArgs struct {
	Username string `mapstructure:"username"`
	Command  string `mapstructure:"command"`
}

// Execute runs a sudo operation
func (s *SudoProvider) Execute(ctx context.Context, toolID string, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args sudoArgs
	if err := params.Decode(toolID, p, &args); err != nil {
		return params.Reply(nil, err)
	}
	stamps := s.kernel.Sudo()

	switch toolID {
	case "sudo.can_user_run_command":
		return types.Success(s.kernel.CanUserRunCommand(args.Username, args.Command)), nil
	case "sudo.is_timestamp_valid":
		return types.Success(stamps.Valid(args.Username)), nil
	case "sudo.update_timestamp":
		stamps.Update(args.Username)
		return types.Success(true), nil
	case "sudo.clear_timestamp":
		stamps.Clear(args.Username)
		return types.Success(true), nil
	default:
		return params.Unknown(toolID)
	}
}
