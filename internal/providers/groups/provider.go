package groups

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// Provider implements group management
type Provider struct {
	kernel *kernel.Kernel
}

// NewProvider creates a groups provider
func NewProvider(k *kernel.Kernel) *Provider {
	return &Provider{kernel: k}
}

var userContext = types.Parameter{
	Name:        params.UserContext,
	Type:        "object",
	Description: "Acting user, when not supplied in the request context",
}

// Definition returns service metadata
func (g *Provider) Definition() types.Service {
	group := types.Parameter{Name: "group_name", Type: "string", Description: "Group name", Required: true}
	user := types.Parameter{Name: "username", Type: "string", Description: "Username", Required: true}

	return types.Service{
		ID:          "groups",
		Name:        "Group Service",
		Description: "Groups and supplementary memberships",
		Category:    types.CategoryAccounts,
		Capabilities: []string{
			"create",
			"delete",
			"membership",
		},
		Tools: []types.Tool{
			{
				ID:          "groups.create_group",
				Name:        "Create Group",
				Description: "Add an empty group (root only)",
				Parameters:  []types.Parameter{group, userContext},
				Returns:     "boolean",
				Mutates:     true,
			},
			{
				ID:          "groups.delete_group",
				Name:        "Delete Group",
				Description: "Remove a group that is nobody's primary group (root only)",
				Parameters:  []types.Parameter{group, userContext},
				Returns:     "boolean",
				Mutates:     true,
			},
			{
				ID:          "groups.add_user_to_group",
				Name:        "Add Member",
				Description: "Add a supplementary membership (root only)",
				Parameters:  []types.Parameter{user, group, userContext},
				Returns:     "boolean",
				Mutates:     true,
			},
			{
				ID:          "groups.remove_user_from_group",
				Name:        "Remove Member",
				Description: "Drop a supplementary membership (root only)",
				Parameters:  []types.Parameter{user, group, userContext},
				Returns:     "boolean",
				Mutates:     true,
			},
			{
				ID:          "groups.get_all_groups",
				Name:        "List Groups",
				Description: "Every group with its members",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "groups.group_exists",
				Name:        "Group Exists",
				Description: "Whether the group exists",
				Parameters:  []types.Parameter{group},
				Returns:     "boolean",
			},
			{
				ID:          "groups.get_groups_for_user",
				Name:        "Groups For User",
				Description: "Primary and supplementary groups of a user, sorted",
				Parameters:  []types.Parameter{user},
				Returns:     "array",
			},
		},
	}
}

type groupArgs struct {
	Group    string `mapstructure:"group_name"`
	Username string `mapstructure:"username"`
}

// Execute runs a groups operation
func (g *Provider) Execute(ctx context.Context, toolID string, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args groupArgs
	if err := params.Decode(toolID, p, &args); err != nil {
		return params.Reply(nil, err)
	}

	switch toolID {
	case "groups.create_group":
		return g.mutate("create_group", p, callCtx, func(kctx kernel.Context) error {
			return g.kernel.CreateGroup(kctx, args.Group)
		})
	case "groups.delete_group":
		return g.mutate("delete_group", p, callCtx, func(kctx kernel.Context) error {
			return g.kernel.DeleteGroup(kctx, args.Group)
		})
	case "groups.add_user_to_group":
		return g.mutate("add_user_to_group", p, callCtx, func(kctx kernel.Context) error {
			return g.kernel.AddUserToGroup(kctx, args.Username, args.Group)
		})
	case "groups.remove_user_from_group":
		return g.mutate("remove_user_from_group", p, callCtx, func(kctx kernel.Context) error {
			return g.kernel.RemoveUserFromGroup(kctx, args.Username, args.Group)
		})
	case "groups.get_all_groups":
		return types.Success(g.kernel.GetAllGroups()), nil
	case "groups.group_exists":
		return types.Success(g.kernel.GroupExists(args.Group)), nil
	case "groups.get_groups_for_user":
		return types.Success(g.kernel.GetGroupsForUser(args.Username)), nil
	default:
		return params.Unknown(toolID)
	}
}

// mutate runs a root-only change as the caller.
func (g *Provider) mutate(op string, p map[string]interface{}, callCtx *types.Context, fn func(kernel.Context) error) (*types.Result, error) {
	kctx, err := params.Caller(op, p, callCtx)
	if err != nil {
		return params.Reply(nil, err)
	}
	if err := fn(kctx); err != nil {
		return params.Reply(nil, err)
	}
	return types.Success(true), nil
}
