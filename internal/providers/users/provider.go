package users

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// Provider implements account management
type Provider struct {
	kernel *kernel.Kernel
}

// NewProvider creates a users provider
func NewProvider(k *kernel.Kernel) *Provider {
	return &Provider{kernel: k}
}

var userContext = types.Parameter{
	Name:        params.UserContext,
	Type:        "object",
	Description: "Acting user, when not supplied in the request context",
}

// Definition returns service metadata
func (u *Provider) Definition() types.Service {
	return types.Service{
		ID:          "users",
		Name:        "User Service",
		Description: "User accounts, passwords and home directories",
		Category:    types.CategoryAccounts,
		Capabilities: []string{
			"register",
			"verify",
			"password",
			"delete",
			"setup",
		},
		Tools: []types.Tool{
			{
				ID:          "users.register_user",
				Name:        "Register User",
				Description: "Create an account with its primary group and home directory (root only)",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "Username", Required: true},
					{Name: "password", Type: "string", Description: "Password, empty for none", Required: false},
					{Name: "primary_group", Type: "string", Description: "Primary group, defaults to the username", Required: false},
					userContext,
				},
				Returns: "object",
				Mutates: true,
			},
			{
				ID:          "users.verify_password",
				Name:        "Verify Password",
				Description: "Check a password candidate",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "Username", Required: true},
					{Name: "password", Type: "string", Description: "Candidate", Required: false},
				},
				Returns: "boolean",
			},
			{
				ID:          "users.change_password",
				Name:        "Change Password",
				Description: "Set a new password; non-root users must prove the old one",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "Username", Required: true},
					{Name: "new_password", Type: "string", Description: "New password, empty removes it", Required: true},
					userContext,
					{Name: "old_password", Type: "string", Description: "Current password", Required: false},
				},
				Returns: "boolean",
				Mutates: true,
			},
			{
				ID:          "users.has_password",
				Name:        "Has Password",
				Description: "Whether the account has a password",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "Username", Required: true},
				},
				Returns: "boolean",
			},
			{
				ID:          "users.user_exists",
				Name:        "User Exists",
				Description: "Whether the account exists",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "Username", Required: true},
				},
				Returns: "boolean",
			},
			{
				ID:          "users.get_user",
				Name:        "Get User",
				Description: "Public view of one account, or null",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "Username", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "users.get_all_users",
				Name:        "List Users",
				Description: "Every account sorted by name",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "users.delete_user_and_data",
				Name:        "Delete User",
				Description: "Remove an account, its memberships and optionally its home (root only)",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "Username", Required: true},
					{Name: "remove_home", Type: "boolean", Description: "Also delete the home directory", Required: false},
					userContext,
				},
				Returns: "object",
				Mutates: true,
			},
			{
				ID:          "users.set_primary_group",
				Name:        "Set Primary Group",
				Description: "Reassign an account's primary group (root only)",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "Username", Required: true},
					{Name: "group", Type: "string", Description: "Existing group", Required: true},
					userContext,
				},
				Returns: "boolean",
				Mutates: true,
			},
			{
				ID:          "users.first_time_setup",
				Name:        "First Time Setup",
				Description: "Create the first account and set the root password",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "Username", Required: true},
					{Name: "password", Type: "string", Description: "Password", Required: false},
					{Name: "root_password", Type: "string", Description: "Root password", Required: true},
				},
				Returns: "object",
				Mutates: true,
			},
		},
	}
}

// Execute runs a users operation
func (u *Provider) Execute(ctx context.Context, toolID string, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "users.register_user":
		return u.register(p, callCtx)
	case "users.verify_password":
		return u.verify(p)
	case "users.change_password":
		return u.changePassword(p, callCtx)
	case "users.has_password":
		return u.lookup(p, "has_password", func(name string) interface{} { return u.kernel.HasPassword(name) })
	case "users.user_exists":
		return u.lookup(p, "user_exists", func(name string) interface{} { return u.kernel.UserExists(name) })
	case "users.get_user":
		return u.lookup(p, "get_user", func(name string) interface{} {
			if info := u.kernel.GetUser(name); info != nil {
				return info
			}
			return nil
		})
	case "users.get_all_users":
		return types.Success(u.kernel.GetAllUsers()), nil
	case "users.delete_user_and_data":
		return u.deleteUser(p, callCtx)
	case "users.set_primary_group":
		return u.setPrimaryGroup(p, callCtx)
	case "users.first_time_setup":
		return u.firstTimeSetup(p)
	default:
		return params.Unknown(toolID)
	}
}

type accountArgs struct {
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PrimaryGroup string `mapstructure:"primary_group"`
	Group        string `mapstructure:"group"`
	OldPassword  string `mapstructure:"old_password"`
	NewPassword  string `mapstructure:"new_password"`
	RootPassword string `mapstructure:"root_password"`
	RemoveHome   bool   `mapstructure:"remove_home"`
}

func (u *Provider) register(p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	const op = "register_user"
	var args accountArgs
	if err := params.Decode(op, p, &args); err != nil {
		return params.Reply(nil, err)
	}
	kctx, err := params.Caller(op, p, callCtx)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(u.kernel.RegisterUser(kctx, args.Username, args.Password, args.PrimaryGroup))
}

func (u *Provider) verify(p map[string]interface{}) (*types.Result, error) {
	var args accountArgs
	if err := params.Decode("verify_password", p, &args); err != nil {
		return params.Reply(nil, err)
	}
	return types.Success(u.kernel.VerifyPassword(args.Username, args.Password)), nil
}

func (u *Provider) changePassword(p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	const op = "change_password"
	var args accountArgs
	if err := params.Decode(op, p, &args); err != nil {
		return params.Reply(nil, err)
	}
	kctx, err := params.Caller(op, p, callCtx)
	if err != nil {
		return params.Reply(nil, err)
	}
	if err := u.kernel.ChangePassword(kctx, args.Username, args.OldPassword, args.NewPassword); err != nil {
		return params.Reply(nil, err)
	}
	return types.Success(true), nil
}

func (u *Provider) lookup(p map[string]interface{}, op string, fn func(string) interface{}) (*types.Result, error) {
	var args accountArgs
	if err := params.Decode(op, p, &args); err != nil {
		return params.Reply(nil, err)
	}
	return types.Success(fn(args.Username)), nil
}

func (u *Provider) deleteUser(p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	const op = "delete_user_and_data"
	var args accountArgs
	if err := params.Decode(op, p, &args); err != nil {
		return params.Reply(nil, err)
	}
	kctx, err := params.Caller(op, p, callCtx)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(u.kernel.DeleteUserAndData(kctx, args.Username, args.RemoveHome))
}

func (u *Provider) setPrimaryGroup(p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	const op = "set_primary_group"
	var args accountArgs
	if err := params.Decode(op, p, &args); err != nil {
		return params.Reply(nil, err)
	}
	kctx, err := params.Caller(op, p, callCtx)
	if err != nil {
		return params.Reply(nil, err)
	}
	if err := u.kernel.SetPrimaryGroup(kctx, args.Username, args.Group); err != nil {
		return params.Reply(nil, err)
	}
	return types.Success(true), nil
}

func (u *Provider) firstTimeSetup(p map[string]interface{}) (*types.Result, error) {
	var args accountArgs
	if err := params.Decode("first_time_setup", p, &args); err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(u.kernel.FirstTimeSetup(args.Username, args.Password, args.RootPassword))
}
