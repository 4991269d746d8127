package session

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// AliasProvider serves the alias table.
type AliasProvider struct {
	kernel *kernel.Kernel
}

// NewAliasProvider creates an alias provider
func NewAliasProvider(k *kernel.Kernel) *AliasProvider {
	return &AliasProvider{kernel: k}
}

// Definition returns service metadata
func (a *AliasProvider) Definition() types.Service {
	name := types.Parameter{Name: "name", Type: "string", Description: "Alias name", Required: true}
	return types.Service{
		ID:           "alias",
		Name:         "Alias Service",
		Description:  "Command aliases with bounded expansion",
		Category:     types.CategorySession,
		Capabilities: []string{"set", "remove", "resolve"},
		Tools: []types.Tool{
			{
				ID:          "alias.set_alias",
				Name:        "Set Alias",
				Description: "Define or replace an alias",
				Parameters: []types.Parameter{
					name,
					{Name: "value", Type: "string", Description: "Replacement text", Required: true},
				},
				Returns: "boolean",
				Mutates: true,
			},
			{
				ID:          "alias.remove_alias",
				Name:        "Remove Alias",
				Description: "Delete an alias; false when it did not exist",
				Parameters:  []types.Parameter{name},
				Returns:     "boolean",
				Mutates:     true,
			},
			{
				ID:          "alias.get_alias",
				Name:        "Get Alias",
				Description: "Replacement text of an alias, or null",
				Parameters:  []types.Parameter{name},
				Returns:     "string",
			},
			{
				ID:          "alias.get_all_aliases",
				Name:        "All Aliases",
				Description: "The whole alias table",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "alias.load_aliases",
				Name:        "Load Aliases",
				Description: "Replace the alias table",
				Parameters: []types.Parameter{
					{Name: "alias_dict", Type: "object", Description: "Alias table", Required: true},
				},
				Returns: "boolean",
				Mutates: true,
			},
			{
				ID:          "alias.resolve_alias",
				Name:        "Resolve Alias",
				Description: "Expand the leading alias of a command line",
				Parameters: []types.Parameter{
					{Name: "command_line", Type: "string", Description: "Command line", Required: true},
				},
				Returns: "string",
			},
		},
	}
}

type aliasArgs struct {
	Name        string            `mapstructure:"name"`
	Value       string            `mapstructure:"value"`
	Table       map[string]string `mapstructure:"alias_dict"`
	CommandLine string            `mapstructure:"command_line"`
}

// Execute runs an alias operation
func (a *AliasProvider) Execute(ctx context.Context, toolID string, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	aliases := a.kernel.Session().Aliases
	var args aliasArgs
	if err := params.Decode(toolID, p, &args); err != nil {
		return params.Reply(nil, err)
	}

	switch toolID {
	case "alias.set_alias":
		if err := aliases.Set(args.Name, args.Value); err != nil {
			return params.Reply(nil, err)
		}
		return types.Success(true), nil
	case "alias.remove_alias":
		return types.Success(aliases.Remove(args.Name)), nil
	case "alias.get_alias":
		if value, ok := aliases.Get(args.Name); ok {
			return types.Success(value), nil
		}
		return types.Success(nil), nil
	case "alias.get_all_aliases":
		return types.Success(aliases.All()), nil
	case "alias.load_aliases":
		aliases.Load(args.Table)
		return types.Success(true), nil
	case "alias.resolve_alias":
		return params.Reply(aliases.Expand(args.CommandLine))
	default:
		return params.Unknown(toolID)
	}
}
