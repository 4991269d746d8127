package filesystem

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// StateOps handles snapshot import and export
type StateOps struct {
	*FilesystemOps
}

// GetTools returns snapshot tool definitions
func (s *StateOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.save_state_to_json",
			Name:        "Save State",
			Description: "Serialize the filesystem tree (root only)",
			Parameters:  []types.Parameter{userContext},
			Returns:     "string",
		},
		{
			ID:          "filesystem.load_state_from_json",
			Name:        "Load State",
			Description: "Replace the filesystem, or the whole state, from a snapshot document (root only)",
			Parameters: []types.Parameter{
				{Name: "json_string", Type: "string", Description: "Tree or full state document", Required: true},
				userContext,
			},
			Returns: "boolean",
			Mutates: true,
		},
	}
}

type loadArgs struct {
	JSON string `mapstructure:"json_string"`
}

// SaveState exports the tree document
func (s *StateOps) SaveState(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	kctx, err := s.bind("save_state_to_json", p, callCtx, &struct{}{})
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(s.Kernel.SaveStateToJSON(kctx))
}

// LoadState imports a snapshot document
func (s *StateOps) LoadState(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args loadArgs
	kctx, err := s.bind("load_state_from_json", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	if err := s.Kernel.LoadStateFromJSON(kctx, args.JSON); err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(true, nil)
}
