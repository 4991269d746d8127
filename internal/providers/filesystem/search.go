package filesystem

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// SearchOps handles search operations
type SearchOps struct {
	*FilesystemOps
}

// GetTools returns search operation tool definitions
func (s *SearchOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.find",
			Name:        "Find",
			Description: "Find nodes by glob pattern (supports **)",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Root directory", Required: true},
				{Name: "pattern", Type: "string", Description: "Glob, e.g. '*.txt' or 'docs/**/*.md'", Required: false},
				userContext,
				{Name: "type", Type: "string", Description: "file, directory or symlink", Required: false},
				{Name: "max_results", Type: "number", Description: "Stop after this many matches", Required: false},
			},
			Returns: "array",
		},
	}
}

type findArgs struct {
	kernel.FindOptions `mapstructure:",squash"`

	Path string `mapstructure:"path"`
}

// Find searches a subtree
func (s *SearchOps) Find(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args findArgs
	kctx, err := s.bind("find", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	entries, err := s.Kernel.Find(kctx, args.Path, args.FindOptions)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{
		"matches": entries,
		"count":   len(entries),
	}, nil)
}
