package filesystem

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// DirectoryOps handles directory operations
type DirectoryOps struct {
	*FilesystemOps
}

// GetTools returns directory operation tool definitions
func (d *DirectoryOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.create_directory",
			Name:        "Create Directory",
			Description: "Create a directory, optionally with missing parents",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
				userContext,
				{Name: "parents", Type: "boolean", Description: "Create missing parents, succeed if present", Required: false},
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          "filesystem.list_directory",
			Name:        "List Directory",
			Description: "List the entries of a directory sorted by name",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
				userContext,
			},
			Returns: "array",
		},
		{
			ID:          "filesystem.calculate_size",
			Name:        "Calculate Size",
			Description: "Total content size of a subtree",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
				userContext,
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.disk_usage",
			Name:        "Disk Usage",
			Description: "Content size of the whole filesystem against its limit",
			Parameters:  []types.Parameter{userContext},
			Returns:     "object",
		},
	}
}

type mkdirArgs struct {
	Path    string `mapstructure:"path"`
	Parents bool   `mapstructure:"parents"`
}

// CreateDirectory creates a directory
func (d *DirectoryOps) CreateDirectory(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args mkdirArgs
	kctx, err := d.bind("create_directory", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	path, err := d.Kernel.CreateDirectory(kctx, args.Path, args.Parents)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{"created": true, "path": path}, nil)
}

// ListDirectory lists entries
func (d *DirectoryOps) ListDirectory(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args pathArgs
	kctx, err := d.bind("list_directory", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(d.Kernel.ListDirectory(kctx, args.Path))
}

// CalculateSize sums content under a path
func (d *DirectoryOps) CalculateSize(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args pathArgs
	kctx, err := d.bind("calculate_size", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	size, err := d.Kernel.CalculateSize(kctx, args.Path)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{
		"path": kctx.Resolve(args.Path),
		"size": size,
	}, nil)
}

// DiskUsage reports total consumption
func (d *DirectoryOps) DiskUsage(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	kctx, err := d.bind("disk_usage", p, callCtx, &struct{}{})
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(d.Kernel.DiskUsage(kctx), nil)
}
