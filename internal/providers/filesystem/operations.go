package filesystem

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// OperationsOps handles node placement (rename, copy, links)
type OperationsOps struct {
	*FilesystemOps
}

// GetTools returns file operation tool definitions
func (o *OperationsOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.rename_node",
			Name:        "Rename Node",
			Description: "Move or rename a file or directory",
			Parameters: []types.Parameter{
				{Name: "old_path", Type: "string", Description: "Source path", Required: true},
				{Name: "new_path", Type: "string", Description: "Destination path or existing directory", Required: true},
				userContext,
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          "filesystem.copy",
			Name:        "Copy",
			Description: "Copy a file or directory tree",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination path or existing directory", Required: true},
				{Name: "recursive", Type: "boolean", Description: "Copy directories", Required: false},
				{Name: "preserve", Type: "boolean", Description: "Keep mode, mtime and, for root, ownership", Required: false},
				{Name: "force", Type: "boolean", Description: "Replace an existing destination", Required: false},
				userContext,
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          "filesystem.create_symlink",
			Name:        "Create Symlink",
			Description: "Create symbolic link",
			Parameters: []types.Parameter{
				{Name: "target", Type: "string", Description: "Target path, stored verbatim", Required: true},
				{Name: "link_path", Type: "string", Description: "Symlink path", Required: true},
				userContext,
			},
			Returns: "object",
			Mutates: true,
		},
	}
}

type renameArgs struct {
	OldPath string `mapstructure:"old_path"`
	NewPath string `mapstructure:"new_path"`
}

type copyArgs struct {
	Source             string `mapstructure:"source"`
	Destination        string `mapstructure:"destination"`
	kernel.CopyOptions `mapstructure:",squash"`
}

type symlinkArgs struct {
	Target   string `mapstructure:"target"`
	LinkPath string `mapstructure:"link_path"`
}

// RenameNode moves a node
func (o *OperationsOps) RenameNode(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args renameArgs
	kctx, err := o.bind("rename_node", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	final, err := o.Kernel.Rename(kctx, args.OldPath, args.NewPath)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{
		"moved":       true,
		"source":      kctx.Resolve(args.OldPath),
		"destination": final,
	}, nil)
}

// Copy duplicates a node under a new path owned by the caller
func (o *OperationsOps) Copy(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args copyArgs
	kctx, err := o.bind("copy", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	final, err := o.Kernel.Copy(kctx, args.Source, args.Destination, args.CopyOptions)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{
		"copied":      true,
		"source":      kctx.Resolve(args.Source),
		"destination": final,
	}, nil)
}

// CreateSymlink creates a symbolic link
func (o *OperationsOps) CreateSymlink(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args symlinkArgs
	kctx, err := o.bind("create_symlink", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	link, err := o.Kernel.CreateSymlink(kctx, args.Target, args.LinkPath)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{
		"created": true,
		"link":    link,
		"target":  args.Target,
	}, nil)
}
