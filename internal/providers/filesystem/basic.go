package filesystem

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// BasicOps handles file content operations
type BasicOps struct {
	*FilesystemOps
}

// GetTools returns basic file operation tool definitions
func (b *BasicOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.read_file",
			Name:        "Read File",
			Description: "Read file contents",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				userContext,
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.write_file",
			Name:        "Write File",
			Description: "Create a file or replace its content, optionally appending",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "content", Type: "string", Description: "Data to write", Required: true},
				userContext,
				{Name: "append", Type: "boolean", Description: "Append instead of overwrite", Required: false},
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          "filesystem.remove",
			Name:        "Remove",
			Description: "Delete a file, symlink or directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Path to remove", Required: true},
				{Name: "recursive", Type: "boolean", Description: "Remove non-empty directories", Required: false},
				userContext,
			},
			Returns: "object",
			Mutates: true,
		},
	}
}

type writeArgs struct {
	Path    string `mapstructure:"path"`
	Content string `mapstructure:"content"`
	Append  bool   `mapstructure:"append"`
}

type removeArgs struct {
	Path      string `mapstructure:"path"`
	Recursive bool   `mapstructure:"recursive"`
}

// ReadFile returns file contents
func (b *BasicOps) ReadFile(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args pathArgs
	kctx, err := b.bind("read_file", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	content, err := b.Kernel.ReadFile(kctx, args.Path)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{
		"path":    kctx.Resolve(args.Path),
		"content": content,
		"size":    len(content),
	}, nil)
}

// WriteFile creates or overwrites a file
func (b *BasicOps) WriteFile(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args writeArgs
	kctx, err := b.bind("write_file", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	path, err := b.Kernel.WriteFile(kctx, args.Path, args.Content, args.Append)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{
		"written": true,
		"path":    path,
	}, nil)
}

// Remove deletes a node
func (b *BasicOps) Remove(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args removeArgs
	kctx, err := b.bind("remove", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	if err := b.Kernel.Remove(kctx, args.Path, args.Recursive); err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{
		"removed": true,
		"path":    kctx.Resolve(args.Path),
	}, nil)
}
