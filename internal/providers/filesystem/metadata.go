package filesystem

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// MetadataOps handles node inspection and ownership
type MetadataOps struct {
	*FilesystemOps
}

// GetTools returns metadata operation tool definitions
func (m *MetadataOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.get_node",
			Name:        "Get Node",
			Description: "Return the node at path, or null when it does not exist",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Node path", Required: true},
				userContext,
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.validate_path",
			Name:        "Validate Path",
			Description: "Resolve a path and check its type and permissions without changing anything",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Path to validate", Required: true},
				userContext,
				{Name: "options", Type: "object", Description: "expectedType, permissions, allowMissing, noFollow", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.stat",
			Name:        "Stat",
			Description: "Detailed node metadata: mode string, size, digest, content type",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Node path", Required: true},
				userContext,
				{Name: "follow", Type: "boolean", Description: "Follow a terminal symlink (default true)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.chmod",
			Name:        "Change Mode",
			Description: "Set permission bits (octal string, e.g. \"750\")",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Node path", Required: true},
				{Name: "mode", Type: "string", Description: "Octal mode", Required: true},
				userContext,
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          "filesystem.chown",
			Name:        "Change Owner",
			Description: "Set the owning user (root only)",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Node path", Required: true},
				{Name: "owner", Type: "string", Description: "New owner", Required: true},
				userContext,
				{Name: "recursive", Type: "boolean", Description: "Apply to the whole subtree", Required: false},
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          "filesystem.chgrp",
			Name:        "Change Group",
			Description: "Set the owning group",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Node path", Required: true},
				{Name: "group", Type: "string", Description: "New group", Required: true},
				userContext,
				{Name: "recursive", Type: "boolean", Description: "Apply to the whole subtree", Required: false},
			},
			Returns: "object",
			Mutates: true,
		},
	}
}

type validateArgs struct {
	Path    string                 `mapstructure:"path"`
	Options map[string]interface{} `mapstructure:"options"`
}

type statArgs struct {
	Path   string `mapstructure:"path"`
	Follow bool   `mapstructure:"follow"`
}

type chmodArgs struct {
	Path string `mapstructure:"path"`
	Mode string `mapstructure:"mode"`
}

type ownerArgs struct {
	Path      string `mapstructure:"path"`
	Owner     string `mapstructure:"owner"`
	Group     string `mapstructure:"group"`
	Recursive bool   `mapstructure:"recursive"`
}

// GetNode returns a node view
func (m *MetadataOps) GetNode(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args pathArgs
	kctx, err := m.bind("get_node", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	node, err := m.Kernel.GetNode(kctx, args.Path)
	if err != nil || node == nil {
		return params.Reply(nil, err)
	}
	return params.Reply(node, nil)
}

// ValidatePath checks a path against options
func (m *MetadataOps) ValidatePath(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	const op = "validate_path"
	var args validateArgs
	kctx, err := m.bind(op, p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	var opts kernel.ValidateOptions
	if err := params.Decode(op, snakeKeys(args.Options), &opts); err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(m.Kernel.ValidatePath(kctx, args.Path, opts))
}

// Stat returns detailed metadata
func (m *MetadataOps) Stat(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	args := statArgs{Follow: true}
	kctx, err := m.bind("stat", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(m.Kernel.Stat(kctx, args.Path, args.Follow))
}

// Chmod changes permission bits
func (m *MetadataOps) Chmod(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	const op = "chmod"
	var args chmodArgs
	kctx, err := m.bind(op, p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	mode, err := parseMode(op, args.Path, args.Mode)
	if err != nil {
		return params.Reply(nil, err)
	}
	if err := m.Kernel.Chmod(kctx, args.Path, mode); err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{
		"path": kctx.Resolve(args.Path),
		"mode": mode,
	}, nil)
}

// Chown changes the owning user
func (m *MetadataOps) Chown(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args ownerArgs
	kctx, err := m.bind("chown", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	if err := m.Kernel.Chown(kctx, args.Path, args.Owner, args.Recursive); err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{
		"path":  kctx.Resolve(args.Path),
		"owner": args.Owner,
	}, nil)
}

// Chgrp changes the owning group
func (m *MetadataOps) Chgrp(ctx context.Context, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	var args ownerArgs
	kctx, err := m.bind("chgrp", p, callCtx, &args)
	if err != nil {
		return params.Reply(nil, err)
	}
	if err := m.Kernel.Chgrp(kctx, args.Path, args.Group, args.Recursive); err != nil {
		return params.Reply(nil, err)
	}
	return params.Reply(map[string]interface{}{
		"path":  kctx.Resolve(args.Path),
		"group": args.Group,
	}, nil)
}

// parseMode reads an octal mode. Numeric input arrives as its decimal
// rendering, so 755 and "755" both mean rwxr-xr-x.
func parseMode(op, path, s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "0o"), 8, 32)
	if err != nil {
		return 0, errs.Newf(errs.KindInvalidArgument, op, path, "invalid mode: '%s'", s)
	}
	return uint32(v), nil
}

// snakeKeys rewrites camelCase option keys (allowMissing) to the
// snake_case form the option structs are tagged with.
func snakeKeys(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		var b strings.Builder
		for i, r := range k {
			if unicode.IsUpper(r) {
				if i > 0 {
					b.WriteByte('_')
				}
				r = unicode.ToLower(r)
			}
			b.WriteRune(r)
		}
		out[b.String()] = v
	}
	return out
}
