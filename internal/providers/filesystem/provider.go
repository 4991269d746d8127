package filesystem

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// Provider serves the filesystem module.
type Provider struct {
	basic     *BasicOps
	directory *DirectoryOps
	nodes     *OperationsOps
	metadata  *MetadataOps
	search    *SearchOps
	state     *StateOps
}

// NewProvider creates the filesystem provider over k.
func NewProvider(k *kernel.Kernel) *Provider {
	ops := &FilesystemOps{Kernel: k}
	return &Provider{
		basic:     &BasicOps{FilesystemOps: ops},
		directory: &DirectoryOps{FilesystemOps: ops},
		nodes:     &OperationsOps{FilesystemOps: ops},
		metadata:  &MetadataOps{FilesystemOps: ops},
		search:    &SearchOps{FilesystemOps: ops},
		state:     &StateOps{FilesystemOps: ops},
	}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	var tools []types.Tool
	tools = append(tools, p.basic.GetTools()...)
	tools = append(tools, p.directory.GetTools()...)
	tools = append(tools, p.nodes.GetTools()...)
	tools = append(tools, p.metadata.GetTools()...)
	tools = append(tools, p.search.GetTools()...)
	tools = append(tools, p.state.GetTools()...)

	return types.Service{
		ID:          "filesystem",
		Name:        "Filesystem Service",
		Description: "Permission checked operations on the virtual filesystem",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"read",
			"write",
			"create",
			"delete",
			"list",
			"stat",
			"move",
			"chmod",
			"find",
			"snapshot",
		},
		Tools: tools,
	}
}

// Execute runs a filesystem operation
func (p *Provider) Execute(ctx context.Context, toolID string, args map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	switch toolID {
	// Content
	case "filesystem.read_file":
		return p.basic.ReadFile(ctx, args, callCtx)
	case "filesystem.write_file":
		return p.basic.WriteFile(ctx, args, callCtx)
	case "filesystem.remove":
		return p.basic.Remove(ctx, args, callCtx)

	// Directories
	case "filesystem.create_directory":
		return p.directory.CreateDirectory(ctx, args, callCtx)
	case "filesystem.list_directory":
		return p.directory.ListDirectory(ctx, args, callCtx)
	case "filesystem.calculate_size":
		return p.directory.CalculateSize(ctx, args, callCtx)
	case "filesystem.disk_usage":
		return p.directory.DiskUsage(ctx, args, callCtx)

	// Placement
	case "filesystem.rename_node":
		return p.nodes.RenameNode(ctx, args, callCtx)
	case "filesystem.copy":
		return p.nodes.Copy(ctx, args, callCtx)
	case "filesystem.create_symlink":
		return p.nodes.CreateSymlink(ctx, args, callCtx)

	// Metadata
	case "filesystem.get_node":
		return p.metadata.GetNode(ctx, args, callCtx)
	case "filesystem.validate_path":
		return p.metadata.ValidatePath(ctx, args, callCtx)
	case "filesystem.stat":
		return p.metadata.Stat(ctx, args, callCtx)
	case "filesystem.chmod":
		return p.metadata.Chmod(ctx, args, callCtx)
	case "filesystem.chown":
		return p.metadata.Chown(ctx, args, callCtx)
	case "filesystem.chgrp":
		return p.metadata.Chgrp(ctx, args, callCtx)

	// Search
	case "filesystem.find":
		return p.search.Find(ctx, args, callCtx)

	// Snapshots
	case "filesystem.save_state_to_json":
		return p.state.SaveState(ctx, args, callCtx)
	case "filesystem.load_state_from_json":
		return p.state.LoadState(ctx, args, callCtx)

	default:
		return params.Unknown(toolID)
	}
}
