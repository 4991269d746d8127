package session

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// HistoryProvider serves the command history.
type HistoryProvider struct {
	kernel *kernel.Kernel
}

// NewHistoryProvider creates a history provider
func NewHistoryProvider(k *kernel.Kernel) *HistoryProvider {
	return &HistoryProvider{kernel: k}
}

// Definition returns service metadata
func (h *HistoryProvider) Definition() types.Service {
	return types.Service{
		ID:           "history",
		Name:         "History Service",
		Description:  "Bounded command history",
		Category:     types.CategorySession,
		Capabilities: []string{"add", "list", "clear"},
		Tools: []types.Tool{
			{
				ID:          "history.add",
				Name:        "Add Command",
				Description: "Record a command; blanks and repeats of the last entry are skipped",
				Parameters: []types.Parameter{
					{Name: "command", Type: "string", Description: "Command line", Required: true},
				},
				Returns: "boolean",
				Mutates: true,
			},
			{
				ID:          "history.get_full_history",
				Name:        "Get History",
				Description: "Every recorded command, oldest first",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "history.clear_history",
				Name:        "Clear History",
				Description: "Forget every command",
				Parameters:  []types.Parameter{},
				Returns:     "boolean",
				Mutates:     true,
			},
			{
				ID:          "history.set_history",
				Name:        "Set History",
				Description: "Replace the history, keeping the newest entries",
				Parameters: []types.Parameter{
					{Name: "new_history", Type: "array", Description: "Commands, oldest first", Required: true},
				},
				Returns: "boolean",
				Mutates: true,
			},
		},
	}
}

type historyArgs struct {
	Command    string   `mapstructure:"command"`
	NewHistory []string `mapstructure:"new_history"`
}

// Execute runs a history operation
func (h *HistoryProvider) Execute(ctx context.Context, toolID string, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	history := h.kernel.Session().History
	var args historyArgs
	if err := params.Decode(toolID, p, &args); err != nil {
		return params.Reply(nil, err)
	}

	switch toolID {
	case "history.add":
		return types.Success(history.Add(args.Command)), nil
	case "history.get_full_history":
		return types.Success(history.Entries()), nil
	case "history.clear_history":
		history.Clear()
		return types.Success(true), nil
	case "history.set_history":
		history.Set(args.NewHistory)
		return types.Success(true), nil
	default:
		return params.Unknown(toolID)
	}
}
