package permissions

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// AuditProvider appends to and reads the audit log.
type AuditProvider struct {
	kernel *kernel.Kernel
}

// NewAuditProvider creates an audit provider
func NewAuditProvider(k *kernel.Kernel) *AuditProvider {
	return &AuditProvider{kernel: k}
}

// Definition returns service metadata
func (a *AuditProvider) Definition() types.Service {
	return types.Service{
		ID:          "audit",
		Name:        "Audit Service",
		Description: "Security event log kept in /var/log/audit.log",
		Category:    types.CategorySecurity,
		Capabilities: []string{
			"log",
			"read",
		},
		Tools: []types.Tool{
			{
				ID:          "audit.log_event",
				Name:        "Log Event",
				Description: "Append an event to the audit log",
				Parameters: []types.Parameter{
					{Name: "user", Type: "string", Description: "User the event concerns", Required: true},
					{Name: "action", Type: "string", Description: "Event name", Required: true},
					{Name: "details", Type: "string", Description: "Free text", Required: false},
				},
				Returns: "object",
				Mutates: true,
			},
			{
				ID:          "audit.read_log",
				Name:        "Read Log",
				Description: "Full audit log (root only)",
				Parameters: []types.Parameter{
					{Name: params.UserContext, Type: "object", Description: "Acting user, when not supplied in the request context"},
				},
				Returns: "string",
			},
		},
	}
}

type eventArgs struct {
	User    string `mapstructure:"user"`
	Action  string `mapstructure:"action"`
	Details string `mapstructure:"details"`
}

// Execute runs an audit operation
func (a *AuditProvider) Execute(ctx context.Context, toolID string, p map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "audit.log_event":
		var args eventArgs
		if err := params.Decode("log_event", p, &args); err != nil {
			return params.Reply(nil, err)
		}
		return params.Reply(a.kernel.LogEvent(args.User, args.Action, args.Details))
	case "audit.read_log":
		kctx, err := params.Caller("read_audit_log", p, callCtx)
		if err != nil {
			return params.Reply(nil, err)
		}
		return params.Reply(a.kernel.AuditLog(kctx))
	default:
		return params.Unknown(toolID)
	}
}
