package kernel

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/audit"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/sudo"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
)

// record writes an audit event. A failure to audit never fails the
// operation that produced it.
func (k *Kernel) record(user, action, details string) {
	if _, err := k.audit.Log(user, action, details); err != nil {
		k.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

// LogEvent appends an event from the external layer to the audit log.
func (k *Kernel) LogEvent(user, action, details string) (audit.Event, error) {
	if action == "" {
		return audit.Event{}, errs.Newf(errs.KindInvalidArgument, "log_event", "", "action is required")
	}
	ev, err := k.audit.Log(user, action, details)
	if err != nil {
		return ev, errs.Annotate(err, "log_event")
	}
	return ev, nil
}

// AuditLog returns the audit log content to root.
func (k *Kernel) AuditLog(ctx Context) (string, error) {
	if err := requireRoot("read_audit_log", ctx); err != nil {
		return "", err
	}
	return k.audit.Read(), nil
}

// CanUserRunCommand evaluates /etc/sudoers for username. A missing or
// unreadable policy denies everyone but root. The decision is audited.
func (k *Kernel) CanUserRunCommand(username, command string) bool {
	policy := ""
	if node, err := k.tree.Lookup(sudo.SudoersPath, true); err == nil && node.IsFile() {
		policy = node.Content
	}
	allowed := sudo.CanRunCommand(policy, username, k.groups.GroupsForUser(username), command)

	action := "sudo_denied"
	if allowed {
		action = "sudo_allowed"
	}
	k.record(username, action, "command="+command)
	return allowed
}

// Sudo returns the sudo credential timestamps.
func (k *Kernel) Sudo() *sudo.Timestamps {
	return k.sudo
}
