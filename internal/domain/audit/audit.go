// Package audit appends security events to the audit log kept inside
// the VFS.
package audit

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/paths"
)

// Log locations and permissions.
const (
	LogDir  = paths.VarLog
	LogPath = paths.AuditLog
	LogMode = 0o640
)

// Event is one audit record.
type Event struct {
	Time    time.Time `json:"time"`
	User    string    `json:"user"`
	Action  string    `json:"action"`
	Details string    `json:"details"`
}

// Line renders the event the way it is stored in the log.
func (e Event) Line() string {
	return fmt.Sprintf("%s | USER: %s | ACTION: %s | DETAILS: %s\n",
		e.Time.UTC().Format(time.RFC3339), e.User, e.Action, flatten(e.Details))
}

// flatten keeps one event per line.
func flatten(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// Logger writes events to LogPath as root, bypassing permission checks.
type Logger struct {
	tree   *vfs.Tree
	logger *zap.Logger
}

// New creates an audit logger over tree. Events are mirrored to logger
// at info level; logger may be nil.
func New(tree *vfs.Tree, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{tree: tree, logger: logger.Named("audit")}
}

// Log appends one event. The log file and its directory are created
// root-owned when missing.
func (l *Logger) Log(user, action, details string) (Event, error) {
	ev := Event{Time: l.tree.Now(), User: user, Action: action, Details: details}

	if err := l.ensureDir(); err != nil {
		return ev, fmt.Errorf("audit: %w", err)
	}

	line := ev.Line()
	node, err := l.tree.Lookup(LogPath, true)
	switch {
	case err == nil && node.IsFile():
		err = l.tree.CreateFile(LogPath, node.Content+line, "", "", 0, true)
	case err == nil:
		return ev, fmt.Errorf("audit: %s is not a regular file", LogPath)
	default:
		err = l.tree.CreateFile(LogPath, line, vfs.RootUser, vfs.RootUser, LogMode, false)
	}
	if err != nil {
		return ev, fmt.Errorf("audit: %w", err)
	}

	l.logger.Info("audit event",
		zap.String("user", user),
		zap.String("action", action),
		zap.String("details", details))
	return ev, nil
}

func (l *Logger) ensureDir() error {
	for _, dir := range []string{paths.Var, LogDir} {
		if _, err := l.tree.Lookup(dir, true); err == nil {
			continue
		}
		if err := l.tree.CreateDirectory(dir, vfs.RootUser, vfs.RootUser, vfs.DefaultDirMode); err != nil {
			return err
		}
	}
	return nil
}

// Read returns the current contents of the log.
func (l *Logger) Read() string {
	node, err := l.tree.Lookup(LogPath, true)
	if err != nil || !node.IsFile() {
		return ""
	}
	return node.Content
}
