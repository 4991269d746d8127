package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
}

func TestLogCreatesFile(t *testing.T) {
	tree := vfs.NewTree(vfs.WithClock(fixedClock))
	core, logs := observer.New(zap.InfoLevel)
	l := New(tree, zap.New(core))

	_, err := l.Log("root", "useradd", "created user 'alice'")
	require.NoError(t, err)

	node, err := tree.Lookup(LogPath, true)
	require.NoError(t, err)
	assert.Equal(t, vfs.RootUser, node.Owner)
	assert.Equal(t, vfs.RootUser, node.Group)
	assert.Equal(t, uint32(LogMode), node.Mode)
	assert.Equal(t,
		"2024-05-01T09:30:00Z | USER: root | ACTION: useradd | DETAILS: created user 'alice'\n",
		node.Content)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "audit event", logs.All()[0].Message)
}

func TestLogAppends(t *testing.T) {
	tree := vfs.NewTree(vfs.WithClock(fixedClock))
	l := New(tree, nil)

	_, err := l.Log("alice", "sudo_exec", "ls")
	require.NoError(t, err)
	_, err = l.Log("bob", "login", "multi\nline")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(l.Read(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "USER: alice | ACTION: sudo_exec")
	assert.Contains(t, lines[1], "DETAILS: multi line")

	node, err := tree.Lookup(LogPath, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(LogMode), node.Mode, "append keeps the mode")
}

func TestLogRejectsDirectory(t *testing.T) {
	tree := vfs.NewTree()
	require.NoError(t, tree.CreateDirectory("/var", "root", "root", 0o755))
	require.NoError(t, tree.CreateDirectory(LogDir, "root", "root", 0o755))
	require.NoError(t, tree.CreateDirectory(LogPath, "root", "root", 0o755))

	_, err := New(tree, nil).Log("root", "x", "y")
	assert.Error(t, err)
}
