package vfs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tree := NewTree(WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	require.NoError(t, tree.CreateDirectory("/home", RootUser, RootUser, DefaultDirMode))
	require.NoError(t, tree.CreateDirectory("/home/alice", "alice", "alice", DefaultDirMode))
	return tree
}

func TestNewTreeRoot(t *testing.T) {
	tree := NewTree()
	root := tree.Root()
	assert.True(t, root.IsDir())
	assert.Equal(t, RootUser, root.Owner)
	assert.Equal(t, RootUser, root.Group)
	assert.Equal(t, DefaultDirMode, root.Mode)
}

func TestCreateFileAndLookup(t *testing.T) {
	tree := newTestTree(t)

	require.NoError(t, tree.CreateFile("/home/alice/note.txt", "hi", "alice", "alice", 0o644, false))

	node, err := tree.Lookup("/home/alice/note.txt", true)
	require.NoError(t, err)
	assert.True(t, node.IsFile())
	assert.Equal(t, "hi", node.Content)
	assert.Equal(t, "alice", node.Owner)
	assert.Equal(t, uint32(0o644), node.Mode)
}

func TestCreateFileErrors(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateFile("/home/alice/a", "1", "alice", "alice", 0o644, false))

	err := tree.CreateFile("/home/alice/a", "2", "alice", "alice", 0o644, false)
	assert.True(t, errs.Is(err, errs.KindAlreadyExists))

	err = tree.CreateFile("/missing/a", "x", "alice", "alice", 0o644, false)
	assert.True(t, errs.Is(err, errs.KindParentNotFound))

	err = tree.CreateFile("/home/alice/a/b", "x", "alice", "alice", 0o644, false)
	assert.True(t, errs.Is(err, errs.KindNotADirectory))

	err = tree.CreateFile("/home/alice", "x", "alice", "alice", 0o644, true)
	assert.True(t, errs.Is(err, errs.KindIsADirectory))
}

func TestCreateFileOverwrite(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateFile("/home/alice/a", "1", "alice", "alice", 0o600, false))
	require.NoError(t, tree.CreateFile("/home/alice/a", "22", "bob", "bob", 0o644, true))

	node, err := tree.Lookup("/home/alice/a", true)
	require.NoError(t, err)
	assert.Equal(t, "22", node.Content)
	assert.Equal(t, "alice", node.Owner)
	assert.Equal(t, uint32(0o600), node.Mode)
}

func TestCreateDirectoryUpdatesParentMTime(t *testing.T) {
	tree := newTestTree(t)
	home, err := tree.Lookup("/home/alice", true)
	require.NoError(t, err)
	before := home.MTime

	require.NoError(t, tree.CreateDirectory("/home/alice/docs", "alice", "alice", DefaultDirMode))
	assert.True(t, home.MTime.After(before))

	err = tree.CreateDirectory("/home/alice/docs", "alice", "alice", DefaultDirMode)
	assert.True(t, errs.Is(err, errs.KindAlreadyExists))
}

func TestOverwriteUpdatesParentMTime(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateFile("/home/alice/note.txt", "v1", "alice", "alice", 0o644, false))
	home, err := tree.Lookup("/home/alice", true)
	require.NoError(t, err)

	before := home.MTime
	require.NoError(t, tree.CreateFile("/home/alice/note.txt", "v2", "alice", "alice", 0o644, true))
	assert.True(t, home.MTime.After(before))

	require.NoError(t, tree.CreateSymlink("/home/alice/link", "note.txt", "alice", "alice"))
	before = home.MTime
	require.NoError(t, tree.SetContent("/home/alice/link", "v3"))
	assert.True(t, home.MTime.After(before))

	note, err := tree.Lookup("/home/alice/note.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "v3", note.Content)
	assert.Equal(t, home.MTime, note.MTime)
}

func TestSymlinkResolution(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateDirectory("/data", RootUser, RootUser, DefaultDirMode))
	require.NoError(t, tree.CreateFile("/data/f", "payload", RootUser, RootUser, 0o644, false))
	require.NoError(t, tree.CreateSymlink("/home/alice/abs", "/data", "alice", "alice"))
	require.NoError(t, tree.CreateSymlink("/home/alice/rel", "../../data/f", "alice", "alice"))

	node, err := tree.Lookup("/home/alice/abs/f", false)
	require.NoError(t, err)
	assert.Equal(t, "payload", node.Content)

	res, err := tree.Walk("/home/alice/abs/f", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "/data/f", res.Path)

	link, err := tree.Lookup("/home/alice/rel", false)
	require.NoError(t, err)
	assert.True(t, link.IsSymlink())

	target, err := tree.Lookup("/home/alice/rel", true)
	require.NoError(t, err)
	assert.Equal(t, "payload", target.Content)
}

func TestSymlinkCycleDetected(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateSymlink("/a", "/b", RootUser, RootUser))
	require.NoError(t, tree.CreateSymlink("/b", "/a", RootUser, RootUser))

	_, err := tree.Lookup("/a", true)
	assert.True(t, errs.Is(err, errs.KindTooManySymbolicLinks))

	_, err = tree.Lookup("/a/x", false)
	assert.True(t, errs.Is(err, errs.KindTooManySymbolicLinks))

	// the link itself is still inspectable
	link, err := tree.Lookup("/a", false)
	require.NoError(t, err)
	assert.Equal(t, "/b", link.Target)
}

func TestWalkRequiresExecuteOnAncestors(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateDirectory("/home/alice/private", "alice", "alice", 0o700))
	require.NoError(t, tree.CreateFile("/home/alice/private/s", "x", "alice", "alice", 0o644, false))

	bob := Identity{User: "bob", Groups: []string{"bob"}}
	_, err := tree.Walk("/home/alice/private/s", true, &bob)
	require.Error(t, err)
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindPermissionDenied, e.Kind)
	assert.Equal(t, "/home/alice/private", e.Path)
	assert.Equal(t, "execute", e.Capability)

	alice := Identity{User: "alice", Groups: []string{"alice"}}
	_, err = tree.Walk("/home/alice/private/s", true, &alice)
	assert.NoError(t, err)
}

func TestRemove(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateDirectory("/home/alice/d", "alice", "alice", DefaultDirMode))
	require.NoError(t, tree.CreateFile("/home/alice/d/f", "x", "alice", "alice", 0o644, false))

	err := tree.Remove("/home/alice/d", false)
	assert.True(t, errs.Is(err, errs.KindDirectoryNotEmpty))

	require.NoError(t, tree.Remove("/home/alice/d", true))
	_, err = tree.Lookup("/home/alice/d", true)
	assert.True(t, errs.Is(err, errs.KindNotFound))

	err = tree.Remove("/", true)
	assert.True(t, errs.Is(err, errs.KindInvariantViolation))

	err = tree.Remove("/home/alice/nothing", false)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestRemoveSymlinkKeepsTarget(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateFile("/target", "x", RootUser, RootUser, 0o644, false))
	require.NoError(t, tree.CreateSymlink("/link", "/target", RootUser, RootUser))

	require.NoError(t, tree.Remove("/link", false))
	_, err := tree.Lookup("/target", true)
	assert.NoError(t, err)
}

func TestMove(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateFile("/home/alice/a.txt", "x", "alice", "alice", 0o644, false))
	require.NoError(t, tree.CreateDirectory("/home/alice/dir", "alice", "alice", DefaultDirMode))

	dst, err := tree.Move("/home/alice/a.txt", "/home/alice/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "/home/alice/b.txt", dst)

	dst, err = tree.Move("/home/alice/b.txt", "/home/alice/dir")
	require.NoError(t, err)
	assert.Equal(t, "/home/alice/dir/b.txt", dst)

	node, err := tree.Lookup("/home/alice/dir/b.txt", true)
	require.NoError(t, err)
	assert.Equal(t, "x", node.Content)

	require.NoError(t, tree.CreateFile("/home/alice/c.txt", "y", "alice", "alice", 0o644, false))
	_, err = tree.Move("/home/alice/c.txt", "/home/alice/dir/b.txt")
	assert.True(t, errs.Is(err, errs.KindAlreadyExists))
}

func TestMoveIntoOwnSubtreeRejected(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateDirectory("/a", RootUser, RootUser, DefaultDirMode))
	require.NoError(t, tree.CreateDirectory("/a/b", RootUser, RootUser, DefaultDirMode))
	before := tree.Root().Clone()

	_, err := tree.Move("/a", "/a/b")
	assert.True(t, errs.Is(err, errs.KindInvariantViolation))

	_, err = tree.Move("/a", "/a/new")
	assert.True(t, errs.Is(err, errs.KindInvariantViolation))

	_, err = tree.Move("/", "/x")
	assert.True(t, errs.Is(err, errs.KindInvariantViolation))

	assert.Equal(t, before, tree.Root())
}

func TestMoveUpdatesParents(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateDirectory("/src", RootUser, RootUser, DefaultDirMode))
	require.NoError(t, tree.CreateDirectory("/dst", RootUser, RootUser, DefaultDirMode))
	require.NoError(t, tree.CreateFile("/src/f", "x", RootUser, RootUser, 0o644, false))

	src, _ := tree.Lookup("/src", true)
	dst, _ := tree.Lookup("/dst", true)
	srcBefore, dstBefore := src.MTime, dst.MTime

	_, err := tree.Move("/src/f", "/dst/f")
	require.NoError(t, err)
	assert.True(t, src.MTime.After(srcBefore))
	assert.True(t, dst.MTime.After(dstBefore))
	assert.Empty(t, src.Children)
}

func TestCalculateSize(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateFile("/home/alice/a", "12345", "alice", "alice", 0o644, false))
	require.NoError(t, tree.CreateDirectory("/home/alice/d", "alice", "alice", DefaultDirMode))
	require.NoError(t, tree.CreateFile("/home/alice/d/b", "123", "alice", "alice", 0o644, false))
	require.NoError(t, tree.CreateSymlink("/home/alice/l", "/home/alice/a", "alice", "alice"))

	size, err := tree.CalculateSize("/home/alice")
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)

	size, err = tree.CalculateSize("/home/alice/d/b")
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)
}

func TestChmodChownChgrp(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateDirectory("/home/alice/d", "alice", "alice", DefaultDirMode))
	require.NoError(t, tree.CreateFile("/home/alice/d/f", "x", "alice", "alice", 0o644, false))

	require.NoError(t, tree.Chmod("/home/alice/d/f", 0o600))
	err := tree.Chmod("/home/alice/d/f", 0o1777)
	assert.True(t, errs.Is(err, errs.KindInvalidArgument))

	require.NoError(t, tree.Chown("/home/alice/d", "bob", true))
	require.NoError(t, tree.Chgrp("/home/alice/d", "staff", false))

	dir, _ := tree.Lookup("/home/alice/d", true)
	file, _ := tree.Lookup("/home/alice/d/f", true)
	assert.Equal(t, "bob", dir.Owner)
	assert.Equal(t, "bob", file.Owner)
	assert.Equal(t, "staff", dir.Group)
	assert.Equal(t, "alice", file.Group)
	assert.Equal(t, uint32(0o600), file.Mode)
}

func TestVisitOrder(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateFile("/home/alice/b", "", "alice", "alice", 0o644, false))
	require.NoError(t, tree.CreateFile("/home/alice/a", "", "alice", "alice", 0o644, false))

	var paths []string
	require.NoError(t, tree.Visit("/home", true, func(p string, _ *Node) error {
		paths = append(paths, p)
		return nil
	}))
	assert.Equal(t, []string{"/home", "/home/alice", "/home/alice/a", "/home/alice/b"}, paths)
	assert.Equal(t, 5, tree.CountNodes())
}

func TestCloneIsIndependent(t *testing.T) {
	tree := newTestTree(t)
	cp := tree.Clone()
	require.NoError(t, tree.CreateFile("/home/alice/x", "x", "alice", "alice", 0o644, false))

	_, err := cp.Lookup("/home/alice/x", true)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestCopy(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, tree.CreateDirectory("/home/alice/src", "alice", "alice", 0o750))
	require.NoError(t, tree.CreateFile("/home/alice/src/a.txt", "abc", "alice", "alice", 0o600, false))

	retagged := 0
	got, err := tree.Copy("/home/alice/src", "/home/alice/dst", false, func(n *Node) {
		n.Owner = "bob"
		retagged++
	})
	require.NoError(t, err)
	assert.Equal(t, "/home/alice/dst", got)
	assert.Equal(t, 2, retagged)

	cp, err := tree.Lookup("/home/alice/dst/a.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "abc", cp.Content)
	assert.Equal(t, "bob", cp.Owner)
	assert.Equal(t, uint32(0o600), cp.Mode)

	orig, err := tree.Lookup("/home/alice/src/a.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", orig.Owner)
	orig.Content = "changed"
	assert.Equal(t, "abc", cp.Content)

	_, err = tree.Copy("/home/alice/src", "/home/alice/dst", false, nil)
	assert.True(t, errs.Is(err, errs.KindAlreadyExists))

	_, err = tree.Copy("/home/alice/src", "/home/alice/src/inner", false, nil)
	assert.True(t, errs.Is(err, errs.KindInvariantViolation))

	size, err := tree.CalculateSize("/home/alice")
	require.NoError(t, err)
	assert.Equal(t, int64(len("changed")+len("abc")), size)
}
