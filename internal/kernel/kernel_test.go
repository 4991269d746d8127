package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/codec"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/utils"
)

func testClock() func() time.Time {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	k, err := New(Config{PasswordIterations: 1000}, WithClock(testClock()))
	require.NoError(t, err)
	return k
}

// withUsers boots a kernel with passwordless alice and bob.
func withUsers(t *testing.T) *Kernel {
	t.Helper()
	k := newTestKernel(t)
	for _, name := range []string{"alice", "bob"} {
		_, err := k.RegisterUser(RootContext(), name, "", "")
		require.NoError(t, err)
	}
	return k
}

func treeBytes(t *testing.T, k *Kernel) string {
	t.Helper()
	data, err := codec.MarshalTree(k.tree)
	require.NoError(t, err)
	return string(data)
}

func TestBootLayout(t *testing.T) {
	k := newTestKernel(t)

	for _, p := range []string{"/home", "/etc", "/var/log", "/tmp", "/home/Guest"} {
		node, err := k.tree.Lookup(p, true)
		require.NoError(t, err, p)
		assert.True(t, node.IsDir(), p)
	}
	sudoers, err := k.tree.Lookup("/etc/sudoers", true)
	require.NoError(t, err)
	assert.Equal(t, uint32(0o440), sudoers.Mode)

	home, _ := k.tree.Lookup("/home/Guest", true)
	assert.Equal(t, "Guest", home.Owner)
	assert.True(t, k.UserExists("root"))
	assert.True(t, k.UserExists("Guest"))
	assert.Equal(t, "Guest", k.Session().Identity.Current())
}

func TestCreateThenGetNode(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")

	p, err := k.WriteFile(alice, "note.txt", "hi", false)
	require.NoError(t, err)
	assert.Equal(t, "/home/alice/note.txt", p)

	node, err := k.GetNode(alice, "/home/alice/note.txt")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, string(vfs.TypeFile), node.Type)
	require.NotNil(t, node.Content)
	assert.Equal(t, "hi", *node.Content)
	assert.Equal(t, "alice", node.Owner)
	assert.Equal(t, "alice", node.Group)
	assert.Equal(t, codec.Mode(0o644), node.Mode)
}

func TestGetNodeMissingIsNil(t *testing.T) {
	k := newTestKernel(t)
	node, err := k.GetNode(RootContext(), "/nope")
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestGetNodeHidesUnreadableContent(t *testing.T) {
	k := newTestKernel(t)
	root := RootContext()
	_, err := k.WriteFile(root, "/etc/secret", "s3cr3t", false)
	require.NoError(t, err)
	require.NoError(t, k.Chmod(root, "/etc/secret", 0o600))

	node, err := k.GetNode(k.ContextFor("Guest", ""), "/etc/secret")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Nil(t, node.Content)

	node, err = k.GetNode(root, "/etc/secret")
	require.NoError(t, err)
	require.NotNil(t, node.Content)
	assert.Equal(t, "s3cr3t", *node.Content)
}

func TestWriteDeniedForOtherUser(t *testing.T) {
	k := withUsers(t)
	_, err := k.WriteFile(k.ContextFor("alice", ""), "note.txt", "hi", false)
	require.NoError(t, err)

	bob := k.ContextFor("bob", "")
	_, err = k.WriteFile(bob, "/home/alice/note.txt", "mine now", false)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindPermissionDenied))

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, "write_file", e.Op)
	assert.Equal(t, "/home/alice/note.txt", e.Path)
	assert.Equal(t, "write", e.Capability)

	content, err := k.ReadFile(bob, "/home/alice/note.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", content)
}

func TestWriteFileAppendAndOverwrite(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")

	_, err := k.WriteFile(alice, "log", "a", false)
	require.NoError(t, err)
	_, err = k.WriteFile(alice, "log", "b", true)
	require.NoError(t, err)
	content, err := k.ReadFile(alice, "log")
	require.NoError(t, err)
	assert.Equal(t, "ab", content)

	_, err = k.WriteFile(alice, "log", "c", false)
	require.NoError(t, err)
	content, _ = k.ReadFile(alice, "log")
	assert.Equal(t, "c", content)

	_, err = k.WriteFile(alice, "/home/alice", "x", false)
	assert.True(t, errs.Is(err, errs.KindIsADirectory))

	_, err = k.WriteFile(alice, "/etc/new", "x", false)
	assert.True(t, errs.Is(err, errs.KindPermissionDenied))
}

func TestQuotaExceeded(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")
	alice.MaxVFSSize = k.tree.TotalSize() + 5

	_, err := k.WriteFile(alice, "f", "12345", false)
	require.NoError(t, err)

	before := treeBytes(t, k)
	_, err = k.WriteFile(alice, "f", "6", true)
	assert.True(t, errs.Is(err, errs.KindQuotaExceeded))
	_, err = k.WriteFile(alice, "g", "6", false)
	assert.True(t, errs.Is(err, errs.KindQuotaExceeded))
	assert.Equal(t, before, treeBytes(t, k))

	_, err = k.WriteFile(alice, "f", "123", false)
	assert.NoError(t, err, "shrinking a file is always allowed")

	usage := k.DiskUsage(alice)
	assert.Equal(t, alice.MaxVFSSize, usage.Limit)
	assert.Equal(t, int64(2), usage.Available)
}

func TestCreateDirectory(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")

	_, err := k.CreateDirectory(alice, "a/b/c", false)
	assert.True(t, errs.Is(err, errs.KindParentNotFound))

	p, err := k.CreateDirectory(alice, "a/b/c", true)
	require.NoError(t, err)
	assert.Equal(t, "/home/alice/a/b/c", p)

	_, err = k.CreateDirectory(alice, "a/b/c", true)
	assert.NoError(t, err)
	_, err = k.CreateDirectory(alice, "a/b/c", false)
	assert.True(t, errs.Is(err, errs.KindAlreadyExists))

	_, err = k.CreateDirectory(alice, "/etc/alice", true)
	assert.True(t, errs.Is(err, errs.KindPermissionDenied))
	_, err = k.CreateDirectory(RootContext(), "/", false)
	assert.True(t, errs.Is(err, errs.KindAlreadyExists))
}

func TestRecursiveRemoveIsAtomic(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")
	_, err := k.CreateDirectory(alice, "dir/sub", true)
	require.NoError(t, err)
	_, err = k.WriteFile(alice, "dir/top.txt", "1", false)
	require.NoError(t, err)
	_, err = k.WriteFile(alice, "dir/sub/locked", "2", false)
	require.NoError(t, err)
	require.NoError(t, k.Chown(RootContext(), "/home/alice/dir/sub/locked", "root", false))

	before := treeBytes(t, k)
	err = k.Remove(alice, "dir", true)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindPermissionDenied))
	assert.Equal(t, before, treeBytes(t, k))

	err = k.Remove(alice, "dir", false)
	assert.True(t, errs.Is(err, errs.KindDirectoryNotEmpty))

	require.NoError(t, k.Remove(RootContext(), "/home/alice/dir", true))
	_, err = k.tree.Lookup("/home/alice/dir", false)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestRemoveSymlinkKeepsTarget(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")
	_, err := k.WriteFile(alice, "target", "data", false)
	require.NoError(t, err)
	_, err = k.CreateSymlink(alice, "/home/alice/target", "link")
	require.NoError(t, err)

	content, err := k.ReadFile(alice, "link")
	require.NoError(t, err)
	assert.Equal(t, "data", content)

	require.NoError(t, k.Remove(alice, "link", false))
	content, err = k.ReadFile(alice, "target")
	require.NoError(t, err)
	assert.Equal(t, "data", content)

	assert.True(t, errs.Is(k.Remove(RootContext(), "/", true), errs.KindInvariantViolation))
}

func TestRenameIntoOwnSubtreeRejected(t *testing.T) {
	k := newTestKernel(t)
	root := RootContext()
	_, err := k.CreateDirectory(root, "/a/b", true)
	require.NoError(t, err)

	before := treeBytes(t, k)
	for _, dst := range []string{"/a/b", "/a/b/c"} {
		_, err = k.Rename(root, "/a", dst)
		require.Error(t, err, dst)
		assert.True(t, errs.Is(err, errs.KindInvariantViolation), dst)
	}
	assert.Equal(t, before, treeBytes(t, k))
}

func TestRename(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")
	_, err := k.WriteFile(alice, "a.txt", "x", false)
	require.NoError(t, err)
	_, err = k.CreateDirectory(alice, "docs", false)
	require.NoError(t, err)

	p, err := k.Rename(alice, "a.txt", "b.txt")
	require.NoError(t, err)
	assert.Equal(t, "/home/alice/b.txt", p)

	p, err = k.Rename(alice, "b.txt", "docs")
	require.NoError(t, err)
	assert.Equal(t, "/home/alice/docs/b.txt", p)

	_, err = k.Rename(alice, "docs/b.txt", "/tmp/b.txt")
	require.NoError(t, err)

	bob := k.ContextFor("bob", "")
	_, err = k.Rename(bob, "/home/alice/docs", "/tmp/docs")
	assert.True(t, errs.Is(err, errs.KindPermissionDenied))
}

func TestChmodChownChgrp(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")
	bob := k.ContextFor("bob", "")
	_, err := k.WriteFile(alice, "f", "x", false)
	require.NoError(t, err)

	require.NoError(t, k.Chmod(alice, "f", 0o600))
	assert.True(t, errs.Is(k.Chmod(bob, "/home/alice/f", 0o777), errs.KindPermissionDenied))
	assert.True(t, errs.Is(k.Chmod(alice, "f", 0o1777), errs.KindInvalidArgument))

	assert.True(t, errs.Is(k.Chown(alice, "f", "bob", false), errs.KindPermissionDenied))
	assert.True(t, errs.Is(k.Chown(RootContext(), "/home/alice/f", "nobody_here", false), errs.KindNotFound))

	assert.True(t, errs.Is(k.Chgrp(alice, "f", "bob", false), errs.KindPermissionDenied))
	require.NoError(t, k.AddUserToGroup(RootContext(), "alice", "bob"))
	alice = k.ContextFor("alice", "")
	require.NoError(t, k.Chgrp(alice, "f", "bob", false))

	node, err := k.tree.Lookup("/home/alice/f", true)
	require.NoError(t, err)
	assert.Equal(t, uint32(0o600), node.Mode)
	assert.Equal(t, "bob", node.Group)

	log, err := k.AuditLog(RootContext())
	require.NoError(t, err)
	assert.Contains(t, log, "USER: alice | ACTION: chmod")
	assert.Contains(t, log, "ACTION: chgrp")
}

func TestValidatePath(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")
	_, err := k.WriteFile(alice, "f", "x", false)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		opts    ValidateOptions
		kind    errs.Kind
		resolve string
	}{
		{"file ok", "f", ValidateOptions{ExpectedType: "file", Permissions: []string{"read", "write"}}, errs.KindUnknown, "/home/alice/f"},
		{"expected directory", "f", ValidateOptions{ExpectedType: "directory"}, errs.KindNotADirectory, ""},
		{"expected file", "/home", ValidateOptions{ExpectedType: "file"}, errs.KindIsADirectory, ""},
		{"no write on etc", "/etc", ValidateOptions{Permissions: []string{"write"}}, errs.KindPermissionDenied, ""},
		{"missing", "nope", ValidateOptions{}, errs.KindNotFound, ""},
		{"allow missing", "nope", ValidateOptions{AllowMissing: true}, errs.KindUnknown, "/home/alice/nope"},
		{"bad capability", "f", ValidateOptions{Permissions: []string{"fly"}}, errs.KindInvalidArgument, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := k.ValidatePath(alice, tt.path, tt.opts)
			if tt.kind != errs.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tt.kind, errs.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.resolve, got.ResolvedPath)
		})
	}
}

func TestListStatFind(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")
	_, err := k.CreateDirectory(alice, "docs/deep", true)
	require.NoError(t, err)
	for _, f := range []string{"docs/a.txt", "docs/deep/b.txt", "docs/c.md"} {
		_, err := k.WriteFile(alice, f, "hi", false)
		require.NoError(t, err)
	}

	entries, err := k.ListDirectory(alice, "docs")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"a.txt", "c.md", "deep"}, names)
	assert.Equal(t, "-rw-r--r--", entries[0].ModeString)

	_, err = k.ListDirectory(alice, "docs/a.txt")
	assert.True(t, errs.Is(err, errs.KindNotADirectory))

	info, err := k.Stat(alice, "docs/a.txt", true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Size)
	assert.Contains(t, info.ContentType, "text/plain")
	assert.Equal(t, utils.DefaultHasher().HashString("hi"), info.Digest)

	found, err := k.Find(alice, "docs", FindOptions{Pattern: "*.txt"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "/home/alice/docs/a.txt", found[0].Path)
	assert.Equal(t, "/home/alice/docs/deep/b.txt", found[1].Path)

	found, err = k.Find(alice, "docs", FindOptions{Pattern: "deep/*"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = k.Find(alice, "docs", FindOptions{Type: "directory"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "deep", found[0].Name)

	_, err = k.Find(alice, "docs", FindOptions{Pattern: "["})
	assert.True(t, errs.Is(err, errs.KindInvalidArgument))

	size, err := k.CalculateSize(alice, "docs")
	require.NoError(t, err)
	assert.Equal(t, int64(6), size)
}

func TestCalculateSizeNeedsReadableSubtree(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")
	_, err := k.CreateDirectory(alice, "d/private", true)
	require.NoError(t, err)
	require.NoError(t, k.Chmod(alice, "d/private", 0o700))

	_, err = k.CalculateSize(k.ContextFor("bob", ""), "/home/alice/d")
	assert.True(t, errs.Is(err, errs.KindPermissionDenied))
}

func TestPasswordlessAccountsAcceptAnyCandidate(t *testing.T) {
	k := withUsers(t)
	for _, candidate := range []string{"", "anything", "  "} {
		assert.True(t, k.VerifyPassword("alice", candidate))
	}
	assert.False(t, k.VerifyPassword("ghost", ""))
	assert.False(t, k.HasPassword("alice"))
}

func TestChangePassword(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")

	require.NoError(t, k.ChangePassword(alice, "alice", "", "pw"))
	assert.True(t, k.VerifyPassword("alice", "pw"))
	assert.False(t, k.VerifyPassword("alice", "nope"))

	err := k.ChangePassword(alice, "alice", "wrong", "next")
	assert.True(t, errs.Is(err, errs.KindAuthenticationFailed))

	err = k.ChangePassword(k.ContextFor("bob", ""), "alice", "pw", "x")
	assert.True(t, errs.Is(err, errs.KindPermissionDenied))

	require.NoError(t, k.ChangePassword(RootContext(), "alice", "", "reset"))
	assert.True(t, k.VerifyPassword("alice", "reset"))
}

func TestAccountAdministrationRequiresRoot(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")

	_, err := k.RegisterUser(alice, "carol", "", "")
	assert.True(t, errs.Is(err, errs.KindPermissionDenied))
	assert.True(t, errs.Is(k.CreateGroup(alice, "staff"), errs.KindPermissionDenied))
	_, err = k.SaveStateToJSON(alice)
	assert.True(t, errs.Is(err, errs.KindPermissionDenied))

	_, err = k.RegisterUser(RootContext(), "alice", "", "")
	assert.True(t, errs.Is(err, errs.KindAlreadyExists))
	_, err = k.RegisterUser(RootContext(), "bad name", "", "")
	assert.True(t, errs.Is(err, errs.KindInvalidName))
}

func TestGroups(t *testing.T) {
	k := withUsers(t)
	root := RootContext()

	require.NoError(t, k.CreateGroup(root, "staff"))
	require.NoError(t, k.AddUserToGroup(root, "alice", "staff"))
	assert.Equal(t, []string{"alice", "staff"}, k.GetGroupsForUser("alice"))
	assert.Equal(t, []string{"alice", "staff"}, k.UserGroupsMap()["alice"])

	assert.True(t, errs.Is(k.DeleteGroup(root, "alice"), errs.KindInvariantViolation))
	assert.True(t, errs.Is(k.AddUserToGroup(root, "ghost", "staff"), errs.KindNotFound))

	require.NoError(t, k.RemoveUserFromGroup(root, "alice", "staff"))
	require.NoError(t, k.DeleteGroup(root, "staff"))
	assert.False(t, k.GroupExists("staff"))
}

func TestDeleteUserAndData(t *testing.T) {
	k := withUsers(t)
	root := RootContext()
	require.NoError(t, k.CreateGroup(root, "staff"))
	require.NoError(t, k.AddUserToGroup(root, "bob", "staff"))
	_, err := k.WriteFile(k.ContextFor("bob", ""), "/tmp/bobs", "x", false)
	require.NoError(t, err)

	res, err := k.DeleteUserAndData(root, "bob", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"staff"}, res.Groups)
	assert.Equal(t, []string{"bob"}, res.GroupsDeleted)
	assert.False(t, k.UserExists("bob"))
	assert.False(t, k.GroupExists("bob"))

	_, err = k.tree.Lookup("/home/bob", false)
	assert.True(t, errs.Is(err, errs.KindNotFound))

	node, err := k.tree.Lookup("/tmp/bobs", false)
	require.NoError(t, err)
	assert.Equal(t, "bob", node.Owner)

	_, err = k.DeleteUserAndData(root, "root", false)
	assert.True(t, errs.Is(err, errs.KindInvariantViolation))
	_, err = k.DeleteUserAndData(root, "bob", false)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestFirstTimeSetup(t *testing.T) {
	k := newTestKernel(t)

	info, err := k.FirstTimeSetup("alice", "pw", "rootpw")
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Name)
	assert.True(t, info.HasPassword)
	assert.True(t, k.HasPassword("root"))
	assert.True(t, k.VerifyPassword("root", "rootpw"))
	assert.Contains(t, k.GetGroupsForUser("alice"), "alice")

	home, err := k.tree.Lookup("/home/alice", true)
	require.NoError(t, err)
	assert.Equal(t, "alice", home.Owner)

	_, err = k.FirstTimeSetup("bob", "pw", "other")
	assert.True(t, errs.Is(err, errs.KindInvariantViolation))
	assert.False(t, k.UserExists("bob"))
}

func TestSnapshotRoundTrip(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")
	_, err := k.WriteFile(alice, "note.txt", "hi", false)
	require.NoError(t, err)
	_, err = k.CreateSymlink(alice, "note.txt", "link")
	require.NoError(t, err)
	require.NoError(t, k.ChangePassword(RootContext(), "bob", "", "pw"))
	k.Session().History.Add("ls -la")
	require.NoError(t, k.Session().Env.Set("EDITOR", "vi"))

	data, err := k.Snapshot()
	require.NoError(t, err)

	restored := newTestKernel(t)
	require.NoError(t, restored.Restore(data))

	again, err := restored.Snapshot()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
	assert.True(t, restored.VerifyPassword("bob", "pw"))
	assert.Equal(t, []string{"ls -la"}, restored.Session().History.Entries())
	assert.Equal(t, "vi", restored.Session().Env.Get("EDITOR"))
}

func TestLoadStateFromJSON(t *testing.T) {
	k := withUsers(t)
	root := RootContext()

	saved, err := k.SaveStateToJSON(root)
	require.NoError(t, err)

	_, err = k.WriteFile(root, "/tmp/later", "x", false)
	require.NoError(t, err)
	require.NoError(t, k.LoadStateFromJSON(root, saved))

	_, err = k.tree.Lookup("/tmp/later", false)
	assert.True(t, errs.Is(err, errs.KindNotFound))

	before := treeBytes(t, k)
	for _, bad := range []string{"not json", `{"/": {"type": "file"}}`, `{"home": {}}`} {
		err := k.LoadStateFromJSON(root, bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, before, treeBytes(t, k))
}

func TestCanUserRunCommand(t *testing.T) {
	k := withUsers(t)

	assert.True(t, k.CanUserRunCommand("root", "anything"))
	assert.False(t, k.CanUserRunCommand("alice", "ls"))

	require.NoError(t, k.AddUserToGroup(RootContext(), "alice", "root"))
	assert.True(t, k.CanUserRunCommand("alice", "ls"))

	log, err := k.AuditLog(RootContext())
	require.NoError(t, err)
	assert.Contains(t, log, "ACTION: sudo_denied")
	assert.Contains(t, log, "ACTION: sudo_allowed")
}

func TestCreationRequiresExistingAccount(t *testing.T) {
	k := newTestKernel(t)
	ghost := Context{CurrentPath: "/tmp", User: "ghost"}
	before := treeBytes(t, k)

	_, err := k.WriteFile(ghost, "x.txt", "boo", false)
	assert.True(t, errs.Is(err, errs.KindNotFound))
	_, err = k.CreateDirectory(ghost, "d", true)
	assert.True(t, errs.Is(err, errs.KindNotFound))
	_, err = k.CreateSymlink(ghost, "/etc", "l")
	assert.True(t, errs.Is(err, errs.KindNotFound))
	_, err = k.Copy(ghost, "/etc/sudoers", "s", CopyOptions{})
	assert.True(t, errs.Is(err, errs.KindNotFound))

	assert.Equal(t, before, treeBytes(t, k))
}

func TestDeletedOwnerLosesOwnerRights(t *testing.T) {
	k := withUsers(t)
	root := RootContext()
	alice := k.ContextFor("alice", "")
	_, err := k.WriteFile(alice, "note.txt", "hi", false)
	require.NoError(t, err)
	require.NoError(t, k.Chmod(alice, "note.txt", 0o604))

	_, err = k.DeleteUserAndData(root, "alice", false)
	require.NoError(t, err)

	stale := Context{
		CurrentPath: "/home/alice",
		User:        "alice",
		UserGroups:  map[string][]string{"alice": {"alice"}},
	}
	content, err := k.ReadFile(stale, "note.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", content)

	_, err = k.WriteFile(stale, "note.txt", "pwned", false)
	assert.True(t, errs.Is(err, errs.KindPermissionDenied))
	assert.True(t, errs.Is(k.Chmod(stale, "note.txt", 0o666), errs.KindPermissionDenied))

	node, err := k.tree.Lookup("/home/alice/note.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "hi", node.Content)
	assert.Equal(t, uint32(0o604), node.Mode)
}

func TestRegisterUserIsAtomic(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{"home root is a file", "/home"},
		{"home directory is a file", "/home/carol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := newTestKernel(t)
			root := RootContext()
			if tt.block == "/home" {
				require.NoError(t, k.Remove(root, "/home", true))
			}
			_, err := k.WriteFile(root, tt.block, "x", false)
			require.NoError(t, err)
			before := treeBytes(t, k)

			_, err = k.RegisterUser(root, "carol", "", "")
			assert.True(t, errs.Is(err, errs.KindNotADirectory))
			assert.False(t, k.UserExists("carol"))
			assert.False(t, k.GroupExists("carol"))
			assert.Equal(t, before, treeBytes(t, k))
		})
	}
}

func TestRestoreFailureLeavesStateUntouched(t *testing.T) {
	src := withUsers(t)
	root := RootContext()
	require.NoError(t, src.Remove(root, "/var", true))
	_, err := src.WriteFile(root, "/var", "not a directory", false)
	require.NoError(t, err)
	data, err := src.Snapshot()
	require.NoError(t, err)

	k := newTestKernel(t)
	_, err = k.RegisterUser(root, "dave", "", "")
	require.NoError(t, err)
	before := treeBytes(t, k)

	err = k.Restore(data)
	assert.True(t, errs.Is(err, errs.KindNotADirectory))
	assert.Equal(t, before, treeBytes(t, k))
	assert.True(t, k.UserExists("dave"))
	assert.False(t, k.UserExists("alice"))
}

func TestCopy(t *testing.T) {
	k := withUsers(t)
	alice := k.ContextFor("alice", "")
	bob := k.ContextFor("bob", "")

	_, err := k.CreateDirectory(alice, "docs/sub", true)
	require.NoError(t, err)
	_, err = k.WriteFile(alice, "docs/a.txt", "abc", false)
	require.NoError(t, err)
	_, err = k.WriteFile(alice, "docs/sub/b.txt", "de", false)
	require.NoError(t, err)
	require.NoError(t, k.Chmod(alice, "docs/a.txt", 0o640))

	_, err = k.Copy(alice, "docs", "backup", CopyOptions{})
	assert.True(t, errs.Is(err, errs.KindIsADirectory))

	got, err := k.Copy(alice, "docs", "backup", CopyOptions{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, "/home/alice/backup", got)
	content, err := k.ReadFile(alice, "backup/sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "de", content)

	// bob may not read a.txt, so the whole copy is refused
	_, err = k.Copy(bob, "/home/alice/docs", "/tmp/stolen", CopyOptions{Recursive: true})
	assert.True(t, errs.Is(err, errs.KindPermissionDenied))
	_, err = k.tree.Lookup("/tmp/stolen", false)
	assert.True(t, errs.Is(err, errs.KindNotFound))

	// a readable file copies into an existing directory under bob's name
	got, err = k.Copy(bob, "/home/alice/docs/sub/b.txt", "/tmp", CopyOptions{Preserve: true})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/b.txt", got)
	node, err := k.tree.Lookup("/tmp/b.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "bob", node.Owner)
	assert.Equal(t, "bob", node.Group)

	_, err = k.Copy(bob, "/home/alice/docs/sub/b.txt", "/tmp/b.txt", CopyOptions{})
	assert.True(t, errs.Is(err, errs.KindAlreadyExists))
	_, err = k.Copy(bob, "/home/alice/backup/sub/b.txt", "/tmp/b.txt", CopyOptions{Force: true})
	assert.NoError(t, err)

	_, err = k.Copy(alice, "docs", "docs/sub/inner", CopyOptions{Recursive: true})
	assert.True(t, errs.Is(err, errs.KindInvariantViolation))

	// root keeps ownership with preserve
	_, err = k.Copy(RootContext(), "/home/alice/docs/a.txt", "/tmp/a.txt", CopyOptions{Preserve: true})
	require.NoError(t, err)
	node, err = k.tree.Lookup("/tmp/a.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", node.Owner)
	assert.Equal(t, uint32(0o640), node.Mode)
}

func TestCopyRespectsQuota(t *testing.T) {
	k, err := New(Config{PasswordIterations: 1000, MaxVFSSize: 1024}, WithClock(testClock()))
	require.NoError(t, err)
	root := RootContext()
	_, err = k.WriteFile(root, "/tmp/big", string(make([]byte, 600)), false)
	require.NoError(t, err)

	_, err = k.Copy(root, "/tmp/big", "/tmp/big2", CopyOptions{})
	assert.True(t, errs.Is(err, errs.KindQuotaExceeded))

	// replacing a file of the same size adds nothing
	_, err = k.WriteFile(root, "/tmp/same", string(make([]byte, 10)), false)
	require.NoError(t, err)
	_, err = k.Copy(root, "/tmp/same", "/tmp/same2", CopyOptions{})
	require.NoError(t, err)
	_, err = k.Copy(root, "/tmp/same", "/tmp/same2", CopyOptions{Force: true})
	assert.NoError(t, err)
}
