package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
)

func TestEnvironment(t *testing.T) {
	env := NewEnvironment()

	require.NoError(t, env.Set("FOO", "bar"))
	assert.Equal(t, "bar", env.Get("FOO"))
	assert.Equal(t, "", env.Get("MISSING"))

	for _, bad := range []string{"", "1ABC", "A-B", "has space"} {
		err := env.Set(bad, "x")
		assert.True(t, errs.Is(err, errs.KindInvalidName), bad)
	}

	env.Unset("FOO")
	env.Unset("FOO")
	_, ok := env.Lookup("FOO")
	assert.False(t, ok)
}

func TestEnvironmentScopes(t *testing.T) {
	env := NewEnvironment()
	require.NoError(t, env.Set("A", "outer"))

	env.Push()
	assert.Equal(t, "outer", env.Get("A"))
	require.NoError(t, env.Set("A", "inner"))
	require.NoError(t, env.Set("B", "only-inner"))
	assert.Equal(t, 2, env.Depth())

	assert.True(t, env.Pop())
	assert.Equal(t, "outer", env.Get("A"))
	assert.Equal(t, "", env.Get("B"))

	assert.False(t, env.Pop(), "outermost scope stays")
	assert.Equal(t, 1, env.Depth())
}

func TestEnvironmentLoadCopies(t *testing.T) {
	env := NewEnvironment()
	vars := map[string]string{"X": "1"}
	env.Load(vars)
	vars["X"] = "2"
	assert.Equal(t, "1", env.Get("X"))

	all := env.All()
	all["X"] = "3"
	assert.Equal(t, "1", env.Get("X"))
}

func TestBaseEnvironment(t *testing.T) {
	env := BaseEnvironment("alice", "OopisOs")
	assert.Equal(t, "alice", env["USER"])
	assert.Equal(t, "/home/alice", env["HOME"])
	assert.Equal(t, "OopisOs", env["HOST"])
	assert.Equal(t, DefaultPath, env["PATH"])
	assert.Equal(t, DefaultPrompt, env["PS1"])
}

func TestHistory(t *testing.T) {
	h := NewHistory(3)

	assert.True(t, h.Add("  ls  "))
	assert.False(t, h.Add("ls"), "consecutive duplicate")
	assert.False(t, h.Add("   "))
	assert.True(t, h.Add("pwd"))
	assert.True(t, h.Add("ls"))
	assert.Equal(t, []string{"ls", "pwd", "ls"}, h.Entries())

	h.Add("whoami")
	assert.Equal(t, []string{"pwd", "ls", "whoami"}, h.Entries())

	h.Set([]string{"a", "b", "c", "d", "e"})
	assert.Equal(t, []string{"c", "d", "e"}, h.Entries())

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 3, h.Max())
	assert.Equal(t, DefaultHistorySize, NewHistory(0).Max())
}

func TestAliasExpand(t *testing.T) {
	tests := []struct {
		name    string
		table   map[string]string
		line    string
		want    string
		wantErr bool
	}{
		{name: "no alias", table: map[string]string{}, line: "ls -l", want: "ls -l"},
		{name: "simple", table: map[string]string{"ll": "ls -la"}, line: "ll /tmp", want: "ls -la /tmp"},
		{name: "chain", table: map[string]string{"a": "b -x", "b": "c -y"}, line: "a z", want: "c -y -x z"},
		{name: "self reference", table: map[string]string{"ls": "ls --color"}, line: "ls /", want: "ls --color /"},
		{name: "empty line", table: map[string]string{"a": "b"}, line: "   ", want: ""},
		{name: "two cycle", table: map[string]string{"a": "b", "b": "a"}, line: "a", wantErr: true},
		{name: "three cycle", table: map[string]string{"a": "b", "b": "c", "c": "a"}, line: "a 1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAliases()
			a.Load(tt.table)
			got, err := a.Expand(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.Is(err, errs.KindAliasLoopDetected))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAliasExpandLongChainWithinBound(t *testing.T) {
	a := NewAliases()
	for i := 0; i < MaxAliasExpansions-1; i++ {
		require.NoError(t, a.Set(fmt.Sprintf("a%d", i), fmt.Sprintf("a%d", i+1)))
	}
	got, err := a.Expand("a0")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("a%d", MaxAliasExpansions-1), got)
}

func TestAliases(t *testing.T) {
	a := NewAliases()
	require.NoError(t, a.Set("ll", "ls -la"))
	assert.True(t, errs.Is(a.Set("bad name", "x"), errs.KindInvalidName))
	assert.True(t, errs.Is(a.Set("a=b", "x"), errs.KindInvalidName))

	v, ok := a.Get("ll")
	require.True(t, ok)
	assert.Equal(t, "ls -la", v)

	assert.True(t, a.Remove("ll"))
	assert.False(t, a.Remove("ll"))
	assert.Equal(t, 0, a.Len())
}

func TestIdentityStack(t *testing.T) {
	s := NewIdentityStack("Guest")

	_, ok := s.Pop()
	assert.False(t, ok, "pop at depth 1 is a no-op")
	assert.Equal(t, 1, s.Depth())
	assert.False(t, s.CanLogout())

	s.Push("x")
	assert.Equal(t, "x", s.Current())
	assert.True(t, s.CanLogout())

	user, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "x", user)
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, "Guest", s.Current())

	s.Push("a")
	s.Push("b")
	assert.Equal(t, []string{"Guest", "a", "b"}, s.Stack())
	s.Clear("root")
	assert.Equal(t, []string{"root"}, s.Stack())
}

func TestStateSnapshotRestore(t *testing.T) {
	st := New(DefaultHistorySize)
	st.Initialize("alice", "OopisOs")
	assert.Equal(t, "alice", st.Identity.Current())
	assert.Equal(t, len(DefaultAliases()), st.Aliases.Len())

	st.History.Add("ls")
	require.NoError(t, st.Env.Set("EDITOR", "vi"))
	require.NoError(t, st.Aliases.Set("g", "grep"))

	snap := st.Snapshot()

	other := New(DefaultHistorySize)
	other.Restore(snap, BaseEnvironment("alice", "OopisOs"))
	assert.Equal(t, []string{"ls"}, other.History.Entries())
	assert.Equal(t, "vi", other.Env.Get("EDITOR"))
	v, ok := other.Aliases.Get("g")
	require.True(t, ok)
	assert.Equal(t, "grep", v)

	// an empty snapshot starts a fresh session
	other.Restore(Snapshot{}, BaseEnvironment("bob", "OopisOs"))
	assert.Equal(t, 0, other.History.Len())
	assert.Equal(t, "bob", other.Env.Get("USER"))
	assert.Equal(t, "", other.Env.Get("EDITOR"))
}
