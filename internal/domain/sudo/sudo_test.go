package sudo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSudoers = `# test policy
Defaults env_reset
root ALL=(ALL) ALL
%wheel ALL=(ALL:ALL) ALL
alice ALL=(ALL) /bin/ls, cat   # trailing comment
bob ALL=(root) NOPASSWD: reboot
malformed
`

func TestParse(t *testing.T) {
	rules := Parse(testSudoers)
	require.Len(t, rules, 4)

	assert.Equal(t, Rule{Subject: "root", Commands: []string{"ALL"}}, rules[0])
	assert.Equal(t, Rule{Subject: "wheel", Group: true, Commands: []string{"ALL"}}, rules[1])
	assert.Equal(t, Rule{Subject: "alice", Commands: []string{"/bin/ls", "cat"}}, rules[2])
	assert.Equal(t, Rule{Subject: "bob", NoPasswd: true, Commands: []string{"reboot"}}, rules[3])
}

func TestCanRunCommand(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		groups  []string
		command string
		want    bool
	}{
		{name: "root always", user: "root", command: "anything", want: true},
		{name: "group ALL", user: "carol", groups: []string{"wheel"}, command: "rm", want: true},
		{name: "listed basename", user: "alice", command: "ls", want: true},
		{name: "listed full path", user: "alice", command: "/usr/bin/cat", want: true},
		{name: "not listed", user: "alice", command: "rm", want: false},
		{name: "tagged rule", user: "bob", command: "reboot", want: true},
		{name: "unknown user", user: "mallory", groups: []string{"mallory"}, command: "ls", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanRunCommand(testSudoers, tt.user, tt.groups, tt.command))
		})
	}
}

func TestDefaultSudoersAllowsRootGroup(t *testing.T) {
	assert.True(t, CanRunCommand(DefaultSudoers, "admin", []string{"admin", "root"}, "rm"))
	assert.False(t, CanRunCommand(DefaultSudoers, "Guest", []string{"Guest"}, "rm"))
	assert.True(t, CanRunCommand("", "root", nil, "rm"))
}

func TestTimestamps(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ts := NewTimestamps(DefaultTimeout, clock)

	assert.False(t, ts.Valid("alice"))
	ts.Update("alice")
	assert.True(t, ts.Valid("alice"))

	now = now.Add(14 * time.Minute)
	assert.True(t, ts.Valid("alice"))
	now = now.Add(time.Minute)
	assert.False(t, ts.Valid("alice"))

	ts.Update("alice")
	ts.Clear("alice")
	assert.False(t, ts.Valid("alice"))
}

func TestTimestampsDisabled(t *testing.T) {
	ts := NewTimestamps(0, nil)
	ts.Update("alice")
	assert.False(t, ts.Valid("alice"))
	assert.Equal(t, time.Duration(0), ts.Timeout())
}
