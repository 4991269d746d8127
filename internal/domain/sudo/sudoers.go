// Package sudo evaluates /etc/sudoers and tracks sudo credential
// timestamps.
package sudo

import (
	"path"
	"strings"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/paths"
)

// SudoersPath is where the policy file lives in the VFS.
const SudoersPath = paths.Sudoers

// DefaultSudoers is the policy written on first boot.
const DefaultSudoers = "# /etc/sudoers\n" +
	"#\n" +
	"# User privilege specification\n" +
	"root ALL=(ALL) ALL\n" +
	"%root ALL=(ALL) ALL\n"

// Rule is one user or group specification line.
type Rule struct {
	// Subject is a username, or a group name when Group is set.
	Subject  string
	Group    bool
	NoPasswd bool
	Commands []string
}

// Matches reports whether the rule applies to user with groups.
func (r Rule) Matches(user string, groups []string) bool {
	if !r.Group {
		return r.Subject == user
	}
	for _, g := range groups {
		if g == r.Subject {
			return true
		}
	}
	return false
}

// Allows reports whether the rule's command list covers command.
func (r Rule) Allows(command string) bool {
	name := path.Base(command)
	for _, c := range r.Commands {
		if c == "ALL" || c == command || path.Base(c) == name {
			return true
		}
	}
	return false
}

// Parse reads sudoers content. Comments, blank lines, Defaults lines and
// lines without a command list are skipped.
func Parse(content string) []Rule {
	var rules []Rule
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "Defaults") {
			continue
		}
		if rule, ok := parseLine(line); ok {
			rules = append(rules, rule)
		}
	}
	return rules
}

func parseLine(line string) (Rule, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Rule{}, false
	}

	var rule Rule
	rule.Subject = fields[0]
	if strings.HasPrefix(rule.Subject, "%") {
		rule.Group = true
		rule.Subject = rule.Subject[1:]
	}
	if rule.Subject == "" {
		return Rule{}, false
	}

	spec := strings.Join(fields[1:], " ")
	// HOST=(RUNAS)
	if eq := strings.Index(spec, "="); eq >= 0 {
		spec = strings.TrimSpace(spec[eq+1:])
		if strings.HasPrefix(spec, "(") {
			if end := strings.Index(spec, ")"); end >= 0 {
				spec = strings.TrimSpace(spec[end+1:])
			}
		}
	}
	for _, tag := range []string{"NOPASSWD:", "PASSWD:"} {
		if strings.HasPrefix(spec, tag) {
			rule.NoPasswd = tag == "NOPASSWD:"
			spec = strings.TrimSpace(strings.TrimPrefix(spec, tag))
		}
	}

	for _, c := range strings.Split(spec, ",") {
		if c = strings.TrimSpace(c); c != "" {
			rule.Commands = append(rule.Commands, c)
		}
	}
	return rule, len(rule.Commands) > 0
}

// CanRunCommand reports whether user, a member of groups, may run
// command under the given policy. root may always run everything.
func CanRunCommand(sudoers, user string, groups []string, command string) bool {
	if user == "root" {
		return true
	}
	for _, rule := range Parse(sudoers) {
		if rule.Matches(user, groups) && rule.Allows(command) {
			return true
		}
	}
	return false
}
