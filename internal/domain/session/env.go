package session

import (
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/utils"
)

// DefaultPath is the PATH of a fresh login environment.
const DefaultPath = "/bin:/usr/bin"

// DefaultPrompt is the PS1 of a fresh login environment.
const DefaultPrompt = `\u@\h:\w\$ `

// BaseEnvironment returns the variables a login shell starts with.
func BaseEnvironment(user, host string) map[string]string {
	return map[string]string{
		"USER": user,
		"HOME": "/home/" + user,
		"HOST": host,
		"PATH": DefaultPath,
		"PS1":  DefaultPrompt,
	}
}

// Environment is a stack of variable maps. Only the top is visible;
// Push copies it so a subshell can change variables without touching
// its parent.
type Environment struct {
	stack []map[string]string
}

// NewEnvironment creates an environment with one empty scope.
func NewEnvironment() *Environment {
	return &Environment{stack: []map[string]string{{}}}
}

func (e *Environment) active() map[string]string {
	return e.stack[len(e.stack)-1]
}

// Get returns the value of name, or "" when unset.
func (e *Environment) Get(name string) string {
	return e.active()[name]
}

// Lookup returns the value of name and whether it is set.
func (e *Environment) Lookup(name string) (string, bool) {
	v, ok := e.active()[name]
	return v, ok
}

// Set assigns a variable. Names must match [A-Za-z_][A-Za-z0-9_]*.
func (e *Environment) Set(name, value string) error {
	if err := utils.ValidateVarName(name); err != nil {
		return errs.Newf(errs.KindInvalidName, "set", name, "%v", err)
	}
	e.active()[name] = value
	return nil
}

// Unset removes a variable; unsetting a missing variable is a no-op.
func (e *Environment) Unset(name string) {
	delete(e.active(), name)
}

// All returns a copy of the visible variables.
func (e *Environment) All() map[string]string {
	return copyStrings(e.active())
}

// Load replaces the visible scope with vars.
func (e *Environment) Load(vars map[string]string) {
	e.stack[len(e.stack)-1] = copyStrings(vars)
}

// Push opens a new scope seeded with a copy of the current one.
func (e *Environment) Push() {
	e.stack = append(e.stack, copyStrings(e.active()))
}

// Pop discards the current scope. The outermost scope is never popped.
func (e *Environment) Pop() bool {
	if len(e.stack) <= 1 {
		return false
	}
	e.stack = e.stack[:len(e.stack)-1]
	return true
}

// Depth returns the number of open scopes.
func (e *Environment) Depth() int {
	return len(e.stack)
}

// Reset drops every scope and starts over from vars.
func (e *Environment) Reset(vars map[string]string) {
	e.stack = []map[string]string{copyStrings(vars)}
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
