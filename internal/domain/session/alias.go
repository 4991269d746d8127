package session

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/utils"
)

// MaxAliasExpansions bounds how many substitutions a single command line
// may go through.
const MaxAliasExpansions = 10

// DefaultAliases returns the aliases installed when none are defined.
func DefaultAliases() map[string]string {
	return map[string]string{
		"ll":  "ls -la",
		"la":  "ls -a",
		"..":  "cd ..",
		"...": "cd ../..",
		"h":   "history",
		"c":   "clear",
		"q":   "exit",
		"e":   "edit",
		"ex":  "explore",
	}
}

// Aliases is the alias table.
type Aliases struct {
	table map[string]string
}

// NewAliases creates an empty table.
func NewAliases() *Aliases {
	return &Aliases{table: make(map[string]string)}
}

// Set defines or redefines an alias.
func (a *Aliases) Set(name, value string) error {
	if err := utils.ValidateAliasName(name); err != nil {
		return errs.Newf(errs.KindInvalidName, "set_alias", name, "%v", err)
	}
	a.table[name] = value
	return nil
}

// Remove deletes an alias and reports whether it existed.
func (a *Aliases) Remove(name string) bool {
	if _, ok := a.table[name]; !ok {
		return false
	}
	delete(a.table, name)
	return true
}

// Get returns the expansion of name.
func (a *Aliases) Get(name string) (string, bool) {
	v, ok := a.table[name]
	return v, ok
}

// All returns a copy of the table.
func (a *Aliases) All() map[string]string {
	return copyStrings(a.table)
}

// Load replaces the table.
func (a *Aliases) Load(table map[string]string) {
	a.table = copyStrings(table)
}

// Len returns the number of aliases.
func (a *Aliases) Len() int {
	return len(a.table)
}

// Expand rewrites the leading word of line through the alias table
// until it no longer names an alias. An alias whose expansion starts
// with its own name (ls='ls --color') is applied once. Any other chain
// that is still expanding after MaxAliasExpansions substitutions is a
// loop.
func (a *Aliases) Expand(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return strings.TrimSpace(line), nil
	}
	first := fields[0]
	command, rest := first, fields[1:]

	for count := 0; ; count++ {
		value, ok := a.table[command]
		if !ok {
			break
		}
		if count == MaxAliasExpansions {
			return "", errs.Newf(errs.KindAliasLoopDetected, "resolve_alias", first,
				"alias loop detected for '%s'", first)
		}
		parts := strings.Fields(value)
		if len(parts) == 0 {
			command = ""
			break
		}
		rest = append(parts[1:len(parts):len(parts)], rest...)
		if parts[0] == command {
			break
		}
		command = parts[0]
	}

	return strings.TrimSpace(fmt.Sprintf("%s %s", command, strings.Join(rest, " "))), nil
}
