package executor

import (
	"strings"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
)

// flagSpec maps every accepted spelling ("-r", "--recursive") to the
// canonical flag name.
type flagSpec map[string]string

// parse splits tokens into set flags and operands. Short flags may be
// combined ("-rf"); "--" ends flag parsing.
func (s flagSpec) parse(command string, tokens []string) (map[string]bool, []string, error) {
	set := make(map[string]bool)
	operands := make([]string, 0, len(tokens))

	for i, tok := range tokens {
		switch {
		case tok == "--":
			return set, append(operands, tokens[i+1:]...), nil

		case strings.HasPrefix(tok, "--"):
			name, ok := s[tok]
			if !ok {
				return nil, nil, errs.Newf(errs.KindInvalidArgument, command, "", "unrecognized option '%s'", tok)
			}
			set[name] = true

		case len(tok) > 1 && tok[0] == '-':
			for _, c := range tok[1:] {
				name, ok := s["-"+string(c)]
				if !ok {
					return nil, nil, errs.Newf(errs.KindInvalidArgument, command, "", "invalid option -- '%c'", c)
				}
				set[name] = true
			}

		default:
			operands = append(operands, tok)
		}
	}
	return set, operands, nil
}
