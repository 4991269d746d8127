package executor

import (
	"context"
	"sort"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/params"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// Provider runs built-in shell commands against the kernel.
type Provider struct {
	kernel   *kernel.Kernel
	logger   *zap.Logger
	commands map[string]command
}

// NewProvider creates an executor provider
func NewProvider(k *kernel.Kernel) *Provider {
	return &Provider{
		kernel:   k,
		logger:   k.Logger().Named("executor"),
		commands: builtins(),
	}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "executor",
		Name:        "Command Executor",
		Description: "Execute shell command lines with built-in commands",
		Category:    types.CategoryShell,
		Capabilities: []string{
			"execute",
			"aliases",
			"effects",
		},
		Tools: []types.Tool{
			{
				ID:          "executor.execute",
				Name:        "Execute",
				Description: "Expand aliases, tokenize and run one command line",
				Parameters: []types.Parameter{
					{Name: "command_line", Type: "string", Description: "Command line to run", Required: true},
					{Name: params.UserContext, Type: "object", Description: "Acting user when no request context is sent", Required: false},
					{Name: "stdin", Type: "string", Description: "Standard input for commands that read it", Required: false},
				},
				Returns: "object",
				Mutates: true,
			},
			{
				ID:          "executor.list_commands",
				Name:        "List Commands",
				Description: "Names of the built-in commands",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
		},
	}
}

type executeArgs struct {
	CommandLine string `mapstructure:"command_line"`
	Stdin       string `mapstructure:"stdin"`
}

// Execute runs an executor operation
func (p *Provider) Execute(ctx context.Context, toolID string, in map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "executor.execute":
		return p.execute(ctx, in, callCtx)
	case "executor.list_commands":
		return types.Success(p.names()), nil
	default:
		return params.Unknown(toolID)
	}
}

func (p *Provider) execute(ctx context.Context, in map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	const op = "execute"
	var args executeArgs
	if err := params.Decode(op, in, &args); err != nil {
		return params.Reply(nil, err)
	}
	kctx, err := params.Caller(op, in, callCtx)
	if err != nil {
		return params.Reply(nil, err)
	}
	if _, ok := kctx.UserGroups[kctx.User]; !ok {
		kctx.UserGroups = map[string][]string{kctx.User: p.kernel.GetGroupsForUser(kctx.User)}
	}

	line, err := p.kernel.Session().Aliases.Expand(strings.TrimSpace(args.CommandLine))
	if err != nil {
		return params.Reply(nil, errs.Annotate(err, op))
	}
	tokens, err := shlex.Split(line)
	if err != nil {
		return params.Reply(nil, errs.Newf(errs.KindInvalidArgument, op, "", "cannot parse command line: %v", err))
	}
	if len(tokens) == 0 {
		return output(""), nil
	}

	name := tokens[0]
	cmd, ok := p.commands[name]
	if !ok {
		return failure(name, errs.Newf(errs.KindNotFound, name, "", "command not found")), nil
	}

	inv := &invocation{kernel: p.kernel, ctx: kctx, name: name, stdin: args.Stdin}
	if cmd.raw {
		inv.operands = tokens[1:]
	} else {
		inv.flags, inv.operands, err = cmd.flags.parse(name, tokens[1:])
		if err != nil {
			return failure(name, err), nil
		}
	}

	p.logger.Debug("running command",
		zap.String("command", name),
		zap.String("user", kctx.User),
		zap.Int("operands", len(inv.operands)))

	res, err := cmd.run(ctx, inv)
	if err != nil {
		return failure(name, err), nil
	}
	return res, nil
}

func (p *Provider) names() []string {
	names := make([]string, 0, len(p.commands))
	for name := range p.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// output is the envelope of a command that only prints.
func output(text string) *types.Result {
	return types.Success(map[string]interface{}{"output": text})
}

// failure renders err the way a shell prints a failed command while
// keeping its structured details.
func failure(command string, err error) *types.Result {
	res := types.FromError(err)
	if e, ok := errs.As(err); ok {
		msg := e.Shell(command)
		res.Error = &msg
	}
	return res
}
