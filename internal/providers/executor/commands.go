package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/codec"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/users"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// Effects returned to the external layer.
const (
	EffectChangeDirectory = "change_directory"
	EffectSu              = "su"
	EffectLogout          = "logout"
	EffectSudoExec        = "sudo_exec"
	EffectRemoveUser      = "removeuser"
)

type command struct {
	flags flagSpec

	// raw commands receive every token after the name as an operand
	raw bool

	run func(ctx context.Context, inv *invocation) (*types.Result, error)
}

// invocation is one parsed command line.
type invocation struct {
	kernel   *kernel.Kernel
	ctx      kernel.Context
	name     string
	flags    map[string]bool
	operands []string
	stdin    string
}

func (inv *invocation) usage(format string, args ...interface{}) error {
	return errs.Newf(errs.KindInvalidArgument, inv.name, "", format, args...)
}

func builtins() map[string]command {
	recursive := flagSpec{"-r": "recursive", "-R": "recursive", "--recursive": "recursive"}
	return map[string]command{
		"pwd":    {run: pwd},
		"whoami": {run: whoami},
		"groups": {run: groupsOf},
		"cd":     {run: cd},
		"ls": {
			flags: flagSpec{"-l": "long", "-a": "all", "--all": "all"},
			run:   ls,
		},
		"cat": {run: cat},
		"mkdir": {
			flags: flagSpec{"-p": "parents", "--parents": "parents"},
			run:   mkdir,
		},
		"touch": {run: touch},
		"rm": {
			flags: flagSpec{
				"-r": "recursive", "-R": "recursive", "--recursive": "recursive",
				"-f": "force", "--force": "force",
			},
			run: rm,
		},
		"mv":    {run: mv},
		"cp": {
			flags: flagSpec{
				"-r": "recursive", "-R": "recursive", "--recursive": "recursive",
				"-p": "preserve", "--preserve": "preserve",
				"-f": "force", "--force": "force",
			},
			run: cp,
		},
		"chmod": {run: chmod},
		"chown": {flags: recursive, run: chown},
		"chgrp": {flags: recursive, run: chgrp},
		"ln": {
			flags: flagSpec{"-s": "symbolic", "--symbolic": "symbolic"},
			run:   ln,
		},
		"du":     {run: du},
		"df":     {run: df},
		"su":     {run: su},
		"logout": {run: logout},
		"sudo":   {raw: true, run: sudo},
		"removeuser": {
			flags: flagSpec{"-r": "remove-home", "--remove-home": "remove-home"},
			run:   removeUser,
		},
	}
}

func pwd(_ context.Context, inv *invocation) (*types.Result, error) {
	return output(inv.ctx.Resolve(".")), nil
}

func whoami(_ context.Context, inv *invocation) (*types.Result, error) {
	return output(inv.ctx.User), nil
}

func groupsOf(_ context.Context, inv *invocation) (*types.Result, error) {
	user := inv.ctx.User
	if len(inv.operands) > 0 {
		user = inv.operands[0]
	}
	if !inv.kernel.UserExists(user) {
		return nil, errs.Newf(errs.KindNotFound, inv.name, user, "no such user")
	}
	return output(strings.Join(inv.kernel.GetGroupsForUser(user), " ")), nil
}

// cd validates the target and asks the external layer to move there.
// Without an operand it goes to the user's home.
func cd(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) > 1 {
		return nil, inv.usage("too many arguments")
	}
	target := inv.kernel.ContextFor(inv.ctx.User, "").CurrentPath
	if len(inv.operands) == 1 {
		target = inv.operands[0]
	}
	v, err := inv.kernel.ValidatePath(inv.ctx, target, kernel.ValidateOptions{
		ExpectedType: string(vfs.TypeDirectory),
		Permissions:  []string{"execute"},
	})
	if err != nil {
		return nil, err
	}
	return types.WithEffect(EffectChangeDirectory, map[string]interface{}{"path": v.ResolvedPath}), nil
}

func ls(_ context.Context, inv *invocation) (*types.Result, error) {
	targets := inv.operands
	if len(targets) == 0 {
		targets = []string{"."}
	}

	sections := make([]string, 0, len(targets))
	for _, target := range targets {
		info, err := inv.kernel.Stat(inv.ctx, target, true)
		if err != nil {
			return nil, err
		}
		entries := []kernel.Entry{info.Entry}
		if info.Type == vfs.TypeDirectory {
			if entries, err = inv.kernel.ListDirectory(inv.ctx, target); err != nil {
				return nil, err
			}
		}

		text := inv.listing(entries)
		if len(targets) > 1 {
			text = target + ":\n" + text
		}
		sections = append(sections, text)
	}
	return output(strings.Join(sections, "\n\n")), nil
}

func (inv *invocation) listing(entries []kernel.Entry) string {
	var names, lines []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name, ".") && !inv.flags["all"] {
			continue
		}
		if !inv.flags["long"] {
			names = append(names, e.Name)
			continue
		}
		mtime := "Jan 01 00:00"
		if t, err := codec.ParseTime(e.MTime, time.Time{}); err == nil && !t.IsZero() {
			mtime = t.Format("Jan 02 15:04")
		}
		line := fmt.Sprintf("%s 1 %s %s %d %s %s", e.ModeString, e.Owner, e.Group, e.Size, mtime, e.Name)
		if e.Type == vfs.TypeSymlink {
			line += " -> " + e.Target
		}
		lines = append(lines, line)
	}
	if inv.flags["long"] {
		return strings.Join(lines, "\n")
	}
	return strings.Join(names, "  ")
}

// cat concatenates files, or echoes stdin when no file is named.
func cat(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) == 0 {
		return output(inv.stdin), nil
	}
	var b strings.Builder
	for _, file := range inv.operands {
		content, err := inv.kernel.ReadFile(inv.ctx, file)
		if err != nil {
			return nil, err
		}
		b.WriteString(content)
	}
	return output(b.String()), nil
}

func mkdir(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) == 0 {
		return nil, inv.usage("missing operand")
	}
	for _, dir := range inv.operands {
		if _, err := inv.kernel.CreateDirectory(inv.ctx, dir, inv.flags["parents"]); err != nil {
			return nil, err
		}
	}
	return output(""), nil
}

// touch creates empty files and refreshes the mtime of existing ones.
func touch(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) == 0 {
		return nil, inv.usage("missing file operand")
	}
	for _, file := range inv.operands {
		if _, err := inv.kernel.WriteFile(inv.ctx, file, "", true); err != nil {
			return nil, err
		}
	}
	return output(""), nil
}

func rm(_ context.Context, inv *invocation) (*types.Result, error) {
	force := inv.flags["force"]
	if len(inv.operands) == 0 && !force {
		return nil, inv.usage("missing operand")
	}
	for _, target := range inv.operands {
		err := inv.kernel.Remove(inv.ctx, target, inv.flags["recursive"])
		if err != nil && !(force && errs.Is(err, errs.KindNotFound)) {
			return nil, err
		}
	}
	return output(""), nil
}

func mv(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) != 2 {
		return nil, inv.usage("expected a source and a destination")
	}
	if _, err := inv.kernel.Rename(inv.ctx, inv.operands[0], inv.operands[1]); err != nil {
		return nil, err
	}
	return output(""), nil
}

func cp(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) < 2 {
		return nil, inv.usage("missing destination file operand")
	}
	sources, dst := inv.operands[:len(inv.operands)-1], inv.operands[len(inv.operands)-1]
	if len(sources) > 1 {
		doc, err := inv.kernel.GetNode(inv.ctx, dst)
		if err != nil {
			return nil, err
		}
		if doc == nil || doc.Type != string(vfs.TypeDirectory) {
			return nil, errs.Newf(errs.KindNotADirectory, inv.name, "", "target '%s' is not a directory", dst)
		}
	}
	opts := kernel.CopyOptions{
		Recursive: inv.flags["recursive"],
		Preserve:  inv.flags["preserve"],
		Force:     inv.flags["force"],
	}
	for _, src := range sources {
		if _, err := inv.kernel.Copy(inv.ctx, src, dst, opts); err != nil {
			return nil, err
		}
	}
	return output(""), nil
}

func chmod(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) < 2 {
		return nil, inv.usage("missing operand")
	}
	mode, err := codec.ParseMode(inv.operands[0])
	if err != nil {
		return nil, inv.usage("invalid mode: '%s'", inv.operands[0])
	}
	for _, target := range inv.operands[1:] {
		if err := inv.kernel.Chmod(inv.ctx, target, uint32(mode)); err != nil {
			return nil, err
		}
	}
	return output(""), nil
}

func chown(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) < 2 {
		return nil, inv.usage("missing operand")
	}
	for _, target := range inv.operands[1:] {
		if err := inv.kernel.Chown(inv.ctx, target, inv.operands[0], inv.flags["recursive"]); err != nil {
			return nil, err
		}
	}
	return output(""), nil
}

func chgrp(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) < 2 {
		return nil, inv.usage("missing operand")
	}
	for _, target := range inv.operands[1:] {
		if err := inv.kernel.Chgrp(inv.ctx, target, inv.operands[0], inv.flags["recursive"]); err != nil {
			return nil, err
		}
	}
	return output(""), nil
}

// ln only makes symbolic links; the tree has no hard links.
func ln(_ context.Context, inv *invocation) (*types.Result, error) {
	if !inv.flags["symbolic"] {
		return nil, inv.usage("hard links are not supported, use -s")
	}
	if len(inv.operands) != 2 {
		return nil, inv.usage("expected a target and a link name")
	}
	if _, err := inv.kernel.CreateSymlink(inv.ctx, inv.operands[0], inv.operands[1]); err != nil {
		return nil, err
	}
	return output(""), nil
}

func du(_ context.Context, inv *invocation) (*types.Result, error) {
	targets := inv.operands
	if len(targets) == 0 {
		targets = []string{"."}
	}
	lines := make([]string, 0, len(targets))
	for _, target := range targets {
		size, err := inv.kernel.CalculateSize(inv.ctx, target)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("%d\t%s", size, target))
	}
	return output(strings.Join(lines, "\n")), nil
}

func df(_ context.Context, inv *invocation) (*types.Result, error) {
	u := inv.kernel.DiskUsage(inv.ctx)
	limit, avail := "-", "-"
	if u.Limit > 0 {
		limit = fmt.Sprintf("%d", u.Limit)
		avail = fmt.Sprintf("%d", u.Available)
	}
	return output(fmt.Sprintf("Filesystem Size Used Avail Nodes\nvfs %s %d %s %d", limit, u.Used, avail, u.Nodes)), nil
}

// su asks the external layer to switch user. Authentication happens
// there; an inline password is passed through for scripting.
func su(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) > 2 {
		return nil, inv.usage("usage: su [username] [password]")
	}
	data := map[string]interface{}{"username": users.RootUser, "password": nil}
	if len(inv.operands) > 0 {
		data["username"] = inv.operands[0]
	}
	if len(inv.operands) > 1 {
		data["password"] = inv.operands[1]
	}
	if name := data["username"].(string); !inv.kernel.UserExists(name) {
		return nil, errs.Newf(errs.KindNotFound, inv.name, name, "no such user")
	}
	return types.WithEffect(EffectSu, data), nil
}

func logout(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) > 0 {
		return nil, inv.usage("command takes no arguments")
	}
	return types.WithEffect(EffectLogout, map[string]interface{}{"user": inv.ctx.User}), nil
}

// sudo checks the policy for the named command and hands the full
// command line back for execution as root.
func sudo(_ context.Context, inv *invocation) (*types.Result, error) {
	if len(inv.operands) == 0 {
		return nil, inv.usage("a command must be provided")
	}
	line := strings.Join(inv.operands, " ")
	if !inv.kernel.CanUserRunCommand(inv.ctx.User, inv.operands[0]) {
		return nil, errs.Newf(errs.KindPermissionDenied, inv.name, "",
			"user %s is not allowed to execute '%s' as root", inv.ctx.User, line)
	}
	return types.WithEffect(EffectSudoExec, map[string]interface{}{"command": line}), nil
}

func removeUser(_ context.Context, inv *invocation) (*types.Result, error) {
	if !inv.ctx.IsRoot() {
		return nil, errs.Newf(errs.KindPermissionDenied, inv.name, "", "only root can remove users")
	}
	if len(inv.operands) != 1 {
		return nil, inv.usage("usage: removeuser [-r] <username>")
	}
	username := inv.operands[0]
	if !inv.kernel.UserExists(username) {
		return nil, errs.Newf(errs.KindNotFound, inv.name, username, "no such user")
	}
	return types.WithEffect(EffectRemoveUser, map[string]interface{}{
		"username":    username,
		"remove_home": inv.flags["remove-home"],
	}), nil
}
