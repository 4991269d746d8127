package kernel

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/codec"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/groups"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/users"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
)

// SaveStateToJSON returns the filesystem snapshot document.
func (k *Kernel) SaveStateToJSON(ctx Context) (string, error) {
	const op = "save_state_to_json"
	if err := requireRoot(op, ctx); err != nil {
		return "", err
	}
	data, err := codec.MarshalTree(k.tree)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(data), nil
}

// LoadStateFromJSON replaces the filesystem with a tree document, or
// the whole kernel state with a full state document. Malformed input
// leaves everything untouched.
func (k *Kernel) LoadStateFromJSON(ctx Context, doc string) error {
	const op = "load_state_from_json"
	if err := requireRoot(op, ctx); err != nil {
		return err
	}
	data := []byte(doc)
	if codec.IsStateDocument(data) {
		if err := k.Restore(data); err != nil {
			return errs.Annotate(err, op)
		}
	} else {
		root, err := codec.UnmarshalTree(data, k.now())
		if err != nil {
			return errs.Annotate(err, op)
		}
		if err := k.tree.Replace(root); err != nil {
			return errs.Annotate(err, op)
		}
	}
	k.record(ctx.User, "state_loaded", fmt.Sprintf("bytes=%d", len(data)))
	return nil
}

// Snapshot encodes the full kernel state: tree, accounts, groups and
// the persisted part of the session.
func (k *Kernel) Snapshot() ([]byte, error) {
	snap := k.session.Snapshot()
	return codec.MarshalState(&codec.State{
		FS:      codec.EncodeTree(k.tree),
		Users:   k.users.Export(),
		Groups:  k.groups.Export(),
		Session: &snap,
	})
}

// Restore replaces the full kernel state with a snapshot produced by
// Snapshot. Every part is decoded before anything is swapped in, and
// the default accounts and directories are re-created when missing.
func (k *Kernel) Restore(data []byte) error {
	state, err := codec.UnmarshalState(data)
	if err != nil {
		return err
	}
	root, err := codec.DecodeTree(state.FS, k.now())
	if err != nil {
		return err
	}

	userStore := users.NewStore(users.NewHasher(k.cfg.PasswordIterations))
	if err := userStore.Load(state.Users); err != nil {
		return err
	}
	groupStore := groups.NewStore(userStore)
	if err := groupStore.Load(state.Groups); err != nil {
		return err
	}

	def := k.cfg.DefaultUser
	userStore.InitializeDefaults(def)
	groupStore.InitializeDefaults(users.RootUser, def)

	staged := vfs.NewTree(vfs.WithClock(k.now))
	if err := staged.Replace(root); err != nil {
		return err
	}
	if err := layoutFilesystem(staged, userStore, def); err != nil {
		return fmt.Errorf("failed to restore default layout: %w", err)
	}

	if err := k.tree.Replace(staged.Root()); err != nil {
		return err
	}
	k.users, k.groups = userStore, groupStore

	base := session.BaseEnvironment(def, k.cfg.Hostname)
	if state.Session != nil {
		k.session.Restore(*state.Session, base)
	} else {
		k.session.Restore(session.Snapshot{}, base)
	}
	k.session.Identity.Clear(def)

	k.logger.Info("state restored",
		zap.Int("nodes", k.tree.CountNodes()),
		zap.Int("users", k.users.Len()))
	return nil
}

// SessionState encodes history, environment and aliases.
func (k *Kernel) SessionState() (string, error) {
	data, err := codec.MarshalSession(k.session.Snapshot())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// LoadSessionState applies a session document. A missing environment
// falls back to the base environment of the current session user; an
// empty document resets the session to that state.
func (k *Kernel) LoadSessionState(doc string) error {
	const op = "load_session_state"
	if doc == "" {
		doc = "{}"
	}
	snap, err := codec.UnmarshalSession([]byte(doc))
	if err != nil {
		return errs.Annotate(err, op)
	}
	user := k.session.Identity.Current()
	k.session.Restore(snap, session.BaseEnvironment(user, k.cfg.Hostname))
	return nil
}
