package kernel

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/audit"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/groups"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/sudo"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/users"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/paths"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/utils"
)

// Config holds the kernel knobs.
type Config struct {
	Hostname           string
	DefaultUser        string
	HistorySize        int
	// SudoTimeout of 0 disables credential caching; New does not default it.
	SudoTimeout        time.Duration
	PasswordIterations int

	// MaxVFSSize caps total file content in bytes; 0 disables the cap.
	// A positive limit in the call context takes precedence.
	MaxVFSSize int64
}

// DefaultConfig returns the configuration of a stock install.
func DefaultConfig() Config {
	return Config{
		Hostname:           "OopisOs",
		DefaultUser:        "Guest",
		HistorySize:        session.DefaultHistorySize,
		SudoTimeout:        sudo.DefaultTimeout,
		PasswordIterations: users.DefaultIterations,
	}
}

// Kernel is one independent instance of the filesystem, the account
// stores and the session. Every operation is synchronous; callers must
// serialize access.
type Kernel struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	tree    *vfs.Tree
	users   *users.Store
	groups  *groups.Store
	session *session.State
	sudo    *sudo.Timestamps
	audit   *audit.Logger
	digest  *utils.Hasher

	bootID   string
	bootTime time.Time
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(k *Kernel) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithClock overrides the time source for mtimes, audit lines and sudo
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(k *Kernel) {
		if now != nil {
			k.now = now
		}
	}
}

// New boots a kernel with the default users, groups and directory
// layout.
func New(cfg Config, opts ...Option) (*Kernel, error) {
	def := DefaultConfig()
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = def.DefaultUser
	}
	if cfg.Hostname == "" {
		cfg.Hostname = def.Hostname
	}

	k := &Kernel{
		cfg:    cfg,
		logger: zap.NewNop(),
		now:    time.Now,
		digest: utils.DefaultHasher(),
		bootID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(k)
	}
	k.logger = k.logger.Named("kernel")
	k.bootTime = k.now()

	k.tree = vfs.NewTree(vfs.WithClock(k.now))
	k.users = users.NewStore(users.NewHasher(cfg.PasswordIterations))
	k.groups = groups.NewStore(k.users)
	k.session = session.New(cfg.HistorySize)
	k.sudo = sudo.NewTimestamps(cfg.SudoTimeout, k.now)
	k.audit = audit.New(k.tree, k.logger)

	if err := k.bootstrap(); err != nil {
		return nil, fmt.Errorf("failed to initialize kernel: %w", err)
	}

	k.logger.Info("kernel booted",
		zap.String("boot_id", k.bootID),
		zap.String("default_user", cfg.DefaultUser),
		zap.Int("nodes", k.tree.CountNodes()))
	return k, nil
}

func (k *Kernel) bootstrap() error {
	def := k.cfg.DefaultUser
	k.users.InitializeDefaults(def)
	k.groups.InitializeDefaults(users.RootUser, def)
	if err := k.initializeFilesystem(); err != nil {
		return err
	}
	k.session.Initialize(def, k.cfg.Hostname)
	return nil
}

// initializeFilesystem lays down the standard directories, the sudoers
// file and the default user's home. Existing nodes are left alone.
func (k *Kernel) initializeFilesystem() error {
	return layoutFilesystem(k.tree, k.users, k.cfg.DefaultUser)
}

// layoutFilesystem applies the default layout to tree, taking the
// default user's primary group from accounts.
func layoutFilesystem(tree *vfs.Tree, accounts *users.Store, defaultUser string) error {
	for _, dir := range paths.StandardDirectories() {
		if err := ensureDirectory(tree, dir.Path, vfs.RootUser, vfs.RootUser, dir.Mode); err != nil {
			return err
		}
	}
	if _, err := tree.Lookup(paths.Sudoers, false); err != nil {
		if err := tree.CreateFile(paths.Sudoers, sudo.DefaultSudoers, vfs.RootUser, vfs.RootUser, 0o440, false); err != nil {
			return err
		}
	}
	group := defaultUser
	if g, ok := accounts.PrimaryGroup(defaultUser); ok && g != "" {
		group = g
	}
	return ensureDirectory(tree, paths.UserHome(defaultUser), defaultUser, group, vfs.DefaultDirMode)
}

// ensureDirectory creates path unless a directory is already there.
func ensureDirectory(tree *vfs.Tree, path, owner, group string, mode uint32) error {
	node, err := tree.Lookup(path, true)
	switch {
	case err == nil && node.IsDir():
		return nil
	case err == nil:
		return errs.New(errs.KindNotADirectory, "", path)
	case !errs.Is(err, errs.KindNotFound):
		return err
	}
	return tree.CreateDirectory(path, owner, group, mode)
}

func (k *Kernel) primaryGroupOf(user string) string {
	if g, ok := k.users.PrimaryGroup(user); ok && g != "" {
		return g
	}
	return user
}

// Config returns the kernel configuration.
func (k *Kernel) Config() Config {
	return k.cfg
}

// BootID identifies this kernel instance.
func (k *Kernel) BootID() string {
	return k.bootID
}

// Session returns the shell session state.
func (k *Kernel) Session() *session.State {
	return k.session
}

// Logger returns the kernel logger.
func (k *Kernel) Logger() *zap.Logger {
	return k.logger
}

// Stats summarizes the kernel for health reporting.
type Stats struct {
	BootID    string    `json:"boot_id"`
	BootTime  time.Time `json:"boot_time"`
	Nodes     int       `json:"nodes"`
	TotalSize int64     `json:"total_size"`
	Users     int       `json:"users"`
	Groups    int       `json:"groups"`
}

// Stats returns a snapshot of kernel counters.
func (k *Kernel) Stats() Stats {
	return Stats{
		BootID:    k.bootID,
		BootTime:  k.bootTime,
		Nodes:     k.tree.CountNodes(),
		TotalSize: k.tree.TotalSize(),
		Users:     k.users.Len(),
		Groups:    len(k.groups.Names()),
	}
}
