package kernel

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/groups"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/users"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/paths"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/utils"
)

func requireRoot(op string, ctx Context) error {
	if !ctx.IsRoot() {
		return errs.Newf(errs.KindPermissionDenied, op, "", "only root may %s", strings.ReplaceAll(op, "_", " "))
	}
	return nil
}

// UserInfo is the public view of an account. Credentials never leave
// the kernel.
type UserInfo struct {
	Name         string   `json:"name"`
	PrimaryGroup string   `json:"primaryGroup"`
	HasPassword  bool     `json:"hasPassword"`
	Groups       []string `json:"groups"`
	Home         string   `json:"home"`
}

// RegisterUser creates an account with its primary group and home
// directory.
func (k *Kernel) RegisterUser(ctx Context, username, password, primaryGroup string) (*UserInfo, error) {
	const op = "register_user"
	if err := requireRoot(op, ctx); err != nil {
		return nil, err
	}
	info, err := k.createAccount(op, username, password, primaryGroup)
	if err != nil {
		return nil, err
	}
	k.record(ctx.User, "user_created", fmt.Sprintf("user=%s group=%s", username, info.PrimaryGroup))
	return info, nil
}

// createAccount registers the user and lays down the group and home.
// The user store validates the names and the home layout is checked
// before anything changes; a later failure undoes the account.
func (k *Kernel) createAccount(op, username, password, primaryGroup string) (*UserInfo, error) {
	if primaryGroup == "" {
		primaryGroup = username
	}
	if err := utils.ValidateUsername(username); err != nil {
		return nil, errs.Newf(errs.KindInvalidName, op, username, "%v", err)
	}
	home := paths.UserHome(username)
	for _, dir := range []string{paths.Home, home} {
		if n, err := k.tree.Lookup(dir, true); err == nil && !n.IsDir() {
			return nil, errs.New(errs.KindNotADirectory, op, dir)
		}
	}

	user, err := k.users.Register(username, password, primaryGroup)
	if err != nil {
		return nil, errs.Annotate(err, op)
	}
	newGroup := !k.groups.Exists(user.PrimaryGroup)
	undo := func() {
		_, _ = k.users.Delete(username)
		if newGroup {
			_ = k.groups.Delete(user.PrimaryGroup)
		}
	}

	if err := k.groups.Ensure(user.PrimaryGroup); err != nil {
		undo()
		return nil, errs.Annotate(err, op)
	}
	if err := ensureDirectory(k.tree, paths.Home, vfs.RootUser, vfs.RootUser, vfs.DefaultDirMode); err != nil {
		undo()
		return nil, errs.Annotate(err, op)
	}
	if err := ensureDirectory(k.tree, home, username, user.PrimaryGroup, vfs.DefaultDirMode); err != nil {
		undo()
		return nil, errs.Annotate(err, op)
	}
	k.logger.Info("user registered", zap.String("user", username), zap.String("group", user.PrimaryGroup))
	return k.userInfo(username), nil
}

// FirstTimeSetup creates the first real account and sets the root
// password. It only runs while root is still passwordless.
func (k *Kernel) FirstTimeSetup(username, password, rootPassword string) (*UserInfo, error) {
	const op = "first_time_setup"
	if k.users.HasPassword(users.RootUser) {
		return nil, errs.Invariant(op, "", "System has already been set up.")
	}
	if rootPassword == "" {
		return nil, errs.Newf(errs.KindInvalidArgument, op, "", "a root password is required")
	}
	if err := k.initializeFilesystem(); err != nil {
		return nil, errs.Annotate(err, op)
	}
	info, err := k.createAccount(op, username, password, "")
	if err != nil {
		return nil, err
	}
	if err := k.groups.AddMember(info.PrimaryGroup, username); err != nil {
		return nil, errs.Annotate(err, op)
	}
	if err := k.users.ChangePassword(users.RootUser, rootPassword); err != nil {
		return nil, errs.Annotate(err, op)
	}
	k.record(users.RootUser, "first_time_setup", fmt.Sprintf("user=%s", username))
	return k.userInfo(username), nil
}

// VerifyPassword reports whether candidate authenticates username.
func (k *Kernel) VerifyPassword(username, candidate string) bool {
	return k.users.VerifyPassword(username, candidate)
}

// ChangePassword sets a new password. root may change any password;
// other users may change their own after proving the old one.
func (k *Kernel) ChangePassword(ctx Context, username, oldPassword, newPassword string) error {
	const op = "change_password"
	if !k.users.Exists(username) {
		return errs.Newf(errs.KindNotFound, op, username, "no such user")
	}
	switch {
	case ctx.IsRoot():
	case ctx.User == username:
		if !k.users.VerifyPassword(username, oldPassword) {
			return errs.New(errs.KindAuthenticationFailed, op, username)
		}
	default:
		return errs.Newf(errs.KindPermissionDenied, op, username, "cannot change another user's password")
	}
	if err := k.users.ChangePassword(username, newPassword); err != nil {
		return errs.Annotate(err, op)
	}
	k.record(ctx.User, "password_changed", fmt.Sprintf("user=%s", username))
	return nil
}

// HasPassword reports whether username has a credential.
func (k *Kernel) HasPassword(username string) bool {
	return k.users.HasPassword(username)
}

// UserExists reports whether the account exists.
func (k *Kernel) UserExists(username string) bool {
	return k.users.Exists(username)
}

// GetUser returns the account or nil.
func (k *Kernel) GetUser(username string) *UserInfo {
	if !k.users.Exists(username) {
		return nil
	}
	return k.userInfo(username)
}

func (k *Kernel) userInfo(username string) *UserInfo {
	u, _ := k.users.Get(username)
	return &UserInfo{
		Name:         u.Name,
		PrimaryGroup: u.PrimaryGroup,
		HasPassword:  u.HasPassword(),
		Groups:       k.groups.GroupsForUser(username),
		Home:         paths.UserHome(username),
	}
}

// GetAllUsers lists every account sorted by name.
func (k *Kernel) GetAllUsers() []UserInfo {
	names := k.users.Names()
	out := make([]UserInfo, 0, len(names))
	for _, name := range names {
		out = append(out, *k.userInfo(name))
	}
	return out
}

// DeleteResult reports what DeleteUserAndData removed.
type DeleteResult struct {
	User          string   `json:"user"`
	Home          string   `json:"home"`
	HomeRemoved   bool     `json:"homeRemoved"`
	Groups        []string `json:"groups"`
	GroupsDeleted []string `json:"groupsDeleted"`
}

// DeleteUserAndData removes an account, its group memberships and its
// now unused primary group, and optionally its home directory. Files it
// owns elsewhere keep the dangling owner name.
func (k *Kernel) DeleteUserAndData(ctx Context, username string, removeHome bool) (*DeleteResult, error) {
	const op = "delete_user_and_data"
	if err := requireRoot(op, ctx); err != nil {
		return nil, err
	}
	if username == users.RootUser {
		return nil, errs.Invariant(op, username, "cannot remove the root user")
	}
	if username == ctx.User {
		return nil, errs.Invariant(op, username, "cannot remove the current user")
	}
	if !k.users.Exists(username) {
		return nil, errs.Newf(errs.KindNotFound, op, username, "no such user")
	}

	home := paths.UserHome(username)
	if removeHome {
		if _, err := k.tree.Lookup(home, false); err == nil {
			if err := k.tree.Remove(home, true); err != nil {
				return nil, errs.Annotate(err, op)
			}
		}
	}

	res := &DeleteResult{User: username, Home: home, HomeRemoved: removeHome, GroupsDeleted: []string{}}
	res.Groups = k.groups.RemoveUserFromAll(username)
	user, err := k.users.Delete(username)
	if err != nil {
		return nil, errs.Annotate(err, op)
	}
	if pg := user.PrimaryGroup; pg == username && len(k.users.UsersWithPrimaryGroup(pg)) == 0 {
		if err := k.groups.Delete(pg); err == nil {
			res.GroupsDeleted = append(res.GroupsDeleted, pg)
		}
	}
	k.record(ctx.User, "user_deleted", fmt.Sprintf("user=%s remove_home=%t", username, removeHome))
	return res, nil
}

// SetPrimaryGroup reassigns username's primary group.
func (k *Kernel) SetPrimaryGroup(ctx Context, username, group string) error {
	const op = "set_primary_group"
	if err := requireRoot(op, ctx); err != nil {
		return err
	}
	if !k.groups.Exists(group) {
		return errs.Newf(errs.KindNotFound, op, group, "no such group")
	}
	if err := k.users.SetPrimaryGroup(username, group); err != nil {
		return errs.Annotate(err, op)
	}
	k.record(ctx.User, "primary_group_changed", fmt.Sprintf("user=%s group=%s", username, group))
	return nil
}

// CreateGroup adds an empty group.
func (k *Kernel) CreateGroup(ctx Context, name string) error {
	const op = "create_group"
	if err := requireRoot(op, ctx); err != nil {
		return err
	}
	if err := k.groups.Create(name); err != nil {
		return errs.Annotate(err, op)
	}
	k.record(ctx.User, "group_created", fmt.Sprintf("group=%s", name))
	return nil
}

// DeleteGroup removes a group that is nobody's primary group.
func (k *Kernel) DeleteGroup(ctx Context, name string) error {
	const op = "delete_group"
	if err := requireRoot(op, ctx); err != nil {
		return err
	}
	if err := k.groups.Delete(name); err != nil {
		return errs.Annotate(err, op)
	}
	k.record(ctx.User, "group_deleted", fmt.Sprintf("group=%s", name))
	return nil
}

// AddUserToGroup adds a supplementary membership.
func (k *Kernel) AddUserToGroup(ctx Context, username, group string) error {
	const op = "add_user_to_group"
	if err := requireRoot(op, ctx); err != nil {
		return err
	}
	if !k.users.Exists(username) {
		return errs.Newf(errs.KindNotFound, op, username, "no such user")
	}
	if err := k.groups.AddMember(group, username); err != nil {
		return errs.Annotate(err, op)
	}
	k.record(ctx.User, "group_member_added", fmt.Sprintf("group=%s user=%s", group, username))
	return nil
}

// RemoveUserFromGroup drops a supplementary membership.
func (k *Kernel) RemoveUserFromGroup(ctx Context, username, group string) error {
	const op = "remove_user_from_group"
	if err := requireRoot(op, ctx); err != nil {
		return err
	}
	if err := k.groups.RemoveMember(group, username); err != nil {
		return errs.Annotate(err, op)
	}
	k.record(ctx.User, "group_member_removed", fmt.Sprintf("group=%s user=%s", group, username))
	return nil
}

// GetAllGroups lists every group with sorted members.
func (k *Kernel) GetAllGroups() []groups.Group {
	return k.groups.All()
}

// GroupExists reports whether the group exists.
func (k *Kernel) GroupExists(name string) bool {
	return k.groups.Exists(name)
}

// GetGroupsForUser returns the primary and supplementary groups of
// username.
func (k *Kernel) GetGroupsForUser(username string) []string {
	return k.groups.GroupsForUser(username)
}

// UserGroupsMap builds the user to groups map expected in a Context.
func (k *Kernel) UserGroupsMap() map[string][]string {
	names := k.users.Names()
	out := make(map[string][]string, len(names))
	for _, name := range names {
		out[name] = k.groups.GroupsForUser(name)
	}
	return out
}

// ContextFor builds a call context for username from the kernel's own
// stores. Hosts that trust the kernel's view of group membership use it
// instead of supplying the map themselves.
func (k *Kernel) ContextFor(username, currentPath string) Context {
	if currentPath == "" {
		currentPath = paths.UserHome(username)
		if username == users.RootUser {
			currentPath = vfs.RootPath
		}
	}
	return Context{
		CurrentPath: currentPath,
		User:        username,
		UserGroups:  map[string][]string{username: k.groups.GroupsForUser(username)},
	}
}
