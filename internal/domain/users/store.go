// Package users implements the account store: credentials, primary
// groups and existence checks.
package users

import (
	"sort"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/utils"
)

// RootUser is the superuser account, created by InitializeDefaults.
const RootUser = "root"

// User is a registered account.
type User struct {
	Name         string
	PasswordData *PasswordData
	PrimaryGroup string
}

// HasPassword reports whether the account carries a credential.
func (u *User) HasPassword() bool {
	return u.PasswordData != nil
}

// Record is the persisted form of a user, keyed by name in the state
// document.
type Record struct {
	PasswordData *PasswordData `json:"passwordData"`
	PrimaryGroup string        `json:"primaryGroup"`
}

// Store holds every user account. It is not safe for concurrent use.
type Store struct {
	users  map[string]*User
	hasher *Hasher
}

// NewStore creates an empty store. A nil hasher uses the default cost.
func NewStore(hasher *Hasher) *Store {
	if hasher == nil {
		hasher = NewHasher(DefaultIterations)
	}
	return &Store{
		users:  make(map[string]*User),
		hasher: hasher,
	}
}

// InitializeDefaults creates the passwordless root account and the
// passwordless default user when they are missing.
func (s *Store) InitializeDefaults(defaultUser string) {
	if _, ok := s.users[RootUser]; !ok {
		s.users[RootUser] = &User{Name: RootUser, PrimaryGroup: RootUser}
	}
	if defaultUser != "" {
		if _, ok := s.users[defaultUser]; !ok {
			s.users[defaultUser] = &User{Name: defaultUser, PrimaryGroup: defaultUser}
		}
	}
}

// Register creates an account. An empty password creates a passwordless
// account; an empty primaryGroup defaults to the username.
func (s *Store) Register(username, password, primaryGroup string) (*User, error) {
	const op = "register_user"
	if err := utils.ValidateUsername(username); err != nil {
		return nil, errs.Newf(errs.KindInvalidName, op, username, "%v", err)
	}
	if _, exists := s.users[username]; exists {
		return nil, errs.Newf(errs.KindAlreadyExists, op, username, "user already exists")
	}
	if primaryGroup == "" {
		primaryGroup = username
	}
	if err := utils.ValidateGroupName(primaryGroup); err != nil {
		return nil, errs.Newf(errs.KindInvalidName, op, primaryGroup, "%v", err)
	}

	user := &User{Name: username, PrimaryGroup: primaryGroup}
	if password != "" {
		data, err := s.hasher.Hash(password)
		if err != nil {
			return nil, err
		}
		user.PasswordData = data
	}

	s.users[username] = user
	cp := *user
	return &cp, nil
}

// VerifyPassword checks candidate against the stored credential.
// Passwordless accounts accept every candidate, including the empty
// string; unknown users never verify.
func (s *Store) VerifyPassword(username, candidate string) bool {
	user, ok := s.users[username]
	if !ok {
		return false
	}
	if user.PasswordData == nil {
		return true
	}
	return s.hasher.Verify(user.PasswordData, candidate)
}

// Authenticate is VerifyPassword reported as an error.
func (s *Store) Authenticate(username, candidate string) error {
	if !s.VerifyPassword(username, candidate) {
		return errs.New(errs.KindAuthenticationFailed, "authenticate", username)
	}
	return nil
}

// ChangePassword replaces the credential of username. An empty password
// makes the account passwordless.
func (s *Store) ChangePassword(username, password string) error {
	user, ok := s.users[username]
	if !ok {
		return errs.Newf(errs.KindNotFound, "change_password", username, "no such user")
	}
	if password == "" {
		user.PasswordData = nil
		return nil
	}
	data, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	user.PasswordData = data
	return nil
}

// HasPassword reports whether username exists and carries a credential.
func (s *Store) HasPassword(username string) bool {
	user, ok := s.users[username]
	return ok && user.HasPassword()
}

// Exists reports whether username is registered.
func (s *Store) Exists(username string) bool {
	_, ok := s.users[username]
	return ok
}

// Get returns a copy of the account.
func (s *Store) Get(username string) (User, bool) {
	user, ok := s.users[username]
	if !ok {
		return User{}, false
	}
	return *user, true
}

// PrimaryGroup returns the primary group of username.
func (s *Store) PrimaryGroup(username string) (string, bool) {
	user, ok := s.users[username]
	if !ok {
		return "", false
	}
	return user.PrimaryGroup, true
}

// SetPrimaryGroup changes the primary group of username.
func (s *Store) SetPrimaryGroup(username, group string) error {
	user, ok := s.users[username]
	if !ok {
		return errs.Newf(errs.KindNotFound, "set_primary_group", username, "no such user")
	}
	user.PrimaryGroup = group
	return nil
}

// UsersWithPrimaryGroup lists the users whose primary group is group.
func (s *Store) UsersWithPrimaryGroup(group string) []string {
	var names []string
	for name, user := range s.users {
		if user.PrimaryGroup == group {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Delete removes an account and returns it. The root account cannot be
// deleted.
func (s *Store) Delete(username string) (User, error) {
	const op = "delete_user"
	if username == RootUser {
		return User{}, errs.Invariant(op, username, "cannot remove the root account")
	}
	user, ok := s.users[username]
	if !ok {
		return User{}, errs.Newf(errs.KindNotFound, op, username, "no such user")
	}
	delete(s.users, username)
	return *user, nil
}

// Names returns every username in lexical order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	return len(s.users)
}

// Export returns the persisted form of every account.
func (s *Store) Export() map[string]Record {
	out := make(map[string]Record, len(s.users))
	for name, user := range s.users {
		rec := Record{PrimaryGroup: user.PrimaryGroup}
		if user.PasswordData != nil {
			pd := *user.PasswordData
			rec.PasswordData = &pd
		}
		out[name] = rec
	}
	return out
}

// Load replaces every account with records. Nothing changes when a
// record is invalid.
func (s *Store) Load(records map[string]Record) error {
	loaded := make(map[string]*User, len(records))
	for name, rec := range records {
		if name == "" {
			return errs.Newf(errs.KindInvalidName, "load_users", name, "empty username")
		}
		primary := rec.PrimaryGroup
		if primary == "" {
			primary = name
		}
		user := &User{Name: name, PrimaryGroup: primary}
		if rec.PasswordData != nil {
			pd := *rec.PasswordData
			user.PasswordData = &pd
		}
		loaded[name] = user
	}
	s.users = loaded
	return nil
}
