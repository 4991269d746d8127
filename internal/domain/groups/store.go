package groups

import (
	"sort"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/utils"
)

// Group is a named set of supplementary members.
type Group struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Record is the persisted form of a group, keyed by name.
type Record struct {
	Members []string `json:"members"`
}

// PrimaryIndex answers which users hold a group as their primary group.
// The user store satisfies it.
type PrimaryIndex interface {
	PrimaryGroup(username string) (string, bool)
	UsersWithPrimaryGroup(group string) []string
}

// Store holds every group. It is not safe for concurrent use.
type Store struct {
	groups map[string]map[string]struct{}
	users  PrimaryIndex
}

// NewStore creates an empty store. users may be nil, in which case
// primary-group protection and derivation are disabled.
func NewStore(users PrimaryIndex) *Store {
	return &Store{
		groups: make(map[string]map[string]struct{}),
		users:  users,
	}
}

// InitializeDefaults creates each named group when missing.
func (s *Store) InitializeDefaults(names ...string) {
	for _, name := range names {
		if _, ok := s.groups[name]; !ok {
			s.groups[name] = make(map[string]struct{})
		}
	}
}

// Create adds an empty group.
func (s *Store) Create(name string) error {
	const op = "create_group"
	if err := utils.ValidateGroupName(name); err != nil {
		return errs.Newf(errs.KindInvalidName, op, name, "%v", err)
	}
	if _, ok := s.groups[name]; ok {
		return errs.Newf(errs.KindAlreadyExists, op, name, "group already exists")
	}
	s.groups[name] = make(map[string]struct{})
	return nil
}

// Ensure creates name unless it already exists.
func (s *Store) Ensure(name string) error {
	if s.Exists(name) {
		return nil
	}
	return s.Create(name)
}

// Delete removes a group. A group that is any user's primary group is
// kept.
func (s *Store) Delete(name string) error {
	const op = "delete_group"
	if _, ok := s.groups[name]; !ok {
		return errs.Newf(errs.KindNotFound, op, name, "no such group")
	}
	if s.users != nil {
		if holders := s.users.UsersWithPrimaryGroup(name); len(holders) > 0 {
			return errs.Invariant(op, name, "group is the primary group of '"+holders[0]+"'")
		}
	}
	delete(s.groups, name)
	return nil
}

// AddMember adds a supplementary member. Adding an existing member is a
// no-op.
func (s *Store) AddMember(group, username string) error {
	members, ok := s.groups[group]
	if !ok {
		return errs.Newf(errs.KindNotFound, "add_user_to_group", group, "no such group")
	}
	members[username] = struct{}{}
	return nil
}

// RemoveMember removes a supplementary member.
func (s *Store) RemoveMember(group, username string) error {
	const op = "remove_user_from_group"
	members, ok := s.groups[group]
	if !ok {
		return errs.Newf(errs.KindNotFound, op, group, "no such group")
	}
	if _, ok := members[username]; !ok {
		return errs.Newf(errs.KindNotFound, op, username, "user is not a member of '%s'", group)
	}
	delete(members, username)
	return nil
}

// RemoveUserFromAll strips username from every member set and returns
// the groups it was removed from.
func (s *Store) RemoveUserFromAll(username string) []string {
	var removed []string
	for name, members := range s.groups {
		if _, ok := members[username]; ok {
			delete(members, username)
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	return removed
}

// GroupsForUser returns the primary group of username together with
// every group listing it as a member, deduplicated and sorted.
func (s *Store) GroupsForUser(username string) []string {
	set := make(map[string]struct{})
	if s.users != nil {
		if primary, ok := s.users.PrimaryGroup(username); ok && primary != "" {
			set[primary] = struct{}{}
		}
	}
	for name, members := range s.groups {
		if _, ok := members[username]; ok {
			set[name] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Exists reports whether the group is defined.
func (s *Store) Exists(name string) bool {
	_, ok := s.groups[name]
	return ok
}

// IsMember reports supplementary membership only.
func (s *Store) IsMember(group, username string) bool {
	members, ok := s.groups[group]
	if !ok {
		return false
	}
	_, ok = members[username]
	return ok
}

// Get returns the group with its members sorted.
func (s *Store) Get(name string) (Group, bool) {
	members, ok := s.groups[name]
	if !ok {
		return Group{}, false
	}
	return Group{Name: name, Members: sortedKeys(members)}, true
}

// All returns every group ordered by name.
func (s *Store) All() []Group {
	out := make([]Group, 0, len(s.groups))
	for _, name := range s.Names() {
		g, _ := s.Get(name)
		out = append(out, g)
	}
	return out
}

// Names returns every group name in lexical order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Export returns the persisted form of every group.
func (s *Store) Export() map[string]Record {
	out := make(map[string]Record, len(s.groups))
	for name, members := range s.groups {
		out[name] = Record{Members: sortedKeys(members)}
	}
	return out
}

// Load replaces every group with records.
func (s *Store) Load(records map[string]Record) error {
	loaded := make(map[string]map[string]struct{}, len(records))
	for name, rec := range records {
		if name == "" {
			return errs.Newf(errs.KindInvalidName, "load_groups", name, "empty group name")
		}
		members := make(map[string]struct{}, len(rec.Members))
		for _, m := range rec.Members {
			members[m] = struct{}{}
		}
		loaded[name] = members
	}
	s.groups = loaded
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
