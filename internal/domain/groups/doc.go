// Package groups implements the group store.
//
// A group holds only its supplementary members. Primary-group membership
// is derived from each user's primaryGroup field and is never stored
// twice, so:
//
//	GroupsForUser(u) = {primaryGroup(u)} ∪ {g : u ∈ g.members}
//
// A group that is still some user's primary group cannot be deleted.
package groups
