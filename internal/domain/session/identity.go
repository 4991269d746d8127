package session

// IdentityStack is the nested login/su chain. The bottom entry is the
// original login; each push is one identity switch.
type IdentityStack struct {
	users []string
}

// NewIdentityStack creates a stack of depth 1 holding user.
func NewIdentityStack(user string) *IdentityStack {
	return &IdentityStack{users: []string{user}}
}

// Push switches to user.
func (s *IdentityStack) Push(user string) {
	s.users = append(s.users, user)
}

// Pop reverts the most recent switch and returns the user it left. At
// depth 1 it does nothing and reports false.
func (s *IdentityStack) Pop() (string, bool) {
	if len(s.users) <= 1 {
		return "", false
	}
	top := s.users[len(s.users)-1]
	s.users = s.users[:len(s.users)-1]
	return top, true
}

// Current returns the active identity.
func (s *IdentityStack) Current() string {
	if len(s.users) == 0 {
		return ""
	}
	return s.users[len(s.users)-1]
}

// Clear resets the stack to depth 1 holding user.
func (s *IdentityStack) Clear(user string) {
	s.users = []string{user}
}

// Stack returns a copy of the chain, bottom first.
func (s *IdentityStack) Stack() []string {
	return append([]string(nil), s.users...)
}

// Depth returns the number of entries.
func (s *IdentityStack) Depth() int {
	return len(s.users)
}

// CanLogout reports whether there is a switch to revert.
func (s *IdentityStack) CanLogout() bool {
	return len(s.users) > 1
}
