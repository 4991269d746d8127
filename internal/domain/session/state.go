package session

// State bundles the session components of one kernel instance.
type State struct {
	Env      *Environment
	History  *History
	Aliases  *Aliases
	Identity *IdentityStack
}

// New creates an empty session. historySize <= 0 uses
// DefaultHistorySize.
func New(historySize int) *State {
	return &State{
		Env:      NewEnvironment(),
		History:  NewHistory(historySize),
		Aliases:  NewAliases(),
		Identity: NewIdentityStack(""),
	}
}

// Initialize prepares a fresh login for user: base environment, default
// aliases when the table is empty, and an identity stack of depth 1.
func (s *State) Initialize(user, host string) {
	s.Env.Reset(BaseEnvironment(user, host))
	if s.Aliases.Len() == 0 {
		s.Aliases.Load(DefaultAliases())
	}
	s.Identity.Clear(user)
}

// Snapshot is the persisted part of a session. The identity stack is
// boot-scoped and not saved.
type Snapshot struct {
	CommandHistory       []string          `json:"commandHistory" mapstructure:"commandHistory"`
	EnvironmentVariables map[string]string `json:"environmentVariables" mapstructure:"environmentVariables"`
	Aliases              map[string]string `json:"aliases" mapstructure:"aliases"`
}

// Snapshot captures history, environment and aliases.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		CommandHistory:       s.History.Entries(),
		EnvironmentVariables: s.Env.All(),
		Aliases:              s.Aliases.All(),
	}
}

// Restore applies a snapshot. Missing sections reset their component:
// history is cleared, the environment and aliases fall back to the
// supplied defaults.
func (s *State) Restore(snap Snapshot, baseEnv map[string]string) {
	s.History.Set(snap.CommandHistory)

	if snap.EnvironmentVariables != nil {
		s.Env.Reset(snap.EnvironmentVariables)
	} else {
		s.Env.Reset(baseEnv)
	}

	if snap.Aliases != nil {
		s.Aliases.Load(snap.Aliases)
	} else if s.Aliases.Len() == 0 {
		s.Aliases.Load(DefaultAliases())
	}
}
