package types

// Category groups boundary modules.
type Category string

const (
	CategoryFilesystem Category = "filesystem"
	CategoryAccounts   Category = "accounts"
	CategorySession    Category = "session"
	CategorySecurity   Category = "security"
	CategoryShell      Category = "shell"
)

// Service describes one boundary module and its functions.
type Service struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Capabilities []string `json:"capabilities"`
	Tools        []Tool   `json:"tools"`
}

// Tool describes one function of a module. Its ID is "module.function".
type Tool struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`

	// Mutates marks tools whose success changes persisted state.
	Mutates bool `json:"mutates,omitempty"`
}

// Parameter describes one argument. Positional arguments bind to
// parameters in declaration order.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Context is the caller-supplied identity of one invocation.
type Context struct {
	CurrentPath string              `json:"current_path" mapstructure:"current_path"`
	User        string              `json:"user" mapstructure:"user"`
	UserGroups  map[string][]string `json:"user_groups" mapstructure:"user_groups"`
	MaxVFSSize  int64               `json:"max_vfs_size,omitempty" mapstructure:"max_vfs_size"`
	RequestID   string              `json:"request_id,omitempty" mapstructure:"request_id"`
}
