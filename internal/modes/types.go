package modes

import "strings"

// AgentRoleConfig is one validated role entry from a phase's configuration
// document. Downstream code operates on this typed record only, never on the
// raw YAML maps.
type AgentRoleConfig struct {
	Slug           string   `yaml:"slug" json:"slug"`
	Name           string   `yaml:"name" json:"name"`
	RoleDefinition string   `yaml:"roleDefinition" json:"roleDefinition"`
	Description    string   `yaml:"description,omitempty" json:"description,omitempty"`
	WhenToUse      string   `yaml:"whenToUse,omitempty" json:"whenToUse,omitempty"`
	Groups         []string `yaml:"groups,omitempty" json:"groups,omitempty"`
	Source         string   `yaml:"source,omitempty" json:"source,omitempty"`

	// Tools is the allow-list of tool names the role may use. An absent or
	// empty list means every registered tool is permitted. This default-allow
	// semantic is deliberate; tests cover both branches.
	Tools []string `yaml:"tools,omitempty" json:"tools,omitempty"`

	// InitialTask is the first-message template for phase-1 roles. It may
	// reference {symbol} and {as_of}.
	InitialTask string `yaml:"initial_task,omitempty" json:"initial_task,omitempty"`

	// Mandatory marks a role whose failure fails the whole phase even in a
	// parallel phase.
	Mandatory bool `yaml:"mandatory,omitempty" json:"mandatory,omitempty"`
}

// InternalKey derives the short role key from the slug: the "-analyst"
// suffix is stripped and dashes become underscores, so "market-analyst"
// resolves as "market".
func (c AgentRoleConfig) InternalKey() string {
	return strings.ReplaceAll(strings.TrimSuffix(c.Slug, "-analyst"), "-", "_")
}

// AllowsTool reports whether the role may use the named tool. An empty
// allow-list permits everything.
func (c AgentRoleConfig) AllowsTool(name string) bool {
	if len(c.Tools) == 0 {
		return true
	}
	for _, t := range c.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// PhaseAgentSet is the resolved role configuration for one phase.
type PhaseAgentSet struct {
	PhaseID int
	Path    string
	Exists  bool
	Roles   []AgentRoleConfig
}

// Find locates a role by slug, internal key, or display name.
func (s *PhaseAgentSet) Find(id string) (AgentRoleConfig, bool) {
	for _, role := range s.Roles {
		if role.Slug == id || role.InternalKey() == id || role.Name == id {
			return role, true
		}
	}
	return AgentRoleConfig{}, false
}

// Slugs returns role slugs in declaration order.
func (s *PhaseAgentSet) Slugs() []string {
	slugs := make([]string, 0, len(s.Roles))
	for _, role := range s.Roles {
		slugs = append(slugs, role.Slug)
	}
	return slugs
}
