package principal

import (
	"sort"

	"github.com/coaching2100/sallyport/pkg/claims"
	"github.com/coaching2100/sallyport/pkg/scopes"
)

// defaultTierPermissions grants each agent tier its baseline capability set.
// hqrix intentionally holds the catch-all grant; the policy engine's agent
// self-scope rule still confines it to its own agents:<id> resources.
var defaultTierPermissions = map[AgentType][]string{
	AgentRIX:   {"view_agents"},
	AgentCRX:   {"view_agents", "operate_agents"},
	AgentQRIX:  {"view_agents", "operate_agents", "manage_agents"},
	AgentHQRIX: {"*"},
}

// defaultRolePermissions expands human roles into permission grants.
var defaultRolePermissions = map[string][]string{
	"admin":     {"*"},
	"operator":  {"operate_emergency", "view_agents", "view_projects"},
	"member":    {"view_projects"},
	"premium":   {"view_projects", "view_premium"},
	"elite11":   {"manage_projects", "view_premium", "operate_emergency"},
	"mastery33": {"manage_projects", "view_premium"},
}

// OperatorRule elevates one exact identity to additional roles. Rules are
// explicit configuration so every special case is named and auditable
// rather than buried in mapping code.
type OperatorRule struct {
	Email string   `yaml:"email"`
	Roles []string `yaml:"roles"`
	Note  string   `yaml:"note,omitempty"`
}

// Mapper converts raw claims into a normalized Principal. Mapping is a
// pure, total function of the claims: the same claims always produce the
// same principal, and anything unexpected defaults to least privilege.
type Mapper struct {
	tierPermissions map[AgentType][]string
	rolePermissions map[string][]string
	operators       map[string]OperatorRule
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithRolePermissions replaces the default role→permission table.
func WithRolePermissions(table map[string][]string) MapperOption {
	return func(m *Mapper) {
		if len(table) > 0 {
			m.rolePermissions = table
		}
	}
}

// WithTierPermissions replaces the default agent-tier permission table.
func WithTierPermissions(table map[AgentType][]string) MapperOption {
	return func(m *Mapper) {
		if len(table) > 0 {
			m.tierPermissions = table
		}
	}
}

// WithOperatorRules installs the identity override table.
func WithOperatorRules(rules []OperatorRule) MapperOption {
	return func(m *Mapper) {
		for _, r := range rules {
			if r.Email != "" {
				m.operators[r.Email] = r
			}
		}
	}
}

// NewMapper creates a Mapper with the default permission tables.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{
		tierPermissions: defaultTierPermissions,
		rolePermissions: defaultRolePermissions,
		operators:       make(map[string]OperatorRule),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map converts claims into a Principal. Agent claims without an agent id
// fail closed: the principal keeps its identity but carries no roles or
// permissions.
func (m *Mapper) Map(c claims.Claims) Principal {
	if c.IsAgent() {
		return m.mapAgent(c)
	}
	return m.mapHuman(c)
}

func (m *Mapper) mapAgent(c claims.Claims) Principal {
	p := Principal{
		ID:      c.AgentID,
		IsHuman: false,
		AgentID: c.AgentID,
	}

	// An agent assertion without an agent id is unverifiable; keep the
	// subject for audit but grant nothing.
	if c.AgentID == "" {
		p.ID = c.Subject
		return p
	}

	tier, known := ParseAgentType(c.AgentType)
	if known {
		p.AgentType = tier
		p.Permissions = append(p.Permissions, m.tierPermissions[tier]...)
	}

	p.Roles = normalizeRoles(c.Roles)
	for _, role := range p.Roles {
		p.Permissions = append(p.Permissions, m.rolePermissions[role]...)
	}

	p.Permissions = scopes.NormalizeScopes(p.Permissions)
	p.Squadron = deriveSquadron(p.Roles, p.AgentType)
	return p
}

func (m *Mapper) mapHuman(c claims.Claims) Principal {
	p := Principal{
		ID:      c.Subject,
		IsHuman: true,
		Email:   c.Email,
		Roles:   normalizeRoles(c.Roles),
	}

	if rule, ok := m.operators[c.Email]; ok {
		p.Roles = append(p.Roles, rule.Roles...)
		p.Roles = normalizeRoles(p.Roles)
	}

	for _, role := range p.Roles {
		p.Permissions = append(p.Permissions, m.rolePermissions[role]...)
	}

	p.Permissions = scopes.NormalizeScopes(p.Permissions)
	p.Squadron = deriveSquadron(p.Roles, "")
	return p
}

// deriveSquadron computes the squadron from roles and agent tier alone so
// the grouping is reproducible from claims on every evaluation.
func deriveSquadron(roles []string, tier AgentType) Squadron {
	if tier == AgentHQRIX {
		return SquadronElite11
	}
	for _, role := range roles {
		switch role {
		case "elite11":
			return SquadronElite11
		case "mastery33":
			return SquadronMastery33
		}
	}
	return SquadronNone
}

// normalizeRoles deduplicates and sorts roles so mapping output is stable
// regardless of claim ordering.
func normalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
