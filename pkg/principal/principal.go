package principal

import (
	"slices"

	"github.com/coaching2100/sallyport/pkg/scopes"
)

// AgentType identifies one of the four autonomous-caller tiers, in
// ascending privilege order: rix < crx < qrix < hqrix.
type AgentType string

const (
	AgentRIX   AgentType = "rix"
	AgentCRX   AgentType = "crx"
	AgentQRIX  AgentType = "qrix"
	AgentHQRIX AgentType = "hqrix"
)

// ParseAgentType normalizes a raw agent type claim. Unknown values return
// false so callers fall back to conservative defaults, never elevated ones.
func ParseAgentType(s string) (AgentType, bool) {
	switch AgentType(s) {
	case AgentRIX, AgentCRX, AgentQRIX, AgentHQRIX:
		return AgentType(s), true
	}
	return "", false
}

// Squadron is a named principal grouping derived from roles and agent type.
// It is never settable directly; Map recomputes it on every evaluation.
type Squadron string

const (
	SquadronNone      Squadron = ""
	SquadronElite11   Squadron = "elite_11"
	SquadronMastery33 Squadron = "mastery_33"
)

// Principal is the normalized identity attached to a request after token
// validation. All downstream decisions (policy, rate limits, audit) read
// from this structure and never re-derive identity from the raw token.
type Principal struct {
	ID          string
	IsHuman     bool
	Email       string
	AgentID     string
	AgentType   AgentType
	Roles       []string
	Permissions []string
	Squadron    Squadron
}

// IsAnonymous reports whether the request carried no authenticated identity.
func (p Principal) IsAnonymous() bool {
	return p.ID == ""
}

// HasRole reports whether the principal holds the exact role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// HasPermission reports whether the principal holds a permission, honoring
// wildcard grants such as "*" or "manage_*".
func (p Principal) HasPermission(permission string) bool {
	return scopes.HasScope(p.Permissions, permission)
}

// RateKey returns the identity key used for request-budget accounting.
// Agent id takes precedence over user id; anonymous principals return ""
// and are keyed by client IP at the call site.
func (p Principal) RateKey() string {
	if p.AgentID != "" {
		return "agent:" + p.AgentID
	}
	if p.ID != "" {
		return "user:" + p.ID
	}
	return ""
}
