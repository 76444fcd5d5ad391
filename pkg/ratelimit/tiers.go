package ratelimit

import "github.com/coaching2100/sallyport/pkg/principal"

// Tier classifies a caller for budget purposes.
type Tier string

const (
	TierAnonymous     Tier = "anonymous"
	TierAuthenticated Tier = "authenticated"
	TierRIX           Tier = "rix"
	TierCRX           Tier = "crx"
	TierQRIX          Tier = "qrix"
	TierHQRIX         Tier = "hqrix"
	TierUnknownAgent  Tier = "unknown_agent"
)

// tierLimits is the requests-per-window budget table, ascending privilege.
// An unrecognized agent type fails toward the conservative 500, never
// toward unlimited.
var tierLimits = map[Tier]int{
	TierAnonymous:     200,
	TierAuthenticated: 2000,
	TierRIX:           5000,
	TierCRX:           10000,
	TierQRIX:          20000,
	TierHQRIX:         50000,
	TierUnknownAgent:  500,
}

// TierFor classifies a principal. Anonymous principals (no id) fall to the
// anonymous tier; agents without a recognized type get the conservative
// unknown-agent budget.
func TierFor(p principal.Principal) Tier {
	if p.IsAnonymous() {
		return TierAnonymous
	}
	if p.IsHuman {
		return TierAuthenticated
	}
	switch p.AgentType {
	case principal.AgentRIX:
		return TierRIX
	case principal.AgentCRX:
		return TierCRX
	case principal.AgentQRIX:
		return TierQRIX
	case principal.AgentHQRIX:
		return TierHQRIX
	}
	return TierUnknownAgent
}

// Limit returns the per-window request budget for the tier.
func (t Tier) Limit() int {
	if limit, ok := tierLimits[t]; ok {
		return limit
	}
	return tierLimits[TierUnknownAgent]
}
