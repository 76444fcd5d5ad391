package policy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/coaching2100/sallyport/pkg/principal"
	"github.com/coaching2100/sallyport/pkg/scopes"
)

// Action is a request verb evaluated against a resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionExecute Action = "execute"
)

// Rule names identify which evaluation step produced a decision, for audit.
const (
	RuleAgentSelfScope   = "agent_self_scope"
	RuleActionPermission = "action_permission"
	RuleSuperPermission  = "super_permission"
	RuleDefaultDeny      = "default_deny"
)

// Decision is the outcome of a single authorization evaluation.
type Decision struct {
	Allowed bool
	Rule    string
	Reason  string
}

// Engine evaluates whether a principal is authorized for a (resource,
// action) pair. Resources are namespaced as "<type>:<identifier>".
//
// Rules fire in a fixed order, first match wins, falling through to deny:
//
//  1. agent self-scope: an agent may only act on agents:<its own id>
//  2. action→permission mapping (manage_/view_/operate_ prefixes)
//  3. catch-all "*" permission
//  4. deny
//
// The ordering is load-bearing: rule 1 runs before rule 3 so an agent
// holding a catch-all grant still cannot cross agent boundaries.
type Engine struct{}

// NewEngine creates a stateless policy engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs the rule chain and returns the full decision.
func (e *Engine) Evaluate(p principal.Principal, resource string, action Action) Decision {
	resourceType, resourceID := SplitResource(resource)

	// Rule 1: agents never reach across agent boundaries, no matter what
	// other grants they hold.
	if p.AgentID != "" && resourceType == "agents" && resourceID != p.AgentID {
		return Decision{
			Allowed: false,
			Rule:    RuleAgentSelfScope,
			Reason:  fmt.Sprintf("agent %s denied access to %s", p.AgentID, resource),
		}
	}

	required := PermissionFor(action, resourceType)
	if required == "" {
		return Decision{
			Allowed: false,
			Rule:    RuleDefaultDeny,
			Reason:  fmt.Sprintf("unknown action %q", action),
		}
	}

	// Rule 2: direct or prefix-wildcard grant for the mapped permission.
	for _, granted := range p.Permissions {
		if granted != scopes.Wildcard && scopes.Matches(required, granted) {
			return Decision{Allowed: true, Rule: RuleActionPermission, Reason: required}
		}
	}

	// Rule 3: catch-all grant.
	if slices.Contains(p.Permissions, scopes.Wildcard) {
		return Decision{Allowed: true, Rule: RuleSuperPermission, Reason: "catch-all grant"}
	}

	return Decision{
		Allowed: false,
		Rule:    RuleDefaultDeny,
		Reason:  fmt.Sprintf("missing permission %q", required),
	}
}

// Authorize is the boolean convenience form of Evaluate.
func (e *Engine) Authorize(p principal.Principal, resource string, action Action) bool {
	return e.Evaluate(p, resource, action).Allowed
}

// PermissionFor maps an action on a resource type to the permission that
// grants it. Unknown actions map to "" and are denied by the engine.
func PermissionFor(action Action, resourceType string) string {
	switch action {
	case ActionCreate, ActionUpdate, ActionDelete:
		return "manage_" + resourceType
	case ActionRead:
		return "view_" + resourceType
	case ActionExecute:
		return "operate_" + resourceType
	}
	return ""
}

// SplitResource splits "<type>:<identifier>" into its parts. A resource
// without a delimiter is treated as a bare type with an empty identifier.
func SplitResource(resource string) (resourceType, resourceID string) {
	if i := strings.Index(resource, ":"); i >= 0 {
		return resource[:i], resource[i+1:]
	}
	return resource, ""
}
