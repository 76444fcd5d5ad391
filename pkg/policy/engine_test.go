package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coaching2100/sallyport/pkg/policy"
	"github.com/coaching2100/sallyport/pkg/principal"
)

func TestEngine_Evaluate(t *testing.T) {
	t.Parallel()
	engine := policy.NewEngine()

	agent := principal.Principal{
		ID:          "agent-42",
		AgentID:     "agent-42",
		AgentType:   principal.AgentQRIX,
		Permissions: []string{"manage_agents", "operate_agents", "view_agents"},
	}

	superAgent := principal.Principal{
		ID:          "agent-7",
		AgentID:     "agent-7",
		AgentType:   principal.AgentHQRIX,
		Permissions: []string{"*"},
	}

	admin := principal.Principal{
		ID:          "user-1",
		IsHuman:     true,
		Permissions: []string{"*"},
	}

	member := principal.Principal{
		ID:          "user-2",
		IsHuman:     true,
		Permissions: []string{"view_projects"},
	}

	tests := []struct {
		name     string
		p        principal.Principal
		resource string
		action   policy.Action
		allowed  bool
		rule     string
	}{
		{
			name:     "agent acts on itself",
			p:        agent,
			resource: "agents:agent-42",
			action:   policy.ActionUpdate,
			allowed:  true,
			rule:     policy.RuleActionPermission,
		},
		{
			name:     "agent denied cross-agent access",
			p:        agent,
			resource: "agents:agent-99",
			action:   policy.ActionRead,
			allowed:  false,
			rule:     policy.RuleAgentSelfScope,
		},
		{
			name:     "super permission cannot cross agent boundary",
			p:        superAgent,
			resource: "agents:agent-42",
			action:   policy.ActionRead,
			allowed:  false,
			rule:     policy.RuleAgentSelfScope,
		},
		{
			name:     "super agent acts on itself",
			p:        superAgent,
			resource: "agents:agent-7",
			action:   policy.ActionDelete,
			allowed:  true,
			rule:     policy.RuleSuperPermission,
		},
		{
			name:     "admin catch-all grants anything",
			p:        admin,
			resource: "projects:p-1",
			action:   policy.ActionDelete,
			allowed:  true,
			rule:     policy.RuleSuperPermission,
		},
		{
			name:     "human catch-all reaches agent resources",
			p:        admin,
			resource: "agents:agent-42",
			action:   policy.ActionUpdate,
			allowed:  true,
			rule:     policy.RuleSuperPermission,
		},
		{
			name:     "read maps to view permission",
			p:        member,
			resource: "projects:p-1",
			action:   policy.ActionRead,
			allowed:  true,
			rule:     policy.RuleActionPermission,
		},
		{
			name:     "write requires manage permission",
			p:        member,
			resource: "projects:p-1",
			action:   policy.ActionUpdate,
			allowed:  false,
			rule:     policy.RuleDefaultDeny,
		},
		{
			name:     "execute requires operate permission",
			p:        member,
			resource: "emergency:latch",
			action:   policy.ActionExecute,
			allowed:  false,
			rule:     policy.RuleDefaultDeny,
		},
		{
			name:     "unknown action denied",
			p:        admin,
			resource: "projects:p-1",
			action:   policy.Action("purge"),
			allowed:  false,
			rule:     policy.RuleDefaultDeny,
		},
		{
			name:     "anonymous principal denied",
			p:        principal.Principal{},
			resource: "projects:p-1",
			action:   policy.ActionRead,
			allowed:  false,
			rule:     policy.RuleDefaultDeny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := engine.Evaluate(tt.p, tt.resource, tt.action)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, tt.allowed, engine.Authorize(tt.p, tt.resource, tt.action))
		})
	}
}

func TestPermissionFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "manage_projects", policy.PermissionFor(policy.ActionCreate, "projects"))
	assert.Equal(t, "manage_projects", policy.PermissionFor(policy.ActionUpdate, "projects"))
	assert.Equal(t, "manage_projects", policy.PermissionFor(policy.ActionDelete, "projects"))
	assert.Equal(t, "view_projects", policy.PermissionFor(policy.ActionRead, "projects"))
	assert.Equal(t, "operate_emergency", policy.PermissionFor(policy.ActionExecute, "emergency"))
	assert.Equal(t, "", policy.PermissionFor(policy.Action("purge"), "projects"))
}

func TestSplitResource(t *testing.T) {
	t.Parallel()

	typ, id := policy.SplitResource("agents:agent-42")
	assert.Equal(t, "agents", typ)
	assert.Equal(t, "agent-42", id)

	typ, id = policy.SplitResource("projects")
	assert.Equal(t, "projects", typ)
	assert.Equal(t, "", id)

	typ, id = policy.SplitResource("files:bucket:object")
	assert.Equal(t, "files", typ)
	assert.Equal(t, "bucket:object", id)
}
