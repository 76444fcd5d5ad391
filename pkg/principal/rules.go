package principal

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRuleFile is returned when a rule file cannot be read or parsed.
var ErrInvalidRuleFile = errors.New("principal: invalid rule file")

// RuleFile is the on-disk policy table consumed by NewMapper. Keeping the
// tables in configuration makes every identity special case reviewable.
//
//	roles:
//	  admin: ["*"]
//	  member: ["view_projects"]
//	tiers:
//	  qrix: ["view_agents", "operate_agents", "manage_agents"]
//	operators:
//	  - email: pr@coaching2100.com
//	    roles: ["admin", "elite11"]
//	    note: distinguished operator override
type RuleFile struct {
	Roles     map[string][]string `yaml:"roles"`
	Tiers     map[string][]string `yaml:"tiers"`
	Operators []OperatorRule      `yaml:"operators"`
}

// LoadRules reads a YAML rule file and returns mapper options for it.
func LoadRules(path string) ([]MapperOption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidRuleFile, err)
	}
	return ParseRules(data)
}

// ParseRules parses YAML rule content into mapper options.
func ParseRules(data []byte) ([]MapperOption, error) {
	var f RuleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrInvalidRuleFile, err)
	}

	var opts []MapperOption
	if len(f.Roles) > 0 {
		opts = append(opts, WithRolePermissions(f.Roles))
	}
	if len(f.Tiers) > 0 {
		tiers := make(map[AgentType][]string, len(f.Tiers))
		for name, perms := range f.Tiers {
			tier, ok := ParseAgentType(name)
			if !ok {
				return nil, fmt.Errorf("%w: unknown agent tier %q", ErrInvalidRuleFile, name)
			}
			tiers[tier] = perms
		}
		opts = append(opts, WithTierPermissions(tiers))
	}
	if len(f.Operators) > 0 {
		opts = append(opts, WithOperatorRules(f.Operators))
	}
	return opts, nil
}
