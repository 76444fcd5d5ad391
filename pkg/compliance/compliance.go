package compliance

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPolicy is returned when a policy file cannot be read or parsed.
var ErrInvalidPolicy = errors.New("compliance: invalid policy")

// DefaultRetentionYears is the audit retention mandated by the compliance
// policy when a file does not say otherwise.
const DefaultRetentionYears = 7

// Policy is the static compliance configuration for a deployment.
// Single-region deployments are legitimate; the allow-list may contain
// exactly one entry.
type Policy struct {
	AllowedRegions      []string `yaml:"allowed_regions"`
	CrossRegionTransfer bool     `yaml:"cross_region_transfer"`
	RetentionYears      int      `yaml:"retention_years"`
}

// Gate performs stateless compliance checks against a static policy.
type Gate struct {
	allowed             map[string]struct{}
	regions             []string
	crossRegionTransfer bool
	retentionYears      int
}

// NewGate creates a Gate from a policy. Regions are normalized lower-case.
func NewGate(p Policy) *Gate {
	g := &Gate{
		allowed:             make(map[string]struct{}, len(p.AllowedRegions)),
		crossRegionTransfer: p.CrossRegionTransfer,
		retentionYears:      p.RetentionYears,
	}
	if g.retentionYears <= 0 {
		g.retentionYears = DefaultRetentionYears
	}
	for _, r := range p.AllowedRegions {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, ok := g.allowed[r]; ok {
			continue
		}
		g.allowed[r] = struct{}{}
		g.regions = append(g.regions, r)
	}
	return g
}

// LoadPolicy reads a YAML compliance policy file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, errors.Join(ErrInvalidPolicy, err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, errors.Join(ErrInvalidPolicy, err)
	}
	return p, nil
}

// IsRegionAllowed reports whether requests from the region may be served.
// An empty allow-list admits nothing.
func (g *Gate) IsRegionAllowed(region string) bool {
	_, ok := g.allowed[strings.ToLower(region)]
	return ok
}

// AllowedRegions returns the configured allow-list in configuration order.
func (g *Gate) AllowedRegions() []string {
	out := make([]string, len(g.regions))
	copy(out, g.regions)
	return out
}

// CanAccessData reports whether a request resolved to requestRegion may
// touch data tagged with dataRegion. When cross-region transfer is
// disabled this is a second, independent check beyond the allow-list:
// both regions being allow-listed is not enough.
func (g *Gate) CanAccessData(requestRegion, dataRegion string) bool {
	if !g.IsRegionAllowed(requestRegion) {
		return false
	}
	if dataRegion == "" {
		return true
	}
	if g.crossRegionTransfer {
		return true
	}
	return strings.EqualFold(requestRegion, dataRegion)
}

// RetentionYears returns how long audit records must be kept.
func (g *Gate) RetentionYears() int {
	return g.retentionYears
}
