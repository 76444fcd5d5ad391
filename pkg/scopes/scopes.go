package scopes

import (
	"slices"
	"sort"
	"strings"
)

const (
	// Wildcard matches every permission when granted on its own, or every
	// permission sharing a prefix when used as a suffix ("manage_*").
	Wildcard = "*"

	// Delimiter separates the verb from the resource type in a permission
	// string, e.g. "manage_projects".
	Delimiter = "_"
)

// Matches reports whether a granted pattern covers the requested permission.
//
// Matching rules:
//   - exact: "view_projects" covers "view_projects"
//   - global wildcard: "*" covers anything
//   - prefix wildcard: "manage_*" covers "manage_projects"
func Matches(permission, pattern string) bool {
	if permission == pattern || pattern == Wildcard {
		return true
	}
	if strings.HasSuffix(pattern, Wildcard) {
		prefix := strings.TrimSuffix(pattern, Wildcard)
		return prefix != "" && strings.HasPrefix(permission, prefix)
	}
	return false
}

// HasScope reports whether any granted permission covers the requested one.
func HasScope(granted []string, permission string) bool {
	for _, g := range granted {
		if Matches(permission, g) {
			return true
		}
	}
	return false
}

// HasAllScopes reports whether every required permission is covered.
// An empty required set is trivially satisfied.
func HasAllScopes(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(granted) == 0 {
		return false
	}
	if slices.Contains(granted, Wildcard) {
		return true
	}
	for _, req := range required {
		if !HasScope(granted, req) {
			return false
		}
	}
	return true
}

// HasAnyScopes reports whether at least one required permission is covered.
// An empty required set is trivially satisfied.
func HasAnyScopes(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(granted) == 0 {
		return false
	}
	if slices.Contains(granted, Wildcard) {
		return true
	}
	for _, req := range required {
		if HasScope(granted, req) {
			return true
		}
	}
	return false
}

// NormalizeScopes deduplicates and sorts a permission list so two grants
// built from the same inputs compare equal.
func NormalizeScopes(granted []string) []string {
	if len(granted) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(granted))
	out := make([]string, 0, len(granted))
	for _, g := range granted {
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
