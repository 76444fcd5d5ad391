// Package principal normalizes validated token claims into the identity
// structure used by every downstream gateway decision.
//
// Mapping is deterministic and total: every valid claims object maps to
// exactly one Principal, unexpected or missing fields default to the least
// privileged interpretation, and the squadron plus default permission set
// are recomputed from claims on every call. Special-case identities are
// expressed as named operator rules loaded from configuration, never as
// inline comparisons.
package principal
