// Package ratelimit enforces per-principal request budgets over a fixed
// one-minute window. Budgets come from a tier table keyed by caller class:
// anonymous callers get the smallest budget, authenticated humans more,
// and each agent tier a strictly larger one; an unrecognized agent type
// falls to a conservative default rather than an elevated one.
//
// Counters are keyed with a single deterministic precedence (agent id,
// then user id, then normalized client IP) and are the only hot shared
// mutable structure in the gateway. Both stores increment and roll the
// window over as one atomic operation. Store failures surface as
// ErrStoreUnavailable and must be treated by callers as a denial.
package ratelimit
