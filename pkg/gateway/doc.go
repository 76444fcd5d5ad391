// Package gateway chains the identity, compliance, and admission checks
// into one HTTP middleware.
//
// Per request the pipeline runs in a fixed order: bearer token
// validation, principal mapping, region resolution against the
// compliance allow-list, the emergency latch, the tiered rate limit, and
// finally policy evaluation. The first stage that refuses the request
// wins; its rejection is written as JSON with a machine-readable code
// (AUTH_INVALID, REGION_DENIED, EMERGENCY_ACTIVE, RATE_LIMITED with
// reset_at and Retry-After, PERMISSION_DENIED). Every outcome, admitted
// or not, produces exactly one audit record.
//
// A request without an Authorization header proceeds as anonymous and is
// rate limited by normalized client IP. A request with an invalid or
// expired token is rejected outright; it is never downgraded to
// anonymous.
//
// The emergency control paths are exempt from the latch check itself so
// the latch can be released while active, and are gated on the
// emergency-control permission instead. EmergencyHandler serves them:
//
//	r := chi.NewRouter()
//	r.Use(gw.Middleware)
//	r.Mount("/emergency", emergencyHandler.Router())
package gateway
