// Package policy decides whether a principal may perform an action on a
// namespaced resource. Role expansion happens upstream in the principal
// package; this engine only evaluates the resulting permission grants, in
// a fixed rule order that keeps agent self-scoping ahead of any catch-all
// grant.
package policy
