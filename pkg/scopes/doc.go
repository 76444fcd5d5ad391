// Package scopes implements matching for permission strings of the form
// "<verb>_<resource>", e.g. "manage_projects" or "view_premium".
//
// A grant can be exact, a prefix wildcard such as "manage_*", or the global
// wildcard "*". The package treats grants as opaque strings otherwise and
// carries no policy of its own; evaluation order and deny rules live in the
// policy package.
package scopes
