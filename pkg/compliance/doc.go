// Package compliance enforces the static regional policy of a deployment:
// which regions may be served and whether data tagged with one region may
// be touched from another. Checks are stateless and read-only; the dynamic
// deny-all switch lives in the emergency package.
package compliance
