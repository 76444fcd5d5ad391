// Package region resolves the geographic origin of a request from proxy
// and edge-network headers, normalizing provider-specific spellings to
// canonical region codes. Resolution order is fixed and the resolver never
// fails: absent signals fall back to the configured default region, which
// should be the deployment's most restrictive choice.
package region
