package ratelimit

import (
	"net/http"

	"github.com/coaching2100/sallyport/pkg/clientip"
	"github.com/coaching2100/sallyport/pkg/principal"
)

// Key resolves the budget-accounting key for a request with a single
// deterministic precedence: agent id, then authenticated user id, then
// normalized client IP. IPv6 addresses are collapsed to their /64 prefix
// so rotating through a delegated block does not reset the budget.
func Key(p principal.Principal, r *http.Request) string {
	if k := p.RateKey(); k != "" {
		return k
	}
	return "ip:" + clientip.RateKey(r)
}
