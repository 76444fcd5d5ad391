package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coaching2100/sallyport/pkg/principal"
	"github.com/coaching2100/sallyport/pkg/ratelimit"
)

func TestKey(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "198.51.100.7")

	t.Run("agent id takes precedence", func(t *testing.T) {
		p := principal.Principal{ID: "agent-1", AgentID: "agent-1"}
		assert.Equal(t, "agent:agent-1", ratelimit.Key(p, r))
	})

	t.Run("user id next", func(t *testing.T) {
		p := principal.Principal{ID: "user-1", IsHuman: true}
		assert.Equal(t, "user:user-1", ratelimit.Key(p, r))
	})

	t.Run("anonymous falls to normalized ip", func(t *testing.T) {
		assert.Equal(t, "ip:198.51.100.7", ratelimit.Key(principal.Principal{}, r))
	})

	t.Run("ipv6 anonymous collapses to /64", func(t *testing.T) {
		r6 := httptest.NewRequest(http.MethodGet, "/", nil)
		r6.Header.Set("X-Real-IP", "2001:db8:1:2::7")
		assert.Equal(t, "ip:2001:db8:1:2::/64", ratelimit.Key(principal.Principal{}, r6))
	})
}
