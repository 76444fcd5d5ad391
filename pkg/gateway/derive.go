package gateway

import (
	"net/http"
	"strings"

	"github.com/coaching2100/sallyport/pkg/policy"
)

// ResourceFunc derives the policy resource from a request.
type ResourceFunc func(r *http.Request) string

// ActionFunc derives the policy action from a request.
type ActionFunc func(r *http.Request) policy.Action

// DefaultResource maps the first two path segments to "type:id" form, so
// "/campaigns/42/launch" becomes "campaigns:42" and "/campaigns" becomes
// "campaigns". The root path maps to "root".
func DefaultResource(r *http.Request) string {
	path := strings.Trim(r.URL.Path, "/")
	if path == "" {
		return "root"
	}
	segments := strings.SplitN(path, "/", 3)
	if len(segments) >= 2 {
		return segments[0] + ":" + segments[1]
	}
	return segments[0]
}

// DefaultAction maps HTTP methods onto policy verbs. Unrecognized methods
// map to execute, the verb with the narrowest permission grammar.
func DefaultAction(r *http.Request) policy.Action {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return policy.ActionRead
	case http.MethodPost:
		return policy.ActionCreate
	case http.MethodPut, http.MethodPatch:
		return policy.ActionUpdate
	case http.MethodDelete:
		return policy.ActionDelete
	}
	return policy.ActionExecute
}
