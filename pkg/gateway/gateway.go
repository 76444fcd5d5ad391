package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coaching2100/sallyport/pkg/audit"
	"github.com/coaching2100/sallyport/pkg/claims"
	"github.com/coaching2100/sallyport/pkg/clientip"
	"github.com/coaching2100/sallyport/pkg/compliance"
	"github.com/coaching2100/sallyport/pkg/emergency"
	"github.com/coaching2100/sallyport/pkg/policy"
	"github.com/coaching2100/sallyport/pkg/principal"
	"github.com/coaching2100/sallyport/pkg/ratelimit"
	"github.com/coaching2100/sallyport/pkg/region"
)

// Dependencies carries the decision components the middleware runs, in
// pipeline order. All fields are required.
type Dependencies struct {
	Decoder  *claims.Decoder
	Mapper   *principal.Mapper
	Resolver *region.Resolver
	Gate     *compliance.Gate
	Latch    *emergency.Latch
	Limiter  ratelimit.Limiter
	Engine   *policy.Engine
	Recorder *audit.Recorder
}

func (d Dependencies) validate() error {
	switch {
	case d.Decoder == nil:
		return ErrDecoderRequired
	case d.Mapper == nil:
		return ErrMapperRequired
	case d.Resolver == nil:
		return ErrResolverRequired
	case d.Gate == nil:
		return ErrGateRequired
	case d.Latch == nil:
		return ErrLatchRequired
	case d.Limiter == nil:
		return ErrLimiterRequired
	case d.Engine == nil:
		return ErrEngineRequired
	case d.Recorder == nil:
		return ErrRecorderRequired
	}
	return nil
}

// Gateway is the per-request decision pipeline: token validation,
// principal mapping, region compliance, the emergency latch, tiered rate
// limits, and policy evaluation, with one audit record per outcome.
type Gateway struct {
	deps        Dependencies
	logger      *slog.Logger
	resourceFn  ResourceFunc
	actionFn    ActionFunc
	latchExempt map[string]struct{}
	publicPaths []string
}

// RulePublicRoute is the audit rule recorded when a public path admits a
// request without policy evaluation.
const RulePublicRoute = "public_route"

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger for audit write failures and other
// operational noise. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithResourceFunc overrides how the policy resource is derived from a
// request.
func WithResourceFunc(fn ResourceFunc) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.resourceFn = fn
		}
	}
}

// WithActionFunc overrides how the policy action is derived from a
// request.
func WithActionFunc(fn ActionFunc) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.actionFn = fn
		}
	}
}

// WithPublicPaths declares path prefixes that skip policy evaluation.
// Public routes still pass through every other stage: an invalid token,
// a disallowed region, an active latch, or an exhausted rate budget all
// reject public requests too.
func WithPublicPaths(prefixes ...string) Option {
	return func(g *Gateway) {
		g.publicPaths = append(g.publicPaths, prefixes...)
	}
}

// WithLatchExemptPaths replaces the set of paths that skip the emergency
// latch check. The emergency control endpoints must stay reachable while
// the latch is active or nobody could ever deactivate it.
func WithLatchExemptPaths(paths ...string) Option {
	return func(g *Gateway) {
		g.latchExempt = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			g.latchExempt[p] = struct{}{}
		}
	}
}

// New assembles the gateway pipeline.
func New(deps Dependencies, opts ...Option) (*Gateway, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	g := &Gateway{
		deps:       deps,
		logger:     slog.Default(),
		resourceFn: DefaultResource,
		actionFn:   DefaultAction,
		latchExempt: map[string]struct{}{
			PathEmergencyActivate:   {},
			PathEmergencyDeactivate: {},
			PathEmergencyStatus:     {},
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Middleware runs the decision pipeline and, when every stage admits the
// request, calls next with the principal, region decision, and client IP
// in the context.
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := clientip.GetIP(r)
		regionDecision := g.deps.Resolver.ResolveRequest(r)

		// Latch control paths carry a fixed resource and verb so the
		// policy stage gates them on the emergency-control permission.
		_, isControlPath := g.latchExempt[r.URL.Path]
		resource := g.resourceFn(r)
		action := g.actionFn(r)
		if isControlPath {
			resource = EmergencyResource
			action = policy.ActionExecute
		}

		ev := audit.Event{
			Resource: resource,
			Action:   string(action),
			Region:   regionDecision.Region,
			IP:       ip,
		}

		// Identity. A missing token is anonymous; a present but invalid
		// token is fatal, never downgraded.
		p, ok := g.authenticate(r)
		if !ok {
			g.deny(ctx, w, ev, Rejection{
				Code:    CodeAuthInvalid,
				Message: "invalid or expired token",
			}, "", "token validation failed")
			return
		}
		ev.PrincipalID = p.ID
		ev.AgentID = p.AgentID
		ev.Tier = string(ratelimit.TierFor(p))

		// Region compliance.
		if !g.deps.Gate.IsRegionAllowed(regionDecision.Region) {
			g.deny(ctx, w, ev, Rejection{
				Code:    CodeRegionDenied,
				Message: "region " + regionDecision.Region + " is not served by this deployment",
			}, "", "region not in allow-list")
			return
		}

		// Emergency latch, unless this is a latch control path.
		if !isControlPath {
			if g.deps.Latch.IsActive(ctx) {
				g.deny(ctx, w, ev, Rejection{
					Code:    CodeEmergencyActive,
					Message: "service is in emergency shutdown",
				}, "", "emergency latch active")
				return
			}
		}

		// Tiered rate limit, keyed by agent, user, or normalized IP.
		key := ratelimit.Key(p, r)
		limit := ratelimit.TierFor(p).Limit()
		result, err := g.deps.Limiter.Allow(ctx, key, limit)
		if err != nil {
			// An unreachable counter store denies rather than admits.
			g.deny(ctx, w, ev, Rejection{
				Code:    CodeRateLimited,
				Message: "rate limit state unavailable",
			}, "", "limiter store unavailable: "+err.Error())
			return
		}
		if !result.Allowed {
			resetAt := result.ResetAt
			g.deny(ctx, w, ev, Rejection{
				Code:    CodeRateLimited,
				Message: "rate limit exceeded",
				ResetAt: &resetAt,
			}, "", "tier limit exhausted")
			return
		}

		// Policy. Public prefixes are admitted without evaluation.
		decision := policy.Decision{Allowed: true, Rule: RulePublicRoute, Reason: "public route"}
		if !g.isPublic(r.URL.Path) {
			decision = g.deps.Engine.Evaluate(p, resource, action)
		}
		if !decision.Allowed {
			g.deny(ctx, w, ev, Rejection{
				Code:    CodePermissionDenied,
				Message: "not authorized for " + string(action) + " on " + resource,
			}, decision.Rule, decision.Reason)
			return
		}

		ev.Outcome = audit.OutcomeAllow
		ev.Rule = decision.Rule
		ev.Reason = decision.Reason
		g.record(ctx, ev)

		ctx = principal.WithContext(ctx, p)
		ctx = region.WithContext(ctx, regionDecision)
		ctx = clientip.SetIPToContext(ctx, ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gateway) isPublic(path string) bool {
	for _, prefix := range g.publicPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// authenticate extracts and validates the bearer token. The bool result
// is false only for present-but-invalid tokens.
func (g *Gateway) authenticate(r *http.Request) (principal.Principal, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return principal.Principal{}, true
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return principal.Principal{}, false
	}

	c, err := g.deps.Decoder.Decode(token)
	if err != nil {
		return principal.Principal{}, false
	}
	return g.deps.Mapper.Map(c), true
}

func (g *Gateway) deny(ctx context.Context, w http.ResponseWriter, ev audit.Event, rej Rejection, rule, reason string) {
	ev.Outcome = audit.OutcomeDeny
	if rule != "" {
		ev.Rule = rule
	} else {
		ev.Rule = rej.Code
	}
	ev.Reason = reason
	g.record(ctx, ev)
	writeRejection(w, rej)
}

func (g *Gateway) record(ctx context.Context, ev audit.Event) {
	if err := g.deps.Recorder.Record(ctx, ev); err != nil {
		g.logger.Error("audit record failed",
			slog.String("resource", ev.Resource),
			slog.String("outcome", string(ev.Outcome)),
			slog.Any("error", err))
	}
}
