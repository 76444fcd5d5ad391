package region

import (
	"net/http"
	"strings"
)

// Unknown is returned in a Decision when no signal produced a region and no
// default is configured.
const Unknown = "unknown"

// signalHeaders are inspected in fixed priority order: edge network first,
// then load balancer, generic forwarded header, and the explicit override.
var signalHeaders = []string{
	"cf-region",
	"x-gcp-region",
	"x-forwarded-region",
	"x-region-override",
}

// defaultAliases normalizes provider-specific spellings to canonical codes.
var defaultAliases = map[string]string{
	"usw1":      "us-west1",
	"us-west-1": "us-west1",
	"oregon":    "us-west1",
	"pdx":       "us-west1",

	"usc1":         "us-central1",
	"us-central-1": "us-central1",
	"iowa":         "us-central1",

	"use1":      "us-east1",
	"us-east-1": "us-east1",
	"virginia":  "us-east1",

	"euw1":      "eu-west1",
	"eu-west-1": "eu-west1",
	"belgium":   "eu-west1",

	"asne1": "asia-northeast1",
	"tokyo": "asia-northeast1",
}

// Decision records how a request's region was resolved. RawSignals keeps
// the ordered header values inspected so the resolution is reproducible in
// audit records.
type Decision struct {
	RawSignals []string
	Region     string
	Source     string
}

// Resolver determines the geographic origin of a request from a prioritized
// set of signals. Resolution is deterministic: the same headers and host
// always yield the same region. It never fails; when every signal is absent
// it falls back to the configured default, which deployments should set to
// their most restrictive region.
type Resolver struct {
	defaultRegion string
	aliases       map[string]string
	canonical     map[string]struct{}
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDefaultRegion sets the fallback region used when no signal resolves.
func WithDefaultRegion(region string) ResolverOption {
	return func(r *Resolver) {
		if region != "" {
			r.defaultRegion = region
		}
	}
}

// WithAliases merges additional alias entries into the default table.
func WithAliases(aliases map[string]string) ResolverOption {
	return func(r *Resolver) {
		for k, v := range aliases {
			r.aliases[strings.ToLower(k)] = strings.ToLower(v)
		}
	}
}

// NewResolver creates a Resolver with the default alias table and no
// default region; callers that skip WithDefaultRegion resolve to Unknown
// when no signal is present.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		defaultRegion: Unknown,
		aliases:       make(map[string]string, len(defaultAliases)),
	}
	for k, v := range defaultAliases {
		r.aliases[k] = v
	}
	for _, opt := range opts {
		opt(r)
	}

	r.canonical = make(map[string]struct{}, len(r.aliases))
	for _, v := range r.aliases {
		r.canonical[v] = struct{}{}
	}
	return r
}

// ResolveRequest resolves the region for an HTTP request.
func (r *Resolver) ResolveRequest(req *http.Request) Decision {
	return r.Resolve(req.Header, req.Host)
}

// Resolve inspects headers in priority order, then the hostname, then the
// configured default. Unknown header values pass through lower-cased.
func (r *Resolver) Resolve(headers http.Header, host string) Decision {
	d := Decision{}

	for _, name := range signalHeaders {
		value := strings.TrimSpace(headers.Get(name))
		d.RawSignals = append(d.RawSignals, name+"="+value)
		if value == "" {
			continue
		}
		d.Region = r.normalize(value)
		d.Source = name
		return d
	}

	if region, ok := r.fromHostname(host); ok {
		d.RawSignals = append(d.RawSignals, "host="+host)
		d.Region = region
		d.Source = "hostname"
		return d
	}

	d.Region = r.defaultRegion
	d.Source = "default"
	return d
}

// normalize lower-cases a raw signal and applies the alias table. Values
// without an alias entry pass through unmodified.
func (r *Resolver) normalize(raw string) string {
	v := strings.ToLower(raw)
	if canonical, ok := r.aliases[v]; ok {
		return canonical
	}
	return v
}

// fromHostname infers a region from a dot-separated hostname label.
// Only labels that normalize to a known canonical region count; arbitrary
// labels never leak into the decision.
func (r *Resolver) fromHostname(host string) (string, bool) {
	if host == "" {
		return "", false
	}
	// Strip a port if present.
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[i+1:], ".") {
		host = host[:i]
	}
	for _, label := range strings.Split(strings.ToLower(host), ".") {
		candidate := r.normalize(label)
		if _, ok := r.canonical[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}
