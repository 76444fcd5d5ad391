// Package clientip extracts the originating client's IP address from an
// *http.Request behind one or more reverse proxies, and canonicalizes it
// for rate-limit keying.
//
// The resolution algorithm examines headers in descending priority until
// the first valid IP address is found:
//
//  1. CF-Connecting-IP – edge network
//  2. X-Forwarded-For  – comma-separated list (the first IP is used)
//  3. X-Real-IP        – set by reverse proxies such as Nginx
//  4. RemoteAddr       – TCP peer address as a fallback
//
// RateKey and NormalizeRateKey produce the budget-accounting form of an
// address: IPv4 verbatim, IPv6 collapsed to its /64 prefix so a caller
// cannot reset its budget by walking through a delegated block.
//
// Middleware stores the resolved address in the request context so the
// audit trail can record it without re-running the resolution.
package clientip
