package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// GetIP returns the client's IP address from an HTTP request.
// Priority order:
//  1. CF-Connecting-IP (edge network)
//  2. X-Forwarded-For (standard proxy header, first valid IP)
//  3. X-Real-IP (reverse proxy)
//  4. RemoteAddr (direct connection fallback)
func GetIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if parsed := parseIP(ip); parsed != "" {
			return parsed
		}
	}

	// X-Forwarded-For can contain multiple IPs, take the first valid one.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for ip := range strings.SplitSeq(forwarded, ",") {
			if parsed := parseIP(strings.TrimSpace(ip)); parsed != "" {
				return parsed
			}
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if parsed := parseIP(ip); parsed != "" {
			return parsed
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr has no port, assume it is already just an IP.
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// RateKey returns the budget-accounting key for a request's client IP.
// IPv4 addresses are used verbatim. IPv6 addresses collapse to their /64
// prefix: providers delegate at least a /64 per customer, so counting the
// full address would let one caller dodge its budget by rotating through
// the block. Unparseable addresses collapse to a single shared key rather
// than an unlimited one.
func RateKey(r *http.Request) string {
	return NormalizeRateKey(GetIP(r))
}

// NormalizeRateKey canonicalizes an IP string for rate-limit keying.
func NormalizeRateKey(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	if addr.Is4() || addr.Is4In6() {
		return addr.Unmap().String()
	}

	prefix, err := addr.Prefix(64)
	if err != nil {
		return "invalid"
	}
	return prefix.String()
}

// parseIP validates and normalizes an IP address string.
// Returns empty string if the IP is invalid.
func parseIP(ipStr string) string {
	ipStr = strings.TrimSpace(ipStr)
	if ipStr == "" {
		return ""
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	return ip.String()
}
