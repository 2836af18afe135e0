package common

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the address rate limits and request logs are keyed by: the
// first valid X-Forwarded-For hop, then X-Real-IP, then the peer address.
// Malformed header values are skipped so garbage cannot become a limiter key.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for _, hop := range strings.Split(fwd, ",") {
			if ip, ok := parseAddr(hop); ok {
				return ip
			}
		}
	}
	if ip, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
		return ip
	}
	if ip, ok := parseAddr(r.RemoteAddr); ok {
		return ip
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// parseAddr accepts a bare IP or host:port and returns the canonical IP text.
func parseAddr(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(strings.Trim(raw, "[]"))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
