package httpx

import (
	"net"
	"net/http"
	"strings"
)

// PeerAddr identifies the client behind r for logs and admission limits.
// With trustForwarded set, the first X-Forwarded-For entry (or X-Real-IP)
// wins over the socket address; only enable it behind a proxy that sets them.
func PeerAddr(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	return r.RemoteAddr
}

// HostOnly strips the port from addr when there is one.
func HostOnly(addr string) string {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return h
}
