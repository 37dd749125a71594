package router

import (
	"net"
	"net/http"
	"strings"
)

// ipHeaders in trust order. X-Forwarded-For may hold a chain; only the
// first hop is the client.
var ipHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// middlewareIP rewrites RemoteAddr to the best guess of the real
// client address so downstream code can treat it as a plain IP.
func middlewareIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := clientIP(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	for _, header := range ipHeaders {
		v := r.Header.Get(header)
		if v == "" {
			continue
		}
		ip, _, _ := strings.Cut(v, ",")
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return ""
}
