// Package server provides HTTP middleware shared by the API.
package server

import (
	"net/http"
	"strings"
)

// apiCSP is the Content-Security-Policy for JSON endpoints, which never
// load resources.
const apiCSP = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	AllowedOrigins []string // empty = allow all (*)
}

// OriginAllowed reports whether origin matches an entry of allowed. Entries
// may be "*", an exact origin, or "*.example.com" for any subdomain.
func OriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		switch {
		case a == "*", a == origin:
			return true
		case strings.HasPrefix(a, "*."):
			if strings.HasSuffix(origin, a[1:]) {
				return true
			}
		}
	}
	return false
}

// CORS adds CORS headers to responses. With no configured origins every
// origin is allowed; otherwise requests from other origins get no CORS
// headers and their preflights are refused.
func CORS(cfg CORSConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowOrigin := "*"
		if len(cfg.AllowedOrigins) > 0 {
			origin := r.Header.Get("Origin")
			if !OriginAllowed(origin, cfg.AllowedOrigins) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			allowOrigin = origin
			w.Header().Add("Vary", "Origin")
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders adds the standard hardening headers for a JSON API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", apiCSP)
		next.ServeHTTP(w, r)
	})
}
