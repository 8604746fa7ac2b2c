package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/utils"
)

// EnforceHost allows requests only if r.Host matches one of the allowed
// hosts. Patterns like "*.example.com" match any subdomain. An empty list
// disables the check.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debug("host enforcement enabled", logger.Strings("hosts", allowedHosts))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := utils.ParseHostNoPort(r.Host)
			for _, pattern := range allowedHosts {
				if matchHost(host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Debug("request rejected by host enforcement", logger.String("host", r.Host))
			w.WriteHeader(http.StatusForbidden)
		})
	}
}

func matchHost(host, pattern string) bool {
	pattern = strings.ToLower(pattern)
	host = strings.ToLower(host)
	if host == pattern {
		return true
	}
	// *.example.com matches sub.example.com but not example.com
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(host, suffix) && len(host) > len(suffix)
	}
	return false
}
