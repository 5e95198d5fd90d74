package middleware

import (
	"net/http"
	"os"
	"strings"
)

const allowedOriginsEnv = "CORS_ALLOWED_ORIGINS"

// corsPolicy resolves which browser origins may call the API. Without
// explicit configuration every origin is allowed, which is only acceptable
// for local development.
type corsPolicy struct {
	origins  []string
	wildcard bool
}

func newCORSPolicy() corsPolicy {
	raw := os.Getenv(allowedOriginsEnv)
	if raw == "" {
		return corsPolicy{wildcard: true}
	}

	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return corsPolicy{wildcard: true}
	}
	return corsPolicy{origins: origins}
}

func (p corsPolicy) allows(origin string) bool {
	if p.wildcard {
		return true
	}
	for _, allowed := range p.origins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// CORSMiddleware adds CORS headers and answers preflight requests before
// they reach the handlers. The API only serves GET and POST.
func CORSMiddleware(next http.Handler) http.Handler {
	policy := newCORSPolicy()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && policy.allows(origin) {
			if policy.wildcard {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
