package middle

import (
	"net/http"
	"strings"

	"github.com/mstgnz/gocomgate/infra/response"
)

// MaxCallbackBody caps the size of an inbound gateway notification
const MaxCallbackBody = 1 << 20

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Content-Security-Policy", "default-src 'none'")
			w.Header().Set("Referrer-Policy", "no-referrer")

			next.ServeHTTP(w, r)
		})
	}
}

// IPAllowlistMiddleware only lets the listed client IPs through. An empty list allows everyone.
func IPAllowlistMiddleware(allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, ip := range allowed {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(set) > 0 {
				if _, ok := set[GetClientIP(r)]; !ok {
					response.Error(w, http.StatusForbidden, "IP not allowed", nil)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CallbackRequestMiddleware accepts only form or JSON notifications of bounded size
func CallbackRequestMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				response.Error(w, http.StatusMethodNotAllowed, "Callback must be sent with POST", nil)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType != "" &&
				!strings.Contains(contentType, "application/x-www-form-urlencoded") &&
				!strings.Contains(contentType, "application/json") {
				response.Error(w, http.StatusUnsupportedMediaType, "Content-Type must be application/x-www-form-urlencoded or application/json", nil)
				return
			}

			if r.ContentLength > MaxCallbackBody {
				response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, MaxCallbackBody)

			next.ServeHTTP(w, r)
		})
	}
}
