package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// publishRateLimit limits publish requests per client IP. Rejections use the
// publish endpoint's 400 {error} contract.
func publishRateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			respondError(w, http.StatusBadRequest, "Too many publish requests. Please try again later.")
		}),
	)
}
