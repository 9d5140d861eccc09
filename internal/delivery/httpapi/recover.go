package httpapi

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"slidecast/internal/logger"
)

// publishRecoverer turns a panic on the publish route into the endpoint's
// 400 {error} reply instead of the router-wide 500.
func publishRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Error().
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Msg("publish handler panicked")
			respondError(w, http.StatusBadRequest, "Upload failed.")
		}()
		next.ServeHTTP(w, r)
	})
}
