package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ketanvk/splitledger/internal/auth"
)

// RequireAPIKey rejects requests whose x-api-key header does not match a
// configured key. With no keys configured the middleware is a pass-through.
func RequireAPIKey(checker *auth.KeyChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := checker.Check(r.Header.Get("x-api-key"))
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			status := http.StatusUnauthorized
			if errors.Is(err, auth.ErrInvalidKey) {
				status = http.StatusForbidden
			}
			slog.Warn("API key rejected", "path", r.URL.Path, "error", err)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"message": err.Error(),
				"status":  status,
			})
		})
	}
}
