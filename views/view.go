package views

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Render writes v as a JSON response with the given status.
func Render(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
