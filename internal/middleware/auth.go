package middleware

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/bracketd/internal/httputil"
	users "github.com/AdamBeresnev/bracketd/internal/user"
	"github.com/google/uuid"
)

// UserIDHeader carries the id of the user acting on a request. Authentication happens upstream.
const UserIDHeader = "X-User-ID"

// RequireSubmitter rejects requests without a valid UserIDHeader and stores the id in the context.
func RequireSubmitter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		if raw == "" {
			httputil.BadRequest(w, "Missing "+UserIDHeader+" header", nil)
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			httputil.BadRequest(w, "Invalid "+UserIDHeader+" header", err)
			return
		}

		ctx := WithSubmitter(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithSubmitter(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, users.SubmitterKey, userID)
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(users.SubmitterKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}
