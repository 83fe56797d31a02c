package middle

/**
- Work of this file -> Owner identity:
	- Reads the caller identity from the X-Owner-ID header
	- Stores the owner id in context
	- Exposes a helper to retrieve it
- Authentication proper lives at the gateway in front of this service.
**/

import (
	"context"
	"net/http"

	"github.com/milankatira/uptime-sub000/pkg/apperror"
	"github.com/milankatira/uptime-sub000/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ownerCtxKeyType struct{}

var ownerCtxKey = ownerCtxKeyType{}

func Owner(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reqID := middleware.GetReqID(ctx)

		raw := r.Header.Get("X-Owner-ID")
		if raw == "" {
			utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "missing X-Owner-ID header")
			return
		}

		ownerID, err := uuid.Parse(raw)
		if err != nil || ownerID == uuid.Nil {
			utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "invalid X-Owner-ID header")
			return
		}

		newCtx := context.WithValue(ctx, ownerCtxKey, ownerID)
		next.ServeHTTP(w, r.WithContext(newCtx))
	}

	return http.HandlerFunc(fn)
}

func OwnerFromContext(ctx context.Context) (uuid.UUID, bool) {
	ownerID, ok := ctx.Value(ownerCtxKey).(uuid.UUID)
	return ownerID, ok
}
