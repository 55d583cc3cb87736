// Package auth resolves the calling account for every request. Session
// issuance and verification live in the upstream auth layer; by the time a
// request reaches this service the account id has been placed in the
// X-Account-ID header.
package auth

import (
	"context"
	"net/http"

	"github.com/oakmart/storefront/internal/api"
)

const accountHeader = "X-Account-ID"

type accountKey struct{}

func WithAccount(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountKey{}, accountID)
}

func AccountFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountKey{}).(string)
	return id, ok && id != ""
}

// Middleware rejects requests without a resolved account. All cart and order
// operations are scoped to this identity.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := r.Header.Get(accountHeader)
		if accountID == "" {
			api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "missing account identity")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), accountID)))
	})
}
