package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/autoaudit/autoaudit-backend/api/responses"
	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	pkgerrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/identity"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
)

// UserResolver maps a verified external identity to the internal user row,
// creating it on first sight.
type UserResolver interface {
	GetOrCreate(ctx context.Context, externalID, email string) (*models.User, error)
}

// Auth verifies the bearer token, resolves the internal user, and seeds the
// request context with the internal user id.
func Auth(verifier identity.Verifier, resolver UserResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			ident, err := verifier.Verify(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			user, err := resolver.GetOrCreate(r.Context(), ident.ExternalID, ident.Email)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithUserID(r.Context(), user.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, user.ID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
