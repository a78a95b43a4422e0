package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/partshop-backend/api/responses"
	"github.com/angelmondragon/partshop-backend/api/validators"
	pkgAuth "github.com/angelmondragon/partshop-backend/pkg/auth"
	"github.com/angelmondragon/partshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/logger"
)

// AccountChecker reports whether the account behind a token may still act.
type AccountChecker interface {
	IsActive(ctx context.Context, userID uint) (bool, error)
}

// Auth requires a valid bearer token and stores the caller on the request
// context. With a non-nil checker, tokens of deleted or blocked accounts are
// refused even before they expire.
func Auth(cfg config.JWTConfig, accounts AccountChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, err := authenticate(ctx, cfg, accounts, r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = withPrincipal(ctx, p)
			ctx = logg.WithUserID(ctx, p.actor.UserID)
			ctx = logg.WithActorRole(ctx, string(p.actor.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, accounts AccountChecker, header string) (principal, error) {
	token, err := validators.BearerToken(header)
	if err != nil {
		return principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	if accounts != nil {
		active, err := accounts.IsActive(ctx, claims.UserID)
		if err != nil {
			return principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate account")
		}
		if !active {
			return principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "account unavailable")
		}
	}
	return principal{actor: claims.Actor(), email: claims.Email}, nil
}
