package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service/auth"
)

// IdentityResolver turns an Authorization header value into an active user.
// *auth.Guard satisfies it.
type IdentityResolver interface {
	ResolveAuthorization(ctx context.Context, header string) (*domain.User, error)
}

// AuthMiddleware authenticates requests carrying an access token.
type AuthMiddleware struct {
	resolver IdentityResolver
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(resolver IdentityResolver, log *slog.Logger) *AuthMiddleware {
	if resolver == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("resolver cannot be nil for AuthMiddleware")
	}
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{
		resolver: resolver,
		logger:   log.With(slog.String("component", "auth_middleware")),
	}
}

// Authenticate resolves the Authorization header and stores the user in the
// request context. Requests without a usable bearer token are answered with 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolver.ResolveAuthorization(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				reason := auth.ReasonOf(err)
				if reason == auth.ReasonMalformedHeader {
					w.Header().Set("WWW-Authenticate", `Bearer error="invalid_request"`)
				} else {
					w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				}
				shared.RespondWithError(w, r, http.StatusUnauthorized, rejectionMessage(reason))
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			return
		}

		ctx := shared.WithUser(r.Context(), user)
		log := logger.FromContextOrDefault(ctx, m.logger).With(slog.String("user_id", user.ID.String()))
		ctx = logger.WithLogger(ctx, log)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the user ID from the request context.
// Returns the user ID and a boolean indicating if it was found.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	return shared.UserIDFromContext(r.Context())
}

func rejectionMessage(reason auth.Reason) string {
	switch reason {
	case auth.ReasonMissingToken:
		return "Authorization header required"
	case auth.ReasonMalformedHeader:
		return "Invalid authorization format"
	case auth.ReasonExpiredToken:
		return "Token expired"
	case auth.ReasonInactiveIdentity, auth.ReasonUnknownIdentity:
		return "Account is not available"
	default:
		return "Invalid token"
	}
}
