package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// IdentityLookup finds users by id. store.UserStore satisfies it.
type IdentityLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Guard resolves bearer tokens to active users and enforces ownership.
// Every rejection is written to the audit log.
type Guard struct {
	tokens JWTService
	users  IdentityLookup
	logger *slog.Logger
}

// NewGuard creates a Guard. It panics if tokens or users is nil.
func NewGuard(tokens JWTService, users IdentityLookup, logger *slog.Logger) *Guard {
	if tokens == nil {
		panic("tokens cannot be nil")
	}
	if users == nil {
		panic("users cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Guard{
		tokens: tokens,
		users:  users,
		logger: logger.With(slog.String("component", "auth_guard")),
	}
}

// ResolveAuthorization resolves the value of an Authorization header.
// An empty header is a missing token. Anything other than "Bearer <token>"
// is rejected with ReasonMalformedHeader.
func (g *Guard) ResolveAuthorization(ctx context.Context, header string) (*domain.User, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return g.Resolve(ctx, "")
	}

	token, ok := bearerToken(header)
	if !ok {
		return nil, g.reject(ctx, unauthenticated(ReasonMalformedHeader, nil), uuid.Nil)
	}
	return g.Resolve(ctx, token)
}

// Resolve verifies an access token and returns the active user it names.
// Failures wrap ErrUnauthenticated and carry a Reason; store failures other
// than a missing user are returned unwrapped so they surface as server errors.
func (g *Guard) Resolve(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, g.reject(ctx, unauthenticated(ReasonMissingToken, nil), uuid.Nil)
	}

	claims, err := g.tokens.Verify(ctx, token, KindAccess)
	if err != nil {
		return nil, g.reject(ctx, unauthenticated(tokenReason(err), err), uuid.Nil)
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, g.reject(ctx, unauthenticated(ReasonUnknownIdentity, err), claims.UserID)
		}
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}

	if !user.IsActive {
		return nil, g.reject(ctx, unauthenticated(ReasonInactiveIdentity, nil), user.ID)
	}

	return user, nil
}

// AuthorizeOwner allows the call only when the caller owns the resource.
// Returns ErrForbidden otherwise.
func (g *Guard) AuthorizeOwner(ctx context.Context, ownerID, callerID uuid.UUID) error {
	if ownerID != uuid.Nil && ownerID == callerID {
		return nil
	}

	logger.FromContextOrDefault(ctx, g.logger).Warn("authorization rejected",
		slog.Bool("audit", true),
		slog.String("reason", string(ReasonNotOwner)),
		slog.String("user_id", callerID.String()),
		slog.String("owner_id", ownerID.String()))
	return ErrForbidden
}

func (g *Guard) reject(ctx context.Context, err error, userID uuid.UUID) error {
	attrs := []any{
		slog.Bool("audit", true),
		slog.String("reason", string(ReasonOf(err))),
	}
	if userID != uuid.Nil {
		attrs = append(attrs, slog.String("user_id", userID.String()))
	}

	logger.FromContextOrDefault(ctx, g.logger).Warn("authentication rejected", attrs...)
	return err
}

// bearerToken extracts the token from a non-empty Authorization header value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
