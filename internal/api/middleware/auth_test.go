package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/mocks"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolverFunc adapts a function to IdentityResolver.
type resolverFunc func(ctx context.Context, header string) (*domain.User, error)

func (f resolverFunc) ResolveAuthorization(ctx context.Context, header string) (*domain.User, error) {
	return f(ctx, header)
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: uuid.New(), Email: "owner@example.com", IsActive: true}

	tests := []struct {
		name           string
		authHeader     string
		resolveErr     error
		expectedStatus int
		expectedHeader string
		expectedError  string
	}{
		{
			name:           "valid token",
			authHeader:     "Bearer valid-token",
			expectedStatus: http.StatusOK,
			expectedHeader: "Bearer valid-token",
		},
		{
			name:           "lower-case scheme",
			authHeader:     "bearer valid-token",
			expectedStatus: http.StatusOK,
			expectedHeader: "bearer valid-token",
		},
		{
			name:           "missing auth header",
			resolveErr:     &auth.AuthError{Reason: auth.ReasonMissingToken},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Authorization header required",
		},
		{
			name:           "invalid auth format",
			authHeader:     "InvalidFormat",
			resolveErr:     &auth.AuthError{Reason: auth.ReasonMalformedHeader},
			expectedStatus: http.StatusUnauthorized,
			expectedHeader: "InvalidFormat",
			expectedError:  "Invalid authorization format",
		},
		{
			name:           "expired token",
			authHeader:     "Bearer expired-token",
			resolveErr:     &auth.AuthError{Reason: auth.ReasonExpiredToken, Err: auth.ErrExpiredToken},
			expectedStatus: http.StatusUnauthorized,
			expectedHeader: "Bearer expired-token",
			expectedError:  "Token expired",
		},
		{
			name:           "wrong token kind",
			authHeader:     "Bearer refresh-token",
			resolveErr:     &auth.AuthError{Reason: auth.ReasonWrongTokenType, Err: auth.ErrWrongTokenType},
			expectedStatus: http.StatusUnauthorized,
			expectedHeader: "Bearer refresh-token",
			expectedError:  "Invalid token",
		},
		{
			name:           "inactive identity",
			authHeader:     "Bearer valid-token",
			resolveErr:     &auth.AuthError{Reason: auth.ReasonInactiveIdentity},
			expectedStatus: http.StatusUnauthorized,
			expectedHeader: "Bearer valid-token",
			expectedError:  "Account is not available",
		},
		{
			name:           "store failure",
			authHeader:     "Bearer valid-token",
			resolveErr:     errors.New("connection refused"),
			expectedStatus: http.StatusInternalServerError,
			expectedHeader: "Bearer valid-token",
			expectedError:  "Authentication error",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotHeader string
			resolver := resolverFunc(func(_ context.Context, header string) (*domain.User, error) {
				gotHeader = header
				if tt.resolveErr != nil {
					return nil, tt.resolveErr
				}
				return user, nil
			})

			var capturedUserID uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedUserID, _ = GetUserID(r)
				ctxUser, ok := shared.UserFromContext(r.Context())
				require.True(t, ok)
				assert.Equal(t, user.Email, ctxUser.Email)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			NewAuthMiddleware(resolver, nil).Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedHeader, gotHeader)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, user.ID, capturedUserID)
				return
			}

			var body shared.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedError, body.Error)
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			}
		})
	}
}

func TestNewAuthMiddlewarePanicsWithoutResolver(t *testing.T) {
	assert.Panics(t, func() { NewAuthMiddleware(nil, nil) })
}

func TestAuthMiddleware_AuditsEveryRejection(t *testing.T) {
	t.Parallel()

	tokens, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                    "a-test-secret-that-is-at-least-32-chars",
		AccessTokenLifetimeMinutes:   15,
		RefreshTokenLifetimeMinutes:  60,
		PasswordResetLifetimeMinutes: 15,
		BcryptCost:                   4,
	})
	require.NoError(t, err)
	users := mocks.NewUserStore(mocks.NewMemoryDB())

	tests := []struct {
		header     string
		wantReason auth.Reason
		wantError  string
	}{
		{header: "", wantReason: auth.ReasonMissingToken, wantError: "Authorization header required"},
		{header: "Bearer garbage", wantReason: auth.ReasonInvalidToken, wantError: "Invalid token"},
		{header: "Basic dXNlcjpwdw==", wantReason: auth.ReasonMalformedHeader, wantError: "Invalid authorization format"},
		{header: "Bearer", wantReason: auth.ReasonMalformedHeader, wantError: "Invalid authorization format"},
		{header: "Bearer   ", wantReason: auth.ReasonMalformedHeader, wantError: "Invalid authorization format"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()

			log, buf := logger.NewTestLogger()
			guard := auth.NewGuard(tokens, users, log)
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				t.Error("handler reached without a valid token")
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			NewAuthMiddleware(guard, nil).Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body shared.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body.Error)

			entries := buf.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, true, entries[0]["audit"])
			assert.Equal(t, string(tt.wantReason), entries[0]["reason"])
		})
	}
}
