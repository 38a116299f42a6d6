package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func testAuthConfig(secret string) config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                    secret,
		AccessTokenLifetimeMinutes:   30,
		RefreshTokenLifetimeMinutes:  7 * 24 * 60,
		PasswordResetLifetimeMinutes: 60,
		BcryptCost:                   4,
	}
}

// newTestJWTService builds a service whose clock always reads at.
func newTestJWTService(t *testing.T, secret string, at time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newHMACJWTService(testAuthConfig(secret), func() time.Time { return at })
	require.NoError(t, err)
	return svc
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(testAuthConfig("short"))
	assert.Error(t, err)

	cfg := testAuthConfig(testSecret)
	cfg.AccessTokenLifetimeMinutes = 0
	_, err = NewJWTService(cfg)
	assert.Error(t, err)

	svc, err := NewJWTService(testAuthConfig(testSecret))
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := newTestJWTService(t, testSecret, fixedTime)
	userID := uuid.New()

	issued, err := svc.Issue(context.Background(), userID, KindAccess, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, fixedTime.Add(time.Hour), issued.ExpiresAt)

	claims, err := svc.Verify(context.Background(), issued.Token, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	again, err := svc.Issue(context.Background(), userID, KindAccess, time.Hour)
	require.NoError(t, err)
	againClaims, err := svc.Verify(context.Background(), again.Token, KindAccess)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, againClaims.ID, "every token gets its own id")
}

func TestIssueRejectsBadInput(t *testing.T) {
	t.Parallel()

	svc := newTestJWTService(t, testSecret, fixedTime)
	ctx := context.Background()

	_, err := svc.Issue(ctx, uuid.Nil, KindAccess, time.Hour)
	assert.Error(t, err)
	_, err = svc.Issue(ctx, uuid.New(), TokenKind("admin"), time.Hour)
	assert.Error(t, err)
	_, err = svc.Issue(ctx, uuid.New(), KindAccess, 0)
	assert.Error(t, err)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	t.Parallel()

	ttl := 30 * time.Minute
	issuer := newTestJWTService(t, testSecret, fixedTime)
	issued, err := issuer.Issue(context.Background(), uuid.New(), KindAccess, ttl)
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "just issued", at: fixedTime},
		{name: "one second before expiry", at: fixedTime.Add(ttl - time.Second)},
		{name: "exactly at expiry", at: fixedTime.Add(ttl), wantErr: ErrExpiredToken},
		{name: "long after expiry", at: fixedTime.Add(ttl + time.Hour), wantErr: ErrExpiredToken},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			verifier := newTestJWTService(t, testSecret, tc.at)
			claims, err := verifier.Verify(context.Background(), issued.Token, KindAccess)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.Nil(t, claims)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestIssueSubSecondClock(t *testing.T) {
	t.Parallel()

	ttl := 30 * time.Minute
	issuer := newTestJWTService(t, testSecret, fixedTime.Add(700*time.Millisecond))
	issued, err := issuer.Issue(context.Background(), uuid.New(), KindAccess, ttl)
	require.NoError(t, err)
	assert.Equal(t, fixedTime.Add(ttl), issued.ExpiresAt)

	claims, err := newTestJWTService(t, testSecret, fixedTime.Add(ttl-time.Millisecond)).
		Verify(context.Background(), issued.Token, KindAccess)
	require.NoError(t, err)
	assert.True(t, fixedTime.Equal(claims.IssuedAt), "iat is recorded in whole seconds")
	assert.True(t, claims.IssuedAt.Add(ttl).Equal(claims.ExpiresAt))

	_, err = newTestJWTService(t, testSecret, fixedTime.Add(ttl)).
		Verify(context.Background(), issued.Token, KindAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyKindMismatch(t *testing.T) {
	t.Parallel()

	svc := newTestJWTService(t, testSecret, fixedTime)
	ctx := context.Background()
	userID := uuid.New()

	kinds := []TokenKind{KindAccess, KindRefresh, KindPasswordReset}
	for _, issuedKind := range kinds {
		issued, err := svc.Issue(ctx, userID, issuedKind, time.Hour)
		require.NoError(t, err)

		for _, expected := range kinds {
			_, err := svc.Verify(ctx, issued.Token, expected)
			if issuedKind == expected {
				assert.NoError(t, err, "%s as %s", issuedKind, expected)
				continue
			}
			assert.ErrorIs(t, err, ErrWrongTokenType, "%s as %s", issuedKind, expected)
			assert.ErrorIs(t, err, ErrInvalidToken)
		}
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	t.Parallel()

	svc := newTestJWTService(t, testSecret, fixedTime)
	ctx := context.Background()
	userID := uuid.New()

	issued, err := svc.Issue(ctx, userID, KindAccess, time.Hour)
	require.NoError(t, err)

	other := newTestJWTService(t, "another-secret-that-is-long-enough-too", fixedTime)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwtCustomClaims{
		UserID:    userID,
		TokenType: KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(fixedTime),
			ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512Token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwtCustomClaims{
		UserID:    userID,
		TokenType: KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(fixedTime),
			ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	mismatchedSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		UserID:    userID,
		TokenType: KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(fixedTime),
			ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		UserID:    userID,
		TokenType: KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.String(),
			IssuedAt: jwt.NewNumericDate(fixedTime),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	parts := strings.Split(issued.Token, ".")
	require.Len(t, parts, 3)
	flipped := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := map[string]struct {
		svc   *hmacJWTService
		token string
	}{
		"wrong secret":       {svc: other, token: issued.Token},
		"garbage":            {svc: svc, token: "this.is.not.a.valid.jwt.token"},
		"empty":              {svc: svc, token: ""},
		"alg none":           {svc: svc, token: noneToken},
		"alg HS512":          {svc: svc, token: hs512Token},
		"subject mismatch":   {svc: svc, token: mismatchedSubject},
		"missing expiry":     {svc: svc, token: noExpiry},
		"altered signature":  {svc: svc, token: flipped},
		"truncated":          {svc: svc, token: issued.Token[:len(issued.Token)-5]},
		"payload not base64": {svc: svc, token: parts[0] + ".%%%." + parts[2]},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.NotPanics(t, func() {
				claims, err := tc.svc.Verify(ctx, tc.token, KindAccess)
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.Nil(t, claims)
			})
		})
	}
}

func TestIssuePair(t *testing.T) {
	t.Parallel()

	svc := newTestJWTService(t, testSecret, fixedTime)
	ctx := context.Background()
	userID := uuid.New()

	pair, err := svc.IssuePair(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(30*60), pair.ExpiresIn)
	assert.Equal(t, fixedTime.Add(30*time.Minute), pair.AccessExpiresAt)
	assert.Equal(t, fixedTime.Add(7*24*time.Hour), pair.RefreshExpiresAt)

	_, err = svc.Verify(ctx, pair.AccessToken, KindAccess)
	assert.NoError(t, err)
	_, err = svc.Verify(ctx, pair.RefreshToken, KindRefresh)
	assert.NoError(t, err)

	reset, err := svc.IssuePasswordReset(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, fixedTime.Add(time.Hour), reset.ExpiresAt)
	_, err = svc.Verify(ctx, reset.Token, KindPasswordReset)
	assert.NoError(t, err)
}
