package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// TokenKind distinguishes what a token may be used for.
type TokenKind string

// Token kinds
const (
	KindAccess        TokenKind = "access"
	KindRefresh       TokenKind = "refresh"
	KindPasswordReset TokenKind = "password_reset"
)

// MinSecretLength is the shortest signing secret accepted.
const MinSecretLength = 32

// Valid reports whether k is a known token kind.
func (k TokenKind) Valid() bool {
	switch k {
	case KindAccess, KindRefresh, KindPasswordReset:
		return true
	default:
		return false
	}
}

// Claims is the verified content of a token.
type Claims struct {
	UserID    uuid.UUID
	Kind      TokenKind
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// IssuedToken is a signed token together with its expiry.
type IssuedToken struct {
	Token     string
	Kind      TokenKind
	ExpiresAt time.Time
}

// TokenPair is the access/refresh pair handed out on login and refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64
}

// JWTService issues and verifies signed tokens.
type JWTService interface {
	// Issue signs a token of the given kind for subject, valid for ttl.
	Issue(ctx context.Context, subject uuid.UUID, kind TokenKind, ttl time.Duration) (*IssuedToken, error)

	// IssuePair issues an access and a refresh token with the configured lifetimes.
	IssuePair(ctx context.Context, subject uuid.UUID) (*TokenPair, error)

	// IssuePasswordReset issues a password reset token with the configured lifetime.
	IssuePasswordReset(ctx context.Context, subject uuid.UUID) (*IssuedToken, error)

	// Verify checks signature, algorithm, expiry and kind, and returns the claims.
	// Every failure is, or wraps, ErrInvalidToken.
	Verify(ctx context.Context, token string, expected TokenKind) (*Claims, error)
}

// hmacJWTService is an implementation of JWTService using HMAC-SHA256 signing.
type hmacJWTService struct {
	signingKey            []byte
	accessTokenLifetime   time.Duration
	refreshTokenLifetime  time.Duration
	passwordResetLifetime time.Duration
	timeFunc              func() time.Time // Injectable for testing
}

// jwtCustomClaims defines the structure of JWT claims we use
type jwtCustomClaims struct {
	UserID    uuid.UUID `json:"uid"`
	TokenType TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// Ensure hmacJWTService implements JWTService interface
var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a new JWT service using HMAC-SHA256 signing.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	return newHMACJWTService(cfg, time.Now)
}

func newHMACJWTService(cfg config.AuthConfig, timeFunc func() time.Time) (*hmacJWTService, error) {
	if len(cfg.JWTSecret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
	}
	if cfg.AccessTokenLifetime() <= 0 || cfg.RefreshTokenLifetime() <= 0 || cfg.PasswordResetLifetime() <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}

	return &hmacJWTService{
		signingKey:            []byte(cfg.JWTSecret),
		accessTokenLifetime:   cfg.AccessTokenLifetime(),
		refreshTokenLifetime:  cfg.RefreshTokenLifetime(),
		passwordResetLifetime: cfg.PasswordResetLifetime(),
		timeFunc:              timeFunc,
	}, nil
}

// Issue implements JWTService.Issue
func (s *hmacJWTService) Issue(
	ctx context.Context,
	subject uuid.UUID,
	kind TokenKind,
	ttl time.Duration,
) (*IssuedToken, error) {
	log := logger.FromContext(ctx)

	if subject == uuid.Nil {
		return nil, fmt.Errorf("token subject cannot be empty")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}

	// JWT dates carry whole seconds; exp is derived from the recorded iat.
	now := s.timeFunc().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	claims := jwtCustomClaims{
		UserID:    subject,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign token",
			"error", err,
			"user_id", subject,
			"token_type", kind)
		return nil, fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return &IssuedToken{Token: signed, Kind: kind, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// IssuePair implements JWTService.IssuePair
func (s *hmacJWTService) IssuePair(ctx context.Context, subject uuid.UUID) (*TokenPair, error) {
	access, err := s.Issue(ctx, subject, KindAccess, s.accessTokenLifetime)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issue(ctx, subject, KindRefresh, s.refreshTokenLifetime)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
		ExpiresIn:        int64(s.accessTokenLifetime / time.Second),
	}, nil
}

// IssuePasswordReset implements JWTService.IssuePasswordReset
func (s *hmacJWTService) IssuePasswordReset(ctx context.Context, subject uuid.UUID) (*IssuedToken, error) {
	return s.Issue(ctx, subject, KindPasswordReset, s.passwordResetLifetime)
}

// Verify implements JWTService.Verify
func (s *hmacJWTService) Verify(ctx context.Context, tokenString string, expected TokenKind) (*Claims, error) {
	log := logger.FromContext(ctx)

	// No leeway: a token is expired from the instant the verifier's clock reaches exp.
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.timeFunc),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug("token verification failed: expired", "expected_type", expected)
			return nil, ErrExpiredToken
		}
		log.Debug("token verification failed",
			"error", err,
			"expected_type", expected)
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == uuid.Nil || claims.Subject != claims.UserID.String() || claims.IssuedAt == nil {
		log.Debug("token verification failed: malformed claims")
		return nil, ErrInvalidToken
	}

	if claims.TokenType != expected {
		log.Debug("token verification failed: wrong token type",
			"expected", expected,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	return &Claims{
		UserID:    claims.UserID,
		Kind:      claims.TokenType,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}, nil
}
