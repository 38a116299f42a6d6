package auth

import (
	"errors"
	"fmt"
)

// Token errors. Every verification failure is, or wraps, ErrInvalidToken.
var (
	// ErrInvalidToken indicates the token is malformed, its signature does not match,
	// or it was signed with an unexpected algorithm.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the verifier's clock has reached the token's expiry.
	ErrExpiredToken = fmt.Errorf("%w: token has expired", ErrInvalidToken)

	// ErrWrongTokenType indicates a token of one kind was presented where another is required,
	// e.g. a refresh token on an authenticated endpoint.
	ErrWrongTokenType = fmt.Errorf("%w: wrong token type", ErrInvalidToken)
)

// Authentication and authorization errors.
var (
	// ErrUnauthenticated is wrapped by every identity resolution failure.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates an authenticated caller acting on a resource it does not own.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials is returned when an email/password pair does not match.
	// It never reveals which half was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmptyPassword is returned when asked to hash an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")
)

// Reason is a machine-readable cause attached to authentication failures
// and written to the audit log.
type Reason string

// Rejection reasons
const (
	ReasonMissingToken     Reason = "missing_token"
	ReasonMalformedHeader  Reason = "malformed_header"
	ReasonInvalidToken     Reason = "invalid_token"
	ReasonExpiredToken     Reason = "expired_token"
	ReasonWrongTokenType   Reason = "wrong_token_type"
	ReasonUnknownIdentity  Reason = "unknown_identity"
	ReasonInactiveIdentity Reason = "inactive_identity"
	ReasonNotOwner         Reason = "not_owner"
)

// AuthError is an authentication failure carrying its reason.
// It matches both ErrUnauthenticated and the underlying cause under errors.Is.
type AuthError struct {
	Reason Reason
	Err    error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("unauthenticated: %s", e.Reason)
}

// Unwrap exposes ErrUnauthenticated and the cause.
func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnauthenticated}
	}
	return []error{ErrUnauthenticated, e.Err}
}

func unauthenticated(reason Reason, cause error) error {
	return &AuthError{Reason: reason, Err: cause}
}

// ReasonOf extracts the rejection reason from err, or "" when err is not an AuthError.
func ReasonOf(err error) Reason {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason
	}
	return ""
}

// tokenReason classifies a verification error.
func tokenReason(err error) Reason {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return ReasonExpiredToken
	case errors.Is(err, ErrWrongTokenType):
		return ReasonWrongTokenType
	default:
		return ReasonInvalidToken
	}
}
