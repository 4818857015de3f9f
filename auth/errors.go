package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("value should not be an empty string")

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = errors.New("hash does not match password")

// Text codes surfaced in the error envelope so clients can branch without
// parsing messages.
const (
	TextCodeInvalidToken       = "INVALID_TOKEN"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeNotProjectMember   = "NOT_PROJECT_MEMBER"
)

// ErrInvalidToken collapses signature mismatch, expiry and malformed payload
// into a single failure so callers cannot distinguish them.
func ErrInvalidToken() *goerrors.Error {
	return goerrors.New("invalid or expired token", goerrors.CategoryAuth).
		WithCode(goerrors.CodeUnauthorized).
		WithTextCode(TextCodeInvalidToken)
}

// ErrInvalidCredentials is the single error for unknown identifier or wrong
// password; it never reveals which one failed.
func ErrInvalidCredentials() *goerrors.Error {
	return goerrors.New("invalid credentials", goerrors.CategoryAuth).
		WithCode(goerrors.CodeUnauthorized).
		WithTextCode(TextCodeInvalidCredentials)
}

// ErrUnauthorized is the generic guard failure.
func ErrUnauthorized() *goerrors.Error {
	return goerrors.New("unauthorized request", goerrors.CategoryAuth).
		WithCode(goerrors.CodeUnauthorized)
}

func wrapInternal(err error, msg string) *goerrors.Error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}
