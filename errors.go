package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials is the only failure the login boundary reports.
// Unknown user, wrong password, and locked account all fold into it so the
// response does not leak which one happened.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrAccountLocked signals the failed attempt counter reached the threshold.
// It is tracked internally and folded into ErrInvalidCredentials at the
// authenticator boundary.
var ErrAccountLocked = errors.New("account is locked", errors.CategoryAuth).
	WithTextCode("ACCOUNT_LOCKED").
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned when a password does not match
// the stored hash.
var ErrMismatchedHashAndPassword = errors.New("credentials do not match", errors.CategoryAuth).
	WithTextCode("CREDENTIALS_MISMATCH").
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrSessionRevoked is returned when a session token carries a secret
// snapshot that no longer matches the account's current secret.
var ErrSessionRevoked = errors.New("session has been revoked", errors.CategoryAuth).
	WithTextCode("SESSION_REVOKED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiry claim.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or signature
// verification.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidToken is returned when an action token cannot be redeemed,
// whatever the underlying reason.
var ErrInvalidToken = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode("INVALID_TOKEN").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidSecret is returned by the unblock flow when no account matches
// the supplied secret.
var ErrInvalidSecret = errors.New("invalid secret", errors.CategoryAuth).
	WithTextCode("INVALID_SECRET").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidPassword is returned by the unblock flow on password mismatch.
var ErrInvalidPassword = errors.New("invalid password", errors.CategoryAuth).
	WithTextCode("INVALID_PASSWORD").
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateEmail signals a registration collision on email.
var ErrDuplicateEmail = errors.New("a user with this email already exists", errors.CategoryConflict).
	WithTextCode("DUPLICATE_EMAIL")

// ErrDuplicateUsername signals a registration collision on username.
var ErrDuplicateUsername = errors.New("a user with this username already exists", errors.CategoryConflict).
	WithTextCode("DUPLICATE_USERNAME")

// ErrMissingUsername is returned when a required username is absent.
var ErrMissingUsername = errors.New("username is required", errors.CategoryBadInput).
	WithTextCode("MISSING_USERNAME")

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed")
}

// mapUniqueViolation converts a driver level uniqueness failure into the
// matching duplicate sentinel. The check is textual because the column that
// collided only appears in the driver message.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate") {
		return err
	}
	if strings.Contains(msg, "email") {
		return ErrDuplicateEmail
	}
	if strings.Contains(msg, "username") {
		return ErrDuplicateUsername
	}
	return err
}
