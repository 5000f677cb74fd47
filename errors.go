package membership

import (
	"strings"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

const (
	TextCodeEmptyCredential  = "EMPTY_CREDENTIAL"
	TextCodeInvalidClient    = "INVALID_CLIENT"
	TextCodeUsernameTaken    = "USERNAME_TAKEN"
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
	TextCodeAccountNotFound  = "ACCOUNT_NOT_FOUND"
	TextCodeTokenSigning     = "TOKEN_SIGNING_FAILED"
	TextCodeStoreUnavailable = "STORE_UNAVAILABLE"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenMalformed   = "TOKEN_MALFORMED"
	TextCodeTokenAudience    = "TOKEN_AUDIENCE_REJECTED"
	TextCodeAdminRequired    = "ADMINISTRATOR_REQUIRED"
)

// ErrNoEmptyString is returned when a username or password is missing.
var ErrNoEmptyString = errors.New("username and password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyCredential).
	WithCode(errors.CodeBadRequest)

// ErrInvalidClient is returned when a client identifier is not registered.
var ErrInvalidClient = errors.New("client is not registered", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidClient).
	WithCode(errors.CodeBadRequest)

// ErrUsernameTaken is returned when creating an account whose username exists.
var ErrUsernameTaken = errors.New("username already taken", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials covers both unknown usernames and wrong passwords so
// the two cases are not distinguishable by callers.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrAccountNotFound is returned when an authenticated-identity operation
// targets an account that does not exist.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenSigning is returned when token construction fails. It is fatal for
// the request; a failed signature is never reported as token content.
var ErrTokenSigning = errors.New("failed to sign token", errors.CategoryInternal).
	WithTextCode(TextCodeTokenSigning).
	WithCode(errors.CodeInternal)

// ErrStoreUnavailable wraps store-layer faults. The core performs no retries
// and never masks a store fault as not-found.
var ErrStoreUnavailable = errors.New("account store unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(errors.CodeInternal)

// ErrTokenExpired is returned by Validate for tokens past their expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned by Validate for tokens that fail to parse or
// verify.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenAudience is returned by Validate when none of a token's audiences
// is a registered client.
var ErrTokenAudience = errors.New("token audience is not a registered client", errors.CategoryAuth).
	WithTextCode(TextCodeTokenAudience).
	WithCode(errors.CodeUnauthorized)

// ErrAdministratorRequired gates the activation endpoints.
var ErrAdministratorRequired = errors.New("administrator role required", errors.CategoryAuthz).
	WithTextCode(TextCodeAdminRequired).
	WithCode(errors.CodeForbidden)

// wrapStoreError folds any unexpected store fault into ErrStoreUnavailable,
// preserving the cause.
func wrapStoreError(err error) error {
	return errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
		WithTextCode(ErrStoreUnavailable.TextCode).
		WithCode(errors.CodeInternal)
}

// isRecordNotFound recognizes a missing record from either store signal: the
// bun repository's record-not-found category or a plain not-found rich error.
func isRecordNotFound(err error) bool {
	return repository.IsRecordNotFound(err) || errors.IsNotFound(err)
}

// isDuplicateKeyError recognizes unique-constraint violations from the sqlite
// and postgres drivers.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// wrapBindError reports a request body that could not be parsed.
func wrapBindError(err error) error {
	return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
		WithCode(errors.CodeBadRequest)
}

// wrapValidationError reports a request body that parsed but failed its
// validation rules.
func wrapValidationError(err error) error {
	return errors.Wrap(err, errors.CategoryValidation, err.Error()).
		WithCode(errors.CodeBadRequest)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
