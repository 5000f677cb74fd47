package membership

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Logger takes a message followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Authenticator holds the operations callers (the HTTP layer) invoke directly
type Authenticator interface {
	CreateAccount(ctx context.Context, payload *AccountPayload) (*AccountPayload, error)
	Authenticate(ctx context.Context, username, password string, client Client) (string, error)
	ChangePassword(ctx context.Context, username, newPassword string) (int64, error)
	Activate(ctx context.Context, username string, client Client) (int64, error)
	Deactivate(ctx context.Context, username string, client Client) (int64, error)
}

// AccountStore is the durable storage contract the Authenticator depends on.
// Lookups report missing records through a not-found error; every other fault
// surfaces as-is and is wrapped by the caller. Mutations return the store's
// mutation count, 1 on success.
type AccountStore interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	Insert(ctx context.Context, account *Account) (int64, error)
	UpdatePasswordFields(ctx context.Context, id uuid.UUID, hash, salt []byte) (int64, error)
	UpdateActivationFields(ctx context.Context, id uuid.UUID, activation Activation) (int64, error)
}

// CredentialHasher derives and verifies salted password hashes
type CredentialHasher interface {
	GenerateSalt() ([]byte, error)
	ComputeHash(password string, salt []byte) []byte
	VerifyEqual(expected, actual []byte) bool
}

// TokenService signs client-scoped bearer tokens and validates inbound ones
type TokenService interface {
	Issue(username string, client Client) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// Config holds the identity options consumed by the core. The signing secret
// is base64 encoded and the token lifetime is expressed in seconds; both are
// fixed at process start.
type Config interface {
	GetSigningSecret() string
	GetTokenLifetime() int
	GetIssuer() string
	GetContextKey() string
	GetAuthScheme() string
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	logLine("ERR", msg, args...)
}

func (d defLogger) Warn(msg string, args ...any) {
	logLine("WRN", msg, args...)
}

func (d defLogger) Info(msg string, args ...any) {
	logLine("INF", msg, args...)
}

func (d defLogger) Debug(msg string, args ...any) {
	logLine("DBG", msg, args...)
}

func logLine(level, msg string, args ...any) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] MEMBERSHIP %s", level, msg)

	i := 0
	for ; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	// A dangling key still gets printed rather than dropped.
	if i < len(args) {
		fmt.Fprintf(&b, " %v", args[i])
	}

	fmt.Println(b.String())
}
