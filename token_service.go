package membership

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DefaultIssuer is the fixed issuer claim stamped on every token this
// service signs, and the only issuer Validate accepts.
const DefaultIssuer = "Membership"

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	secret        string
	tokenLifetime int
	issuer        string
	logger        Logger
}

// NewTokenService creates a new TokenService instance. The secret is the
// base64 encoded symmetric signing key; tokenLifetime is in seconds. The key
// is decoded lazily so malformed key material surfaces as a signing error on
// the request that needs it, never as token content.
func NewTokenService(secret string, tokenLifetime int, issuer string, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &TokenServiceImpl{
		secret:        secret,
		tokenLifetime: tokenLifetime,
		issuer:        issuer,
		logger:        logger,
	}
}

// Issue builds and signs a token asserting the given username for exactly one
// client audience. The audience MUST be the client the caller authenticated
// against; verifiers configured for other clients reject it.
func (ts *TokenServiceImpl) Issue(username string, client Client) (string, error) {
	if !client.IsRegistered() {
		return "", ErrInvalidClient
	}

	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   username,
			Audience:  jwt.ClaimStrings{client.String()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenLifetime) * time.Second)),
		},
		UserRole: RoleAdministrator,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	key, err := ts.signingKey()
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(key)
	if err != nil {
		ts.logger.Error("TokenService failed to sign claims", "error", err)
		return "", errors.Wrap(err, ErrTokenSigning.Category, ErrTokenSigning.Message).
			WithTextCode(ErrTokenSigning.TextCode)
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims.
// It checks the signature, the HMAC signing method, the fixed issuer, the
// audience against the registered clients, and the expiry.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	key, err := ts.signingKey()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithIssuer(ts.issuer), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if !hasRegisteredAudience(claims.Audience()) {
		return nil, ErrTokenAudience
	}

	return claims, nil
}

func hasRegisteredAudience(audience []string) bool {
	for _, aud := range audience {
		if Client(aud).IsRegistered() {
			return true
		}
	}
	return false
}

func (ts *TokenServiceImpl) signingKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(ts.secret)
	if err != nil {
		ts.logger.Error("TokenService signing secret is not valid base64", "error", err)
		return nil, errors.Wrap(err, ErrTokenSigning.Category, ErrTokenSigning.Message).
			WithTextCode(ErrTokenSigning.TextCode)
	}
	if len(key) == 0 {
		return nil, errors.New("signing secret must not be empty", ErrTokenSigning.Category).
			WithTextCode(ErrTokenSigning.TextCode)
	}
	return key, nil
}
