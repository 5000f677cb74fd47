package membership_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-membership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(lifetime int) membership.TokenService {
	return membership.NewTokenService(testSigningSecret, lifetime, "Membership", nil)
}

func signingKey(t *testing.T) []byte {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(testSigningSecret)
	require.NoError(t, err)
	return key
}

func TestIssue(t *testing.T) {
	svc := newTestTokenService(3600)

	t.Run("issued token carries the expected claims", func(t *testing.T) {
		token, err := svc.Issue("alice", membership.ClientA)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		key := signingKey(t)
		parsed, err := jwt.ParseWithClaims(token, &membership.JWTClaims{}, func(t *jwt.Token) (any, error) {
			return key, nil
		})
		require.NoError(t, err)
		require.True(t, parsed.Valid)

		claims, ok := parsed.Claims.(*membership.JWTClaims)
		require.True(t, ok)

		assert.Equal(t, "alice", claims.Subject())
		assert.Equal(t, "Membership", claims.RegisteredClaims.Issuer)
		assert.Equal(t, jwt.ClaimStrings{"A"}, claims.RegisteredClaims.Audience)
		assert.Equal(t, membership.RoleAdministrator, claims.Role())
		assert.True(t, claims.HasRole(membership.RoleAdministrator))
		assert.NotEmpty(t, claims.RegisteredClaims.ID)

		lifetime := claims.Expires().Sub(claims.IssuedAt())
		assert.Equal(t, time.Hour, lifetime)
	})

	t.Run("audience matches the requested client", func(t *testing.T) {
		for _, client := range membership.RegisteredClients() {
			token, err := svc.Issue("alice", client)
			require.NoError(t, err)

			claims, err := svc.Validate(token)
			require.NoError(t, err)
			assert.Equal(t, []string{client.String()}, claims.Audience())
		}
	})

	t.Run("unregistered client is rejected", func(t *testing.T) {
		token, err := svc.Issue("alice", membership.Client("Z"))

		assert.ErrorIs(t, err, membership.ErrInvalidClient)
		assert.Empty(t, token)
	})

	t.Run("malformed secret surfaces as signing error not token content", func(t *testing.T) {
		broken := membership.NewTokenService("%%%not-base64%%%", 3600, "Membership", nil)

		token, err := broken.Issue("alice", membership.ClientA)

		require.Error(t, err)
		assert.Empty(t, token, "a failed signature must never be returned as the token")
	})

	t.Run("empty secret surfaces as signing error", func(t *testing.T) {
		broken := membership.NewTokenService("", 3600, "Membership", nil)

		token, err := broken.Issue("alice", membership.ClientA)

		require.Error(t, err)
		assert.Empty(t, token)
	})
}

func TestValidate(t *testing.T) {
	svc := newTestTokenService(3600)

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.Issue("bob", membership.ClientB)
		require.NoError(t, err)

		claims, err := svc.Validate(token)
		require.NoError(t, err)

		assert.Equal(t, "bob", claims.Subject())
		assert.Equal(t, []string{"B"}, claims.Audience())
	})

	t.Run("garbage input is malformed", func(t *testing.T) {
		_, err := svc.Validate("not-a-token")

		require.Error(t, err)
		assert.True(t, membership.IsMalformedError(err))
	})

	t.Run("expired token is reported as expired", func(t *testing.T) {
		shortLived := newTestTokenService(-10)

		token, err := shortLived.Issue("bob", membership.ClientB)
		require.NoError(t, err)

		_, err = shortLived.Validate(token)

		assert.ErrorIs(t, err, membership.ErrTokenExpired)
	})

	t.Run("wrong signing key is rejected", func(t *testing.T) {
		otherKey := base64.StdEncoding.EncodeToString([]byte("other-signing-key"))
		other := membership.NewTokenService(otherKey, 3600, "Membership", nil)

		token, err := other.Issue("bob", membership.ClientB)
		require.NoError(t, err)

		_, err = svc.Validate(token)

		require.Error(t, err)
		assert.True(t, membership.IsMalformedError(err))
	})

	t.Run("wrong issuer is rejected", func(t *testing.T) {
		other := membership.NewTokenService(testSigningSecret, 3600, "SomeoneElse", nil)

		token, err := other.Issue("bob", membership.ClientB)
		require.NoError(t, err)

		_, err = svc.Validate(token)

		require.Error(t, err)
	})

	t.Run("unregistered audience is rejected", func(t *testing.T) {
		now := time.Now()
		claims := &membership.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "Membership",
				Subject:   "bob",
				Audience:  jwt.ClaimStrings{"Z"},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}

		token, err := svc.SignClaims(claims)
		require.NoError(t, err)

		_, err = svc.Validate(token)

		assert.ErrorIs(t, err, membership.ErrTokenAudience)
	})

	t.Run("unexpected signing method is rejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &membership.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "Membership",
				Subject:   "bob",
				Audience:  jwt.ClaimStrings{"B"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Validate(token)

		require.Error(t, err)
		assert.True(t, membership.IsMalformedError(err))
	})
}
