package membership_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-membership"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// passthroughErrHandler surfaces the guard's rejection directly so tests can
// assert on the error value instead of a rendered response.
func passthroughErrHandler(c router.Context, err error) error {
	return err
}

func TestTokenGuard(t *testing.T) {
	cfg := newMockConfig()
	svc := newTestTokenService(3600)
	guard := membership.TokenGuard(cfg, svc, passthroughErrHandler)

	t.Run("valid token reaches the handler with claims in context", func(t *testing.T) {
		token, err := svc.Issue("alice", membership.ClientA)
		require.NoError(t, err)

		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer " + token)
		ctx.On("Locals", "identity", mock.Anything).Return(nil)

		handlerCalled := false
		err = guard(func(c router.Context) error {
			handlerCalled = true
			return nil
		})(ctx)

		require.NoError(t, err)
		assert.True(t, handlerCalled)
		ctx.AssertCalled(t, "Locals", "identity", mock.Anything)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("")

		err := guard(neverCalled(t))(ctx)

		assert.ErrorIs(t, err, membership.ErrTokenMalformed)
	})

	t.Run("wrong scheme is rejected", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Token abc.def.ghi")

		err := guard(neverCalled(t))(ctx)

		assert.ErrorIs(t, err, membership.ErrTokenMalformed)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer not-a-token")

		err := guard(neverCalled(t))(ctx)

		require.Error(t, err)
		assert.True(t, membership.IsMalformedError(err))
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		shortLived := newTestTokenService(-10)
		token, err := shortLived.Issue("alice", membership.ClientA)
		require.NoError(t, err)

		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer " + token)

		err = guard(neverCalled(t))(ctx)

		assert.ErrorIs(t, err, membership.ErrTokenExpired)
	})

	t.Run("foreign audience is rejected", func(t *testing.T) {
		now := time.Now()
		token, err := svc.SignClaims(&membership.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "Membership",
				Subject:   "alice",
				Audience:  jwt.ClaimStrings{"Z"},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})
		require.NoError(t, err)

		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer " + token)

		err = guard(neverCalled(t))(ctx)

		assert.ErrorIs(t, err, membership.ErrTokenAudience)
	})
}

func TestRequireRole(t *testing.T) {
	cfg := newMockConfig()
	guard := membership.RequireRole(cfg, membership.RoleAdministrator, passthroughErrHandler)

	t.Run("administrator claims reach the handler", func(t *testing.T) {
		claims := &membership.JWTClaims{UserRole: membership.RoleAdministrator}

		ctx := router.NewMockContext()
		ctx.LocalsMock["identity"] = claims

		handlerCalled := false
		err := guard(func(c router.Context) error {
			handlerCalled = true
			return nil
		})(ctx)

		require.NoError(t, err)
		assert.True(t, handlerCalled)
	})

	t.Run("missing role is forbidden", func(t *testing.T) {
		claims := &membership.JWTClaims{UserRole: "Member"}

		ctx := router.NewMockContext()
		ctx.LocalsMock["identity"] = claims

		err := guard(neverCalled(t))(ctx)

		assert.ErrorIs(t, err, membership.ErrAdministratorRequired)
	})

	t.Run("absent claims are rejected", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("Locals", "identity").Return(nil)

		err := guard(neverCalled(t))(ctx)

		assert.ErrorIs(t, err, membership.ErrTokenMalformed)
	})
}

func neverCalled(t *testing.T) router.HandlerFunc {
	return func(c router.Context) error {
		t.Fatal("handler must not run when the guard rejects")
		return nil
	}
}
