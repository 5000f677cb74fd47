package membership

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// DefaultContextKey is where the token guard stores validated claims on the
// request context.
const DefaultContextKey = "identity"

// TokenGuard validates the bearer token on every request before the handler
// runs. Verification is independent of issuance: signature, issuer,
// registered audience, and expiry are all checked by the TokenService, and
// the validated claims are stored under the configured context key.
func TokenGuard(cfg Config, validator TokenService, errorHandler router.ErrorHandler) router.MiddlewareFunc {
	contextKey := cfg.GetContextKey()
	if contextKey == "" {
		contextKey = DefaultContextKey
	}

	authScheme := cfg.GetAuthScheme()
	if authScheme == "" {
		authScheme = "Bearer"
	}

	if errorHandler == nil {
		errorHandler = RenderError
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			raw, err := tokenFromHeader(ctx, authScheme)
			if err != nil {
				return errorHandler(ctx, err)
			}

			claims, err := validator.Validate(raw)
			if err != nil {
				return errorHandler(ctx, err)
			}

			ctx.Locals(contextKey, claims)

			return hf(ctx)
		}
	}
}

// RequireRole runs after TokenGuard and rejects requests whose claims lack
// the given role.
func RequireRole(cfg Config, role string, errorHandler router.ErrorHandler) router.MiddlewareFunc {
	contextKey := cfg.GetContextKey()
	if contextKey == "" {
		contextKey = DefaultContextKey
	}

	if errorHandler == nil {
		errorHandler = RenderError
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := ClaimsFromContext(ctx, contextKey)
			if !ok {
				return errorHandler(ctx, ErrTokenMalformed)
			}

			if !claims.HasRole(role) {
				return errorHandler(ctx, ErrAdministratorRequired)
			}

			return hf(ctx)
		}
	}
}

// ClaimsFromContext retrieves the claims stored by TokenGuard.
func ClaimsFromContext(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = DefaultContextKey
	}

	val := ctx.Locals(key)
	if val == nil {
		return nil, false
	}

	claims, ok := val.(AuthClaims)
	return claims, ok
}

// RenderError maps the error taxonomy onto a JSON response. Unrecognized
// errors render as an opaque internal failure.
func RenderError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = statusFromCategory(richErr.Category)
	}

	return ctx.JSON(status, router.ViewContext{
		"error": router.ViewContext{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	})
}

func statusFromCategory(category errors.Category) int {
	switch category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func tokenFromHeader(ctx router.Context, authScheme string) (string, error) {
	a := ctx.GetString(router.HeaderAuthorization, "")
	l := len(authScheme)
	if a == "" || len(a) <= l+1 {
		return "", ErrTokenMalformed
	}
	if !strings.EqualFold(a[:l], authScheme) {
		return "", ErrTokenMalformed
	}
	return strings.TrimSpace(a[l:]), nil
}

// debugPayload keeps noisy request dumps behind a single helper so handlers
// can log payloads without hand-rolled formatting.
func debugPayload(logger Logger, label string, payload any) {
	if logger == nil {
		return
	}
	logger.Debug(label, "payload", print.MaybePrettyJSON(payload))
}
