package middleware

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"sweetshop/internal/auth"
	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/logging"
)

// TokenHeader carries the raw signed token. No "Bearer" prefix.
const TokenHeader = "x-auth-token"

const identityKey = "identity"

// RequireAuth verifies the token in TokenHeader and attaches the caller's identity.
// A missing token and a bad token both end the request with 401.
func RequireAuth(jwtService *auth.JWTService) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey:  identityKey,
		TokenLookup: "header:" + TokenHeader,
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			return jwtService.ValidateToken(raw)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, apperrors.ErrInvalidToken) {
				return apperrors.ErrInvalidToken
			}
			return apperrors.ErrUnauthorized
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return apperrors.ErrUnauthorized
			}
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("user_id", id.UserID, "role", id.Role.String())
			ctx = auth.IntoContext(logging.IntoContext(ctx, l), id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		})
	}
}

// RequireAdmin must be mounted after RequireAuth.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return apperrors.ErrUnauthorized
		}
		if !id.Role.IsAdmin() {
			return apperrors.ErrForbidden
		}
		return next(c)
	}
}

// IdentityFrom returns the identity attached by RequireAuth.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(identityKey).(auth.Identity)
	return id, ok
}
