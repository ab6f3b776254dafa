package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// contextKey is the type for context keys to avoid collisions.
type contextKey string

const (
	userIDKey   contextKey = "auth_user_id"
	usernameKey contextKey = "auth_username"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(token string) (*Claims, error)
}

// Middleware authenticates requests carrying "Authorization: Bearer <token>"
// and stores the user ID and username in the echo context.
//
// Missing, malformed or invalid tokens get 401 with {"message": ...}.
func Middleware(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return unauthorized(c, "missing authorization header")
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return unauthorized(c, "authorization header must be a bearer token")
			}

			claims, err := validator.Validate(strings.TrimSpace(token))
			if err != nil {
				return unauthorized(c, "invalid or expired token")
			}

			c.Set(string(userIDKey), claims.Subject)
			c.Set(string(usernameKey), claims.Username)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="vitanote"`)
	return c.JSON(http.StatusUnauthorized, map[string]string{"message": msg})
}

// UserID returns the authenticated user ID, or "" outside the middleware.
func UserID(c echo.Context) string {
	id, _ := c.Get(string(userIDKey)).(string)
	return id
}

// Username returns the authenticated username.
func Username(c echo.Context) string {
	name, _ := c.Get(string(usernameKey)).(string)
	return name
}
