package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"hours-ledger/internal/model"
	"hours-ledger/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const ContextIdentityKey = "identity"

func extractClaims(c echo.Context, secret string) (*service.CustomClaims, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	claims, err := service.VerifyAccessToken(secret, parts[1])
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("invalid token: %v", err))
	}
	return claims, nil
}

// RequireAuth 驗證 Bearer JWT，並把身分放進 echo context 與 request logger
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := extractClaims(c, secret)
			if err != nil {
				return err
			}
			id := claims.Identity()
			c.Set(ContextIdentityKey, id)

			req := c.Request()
			l := zerolog.Ctx(req.Context()).With().
				Str("user_id", id.UserID).
				Str("role", string(id.Role)).
				Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))
			return next(c)
		}
	}
}

// IdentityFrom returns the authenticated identity, or the zero Identity
// when the route is not behind RequireAuth. The zero value is denied by
// the access policy.
func IdentityFrom(c echo.Context) model.Identity {
	id, _ := c.Get(ContextIdentityKey).(model.Identity)
	return id
}
