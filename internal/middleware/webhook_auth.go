package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/booking-pipeline/internal/utils"
)

// WebhookAuth returns a middleware that verifies the bot's shared
// secret sent in the X-Webhook-Token header against a bcrypt hash.
// Only the hash is ever configured on this service, so a leaked env
// dump does not reveal the secret itself.
func WebhookAuth(tokenHash string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get("X-Webhook-Token")
			if token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing webhook token"})
			}
			if !utils.VerifySecret(tokenHash, token) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook token"})
			}
			return next(c)
		}
	}
}
