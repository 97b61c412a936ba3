package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/townloop/backend/internal/models"
)

// getUserIDFromContext returns the authenticated user's ID, or 0 when the
// request carries no valid principal. Every operation takes its actor from
// here; nothing re-resolves the session on its own.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return 0
	}
	return claims.UserID
}
