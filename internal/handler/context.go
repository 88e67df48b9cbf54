package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskman/internal/auth"
)

// currentUserID returns the identity resolved by the auth gateway. Handlers
// behind the secured group can rely on it being present; a missing value
// means the route was wired outside the gateway and is rejected.
func currentUserID(c echo.Context) (uint, error) {
	claims, ok := c.Get("user").(*auth.Claims)
	if !ok || claims == nil {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return claims.UserID, nil
}
