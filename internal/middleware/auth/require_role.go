package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mishakov/blog_backend/internal/models"
	"github.com/mishakov/blog_backend/internal/repo"
	"github.com/mishakov/blog_backend/internal/service"
)

// RequireRole guards a route group with a minimum role. The caller's
// role is loaded from the store on every request, never taken from the
// token, so a role change applies to tokens already in the wild.
func RequireRole(svc *service.AuthService, store service.CredentialStore, min models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)

			userID, err := svc.VerifyAccessToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing access token")
			}

			user, err := store.GetUserByUUID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, repo.ErrUserNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing access token")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
			}

			if !user.Role.AtLeast(min) {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}

			setUserContext(c, user)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func setUserContext(c echo.Context, user *models.User) {
	c.Set("userID", user.UUID)
	c.Set("role", user.Role)
}

// UserID returns the authenticated caller's id set by RequireRole.
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get("userID").(uuid.UUID)
	return id, ok
}
