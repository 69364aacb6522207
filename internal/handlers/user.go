package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	mwauth "github.com/mishakov/blog_backend/internal/middleware/auth"
	"github.com/mishakov/blog_backend/internal/repo"
)

type UserHandler struct {
	Repo *repo.GormRepo
}

func (h *UserHandler) GetUsers(c echo.Context) error {
	users, err := h.Repo.Users(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list users")
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	name := c.Param("name")

	user, err := h.Repo.GetUserByName(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
	}

	callerID, _ := mwauth.UserID(c)
	return c.JSON(http.StatusOK, echo.Map{
		"user":     user,
		"is_owner": callerID == user.UUID,
	})
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user uuid")
	}

	if err := h.Repo.SoftDeleteUser(c.Request().Context(), id); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete user")
	}

	return c.NoContent(http.StatusNoContent)
}
