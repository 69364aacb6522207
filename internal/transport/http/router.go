package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mishakov/blog_backend/internal/handlers"
	mwauth "github.com/mishakov/blog_backend/internal/middleware/auth"
	"github.com/mishakov/blog_backend/internal/models"
	"github.com/mishakov/blog_backend/internal/repo"
	"github.com/mishakov/blog_backend/internal/service"
)

type Deps struct {
	Auth           *service.AuthService
	Repo           *repo.GormRepo
	AuthHandler    *handlers.AuthHandler
	ArticleHandler *handlers.ArticleHandler
	UserHandler    *handlers.UserHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/auth/register", d.AuthHandler.Register)
	v1.POST("/auth/login", d.AuthHandler.Login)
	v1.POST("/auth/refresh", d.AuthHandler.Refresh)

	v1.GET("/articles", d.ArticleHandler.GetArticles)
	v1.GET("/articles/:id", d.ArticleHandler.GetArticle)
	v1.GET("/search", d.SearchHandler.Search)

	editors := v1.Group("/articles", mwauth.RequireRole(d.Auth, d.Repo, models.RoleAdmin))
	editors.POST("", d.ArticleHandler.CreateArticle)
	editors.PUT("/:id", d.ArticleHandler.UpdateArticle)
	editors.DELETE("/:id", d.ArticleHandler.DeleteArticle)

	users := v1.Group("/users", mwauth.RequireRole(d.Auth, d.Repo, models.RoleUser))
	users.GET("", d.UserHandler.GetUsers)
	users.GET("/:name", d.UserHandler.GetUser)

	admin := v1.Group("/admin", mwauth.RequireRole(d.Auth, d.Repo, models.RoleSuperuser))
	admin.DELETE("/users/:uuid", d.UserHandler.DeleteUser)
}
