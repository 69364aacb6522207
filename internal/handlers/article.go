package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mishakov/blog_backend/internal/logging"
	mwauth "github.com/mishakov/blog_backend/internal/middleware/auth"
	"github.com/mishakov/blog_backend/internal/models"
	"github.com/mishakov/blog_backend/internal/mykafka"
	"github.com/mishakov/blog_backend/internal/repo"
	"github.com/mishakov/blog_backend/internal/util"
)

type ArticleHandler struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
}

func (h *ArticleHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "article_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ArticleHandler) GetArticles(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Repo.Articles(c.Request().Context(), offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list articles")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": echo.Map{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ArticleHandler) GetArticle(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}

	article, err := h.Repo.GetArticle(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrArticleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "article not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load article")
	}

	return c.JSON(http.StatusOK, article)
}

func (h *ArticleHandler) CreateArticle(c echo.Context) error {
	authorID, ok := mwauth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing access token")
	}

	var req struct {
		Title  string  `json:"title"`
		Text   string  `json:"text"`
		Rating float64 `json:"rating"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" || req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and text are required")
	}

	article := models.Article{
		Title:    req.Title,
		Text:     req.Text,
		AuthorID: authorID,
		Rating:   req.Rating,
	}
	if err := h.Repo.CreateArticle(c.Request().Context(), &article); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create article")
	}

	h.publish(c, strconv.FormatUint(uint64(article.ID), 10), map[string]interface{}{
		"type":      "article_created",
		"articleID": article.ID,
		"authorID":  article.AuthorID,
		"title":     article.Title,
	})

	return c.JSON(http.StatusCreated, article)
}

func (h *ArticleHandler) UpdateArticle(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}

	var req struct {
		Title  string  `json:"title"`
		Text   string  `json:"text"`
		Rating float64 `json:"rating"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	article, err := h.Repo.GetArticle(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrArticleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "article not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load article")
	}

	article.Title = req.Title
	article.Text = req.Text
	article.Rating = req.Rating

	if err := h.Repo.UpdateArticle(c.Request().Context(), article); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update article")
	}

	h.publish(c, strconv.FormatUint(uint64(article.ID), 10), map[string]interface{}{
		"type":      "article_updated",
		"articleID": article.ID,
		"title":     article.Title,
	})

	return c.JSON(http.StatusOK, article)
}

func (h *ArticleHandler) DeleteArticle(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}

	if err := h.Repo.DeleteArticle(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, repo.ErrArticleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "article not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete article")
	}

	h.publish(c, strconv.Itoa(id), map[string]interface{}{
		"type":      "article_deleted",
		"articleID": id,
	})

	return c.NoContent(http.StatusNoContent)
}
