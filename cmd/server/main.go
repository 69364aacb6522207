package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mishakov/blog_backend/internal/config"
	"github.com/mishakov/blog_backend/internal/es"
	"github.com/mishakov/blog_backend/internal/handlers"
	"github.com/mishakov/blog_backend/internal/hash"
	"github.com/mishakov/blog_backend/internal/logging"
	loggingmw "github.com/mishakov/blog_backend/internal/middleware/logging"
	"github.com/mishakov/blog_backend/internal/mykafka"
	"github.com/mishakov/blog_backend/internal/repo"
	"github.com/mishakov/blog_backend/internal/service"
	"github.com/mishakov/blog_backend/internal/tokens"
	httpserver "github.com/mishakov/blog_backend/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	config.MustNonEmptyBytes(cfg.JWT_PRIVATE_KEY, "JWT_PRIVATE_KEY")
	config.MustNonEmptyBytes(cfg.JWT_PUBLIC_KEY, "JWT_PUBLIC_KEY")

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	codec, err := tokens.NewCodec(cfg.JWT_PRIVATE_KEY, cfg.JWT_PUBLIC_KEY, cfg.JWT_ALGORITHM)
	if err != nil {
		log.Fatalf("token codec error: %v", err)
	}

	store := &repo.GormRepo{DB: db}

	authSvc := &service.AuthService{
		Store:      store,
		Hasher:     hash.New(cfg.BCRYPT_COST),
		Codec:      codec,
		AccessTTL:  time.Duration(cfg.ACCESS_TTL_MINUTES) * time.Minute,
		RefreshTTL: time.Duration(cfg.REFRESH_TTL_DAYS) * 24 * time.Hour,
	}

	prod := mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})

	esClient, err := es.NewClient(cfg)
	if err != nil {
		log.Fatalf("elasticsearch error: %v", err)
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth:           authSvc,
		Repo:           store,
		AuthHandler:    &handlers.AuthHandler{Auth: authSvc, Producer: prod},
		ArticleHandler: &handlers.ArticleHandler{Repo: store, Producer: prod},
		UserHandler:    &handlers.UserHandler{Repo: store},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: "articles"},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.SERVER_PORT),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
