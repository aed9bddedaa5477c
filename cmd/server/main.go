package main

import (
	"net/http"
	"os"
	"time"

	_ "usermgmt/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"usermgmt/internal/cache"
	"usermgmt/internal/config"
	"usermgmt/internal/db"
	"usermgmt/internal/handler"
	"usermgmt/internal/logger"
	"usermgmt/internal/model"
	"usermgmt/internal/ratelimit"
	"usermgmt/internal/repository"
	"usermgmt/internal/router"
	"usermgmt/internal/service"
)

// @title User Management API
// @version 1.0
// @description CRUD API over the user table, serving the browser client bundle.
// @host localhost:8080
// @BasePath /api
// @schemes http
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN())
	if err != nil {
		logger.L.WithError(err).Fatal("database init")
	}

	// Drop the table if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		logger.L.Info("RESET_DB=true detected, dropping user table")
		if err := gormDB.Migrator().DropTable(&model.User{}); err != nil {
			logger.L.WithError(err).Warn("failed to drop table (may not exist)")
		}
	}

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		logger.L.WithError(err).Fatal("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	limiter := ratelimit.New(cacheClient, cfg.RateLimit, time.Duration(cfg.RateWindow)*time.Second)

	userRepo := repository.NewUserRepository(gormDB)
	userService := service.NewUserService(userRepo)
	userHandler := handler.NewUserHandler(userService)

	router.Register(e, cfg, limiter, userHandler)

	logger.L.Infof("serving static bundle from %s", cfg.StaticDir)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		logger.L.WithError(err).Fatal("server start")
	}
}
