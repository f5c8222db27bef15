package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"doozy-api/api"
	"doozy-api/storage"
)

type config struct {
	MongoURI  string `env:"MONGO_DB_URI,required"`
	JWTSecret string `env:"JWT_SECRET,required"`
	Database  string `env:"MONGO_DB_NAME" envDefault:"doozy"`
	Port      string `env:"PORT" envDefault:"5000"`
	Debug     bool   `env:"DEBUG"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.New(connectCtx, cfg.MongoURI, cfg.Database)
	cancel()
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	log.Info("connected to document store")

	auth := api.NewAuth([]byte(cfg.JWTSecret))

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	logger := log.New()
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	api.Register(e, store, auth, logger)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Errorf("storage close: %v", err)
	}
}
