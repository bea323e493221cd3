package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/finportal/internal/config"
	"github.com/Skotchmaster/finportal/internal/events"
	"github.com/Skotchmaster/finportal/internal/gate"
	"github.com/Skotchmaster/finportal/internal/hash"
	"github.com/Skotchmaster/finportal/internal/httpserver"
	"github.com/Skotchmaster/finportal/internal/logging"
	loggingmw "github.com/Skotchmaster/finportal/internal/middleware/logging"
	"github.com/Skotchmaster/finportal/internal/ratelimit"
	"github.com/Skotchmaster/finportal/internal/repo"
	"github.com/Skotchmaster/finportal/internal/revocation"
	"github.com/Skotchmaster/finportal/internal/service"
	"github.com/Skotchmaster/finportal/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DatabaseURL, cfg.Pool)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	codec, err := tokens.NewCodec([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	store := revocation.New(cfg.RevocationCleanupInterval, revocation.WithLogger(logger))
	accounts := repo.NewGormRepo(db)
	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	limiter := ratelimit.New(cfg.LoginRatePerSecond, cfg.LoginRateBurst)

	svc := &service.AuthService{
		Accounts:    accounts,
		Codec:       codec,
		Revocations: store,
		Hasher:      hash.NewHasher(cfg.BcryptCost),
		Events:      publisher,
		DefaultRole: cfg.DefaultRole,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: svc},
		AccountHandler: &httpserver.AccountHTTP{Accounts: accounts},
		Gate: &gate.Gate{
			Codec:       codec,
			Revocations: store,
			Accounts:    accounts,
			PublicPaths: cfg.PublicPaths,
		},
		LoginLimiter: limiter,
		Ready:        accounts.Ping,
	})

	bgCtx, stopBackground := context.WithCancel(context.Background())
	go pruneLimiter(bgCtx, limiter, time.Minute)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	go func() {
		<-quit
		log.Println("force exit")
		os.Exit(1)
	}()

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	stopBackground()
	store.Stop()

	if err := publisher.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	log.Println("shutdown complete")
}

func pruneLimiter(ctx context.Context, l *ratelimit.Limiter, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Cleanup()
		}
	}
}
