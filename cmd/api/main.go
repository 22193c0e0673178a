package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldops-platform/internal/audit"
	"fieldops-platform/internal/auth"
	"fieldops-platform/internal/config"
	"fieldops-platform/internal/expense"
	"fieldops-platform/internal/httpapi"
	"fieldops-platform/internal/otp"
	"fieldops-platform/internal/users"
	"fieldops-platform/pkg/logger"
	"fieldops-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local convenience; real deployments set env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Explicit DI, no globals.
	recorder := audit.NewRecorder(audit.NewPostgresRepo(db))

	userRepo := users.NewPostgresRepo(db)
	userSvc := users.NewService(userRepo, userRepo, recorder, log)

	expenseSvc := expense.NewService(expense.NewPostgresRepo(db), recorder, log)

	revoked := auth.NewRevocationList(rdb)

	otpSvc := otp.NewService(
		otp.NewClient(cfg.MSG91),
		userRepo,
		authManager,
		recorder,
		otp.NewThrottle(rdb, cfg.OTP.SendLimit, cfg.OTP.SendWindow),
		log,
	)

	h := httpapi.Handlers{
		Users:     userSvc,
		Expenses:  expenseSvc,
		OTP:       otpSvc,
		Auth:      authManager,
		Revoked:   revoked,
		UploadDir: cfg.Upload.Dir,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager, revoked))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
