package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Spok95/school-supply/internal/api"
	"github.com/Spok95/school-supply/internal/auth"
	"github.com/Spok95/school-supply/internal/config"
	"github.com/Spok95/school-supply/internal/domain/dashboard"
	"github.com/Spok95/school-supply/internal/domain/inventory"
	"github.com/Spok95/school-supply/internal/domain/materials"
	"github.com/Spok95/school-supply/internal/domain/requests"
	"github.com/Spok95/school-supply/internal/domain/stockentries"
	"github.com/Spok95/school-supply/internal/domain/suppliers"
	"github.com/Spok95/school-supply/internal/domain/users"
	"github.com/Spok95/school-supply/internal/infra/db"
	httpx "github.com/Spok95/school-supply/internal/infra/http"
	"github.com/Spok95/school-supply/internal/infra/logger"
	"github.com/Spok95/school-supply/internal/infra/notify"
	"github.com/Spok95/school-supply/internal/infra/tracing"
)

func configPath() string {
	if p := os.Getenv("APP_CONFIG"); p != "" {
		return p
	}
	return "config/example.yaml"
}

func revoker(cfg config.Config, log *slog.Logger) auth.Revoker {
	if cfg.Redis.Addr == "" {
		log.Warn("redis not configured, logged-out tokens are tracked in memory")
		return auth.NewMemoryRevoker()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	return auth.NewRedisRevoker(client)
}

// notifier is a requests.Notifier whose background sends can be awaited at shutdown.
type notifier interface {
	requests.Notifier
	Wait()
}

func newNotifier(cfg config.Config, log *slog.Logger) notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.AdminChatID == 0 {
		return notify.Nop{}
	}
	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
	if err != nil {
		log.Error("telegram disabled", "err", err)
		return notify.Nop{}
	}
	return tg
}

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := db.Migrate(cfg.Postgres.DSN, cfg.Postgres.MigrationsDir); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN, db.Options{MaxConns: cfg.Postgres.MaxConns, MinConns: cfg.Postgres.MinConns}, log)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.Enabled, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		log.Error("tracing init failed", "err", err)
		return
	}

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Error("invalid app.timezone", "timezone", cfg.App.Timezone, "err", err)
		return
	}

	userRepo := users.NewRepo(pool)
	materialRepo := materials.NewRepo(pool)
	entryRepo := stockentries.NewRepo(pool)
	requestRepo := requests.NewRepo(pool)
	notifications := newNotifier(cfg, log)

	router := api.NewRouter(api.Deps{
		Log:         log,
		Auth:        auth.NewService(userRepo, auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), revoker(cfg, log)),
		Materials:   materialRepo,
		Movements:   inventory.NewRepo(pool),
		Suppliers:   suppliers.NewRepo(pool),
		Entries:     entryRepo,
		Users:       userRepo,
		Requests:    requests.NewService(requestRepo, notifications, log),
		Dashboard:   dashboard.NewService(materialRepo, requestRepo, entryRepo, userRepo, loc),
		CORSOrigins: cfg.HTTP.CORSOrigins,
		ServiceName: cfg.Tracing.ServiceName,
		Ready:       pool.Ping,
	}, cfg.Metrics.Enabled)

	srv := httpx.New(cfg.HTTP.Addr, router, httpx.Options{ReadTimeout: cfg.HTTP.ReadTimeout, WriteTimeout: cfg.HTTP.WriteTimeout})
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	notifications.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown failed", "err", err)
	}
	log.Info("graceful shutdown complete")
}
