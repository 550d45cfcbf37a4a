// Command seed-admin creates the first administrator, or resets its password.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/Spok95/school-supply/internal/auth"
	"github.com/Spok95/school-supply/internal/config"
	"github.com/Spok95/school-supply/internal/domain/users"
	"github.com/Spok95/school-supply/internal/infra/db"
	"github.com/Spok95/school-supply/internal/infra/logger"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfgPath := flag.String("config", env("APP_CONFIG", "config/example.yaml"), "config file")
	name := flag.String("name", env("ADMIN_NAME", "Administrador"), "admin name")
	email := flag.String("email", env("ADMIN_EMAIL", "admin@escola.com"), "admin e-mail")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.App.Env)

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Error("invalid password, set -password or ADMIN_PASSWORD", "err", err)
		os.Exit(1)
	}

	if err := db.Migrate(cfg.Postgres.DSN, cfg.Postgres.MigrationsDir); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	pool, err := db.Connect(ctx, cfg.Postgres.DSN, db.Options{MaxConns: 2}, log)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	u, err := users.NewRepo(pool).UpsertAdmin(ctx, *name, *email, hash)
	if err != nil {
		log.Error("seed admin failed", "err", err)
		os.Exit(1)
	}
	log.Info("administrator ready", "user_id", u.ID, "email", u.Email)
}
