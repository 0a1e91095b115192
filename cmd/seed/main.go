// Command seed creates an admin account, or promotes an existing one.
//
//	go run ./cmd/seed -email admin@shop.local -password changeme
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"shopadmin/internal/config"
	"shopadmin/internal/database"
	"shopadmin/internal/repository"
	"shopadmin/internal/service"
	"shopadmin/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email (required)")
	username := flag.String("username", "admin", "username for a newly created admin")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "password for a newly created admin")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "seed: -email is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewConnection(ctx, cfg.DSN(), database.DefaultOptions())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	created, err := service.EnsureAdmin(ctx, repository.NewUserRepository(db), *username, *email, *password)
	if err != nil {
		log.Fatal("seeding admin failed", zap.String("email", *email), zap.Error(err))
	}
	if created {
		log.Info("admin account created", zap.String("email", *email))
	} else {
		log.Info("admin role ensured on existing account", zap.String("email", *email))
	}
}
