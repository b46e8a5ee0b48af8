package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/Dan9191/finix/internal/config"
	"github.com/Dan9191/finix/internal/repository"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Store != config.StorePostgres {
		logger.Infof("Store %q needs no migration", cfg.Store)
		os.Exit(0)
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := repository.Migrate(ctx, db); err != nil {
		logger.Fatalf("Migration failed: %v", err)
	}
	logger.Info("Schema is up to date")
}
