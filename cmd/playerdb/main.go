// Command playerdb serves the players CRUD API over a pooled MySQL/TiDB,
// PostgreSQL or SQLite connection.
//
// Configuration comes from an optional YAML file (PLAYERDB_CONFIG or -config)
// and the environment; a .env file in the working directory is loaded first.
//
//	TIDB_HOST=gateway01.us-west-2.prod.aws.tidbcloud.com TIDB_USER=root \
//	TIDB_PASSWORD=secret go run ./cmd/playerdb
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/koustreak/playerdb/internal/config"
	"github.com/koustreak/playerdb/internal/database"
	_ "github.com/koustreak/playerdb/internal/database/mysql"
	_ "github.com/koustreak/playerdb/internal/database/postgres"
	_ "github.com/koustreak/playerdb/internal/database/sqlite"
	"github.com/koustreak/playerdb/internal/filestore/minio"
	"github.com/koustreak/playerdb/internal/logger"
	"github.com/koustreak/playerdb/internal/players"
	"github.com/koustreak/playerdb/internal/schema"
	"github.com/koustreak/playerdb/internal/server"
	"github.com/koustreak/playerdb/internal/snapshot"
)

func main() {
	configPath := flag.String("config", os.Getenv("PLAYERDB_CONFIG"), "path to a YAML config file")
	flag.Parse()

	bootLog := logger.New(nil)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		bootLog.Fatal("failed to load .env: " + err.Error())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal("invalid configuration: " + err.Error())
	}

	log := logger.New(&cfg.Log)
	if err := run(cfg, log); err != nil {
		log.ErrorWith("playerdb stopped", err, nil)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := database.NewProvider(log)
	defer func() {
		if err := provider.Close(); err != nil {
			log.ErrorWith("failed to close pools", err, nil)
		}
	}()

	pool, err := provider.Get(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	svc := database.NewService(pool, log)

	repo, err := players.New(svc)
	if err != nil {
		return err
	}

	inspector, err := schema.New(svc)
	if err != nil {
		return err
	}

	deps := server.Deps{Players: repo, Schema: inspector, Pool: pool}
	if cfg.Storage.Enabled() {
		store, err := minio.New(ctx, &cfg.Storage)
		if err != nil {
			return err
		}
		defer store.Close()

		exporter := snapshot.New(store, cfg.Storage.Bucket, repo, cfg.Snapshot, log)
		if err := exporter.Init(ctx); err != nil {
			return err
		}
		deps.Snapshots = exporter
	}

	srv := server.New(cfg.Server, deps, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorWith("http shutdown incomplete", err, nil)
	}

	// In-flight statements have returned once Shutdown completes; a refused
	// close is reported and the provider makes a final attempt on return.
	if err := svc.Close(); err != nil {
		log.ErrorWith("failed to close database service", err, nil)
	}
	return nil
}
