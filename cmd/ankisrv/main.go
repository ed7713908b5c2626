package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/config"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/retention"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/storage"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/training"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/vocab"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/web"
)

func main() {
	defaults := config.Default()
	flags := pflag.NewFlagSet("ankisrv", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to a YAML config file")
	flags.String("server.addr", defaults.Server.Addr, "listen address, e.g. :8080")
	flags.String("database.path", defaults.Database.Path, "path to the SQLite database file")
	flags.Bool("sync.on_start", defaults.Sync.OnStart, "sync word sources before serving")
	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("failed to parse flags", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Database.Path)

	params := cfg.SchedulerParams()
	syncer := vocab.NewSyncer(db, params, cfg.Sync.ReposDir)
	if cfg.Sync.OnStart {
		if err := syncer.RunSync(context.Background()); err != nil {
			slog.Error("initial sync failed", "error", err)
		}
	}

	server := web.NewServer(
		db,
		training.NewBuilder(cfg.SessionCaps()),
		training.NewOrchestrator(db, params),
		retention.NewEstimator(cfg.Retention.BucketsDays, cfg.Retention.ReferenceStabilityDays),
		syncer,
	)

	slog.Info("starting server", "addr", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, server); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
