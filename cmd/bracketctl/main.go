package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/AdamBeresnev/bracketd/internal/config"
	"github.com/AdamBeresnev/bracketd/internal/db"
	"github.com/AdamBeresnev/bracketd/internal/service"
	"github.com/AdamBeresnev/bracketd/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "bracketctl",
	Short:         "Administers single-elimination brackets",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var dsnFlag *string

func init() {
	dsnFlag = rootCmd.PersistentFlags().StringP(
		"dsn", "d", "",
		"database DSN, overrides DATABASE_DSN")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(eliminatedCmd)
}

// env bundles what every subcommand needs. Migrations are applied on open.
type env struct {
	log      *slog.Logger
	db       *sqlx.DB
	brackets *service.BracketService
	roster   *service.RosterService
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if *dsnFlag != "" {
		cfg.DatabaseDSN = *dsnFlag
	}
	log := cfg.Logger()

	database, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(database.DB); err != nil {
		database.Close()
		return nil, err
	}

	matchStore := store.NewMatchStore(database)
	participantStore := store.NewParticipantStore(database, cfg.LookupChunkSize)
	opts := service.Options{AutoAdvanceByes: cfg.AutoAdvanceByes, Logger: log}
	return &env{
		log:      log,
		db:       database,
		brackets: service.NewBracketService(database, matchStore, participantStore, opts),
		roster:   service.NewRosterService(database, participantStore, opts),
	}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("bracketctl failed", "error", err)
		cancel()
		os.Exit(1)
	}
}
