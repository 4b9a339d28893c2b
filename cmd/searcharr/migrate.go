package main

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/memohai/searcharr/db"
	"github.com/memohai/searcharr/internal/config"
	idb "github.com/memohai/searcharr/internal/db"
	"github.com/memohai/searcharr/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <up|down|version|force N>",
	Short: "Manage the session database schema",
	Long: `Apply, roll back or inspect the session database migrations.

Examples:
  searcharr migrate up
  searcharr migrate force 1`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"up", "down", "version", "force"},
	RunE:      runMigrate,
}

func runMigrate(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(config.ResolvePath(configFlag))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	closeLog, err := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	migrations, err := migrationsFS()
	if err != nil {
		return err
	}
	return idb.RunMigrate(logger.L, cfg.Bot.DBPath, migrations, args[0], args[1:])
}

func migrationsFS() (fs.FS, error) {
	sub, err := fs.Sub(db.MigrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}
	return sub, nil
}
