package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/kosarica/price-aggregator/config"
	"github.com/kosarica/price-aggregator/internal/app"
	"github.com/kosarica/price-aggregator/internal/database"
	"github.com/kosarica/price-aggregator/internal/sweepers"
)

var purgeOlderThan time.Duration

// dbCmd groups the analytics database commands
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the analytics database",
}

var dbPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the Postgres analytics database is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSQL()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		fmt.Println("Connection successful")
		return nil
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the analytics tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSQL()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(cmd.Context(), database.SQLExec(db)); err != nil {
			return err
		}
		logger.Info().Int("migrations", len(database.Migrations)).Msg("Schema up to date")
		return nil
	},
}

var dbPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete search history and comparisons older than the retention period",
	Example: `  price-aggregator db purge
  price-aggregator db purge --older-than 720h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage.Backend == config.BackendMemory || cfg.Storage.Backend == config.BackendNone {
			return fmt.Errorf("storage.backend %q keeps nothing to purge", cfg.Storage.Backend)
		}
		store, err := app.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close(context.Background())

		retention := cfg.Storage.Retention
		if purgeOlderThan > 0 {
			retention = purgeOlderThan
		}
		n, err := sweepers.NewRetentionSweeper(store, logger, time.Hour, retention).Sweep(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d records older than %s\n", n, retention)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbPingCmd, dbMigrateCmd, dbPurgeCmd)

	dbPurgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 0, "Override storage.retention")
}

func openSQL() (*sql.DB, error) {
	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(2)
	return db, nil
}
