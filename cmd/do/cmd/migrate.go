package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/templui/stash/internal/config"
	"github.com/templui/stash/internal/db"
)

func MigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(cfg *config.Config, database *sqlx.DB) error {
				return db.Migrate(cmd.Context(), database.DB, cfg.DBDriver)
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(cfg *config.Config, database *sqlx.DB) error {
				return db.MigrateDown(cmd.Context(), database.DB, cfg.DBDriver)
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, func(cfg *config.Config, database *sqlx.DB) error {
				statuses, err := db.MigrationStatus(cmd.Context(), database.DB, cfg.DBDriver)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tSOURCE")
				for _, s := range statuses {
					applied := "-"
					if !s.AppliedAt.IsZero() {
						applied = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
				}
				return w.Flush()
			})
		},
	})

	return migrateCmd
}

func withDatabase(cmd *cobra.Command, fn func(*config.Config, *sqlx.DB) error) error {
	cfg := config.Load()

	database, err := db.Open(cmd.Context(), cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer db.Close(database)

	return fn(cfg, database)
}
