// Package cli implements the carsctl command tree.
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"cars/internal/app"
	"cars/internal/config"
	"cars/internal/migrations"
)

// NewRootCommand builds the carsctl command tree around cfg.
// The --driver and --sqlite-path flags override the loaded configuration.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "carsctl",
		Short:         "Administrative tooling for the cars store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.Store.Driver, "driver", cfg.Store.Driver, "store driver (postgres, sqlite)")
	root.PersistentFlags().StringVar(&cfg.Store.SQLitePath, "sqlite-path", cfg.Store.SQLitePath, "SQLite database file")

	root.AddCommand(newMigrateCommand(cfg))
	return root
}

func newMigrateCommand(cfg *config.Config) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDatabase(cfg, func(cmd *cobra.Command, db *sql.DB, dialect migrations.Dialect) error {
				if err := migrations.Up(cmd.Context(), db, dialect); err != nil {
					return err
				}
				return printVersion(cmd, db, dialect)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withDatabase(cfg, func(cmd *cobra.Command, db *sql.DB, dialect migrations.Dialect) error {
				if err := migrations.Down(cmd.Context(), db, dialect); err != nil {
					return err
				}
				return printVersion(cmd, db, dialect)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			Args:  cobra.NoArgs,
			RunE: withDatabase(cfg, func(cmd *cobra.Command, db *sql.DB, dialect migrations.Dialect) error {
				statuses, err := migrations.Status(cmd.Context(), db, dialect)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Fprintf(out, "%05d  %-8s %s\n", s.Version, state, s.Name)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withDatabase(cfg, func(cmd *cobra.Command, db *sql.DB, dialect migrations.Dialect) error {
				return printVersion(cmd, db, dialect)
			}),
		},
	)

	return migrate
}

type databaseFunc func(cmd *cobra.Command, db *sql.DB, dialect migrations.Dialect) error

// withDatabase opens the configured database around fn.
func withDatabase(cfg *config.Config, fn databaseFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
			cmd.SetContext(ctx)
		}

		db, dialect, err := app.OpenDatabase(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer db.Close()

		return fn(cmd, db, dialect)
	}
}

func printVersion(cmd *cobra.Command, db *sql.DB, dialect migrations.Dialect) error {
	version, err := migrations.Version(cmd.Context(), db, dialect)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}
