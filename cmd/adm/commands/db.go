// Package commands provides CLI commands for the admin tool
package commands

import (
	"bufio"
	"database/sql"
	"fmt"
	"strings"

	"gymdash/internal/database"
	"gymdash/internal/observability"
	contextutils "gymdash/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands. db is nil when the
// server runs on the in-memory store; every subcommand then refuses to run.
// reseed runs after a reset, typically to recreate the configured staff login.
func DatabaseCommands(db *sql.DB, databaseURL string, reseed func(*cobra.Command) error, logger *observability.Logger) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands.

Available commands:
  stats    - Show row counts per table
  reset    - Delete all tenants, users and requests`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if db == nil {
				return contextutils.ErrorWithContextf("database commands need Postgres; database.in_memory is set")
			}
			return nil
		},
	}

	dbCmd.AddCommand(statsCmd(db, databaseURL, logger))
	dbCmd.AddCommand(resetCmd(db, databaseURL, reseed, logger))

	return dbCmd
}

func statsCmd(db *sql.DB, databaseURL string, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger.Info(ctx, "Diagnostic info", map[string]interface{}{"database_url": maskDatabaseURL(databaseURL)})

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, getDatabaseInfo(db))
			for _, table := range database.DataTables {
				var n int
				// table names come from a fixed list
				if err := db.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
					return contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to count %s: %v", table, err)
				}
				fmt.Fprintf(out, "  %-24s %d\n", table, n)
			}
			return nil
		},
	}
}

func resetCmd(db *sql.DB, databaseURL string, reseed func(*cobra.Command) error, logger *observability.Logger) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all data",
		Long: `Delete every tenant, user, feature request, comment, attachment and status event.

The schema is kept. The configured staff login is recreated afterwards.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "This will PERMANENTLY DELETE ALL DATA in %s\n", maskDatabaseURL(databaseURL))
			if !yes && !confirm(cmd) {
				fmt.Fprintln(out, "Reset cancelled.")
				return nil
			}

			if err := database.NewManager(logger).TruncateAll(ctx, db); err != nil {
				return err
			}
			if reseed != nil {
				if err := reseed(cmd); err != nil {
					return contextutils.WrapError(err, "failed to reseed after reset")
				}
			}
			fmt.Fprintln(out, "Database reset complete.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks for an explicit "yes" on the command's input.
func confirm(cmd *cobra.Command) bool {
	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprint(cmd.OutOrStdout(), "Are you sure? (type 'yes' to confirm): ")
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	return strings.TrimSpace(strings.ToLower(response)) == "yes"
}
