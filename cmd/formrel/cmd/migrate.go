package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/formrel/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the definition store schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
}

// openDB opens the configured database.
func openDB(ctx context.Context, rt *runtime) (*sqlx.DB, error) {
	database, err := db.Open(ctx, rt.cfg.DB.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// openStore opens the database and loads its named queries. Fails when
// migrations are pending.
func openStore(ctx context.Context, rt *runtime) (*sqlx.DB, *db.Queries, error) {
	database, err := openDB(ctx, rt)
	if err != nil {
		return nil, nil, err
	}

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			database.Close()
			return nil, nil, fmt.Errorf("migration %s not applied - run 'formrel migrate up' first", s.ID)
		}
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, queries, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	ctx := cmd.Context()
	database, err := openDB(ctx, rt)
	if err != nil {
		return err
	}
	defer database.Close()

	ran, err := db.MigrateUp(ctx, database)
	for _, id := range ran {
		rt.logger.Info("migration applied", zap.String("migration_id", id))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", len(ran))
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	ctx := cmd.Context()
	database, err := openDB(ctx, rt)
	if err != nil {
		return err
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MIGRATION\tSTATE\tAPPLIED AT\tMS")
	for _, s := range statuses {
		if !s.Applied {
			fmt.Fprintf(tw, "%s\tpending\t-\t-\n", s.ID)
			continue
		}
		fmt.Fprintf(tw, "%s\tapplied\t%s\t%d\n", s.ID, s.AppliedAt, s.ExecutionMs)
	}
	return tw.Flush()
}
