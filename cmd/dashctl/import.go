package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"platinum/internal/config"
	"platinum/internal/storage"
	"platinum/internal/warehouse/memory"
)

var flagDataDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the goal curve from targets.csv into the SQLite warehouse",
	Long: `Reads targets.csv from the data directory and upserts every row into the
SQLite warehouse at SQLITE_DB_PATH. Rows are keyed by date, so running the
import again replaces earlier values. Deposits are not imported: they reach
the SQLite warehouse through the deposit worker.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagDataDir, "dir", "", "directory holding targets.csv (default DATA_DIRECTORY)")
	importCmd.Flags().StringVar(&flagDBPath, "db", "", "database path (default SQLITE_DB_PATH)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	dir, dbPath := flagDataDir, flagDBPath
	if dir == "" {
		dir = cfg.DataDirectory
	}
	if dbPath == "" {
		dbPath = cfg.SQLiteDBPath
	}

	src, err := memory.NewFromFiles(dir)
	if err != nil {
		return err
	}
	rows, err := src.ReadTargets(cmd.Context())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s/%s has no rows", dir, memory.TargetsFile)
	}

	repo, err := storage.NewSQLiteRepository(dbPath, commandLogger(cfg))
	if err != nil {
		return err
	}
	defer repo.Close()

	imported, skipped, err := repo.ImportTargets(cmd.Context(), rows)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), valueStyle.Render(fmt.Sprintf("%d targets imported into %s", imported, dbPath)))
	if skipped > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render(fmt.Sprintf("%d rows skipped for an unparseable date", skipped)))
	}
	return nil
}
