package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"platinum/internal/config"
	"platinum/internal/storage"
)

var (
	flagDBPath      string
	flagVersionOnly bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQLite warehouse migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&flagDBPath, "db", "", "database path (default SQLITE_DB_PATH)")
	migrateCmd.Flags().BoolVar(&flagVersionOnly, "version", false, "print the schema version without migrating")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	dbPath := flagDBPath
	if dbPath == "" {
		dbPath = config.Load().SQLiteDBPath
	}
	if dbPath == "" {
		return fmt.Errorf("no database path: set SQLITE_DB_PATH or pass --db")
	}

	if !flagVersionOnly {
		if err := storage.RunMigrations(dbPath); err != nil {
			return err
		}
	}
	version, dirty, err := storage.MigrationVersion(dbPath)
	if err != nil {
		return err
	}

	line := fmt.Sprintf("%s: schema version %d", dbPath, version)
	if dirty {
		fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render(line+" (dirty)"))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), valueStyle.Render(line))
	return nil
}
