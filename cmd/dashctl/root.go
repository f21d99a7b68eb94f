package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"platinum/internal/cli"
	"platinum/internal/config"
	applog "platinum/internal/log"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "dashctl",
	Short: "Operate the Platinum deposits dashboard",
	Long: `dashctl runs one-off tasks against the dashboard warehouse:
print the current KPIs, hash login passwords and manage the SQLite schema.

Configuration is read from the environment and from .env, the same way
the dashboard server reads it.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
	},
}

// Execute runs the root command and exits 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log at debug level to stderr")
}

// commandLogger writes to stderr so command output stays pipeable.
func commandLogger(cfg *config.Config) *applog.Logger {
	level := applog.ParseLevel("warn")
	if flagVerbose {
		level = applog.ParseLevel("debug")
	}
	return applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: "dashctl",
		Output:    os.Stderr,
	})
}
