package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
)

var rootCmd = &cobra.Command{
	Use:   "parcoursup-cli",
	Short: "parcoursup-cli collects the formation statistics published on Parcoursup.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initSlog(*verbose)
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "parcoursup.json5", "The configuration file, <name>.local.json5 overrides it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every request.")
}

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
