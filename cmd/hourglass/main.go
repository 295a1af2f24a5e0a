package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fentz26/hourglass/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hourglass",
	Short: "hourglass - time tracking with weekly goals",
	Long: `hourglass logs the hours you spend per category, tracks them against weekly goals,
and keeps notes and a daily journal. Unsubmitted form input is autosaved as drafts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		if apiAddr == "" {
			apiAddr = cfg.API.Address
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
		slog.SetDefault(logger)
		return nil
	},
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	configPath string
	apiAddr    string

	cfg    *config.Config
	logger *slog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.hourglass/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "API server address (default from config)")

	// Add subcommands
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(backgroundCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
