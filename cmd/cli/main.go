package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/internal/config"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chirp-admin",
	Short: "Chirp admin CLI - maintenance commands run against the database",
	Long: `chirp-admin connects straight to the database configured in the environment
(.env is read if present) and performs operator tasks the API does not expose.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
			return err
		}
		return database.Initialize(cfg.Database, false)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = database.Close()
		_ = logger.Close()
	},
}

func init() {
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(resetOTPCmd)
	rootCmd.AddCommand(recountCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
