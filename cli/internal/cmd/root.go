package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/cli/pkg/client"
	"github.com/zfogg/chirp/cli/pkg/config"
	clierrors "github.com/zfogg/chirp/cli/pkg/errors"
	"github.com/zfogg/chirp/cli/pkg/logger"
	"github.com/zfogg/chirp/cli/pkg/output"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
	page       int
)

var rootCmd = &cobra.Command{
	Use:   "chirp",
	Short: "Chirp CLI - post, read and chat from the terminal",
	Long: `Chirp CLI is a command-line client for the Chirp API. Post tweets,
read your timeline, follow people, send direct messages and watch
notifications arrive live, all from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		logger.Init(verbose)

		if !output.ValidateOutputFormat(outputFmt) {
			return fmt.Errorf("unknown output format %q (text, json, table)", outputFmt)
		}
		if cmd.Flags().Changed("output") {
			config.Set("output.format", outputFmt)
		}

		client.Init()
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, clierrors.FormatError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/chirp/cli/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text, json, table")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(tweetCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(followCmd)
	rootCmd.AddCommand(unfollowCmd)
	rootCmd.AddCommand(messageCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(communityCmd)
	rootCmd.AddCommand(assistantCmd)
	rootCmd.AddCommand(versionCmd)
}

// addPageFlag gives a list command the shared --page flag
func addPageFlag(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	}
}
