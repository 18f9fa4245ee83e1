package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/cli/pkg/client"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(client.UserAgent)
	},
}
