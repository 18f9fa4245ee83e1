package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/cli/pkg/service"
)

var (
	assistantThread   string
	assistantContinue bool
)

var assistantCmd = &cobra.Command{
	Use:     "assistant",
	Aliases: []string{"ai"},
	Short:   "Chat with the Chirp assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAssistantService().Threads()
	},
}

var assistantAskCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the assistant something",
	Long: `Ask a question. Without --thread a new thread is opened.
With --continue the thread's earlier messages are sent as context.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAssistantService().Ask(assistantThread, strings.Join(args, " "), assistantContinue)
	},
}

var assistantNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Open an empty thread",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAssistantService().NewThread()
	},
}

var assistantHistoryCmd = &cobra.Command{
	Use:   "history <thread-id>",
	Short: "Print a thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAssistantService().History(args[0])
	},
}

var assistantClearCmd = &cobra.Command{
	Use:   "clear <thread-id>",
	Short: "Delete a thread's messages but keep the thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAssistantService().Clear(args[0])
	},
}

var assistantDeleteCmd = &cobra.Command{
	Use:   "delete <thread-id>",
	Short: "Delete a thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAssistantService().Delete(args[0])
	},
}

func init() {
	assistantAskCmd.Flags().StringVarP(&assistantThread, "thread", "t", "", "Thread to post into")
	assistantAskCmd.Flags().BoolVarP(&assistantContinue, "continue", "c", false, "Send the thread's history as context")

	assistantCmd.AddCommand(assistantAskCmd)
	assistantCmd.AddCommand(assistantNewCmd)
	assistantCmd.AddCommand(assistantHistoryCmd)
	assistantCmd.AddCommand(assistantClearCmd)
	assistantCmd.AddCommand(assistantDeleteCmd)
}
