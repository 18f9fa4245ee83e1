package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/cli/pkg/service"
)

var unreadOnly bool

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notifs", "n"},
	Short:   "Show notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewNotificationService().List(unreadOnly)
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark a notification read, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewNotificationService().MarkRead(optionalArg(args))
	},
}

var notificationsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream notifications and messages live",
	Long:  "Open a realtime connection and print notifications and direct messages as they arrive. Ctrl-C stops.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewNotificationService().Watch()
	},
}

func init() {
	notificationsCmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only unread notifications")

	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsWatchCmd)
}
