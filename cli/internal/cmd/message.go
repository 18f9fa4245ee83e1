package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/cli/pkg/service"
)

var (
	messageFiles []string
	keepUnread   bool
)

var messageCmd = &cobra.Command{
	Use:     "dm",
	Aliases: []string{"message", "messages"},
	Short:   "Direct messages",
	Long:    "List conversations. Subcommands send, read, search and delete direct messages.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewMessageService().Conversations()
	},
}

var messageSendCmd = &cobra.Command{
	Use:   "send <@username|user-id> [text...]",
	Short: "Send a direct message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewMessageService().Send(args[0], strings.Join(args[1:], " "), messageFiles)
	},
}

var messageReadCmd = &cobra.Command{
	Use:   "read <@username|user-id>",
	Short: "Read a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewMessageService().Thread(args[0], page, !keepUnread)
	},
}

var messageSearchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search your messages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewMessageService().Search(strings.Join(args, " "))
	},
}

var messageDeleteCmd = &cobra.Command{
	Use:     "delete <message-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a message you sent",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewMessageService().Delete(args[0])
	},
}

var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Count unread messages and notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewMessageService().Unread()
	},
}

func init() {
	messageSendCmd.Flags().StringSliceVarP(&messageFiles, "file", "f", nil, "File to attach (repeatable)")
	messageReadCmd.Flags().BoolVar(&keepUnread, "keep-unread", false, "Do not mark received messages read")
	addPageFlag(messageReadCmd)

	messageCmd.AddCommand(messageSendCmd)
	messageCmd.AddCommand(messageReadCmd)
	messageCmd.AddCommand(messageSearchCmd)
	messageCmd.AddCommand(messageDeleteCmd)
	messageCmd.AddCommand(unreadCmd)
}
