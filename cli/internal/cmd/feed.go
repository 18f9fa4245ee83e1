package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/cli/pkg/service"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Read tweets",
	Long:  "Read your home timeline. Subcommands read a user's tweets, search results or bookmarks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().Timeline(page)
	},
}

var feedUserCmd = &cobra.Command{
	Use:   "user <@username|user-id>",
	Short: "Tweets posted by a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().UserTweets(args[0], page)
	},
}

var feedSearchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search tweets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().Search(strings.Join(args, " "), page)
	},
}

var feedBookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "Tweets you bookmarked",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().Bookmarks(page)
	},
}

func init() {
	feedCmd.PersistentFlags().IntVarP(&page, "page", "p", 1, "Page number")

	feedCmd.AddCommand(feedUserCmd)
	feedCmd.AddCommand(feedSearchCmd)
	feedCmd.AddCommand(feedBookmarksCmd)
}
