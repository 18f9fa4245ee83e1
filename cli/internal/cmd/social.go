package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/cli/pkg/service"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Look people up",
}

var userShowCmd = &cobra.Command{
	Use:   "show [@username|user-id]",
	Short: "Show a profile (yours when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().Profile(optionalArg(args))
	},
}

var userSearchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search users by username or name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().SearchUsers(strings.Join(args, " "), page)
	},
}

var userFollowersCmd = &cobra.Command{
	Use:   "followers [@username|user-id]",
	Short: "List followers (yours when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().Followers(optionalArg(args), false, page)
	},
}

var userFollowingCmd = &cobra.Command{
	Use:   "following [@username|user-id]",
	Short: "List who a user follows (you when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().Followers(optionalArg(args), true, page)
	},
}

var followCmd = &cobra.Command{
	Use:   "follow <@username|user-id>",
	Short: "Follow a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().Follow(args[0], false)
	},
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <@username|user-id>",
	Short: "Unfollow a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSocialService().Follow(args[0], true)
	},
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func init() {
	addPageFlag(userSearchCmd, userFollowersCmd, userFollowingCmd)

	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userSearchCmd)
	userCmd.AddCommand(userFollowersCmd)
	userCmd.AddCommand(userFollowingCmd)
}
