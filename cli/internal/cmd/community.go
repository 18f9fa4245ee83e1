package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/cli/pkg/api"
	"github.com/zfogg/chirp/cli/pkg/service"
)

var (
	communityName        string
	communityDescription string
	communityPrivate     bool
	communitySearch      string
	forceDelete          bool
)

var communityCmd = &cobra.Command{
	Use:     "community",
	Aliases: []string{"c"},
	Short:   "Communities",
	Long:    "Browse, create and manage communities. Communities are addressed by id or slug.",
}

var communityListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Browse communities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().List(communitySearch, page)
	},
}

var communityMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Communities you belong to",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().Mine()
	},
}

var communityCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a community",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().Create(args[0], communityDescription, communityPrivate)
	},
}

var communityUpdateCmd = &cobra.Command{
	Use:   "update <community>",
	Short: "Edit a community you administer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in api.CommunityInput
		if cmd.Flags().Changed("name") {
			in.Name = &communityName
		}
		if cmd.Flags().Changed("description") {
			in.Description = &communityDescription
		}
		if cmd.Flags().Changed("private") {
			in.IsPrivate = &communityPrivate
		}
		return service.NewCommunityService().Update(args[0], in)
	},
}

var communityDeleteCmd = &cobra.Command{
	Use:   "delete <community>",
	Short: "Delete a community you created",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().Delete(args[0], forceDelete)
	},
}

var communityShowCmd = &cobra.Command{
	Use:   "show <community>",
	Short: "Show a community",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().Show(args[0])
	},
}

var communityPostsCmd = &cobra.Command{
	Use:   "posts <community>",
	Short: "Tweets posted in a community",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().Posts(args[0], page)
	},
}

var communityFeedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Posts from all your communities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().Feed(page)
	},
}

var communityJoinCmd = &cobra.Command{
	Use:   "join <community>",
	Short: "Join a community",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().Join(args[0])
	},
}

var communityLeaveCmd = &cobra.Command{
	Use:   "leave <community>",
	Short: "Leave a community",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().Leave(args[0])
	},
}

var communityMembersCmd = &cobra.Command{
	Use:   "members <community>",
	Short: "List members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().Members(args[0], page)
	},
}

var communityRoleCmd = &cobra.Command{
	Use:   "role <community> <member-id> <admin|moderator|member>",
	Short: "Change a member's role",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().SetRole(args[0], args[1], args[2])
	},
}

var communityRemoveCmd = &cobra.Command{
	Use:   "remove <community> <member-id>",
	Short: "Remove a member",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommunityService().Remove(args[0], args[1])
	},
}

func init() {
	communityListCmd.Flags().StringVarP(&communitySearch, "search", "s", "", "Filter by name")
	communityCreateCmd.Flags().StringVarP(&communityDescription, "description", "d", "", "What the community is about")
	communityCreateCmd.Flags().BoolVar(&communityPrivate, "private", false, "Hide posts from non-members")
	communityUpdateCmd.Flags().StringVar(&communityName, "name", "", "New name")
	communityUpdateCmd.Flags().StringVarP(&communityDescription, "description", "d", "", "New description")
	communityUpdateCmd.Flags().BoolVar(&communityPrivate, "private", false, "Make the community private (--private=false to open it)")
	communityDeleteCmd.Flags().BoolVar(&forceDelete, "force", false, "Skip confirmation")
	addPageFlag(communityListCmd, communityPostsCmd, communityFeedCmd, communityMembersCmd)

	communityCmd.AddCommand(communityListCmd)
	communityCmd.AddCommand(communityMineCmd)
	communityCmd.AddCommand(communityCreateCmd)
	communityCmd.AddCommand(communityUpdateCmd)
	communityCmd.AddCommand(communityDeleteCmd)
	communityCmd.AddCommand(communityShowCmd)
	communityCmd.AddCommand(communityPostsCmd)
	communityCmd.AddCommand(communityFeedCmd)
	communityCmd.AddCommand(communityJoinCmd)
	communityCmd.AddCommand(communityLeaveCmd)
	communityCmd.AddCommand(communityMembersCmd)
	communityCmd.AddCommand(communityRoleCmd)
	communityCmd.AddCommand(communityRemoveCmd)
}
