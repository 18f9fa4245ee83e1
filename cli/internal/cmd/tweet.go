package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/cli/pkg/api"
	"github.com/zfogg/chirp/cli/pkg/prompter"
	"github.com/zfogg/chirp/cli/pkg/service"
)

var (
	tweetFiles      []string
	tweetVisibility string
	tweetReplyTo    string
	tweetQuoteOf    string
	tweetReplies    bool
	undoAction      bool
	retweetComment  string
)

var tweetCmd = &cobra.Command{
	Use:     "tweet",
	Aliases: []string{"t"},
	Short:   "Post and manage tweets",
}

var tweetPostCmd = &cobra.Command{
	Use:   "post [text...]",
	Short: "Post a tweet, reply or quote",
	Long: `Post a tweet. Attach up to four images or videos with --file.
Use --reply-to to answer a tweet or --quote to quote one.
With no text and no files the tweet is read from stdin.`,
	Example: `  chirp tweet post "hello, world"
  chirp tweet post --file cat.png "look at this"
  chirp tweet post --reply-to 3f2a... "agreed"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		content := strings.Join(args, " ")
		if content == "" && len(tweetFiles) == 0 {
			var err error
			if content, err = prompter.PromptMultiline("What's happening?"); err != nil {
				return err
			}
		}
		return service.NewTweetService().Post(api.TweetInput{
			Content:    content,
			Visibility: tweetVisibility,
			ReplyTo:    tweetReplyTo,
			QuoteOf:    tweetQuoteOf,
			Files:      tweetFiles,
		})
	},
}

var tweetShowCmd = &cobra.Command{
	Use:   "show <tweet-id>",
	Short: "Show a tweet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().Show(args[0], tweetReplies)
	},
}

var tweetEditCmd = &cobra.Command{
	Use:   "edit <tweet-id> [text...]",
	Short: "Edit a tweet's text or visibility",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().Edit(args[0], strings.Join(args[1:], " "), tweetVisibility)
	},
}

var tweetDeleteCmd = &cobra.Command{
	Use:     "delete <tweet-id>",
	Aliases: []string{"rm"},
	Short:   "Delete one of your tweets",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().Delete(args[0])
	},
}

var tweetPinCmd = &cobra.Command{
	Use:   "pin <tweet-id>",
	Short: "Pin or unpin a tweet on your profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().Pin(args[0])
	},
}

var tweetLikeCmd = &cobra.Command{
	Use:   "like <tweet-id>",
	Short: "Like a tweet (--undo to unlike)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().Like(args[0], undoAction)
	},
}

var tweetRetweetCmd = &cobra.Command{
	Use:     "retweet <tweet-id>",
	Aliases: []string{"rt"},
	Short:   "Retweet a tweet (--undo to remove)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().Retweet(args[0], retweetComment, undoAction)
	},
}

var tweetBookmarkCmd = &cobra.Command{
	Use:   "bookmark <tweet-id>",
	Short: "Bookmark a tweet (--undo to remove)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().Bookmark(args[0], undoAction)
	},
}

var tweetLikersCmd = &cobra.Command{
	Use:   "likers <tweet-id>",
	Short: "List who liked a tweet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewTweetService().Likers(args[0], page)
	},
}

func init() {
	tweetPostCmd.Flags().StringSliceVarP(&tweetFiles, "file", "f", nil, "Image or video to attach (repeatable)")
	tweetPostCmd.Flags().StringVar(&tweetVisibility, "visibility", "", "public, private or protected")
	tweetPostCmd.Flags().StringVar(&tweetReplyTo, "reply-to", "", "Tweet ID to reply to")
	tweetPostCmd.Flags().StringVar(&tweetQuoteOf, "quote", "", "Tweet ID to quote")
	tweetEditCmd.Flags().StringVar(&tweetVisibility, "visibility", "", "public, private or protected")
	tweetShowCmd.Flags().BoolVarP(&tweetReplies, "replies", "r", false, "Include replies")
	tweetRetweetCmd.Flags().StringVarP(&retweetComment, "comment", "c", "", "Comment to add")

	for _, c := range []*cobra.Command{tweetLikeCmd, tweetRetweetCmd, tweetBookmarkCmd} {
		c.Flags().BoolVarP(&undoAction, "undo", "u", false, "Reverse the action")
	}
	addPageFlag(tweetLikersCmd)

	tweetCmd.AddCommand(tweetPostCmd)
	tweetCmd.AddCommand(tweetShowCmd)
	tweetCmd.AddCommand(tweetEditCmd)
	tweetCmd.AddCommand(tweetDeleteCmd)
	tweetCmd.AddCommand(tweetPinCmd)
	tweetCmd.AddCommand(tweetLikeCmd)
	tweetCmd.AddCommand(tweetRetweetCmd)
	tweetCmd.AddCommand(tweetBookmarkCmd)
	tweetCmd.AddCommand(tweetLikersCmd)
}
