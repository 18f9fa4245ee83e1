package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/search"
)

var promoteCmd = &cobra.Command{
	Use:   "promote <email-or-username>",
	Short: "Grant (or with --revoke, remove) the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		revoke, _ := cmd.Flags().GetBool("revoke")
		user, changed, err := setAdmin(database.DB, args[0], !revoke)
		if err != nil {
			return err
		}
		switch {
		case !changed && revoke:
			fmt.Printf("⚠️  %s is not an admin\n", user.Username)
		case !changed:
			fmt.Printf("⚠️  %s is already an admin\n", user.Username)
		case revoke:
			fmt.Printf("✓ Admin role revoked for %s (%s)\n", user.Username, user.Email)
		default:
			fmt.Printf("✓ Admin role granted to %s (%s)\n", user.Username, user.Email)
			fmt.Println("  The user must log in again for the change to reach their token")
		}
		return nil
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock-user <email-or-username>",
	Short: "Clear a login lockout after too many failed attempts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := unlockUser(database.DB, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s can log in again\n", user.Username)
		return nil
	},
}

var resetOTPCmd = &cobra.Command{
	Use:   "reset-otp <email>",
	Short: "Lift the verification-code request block on an unverified account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := resetOTP(database.DB, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s may request new verification codes\n", user.Email)
		return nil
	},
}

var recountCmd = &cobra.Command{
	Use:   "recount",
	Short: "Rebuild follower, tweet, like, reply, retweet and member counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		if err := database.RecountCounters(database.DB); err != nil {
			return err
		}
		fmt.Printf("✓ Counters rebuilt in %s\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Recreate outdated Elasticsearch indices and backfill them from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Search.ElasticsearchURL == "" {
			return fmt.Errorf("ELASTICSEARCH_URL is not set")
		}
		ctx := context.Background()
		client, err := search.NewClient(ctx, cfg.Search.ElasticsearchURL)
		if err != nil {
			return err
		}
		if _, err := client.EnsureIndices(ctx); err != nil {
			return err
		}
		stats, err := search.Backfill(ctx, database.DB, client)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Indexed %d tweets and %d users (%d failures)\n", stats.Tweets, stats.Users, stats.Failures)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show user, tweet, community and message totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := collectStats(cmd.Context(), database.DB)
		if err != nil {
			return err
		}
		fmt.Printf("Users:       %d\n", stats.Users)
		fmt.Printf("Tweets:      %d\n", stats.Tweets)
		fmt.Printf("Communities: %d\n", stats.Communities)
		fmt.Printf("Messages:    %d\n", stats.Messages)
		return nil
	},
}

func init() {
	promoteCmd.Flags().Bool("revoke", false, "remove the admin role instead of granting it")
}
