package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/zfogg/chirp/cli/pkg/api"
	"github.com/zfogg/chirp/cli/pkg/formatter"
	"github.com/zfogg/chirp/cli/pkg/output"
)

var (
	dim    = formatter.Dim
	handle = formatter.Handle
	accent = formatter.Accent
)

// show prints data as JSON when --output json is set, otherwise runs human
func show(title string, data interface{}, human func()) error {
	if output.GetOutputFormat() == output.FormatJSON {
		return output.Print(title, data)
	}
	human()
	return nil
}

// Ago renders a timestamp relative to now
func Ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

func printTweet(t *api.Tweet) {
	name := ""
	if t.Author != nil {
		name = t.Author.FullName
	}
	fmt.Printf("%s %s %s\n", formatter.Bold.Sprint(name), handle.Sprint(t.Author.Handle()), dim.Sprintf("· %s", Ago(t.CreatedAt)))
	if t.Pinned {
		accent.Println("  pinned")
	}
	if t.IsReply && t.ReplyTo != "" {
		dim.Printf("  replying to %s\n", t.ReplyTo)
	}
	for _, line := range strings.Split(t.Content, "\n") {
		fmt.Printf("  %s\n", line)
	}
	for _, m := range t.Media {
		dim.Printf("  [%s] %s\n", m.Type, m.URL)
	}
	if t.QuoteOf != nil {
		dim.Printf("  ┃ %s: %s\n", t.QuoteOf.Author.Handle(), t.QuoteOf.Content)
	}

	marks := []string{}
	if t.IsLiked {
		marks = append(marks, "liked")
	}
	if t.IsRetweeted {
		marks = append(marks, "retweeted")
	}
	if t.IsBookmarked {
		marks = append(marks, "bookmarked")
	}
	stats := fmt.Sprintf("  %d replies  %d retweets  %d likes", t.RepliesCount, t.RetweetCount, t.LikesCount)
	if len(marks) > 0 {
		stats += "  (" + strings.Join(marks, ", ") + ")"
	}
	dim.Println(stats)
	dim.Printf("  id %s\n\n", t.ID)
}

func printFeed(feed *api.Feed) {
	if len(feed.Tweets) == 0 {
		output.PrintInfo("Nothing here yet.")
		return
	}
	for i := range feed.Tweets {
		printTweet(&feed.Tweets[i])
	}
	p := feed.Pagination
	dim.Printf("page %d of %d · %d tweets", p.CurrentPage, p.TotalPages, p.TotalTweets)
	if p.HasNextPage {
		dim.Printf(" · next: --page %d", p.CurrentPage+1)
	}
	fmt.Println()
}

func userRows(users []api.User) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.Handle(), u.FullName, fmt.Sprint(u.FollowersCount), u.ID})
	}
	return rows
}

func printUsers(list *api.UserList) {
	if len(list.Users) == 0 {
		output.PrintInfo("No users found.")
		return
	}
	printTable([]string{"Handle", "Name", "Followers", "ID"}, userRows(list.Users))
	if list.Pagination.HasNextPage {
		dim.Printf("more: --page %d\n", list.Pagination.CurrentPage+1)
	}
}

func printProfile(u *api.User) {
	record := map[string]interface{}{
		"Username":  u.Handle(),
		"Name":      u.FullName,
		"Bio":       u.Bio,
		"Location":  u.Location,
		"Website":   u.Website,
		"Followers": u.FollowersCount,
		"Following": u.FollowingCount,
		"Tweets":    u.TweetsCount,
		"Joined":    u.CreatedAt.Format("January 2006"),
		"ID":        u.ID,
	}
	if u.Email != "" {
		record["Email"] = u.Email
		record["2FA"] = u.TwoFactorEnabled
	}
	if u.IsAdmin() {
		record["Admin"] = "yes"
	}
	_ = output.PrintRecord("", record)
}

func printTable(headers []string, rows [][]string) {
	_ = output.PrintTable(headers, rows)
}
