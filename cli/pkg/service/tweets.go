package service

import (
	"os"
	"unicode/utf8"

	"github.com/zfogg/chirp/cli/pkg/api"
	"github.com/zfogg/chirp/cli/pkg/config"
	clierrors "github.com/zfogg/chirp/cli/pkg/errors"
	"github.com/zfogg/chirp/cli/pkg/formatter"
)

// MaxTweetLength mirrors the server's limit so long tweets fail before upload
const MaxTweetLength = 280

type TweetService struct{}

func NewTweetService() *TweetService {
	return &TweetService{}
}

func pageOpts(page int) api.ListOptions {
	return api.ListOptions{Page: page, Limit: config.GetInt("feed.page_size")}
}

// Post publishes a tweet, reply or quote
func (s *TweetService) Post(in api.TweetInput) error {
	if n := utf8.RuneCountInString(in.Content); n > MaxTweetLength {
		return clierrors.ContentTooLongError("Tweet", n, MaxTweetLength)
	}
	if in.Content == "" && len(in.Files) == 0 {
		return clierrors.ValidationError("content", "a tweet needs text or at least one file")
	}
	if err := checkFiles(in.Files); err != nil {
		return err
	}
	if _, err := RequireSession(); err != nil {
		return err
	}
	tweet, err := api.CreateTweet(in)
	if err != nil {
		return err
	}
	return show("tweet", tweet, func() {
		formatter.PrintSuccess("Posted.")
		printTweet(tweet)
	})
}

// Edit changes the text or visibility of a tweet
func (s *TweetService) Edit(tweetID, content, visibility string) error {
	if n := utf8.RuneCountInString(content); n > MaxTweetLength {
		return clierrors.ContentTooLongError("Tweet", n, MaxTweetLength)
	}
	if _, err := RequireSession(); err != nil {
		return err
	}
	tweet, err := api.UpdateTweet(tweetID, content, visibility)
	if err != nil {
		return err
	}
	return show("tweet", tweet, func() { printTweet(tweet) })
}

// Show prints one tweet and the first page of its replies
func (s *TweetService) Show(tweetID string, withReplies bool) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	tweet, err := api.GetTweet(tweetID)
	if err != nil {
		return err
	}
	if !withReplies {
		return show("tweet", tweet, func() { printTweet(tweet) })
	}
	replies, err := api.GetReplies(tweetID, pageOpts(1))
	if err != nil {
		return err
	}
	data := map[string]interface{}{"tweet": tweet, "replies": replies}
	return show("", data, func() {
		printTweet(tweet)
		if len(replies.Tweets) > 0 {
			dim.Println("── replies ──")
			printFeed(replies)
		}
	})
}

// Delete removes a tweet
func (s *TweetService) Delete(tweetID string) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	if err := api.DeleteTweet(tweetID); err != nil {
		return err
	}
	formatter.PrintSuccess("Tweet deleted.")
	return nil
}

// Pin toggles the pinned tweet on the caller's profile
func (s *TweetService) Pin(tweetID string) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	pinned, err := api.TogglePin(tweetID)
	if err != nil {
		return err
	}
	if pinned {
		formatter.PrintSuccess("Pinned to your profile.")
	} else {
		formatter.PrintSuccess("Unpinned.")
	}
	return nil
}

// Timeline prints the home timeline
func (s *TweetService) Timeline(page int) error {
	return s.feed(func() (*api.Feed, error) { return api.GetTimeline(pageOpts(page)) })
}

// UserTweets prints a user's tweets; ref is an id or @username
func (s *TweetService) UserTweets(ref string, page int) error {
	return s.feed(func() (*api.Feed, error) {
		user, err := api.ResolveUser(ref)
		if err != nil {
			return nil, err
		}
		return api.GetUserTweets(user.ID, pageOpts(page))
	})
}

// Search prints tweets matching q
func (s *TweetService) Search(q string, page int) error {
	return s.feed(func() (*api.Feed, error) { return api.SearchTweets(q, pageOpts(page)) })
}

// Bookmarks prints the caller's bookmarks
func (s *TweetService) Bookmarks(page int) error {
	return s.feed(func() (*api.Feed, error) { return api.GetBookmarks(pageOpts(page)) })
}

func (s *TweetService) feed(load func() (*api.Feed, error)) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	feed, err := load()
	if err != nil {
		return err
	}
	return show("feed", feed, func() { printFeed(feed) })
}

// Like likes or unlikes a tweet
func (s *TweetService) Like(tweetID string, undo bool) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	var state *api.LikeState
	var err error
	if undo {
		state, err = api.UnlikeTweet(tweetID)
	} else {
		state, err = api.LikeTweet(tweetID)
	}
	if err != nil {
		return err
	}
	verb := "Liked"
	if undo {
		verb = "Unliked"
	}
	formatter.PrintSuccess("%s (%d likes).", verb, state.LikesCount)
	return nil
}

// Retweet shares or unshares a tweet
func (s *TweetService) Retweet(tweetID, comment string, undo bool) error {
	if n := utf8.RuneCountInString(comment); n > MaxTweetLength {
		return clierrors.ContentTooLongError("Comment", n, MaxTweetLength)
	}
	if _, err := RequireSession(); err != nil {
		return err
	}
	if undo {
		if err := api.Unretweet(tweetID); err != nil {
			return err
		}
		formatter.PrintSuccess("Retweet removed.")
		return nil
	}
	if _, err := api.Retweet(tweetID, comment); err != nil {
		return err
	}
	formatter.PrintSuccess("Retweeted.")
	return nil
}

// Bookmark saves or unsaves a tweet
func (s *TweetService) Bookmark(tweetID string, undo bool) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	if undo {
		if err := api.UnbookmarkTweet(tweetID); err != nil {
			return err
		}
		formatter.PrintSuccess("Bookmark removed.")
		return nil
	}
	if err := api.BookmarkTweet(tweetID); err != nil {
		return err
	}
	formatter.PrintSuccess("Bookmarked.")
	return nil
}

// Likers prints who liked a tweet
func (s *TweetService) Likers(tweetID string, page int) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	list, err := api.GetLikers(tweetID, pageOpts(page))
	if err != nil {
		return err
	}
	return show("users", list, func() { printUsers(list) })
}

// checkFiles fails before any request when an attachment path is missing
func checkFiles(paths []string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return clierrors.FileNotFoundError(p)
		}
	}
	return nil
}
