package api

import (
	"fmt"

	"github.com/zfogg/chirp/cli/pkg/client"
	"github.com/zfogg/chirp/cli/pkg/logger"
)

// TweetInput is what a new tweet, reply or quote carries
type TweetInput struct {
	Content    string
	Visibility string
	ReplyTo    string
	QuoteOf    string
	Files      []string
}

func (in TweetInput) form() map[string]string {
	form := map[string]string{"content": in.Content}
	if in.Visibility != "" {
		form["visibility"] = in.Visibility
	}
	if in.ReplyTo != "" {
		form["replyTo"] = in.ReplyTo
	}
	if in.QuoteOf != "" {
		form["quoteOf"] = in.QuoteOf
	}
	return form
}

// CreateTweet posts a tweet. Local files are uploaded as a multipart form.
func CreateTweet(in TweetInput) (*Tweet, error) {
	logger.Debug("Creating tweet", "files", len(in.Files), "reply", in.ReplyTo != "")

	req := client.GetClient().R().SetMultipartFormData(in.form())
	for _, path := range in.Files {
		req.SetFile("files", path)
	}
	resp, err := req.Post("/api/v1/tweets")

	var tweet Tweet
	if _, err := decodeData(resp, err, &tweet); err != nil {
		return nil, err
	}
	return &tweet, nil
}

// UpdateTweet edits the text or visibility of one of the caller's tweets
func UpdateTweet(tweetID, content, visibility string) (*Tweet, error) {
	body := map[string]string{}
	if content != "" {
		body["content"] = content
	}
	if visibility != "" {
		body["visibility"] = visibility
	}
	var tweet Tweet
	if _, err := send("PUT", "/api/v1/tweets/"+tweetID, body, &tweet); err != nil {
		return nil, err
	}
	return &tweet, nil
}

// GetTweet fetches one tweet
func GetTweet(tweetID string) (*Tweet, error) {
	var tweet Tweet
	if err := get("/api/v1/tweets/"+tweetID, nil, &tweet); err != nil {
		return nil, err
	}
	return &tweet, nil
}

// DeleteTweet removes one of the caller's tweets
func DeleteTweet(tweetID string) error {
	_, err := send("DELETE", "/api/v1/tweets/"+tweetID, nil, nil)
	return err
}

// TogglePin pins or unpins a tweet on the caller's profile
func TogglePin(tweetID string) (bool, error) {
	var out struct {
		Pinned bool `json:"pinned"`
	}
	_, err := send("POST", fmt.Sprintf("/api/v1/tweets/%s/pin", tweetID), nil, &out)
	return out.Pinned, err
}

// GetTimeline is the home timeline: own tweets, followed authors and retweets
func GetTimeline(opts ListOptions) (*Feed, error) {
	return getFeed("/api/v1/tweets/timeline", opts.query())
}

// GetUserTweets lists a user's top-level tweets, pinned first
func GetUserTweets(userID string, opts ListOptions) (*Feed, error) {
	return getFeed("/api/v1/tweets/user/"+userID, opts.query())
}

// GetReplies lists the replies to a tweet
func GetReplies(tweetID string, opts ListOptions) (*Feed, error) {
	return getFeed(fmt.Sprintf("/api/v1/tweets/%s/replies", tweetID), opts.query())
}

// SearchTweets runs a full-text search
func SearchTweets(q string, opts ListOptions) (*Feed, error) {
	query := opts.query()
	query["q"] = q
	return getFeed("/api/v1/tweets/search", query)
}

// GetBookmarks lists the caller's bookmarked tweets
func GetBookmarks(opts ListOptions) (*Feed, error) {
	return getFeed("/api/v1/bookmarks", opts.query())
}

func getFeed(path string, query map[string]string) (*Feed, error) {
	var feed Feed
	if err := get(path, query, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}
