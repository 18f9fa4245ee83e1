package api

import (
	"fmt"
	"strings"
)

// LikeTweet likes a tweet and returns the new count
func LikeTweet(tweetID string) (*LikeState, error) {
	var out LikeState
	if _, err := send("POST", "/api/v1/likes/"+tweetID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnlikeTweet removes a like
func UnlikeTweet(tweetID string) (*LikeState, error) {
	var out LikeState
	if _, err := send("DELETE", "/api/v1/likes/"+tweetID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLikers lists who liked a tweet
func GetLikers(tweetID string, opts ListOptions) (*UserList, error) {
	return getUsers("/api/v1/likes/"+tweetID, opts.query())
}

// BookmarkTweet saves a tweet privately
func BookmarkTweet(tweetID string) error {
	_, err := send("POST", "/api/v1/bookmarks/"+tweetID, nil, nil)
	return err
}

// UnbookmarkTweet removes a bookmark
func UnbookmarkTweet(tweetID string) error {
	_, err := send("DELETE", "/api/v1/bookmarks/"+tweetID, nil, nil)
	return err
}

// Retweet shares a tweet, optionally with a comment
func Retweet(tweetID, comment string) (*Retweet, error) {
	var body interface{}
	if comment != "" {
		body = map[string]string{"comment": comment}
	}
	var out Retweet
	if _, err := send("POST", "/api/v1/retweets/"+tweetID, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Unretweet removes a retweet
func Unretweet(tweetID string) error {
	_, err := send("DELETE", "/api/v1/retweets/"+tweetID, nil, nil)
	return err
}

// FollowUser follows a user
func FollowUser(userID string) error {
	_, err := send("POST", "/api/v1/follows/"+userID, nil, nil)
	return err
}

// UnfollowUser unfollows a user
func UnfollowUser(userID string) error {
	_, err := send("DELETE", "/api/v1/follows/"+userID, nil, nil)
	return err
}

// GetFollowers lists a user's followers
func GetFollowers(userID string, opts ListOptions) (*UserList, error) {
	return getUsers(fmt.Sprintf("/api/v1/follows/%s/followers", userID), opts.query())
}

// GetFollowing lists who a user follows
func GetFollowing(userID string, opts ListOptions) (*UserList, error) {
	return getUsers(fmt.Sprintf("/api/v1/follows/%s/following", userID), opts.query())
}

// GetUser fetches a profile by id
func GetUser(userID string) (*User, error) {
	var user User
	if err := get("/api/v1/users/"+userID, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers finds users by username or name
func SearchUsers(q string, opts ListOptions) (*UserList, error) {
	query := opts.query()
	query["q"] = q
	return getUsers("/api/v1/users/search", query)
}

// ResolveUser accepts a user id or @username and returns the user
func ResolveUser(ref string) (*User, error) {
	if len(ref) > 0 && ref[0] == '@' {
		list, err := SearchUsers(ref[1:], ListOptions{Limit: 20})
		if err != nil {
			return nil, err
		}
		for i := range list.Users {
			if strings.EqualFold(list.Users[i].Username, ref[1:]) {
				return &list.Users[i], nil
			}
		}
		return nil, &APIError{Code: "NOT_FOUND", Message: "no user named " + ref, StatusCode: 404}
	}
	return GetUser(ref)
}

func getUsers(path string, query map[string]string) (*UserList, error) {
	var out UserList
	if err := get(path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
