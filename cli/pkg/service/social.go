package service

import (
	"github.com/zfogg/chirp/cli/pkg/api"
	"github.com/zfogg/chirp/cli/pkg/formatter"
)

type SocialService struct{}

func NewSocialService() *SocialService {
	return &SocialService{}
}

// Profile prints a user's profile; ref is an id or @username, blank for self
func (s *SocialService) Profile(ref string) error {
	creds, err := RequireSession()
	if err != nil {
		return err
	}
	if ref == "" {
		ref = creds.UserID
	}
	user, err := api.ResolveUser(ref)
	if err != nil {
		return err
	}
	return show("user", user, func() { printProfile(user) })
}

// Follow follows or unfollows a user
func (s *SocialService) Follow(ref string, undo bool) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	user, err := api.ResolveUser(ref)
	if err != nil {
		return err
	}
	if undo {
		if err := api.UnfollowUser(user.ID); err != nil {
			return err
		}
		formatter.PrintSuccess("Unfollowed %s.", user.Handle())
		return nil
	}
	if err := api.FollowUser(user.ID); err != nil {
		return err
	}
	formatter.PrintSuccess("Following %s.", user.Handle())
	return nil
}

// Followers prints a user's followers, or who they follow when following is set
func (s *SocialService) Followers(ref string, following bool, page int) error {
	creds, err := RequireSession()
	if err != nil {
		return err
	}
	userID := creds.UserID
	if ref != "" {
		user, err := api.ResolveUser(ref)
		if err != nil {
			return err
		}
		userID = user.ID
	}

	var list *api.UserList
	if following {
		list, err = api.GetFollowing(userID, pageOpts(page))
	} else {
		list, err = api.GetFollowers(userID, pageOpts(page))
	}
	if err != nil {
		return err
	}
	return show("users", list, func() { printUsers(list) })
}

// SearchUsers prints users matching q
func (s *SocialService) SearchUsers(q string, page int) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	list, err := api.SearchUsers(q, pageOpts(page))
	if err != nil {
		return err
	}
	return show("users", list, func() { printUsers(list) })
}
