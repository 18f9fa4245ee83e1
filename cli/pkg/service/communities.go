package service

import (
	"fmt"

	"github.com/zfogg/chirp/cli/pkg/api"
	clierrors "github.com/zfogg/chirp/cli/pkg/errors"
	"github.com/zfogg/chirp/cli/pkg/formatter"
	"github.com/zfogg/chirp/cli/pkg/output"
	"github.com/zfogg/chirp/cli/pkg/prompter"
)

type CommunityService struct{}

func NewCommunityService() *CommunityService {
	return &CommunityService{}
}

// Create creates a community owned by the caller
func (s *CommunityService) Create(name, description string, private bool) error {
	if name == "" {
		return clierrors.ValidationError("name", "a community needs a name")
	}
	if _, err := RequireSession(); err != nil {
		return err
	}
	c, err := api.CreateCommunity(api.CommunityInput{Name: &name, Description: &description, IsPrivate: &private})
	if err != nil {
		return err
	}
	return show("community", c, func() {
		formatter.PrintSuccess("Created %s (/%s).", c.Name, c.Slug)
	})
}

// Update changes whichever of name, description and privacy were given
func (s *CommunityService) Update(ref string, in api.CommunityInput) error {
	if in.Name == nil && in.Description == nil && in.IsPrivate == nil {
		return clierrors.ValidationError("community", "nothing to update")
	}
	if _, err := RequireSession(); err != nil {
		return err
	}
	c, err := api.UpdateCommunity(ref, in)
	if err != nil {
		return err
	}
	return show("community", c, func() { printCommunity(c) })
}

// Delete deletes a community after confirmation
func (s *CommunityService) Delete(ref string, force bool) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	if !force {
		ok, err := prompter.PromptConfirm(fmt.Sprintf("Delete community %s and all its memberships?", ref))
		if err != nil || !ok {
			return err
		}
	}
	if err := api.DeleteCommunity(ref); err != nil {
		return err
	}
	formatter.PrintSuccess("Community deleted.")
	return nil
}

// List browses communities, filtered by q when given
func (s *CommunityService) List(q string, page int) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	list, err := api.ListCommunities(q, pageOpts(page))
	if err != nil {
		return err
	}
	return show("communities", list, func() {
		printCommunities(list.Communities)
		if list.Pagination.HasNextPage {
			dim.Printf("more: --page %d\n", list.Pagination.CurrentPage+1)
		}
	})
}

// Mine lists the communities the caller belongs to
func (s *CommunityService) Mine() error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	list, err := api.GetMyCommunities()
	if err != nil {
		return err
	}
	return show("communities", list, func() { printCommunities(list) })
}

// Show prints one community
func (s *CommunityService) Show(ref string) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	c, err := api.GetCommunity(ref)
	if err != nil {
		return err
	}
	return show("community", c, func() { printCommunity(c) })
}

// Posts prints the tweets posted into a community
func (s *CommunityService) Posts(ref string, page int) error {
	return NewTweetService().feed(func() (*api.Feed, error) {
		return api.GetCommunityPosts(ref, pageOpts(page))
	})
}

// Feed prints posts from every community the caller belongs to
func (s *CommunityService) Feed(page int) error {
	return NewTweetService().feed(func() (*api.Feed, error) {
		return api.GetCommunityFeed(pageOpts(page))
	})
}

// Join joins a public community
func (s *CommunityService) Join(ref string) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	m, err := api.JoinCommunity(ref)
	if err != nil {
		return err
	}
	return show("member", m, func() { formatter.PrintSuccess("Joined as %s.", m.Role) })
}

// Leave leaves a community
func (s *CommunityService) Leave(ref string) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	if err := api.LeaveCommunity(ref); err != nil {
		return err
	}
	formatter.PrintSuccess("Left %s.", ref)
	return nil
}

// Members lists a community's members
func (s *CommunityService) Members(ref string, page int) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	list, err := api.GetCommunityMembers(ref, pageOpts(page))
	if err != nil {
		return err
	}
	return show("members", list, func() {
		rows := make([][]string, 0, len(list.Members))
		for _, m := range list.Members {
			rows = append(rows, []string{m.ID, m.User.Handle(), m.Role, Ago(m.JoinedAt)})
		}
		printTable([]string{"Member", "User", "Role", "Joined"}, rows)
	})
}

// SetRole promotes or demotes a member
func (s *CommunityService) SetRole(ref, memberID, role string) error {
	switch role {
	case "admin", "moderator", "member":
	default:
		return clierrors.ValidationError("role", "must be admin, moderator or member")
	}
	if _, err := RequireSession(); err != nil {
		return err
	}
	m, err := api.UpdateMemberRole(ref, memberID, role)
	if err != nil {
		return err
	}
	return show("member", m, func() { formatter.PrintSuccess("%s is now %s.", m.User.Handle(), m.Role) })
}

// Remove removes a member from a community
func (s *CommunityService) Remove(ref, memberID string) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	if err := api.RemoveMember(ref, memberID); err != nil {
		return err
	}
	formatter.PrintSuccess("Member removed.")
	return nil
}

func printCommunities(list []api.Community) {
	if len(list) == 0 {
		output.PrintInfo("No communities.")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		visibility := "public"
		if c.IsPrivate {
			visibility = "private"
		}
		rows = append(rows, []string{c.Slug, c.Name, fmt.Sprint(c.MembersCount), visibility})
	}
	printTable([]string{"Slug", "Name", "Members", "Visibility"}, rows)
}

func printCommunity(c *api.Community) {
	record := map[string]interface{}{
		"Name":    c.Name,
		"Slug":    c.Slug,
		"Members": c.MembersCount,
		"Private": c.IsPrivate,
		"Created": c.CreatedAt.Format("2006-01-02"),
	}
	if c.Description != "" {
		record["About"] = c.Description
	}
	if c.IsMember {
		record["Your role"] = c.Role
	}
	_ = output.PrintRecord("", record)
}
