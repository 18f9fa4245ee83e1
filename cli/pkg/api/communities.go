package api

import "fmt"

// CommunityInput holds the fields to set; nil leaves a field unchanged
type CommunityInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPrivate   *bool   `json:"isPrivate,omitempty"`
}

// CreateCommunity creates a community with the caller as its admin
func CreateCommunity(in CommunityInput) (*Community, error) {
	var out Community
	if _, err := send("POST", "/api/v1/communities", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCommunity edits a community; admins only
func UpdateCommunity(ref string, in CommunityInput) (*Community, error) {
	var out Community
	if _, err := send("PUT", "/api/v1/communities/"+ref, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCommunity deletes a community; its creator only
func DeleteCommunity(ref string) error {
	_, err := send("DELETE", "/api/v1/communities/"+ref, nil, nil)
	return err
}

// ListCommunities browses or searches communities
func ListCommunities(q string, opts ListOptions) (*CommunityList, error) {
	query := opts.query()
	if q != "" {
		query["q"] = q
	}
	var out CommunityList
	if err := get("/api/v1/communities", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMyCommunities lists communities the caller belongs to
func GetMyCommunities() ([]Community, error) {
	var out []Community
	err := get("/api/v1/communities/mine", nil, &out)
	return out, err
}

// GetCommunity fetches a community by id or slug
func GetCommunity(ref string) (*Community, error) {
	var out Community
	if err := get("/api/v1/communities/"+ref, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCommunityPosts lists tweets posted by a community's members
func GetCommunityPosts(ref string, opts ListOptions) (*Feed, error) {
	return getFeed(fmt.Sprintf("/api/v1/communities/%s/posts", ref), opts.query())
}

// GetCommunityFeed merges posts from every community the caller joined
func GetCommunityFeed(opts ListOptions) (*Feed, error) {
	return getFeed("/api/v1/communities/feed", opts.query())
}

// JoinCommunity joins a public community
func JoinCommunity(ref string) (*CommunityMember, error) {
	var out CommunityMember
	if _, err := send("POST", fmt.Sprintf("/api/v1/communities/%s/join", ref), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeaveCommunity leaves a community
func LeaveCommunity(ref string) error {
	_, err := send("POST", fmt.Sprintf("/api/v1/communities/%s/leave", ref), nil, nil)
	return err
}

// GetCommunityMembers lists members, admins first
func GetCommunityMembers(ref string, opts ListOptions) (*MemberList, error) {
	var out MemberList
	if err := get(fmt.Sprintf("/api/v1/communities/%s/members", ref), opts.query(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMemberRole changes a member's role; admins only
func UpdateMemberRole(ref, memberID, role string) (*CommunityMember, error) {
	var out CommunityMember
	path := fmt.Sprintf("/api/v1/communities/%s/members/%s/role", ref, memberID)
	if _, err := send("PUT", path, map[string]string{"role": role}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveMember removes a member from a community
func RemoveMember(ref, memberID string) error {
	_, err := send("DELETE", fmt.Sprintf("/api/v1/communities/%s/members/%s", ref, memberID), nil, nil)
	return err
}
