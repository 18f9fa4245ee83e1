package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/testutil"
	"github.com/zfogg/chirp/internal/timeline"
)

func (suite *HandlersTestSuite) createCommunity(userID string, body gin.H) *models.Community {
	w, env := suite.request(http.MethodPost, "/communities", userID, body)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var community models.Community
	suite.decode(env, &community)
	return &community
}

func (suite *HandlersTestSuite) reloadCommunity(id string) *models.Community {
	var community models.Community
	suite.Require().NoError(suite.db.First(&community, "id = ?", id).Error)
	return &community
}

// =============================================================================
// COMMUNITIES
// =============================================================================

func (suite *HandlersTestSuite) TestCreateCommunity() {
	community := suite.createCommunity(suite.alice.ID, gin.H{"name": "Go Gophers!", "description": "all things Go"})
	suite.Equal("go-gophers", community.Slug)
	suite.Equal(1, community.MembersCount)
	suite.True(community.IsMember)
	suite.Equal(models.CommunityRoleAdmin, community.Role)
	suite.EqualValues(1, suite.count(&models.CommunityMember{}, "community_id = ? AND user_id = ? AND role = ?",
		community.ID, suite.alice.ID, models.CommunityRoleAdmin))

	w, env := suite.request(http.MethodPost, "/communities", suite.bob.ID, gin.H{"name": "go gophers"})
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("CONFLICT", env.Code)

	w, _ = suite.request(http.MethodPost, "/communities", suite.bob.ID, gin.H{"description": "no name"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestGetCommunityByIDOrSlug() {
	community := suite.createCommunity(suite.alice.ID, gin.H{"name": "Rustaceans"})

	for _, ident := range []string{community.ID, "rustaceans"} {
		w, env := suite.request(http.MethodGet, "/communities/"+ident, suite.bob.ID, nil)
		suite.Require().Equal(http.StatusOK, w.Code, ident)
		var got models.Community
		suite.decode(env, &got)
		suite.Equal(community.ID, got.ID)
		suite.False(got.IsMember)
	}

	w, _ := suite.request(http.MethodGet, "/communities/nope", suite.bob.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestListCommunitiesFiltersByQuery() {
	suite.createCommunity(suite.alice.ID, gin.H{"name": "Cyclists"})
	suite.createCommunity(suite.bob.ID, gin.H{"name": "Climbers", "description": "bouldering and cycling"})
	suite.createCommunity(suite.bob.ID, gin.H{"name": "Bakers"})

	w, env := suite.request(http.MethodGet, "/communities?q=cycl", suite.carol.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		Communities []models.Community `json:"communities"`
	}
	suite.decode(env, &body)
	suite.Len(body.Communities, 2)
}

func (suite *HandlersTestSuite) TestUpdateAndDeleteAreAdminOnly() {
	community := suite.createCommunity(suite.alice.ID, gin.H{"name": "Readers"})
	suite.request(http.MethodPost, "/communities/"+community.ID+"/join", suite.bob.ID, nil)

	w, _ := suite.request(http.MethodPut, "/communities/"+community.ID, suite.bob.ID, gin.H{"name": "Bob's club"})
	suite.Equal(http.StatusForbidden, w.Code)

	w, env := suite.request(http.MethodPut, "/communities/"+community.ID, suite.alice.ID, gin.H{"name": "Book Readers", "isPrivate": true})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated models.Community
	suite.decode(env, &updated)
	suite.Equal("book-readers", updated.Slug)
	suite.True(updated.IsPrivate)

	w, _ = suite.request(http.MethodDelete, "/communities/"+community.ID, suite.bob.ID, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w, _ = suite.request(http.MethodDelete, "/communities/"+community.ID, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.EqualValues(0, suite.count(&models.Community{}, "id = ?", community.ID))
	suite.EqualValues(0, suite.count(&models.CommunityMember{}, "community_id = ?", community.ID))
}

// =============================================================================
// COMMUNITY MEMBERS
// =============================================================================

func (suite *HandlersTestSuite) TestJoinAndLeave() {
	community := suite.createCommunity(suite.alice.ID, gin.H{"name": "Runners"})
	path := "/communities/" + community.ID

	w, _ := suite.request(http.MethodPost, path+"/join", suite.bob.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(2, suite.reloadCommunity(community.ID).MembersCount)

	w, _ = suite.request(http.MethodPost, path+"/join", suite.bob.ID, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	_, env := suite.request(http.MethodGet, path+"/membership", suite.bob.ID, nil)
	var status struct {
		IsMember bool                 `json:"isMember"`
		Role     models.CommunityRole `json:"role"`
	}
	suite.decode(env, &status)
	suite.True(status.IsMember)
	suite.Equal(models.CommunityRoleMember, status.Role)

	w, _ = suite.request(http.MethodPost, path+"/leave", suite.alice.ID, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodPost, path+"/leave", suite.bob.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(1, suite.reloadCommunity(community.ID).MembersCount)

	w, _ = suite.request(http.MethodPost, path+"/leave", suite.bob.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

// Member routes accept the slug, and an admin may leave once another admin exists
func (suite *HandlersTestSuite) TestMembershipBySlugAndLastAdmin() {
	community := suite.createCommunity(suite.alice.ID, gin.H{"name": "Night Owls"})
	path := "/communities/night-owls"

	w, _ := suite.request(http.MethodPost, path+"/join", suite.bob.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal(2, suite.reloadCommunity(community.ID).MembersCount)

	_, env := suite.request(http.MethodGet, path+"/members", suite.carol.ID, nil)
	var members struct {
		Members []models.CommunityMember `json:"members"`
	}
	suite.decode(env, &members)
	suite.Len(members.Members, 2)

	w, _ = suite.request(http.MethodGet, "/communities/no-such-club/membership", suite.bob.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	// the only admin can neither leave nor step down
	w, _ = suite.request(http.MethodPost, path+"/leave", suite.alice.ID, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	w, _ = suite.request(http.MethodPut, path+"/members/"+suite.alice.ID+"/role", suite.alice.ID, gin.H{"role": "member"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodPut, path+"/members/"+suite.bob.ID+"/role", suite.alice.ID, gin.H{"role": "admin"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, _ = suite.request(http.MethodPost, path+"/leave", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal(1, suite.reloadCommunity(community.ID).MembersCount)
	suite.EqualValues(1, suite.count(&models.CommunityMember{}, "community_id = ? AND role = ?", community.ID, models.CommunityRoleAdmin))

	w, _ = suite.request(http.MethodPost, path+"/leave", suite.bob.ID, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestJoinPrivateCommunityForbidden() {
	community := suite.createCommunity(suite.alice.ID, gin.H{"name": "Inner Circle", "isPrivate": true})
	w, _ := suite.request(http.MethodPost, "/communities/"+community.ID+"/join", suite.bob.ID, nil)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal(1, suite.reloadCommunity(community.ID).MembersCount)
}

func (suite *HandlersTestSuite) TestMemberRolesAndRemoval() {
	community := suite.createCommunity(suite.alice.ID, gin.H{"name": "Chess"})
	path := "/communities/" + community.ID
	suite.request(http.MethodPost, path+"/join", suite.bob.ID, nil)
	suite.request(http.MethodPost, path+"/join", suite.carol.ID, nil)

	w, _ := suite.request(http.MethodPut, path+"/members/"+suite.bob.ID+"/role", suite.carol.ID, gin.H{"role": "moderator"})
	suite.Equal(http.StatusForbidden, w.Code)
	w, _ = suite.request(http.MethodPut, path+"/members/"+suite.bob.ID+"/role", suite.alice.ID, gin.H{"role": "overlord"})
	suite.Equal(http.StatusBadRequest, w.Code)
	w, _ = suite.request(http.MethodPut, path+"/members/"+suite.bob.ID+"/role", suite.alice.ID, gin.H{"role": "moderator"})
	suite.Require().Equal(http.StatusOK, w.Code)

	_, env := suite.request(http.MethodGet, path+"/members?role=moderator", suite.carol.ID, nil)
	var members struct {
		Members []models.CommunityMember `json:"members"`
	}
	suite.decode(env, &members)
	suite.Require().Len(members.Members, 1)
	suite.Equal(suite.bob.ID, members.Members[0].UserID)

	// A moderator cannot remove the admin, and nobody removes themselves
	w, _ = suite.request(http.MethodDelete, path+"/members/"+suite.alice.ID, suite.bob.ID, nil)
	suite.Equal(http.StatusForbidden, w.Code)
	w, _ = suite.request(http.MethodDelete, path+"/members/"+suite.bob.ID, suite.bob.ID, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	w, _ = suite.request(http.MethodDelete, path+"/members/"+suite.bob.ID, suite.carol.ID, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w, _ = suite.request(http.MethodDelete, path+"/members/"+suite.carol.ID, suite.bob.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(2, suite.reloadCommunity(community.ID).MembersCount)
}

func (suite *HandlersTestSuite) TestCommunityPostsMembersOnly() {
	community := suite.createCommunity(suite.alice.ID, gin.H{"name": "Photographers"})
	suite.request(http.MethodPost, "/communities/"+community.ID+"/join", suite.bob.ID, nil)
	testutil.CreateTweet(suite.T(), suite.db, suite.alice, "golden hour", models.VisibilityPublic)
	testutil.CreateTweet(suite.T(), suite.db, suite.alice, "raw files", models.VisibilityPrivate)
	testutil.CreateTweet(suite.T(), suite.db, suite.carol, "not a member", models.VisibilityPublic)

	w, _ := suite.request(http.MethodGet, "/communities/"+community.ID+"/posts", suite.carol.ID, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w, env := suite.request(http.MethodGet, "/communities/"+community.ID+"/posts", suite.bob.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var feed timeline.Feed
	suite.decode(env, &feed)
	suite.Require().Len(feed.Tweets, 1)
	suite.Equal("golden hour", feed.Tweets[0].Content)

	w, env = suite.request(http.MethodGet, "/communities/feed", suite.bob.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(env, &feed)
	suite.Len(feed.Tweets, 1)
}

func (suite *HandlersTestSuite) TestMyCommunitiesAndMemberships() {
	first := suite.createCommunity(suite.alice.ID, gin.H{"name": "Hikers"})
	suite.createCommunity(suite.bob.ID, gin.H{"name": "Skaters"})

	_, env := suite.request(http.MethodGet, "/communities/mine", suite.alice.ID, nil)
	var mine []models.Community
	suite.decode(env, &mine)
	suite.Require().Len(mine, 1)
	suite.Equal(first.ID, mine[0].ID)
	suite.True(mine[0].IsMember)

	_, env = suite.request(http.MethodGet, "/communities/memberships", suite.alice.ID, nil)
	var memberships []models.CommunityMember
	suite.decode(env, &memberships)
	suite.Require().Len(memberships, 1)
	suite.Require().NotNil(memberships[0].Community)
	suite.Equal("Hikers", memberships[0].Community.Name)
}
