package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxCommunityNameLength        = 50
	maxCommunityDescriptionLength = 500
)

type communityInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPrivate   *bool   `json:"isPrivate"`
}

// CreateCommunity creates a community with the caller as its admin
// POST /api/v1/communities
func (h *Handlers) CreateCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req communityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		util.RespondValidationError(c, "name", "name is required")
		return
	}

	community := &models.Community{CreatorID: userID, MembersCount: 1}
	if apiErr := applyCommunityInput(community, req); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}

	ctx := c.Request.Context()
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCommunityNameFree(tx, community, ""); err != nil {
			return err
		}
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		return tx.Create(&models.CommunityMember{
			CommunityID: community.ID,
			UserID:      userID,
			Role:        models.CommunityRoleAdmin,
		}).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	logger.Log.Info("Community created",
		logger.WithUserID(userID),
		logger.WithCommunityID(community.ID),
		zap.String("slug", community.Slug))
	community.IsMember = true
	community.Role = models.CommunityRoleAdmin
	util.RespondCreated(c, community, "community created")
}

// ListCommunities pages through communities, optionally filtered by name
// GET /api/v1/communities
func (h *Handlers) ListCommunities(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	page := util.ParsePage(c, 20, 100)

	q := database.DB.WithContext(ctx).Model(&models.Community{})
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.RespondInternalError(c, "failed to load communities", err)
		return
	}
	communities := []*models.Community{}
	err := q.Session(&gorm.Session{}).
		Preload("Creator", models.SummaryScope).
		Order("members_count DESC, created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&communities).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load communities", err)
		return
	}
	if err := annotateMembership(ctx, viewerID, communities...); err != nil {
		util.RespondInternalError(c, "failed to load memberships", err)
		return
	}
	util.RespondOK(c, gin.H{"communities": communities, "pagination": util.NewPagination(page, total)}, "")
}

// GetCommunity looks a community up by id or slug
// GET /api/v1/communities/:communityId (id or slug)
func (h *Handlers) GetCommunity(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	community, err := findCommunity(database.DB.WithContext(ctx).Preload("Creator", models.SummaryScope), c.Param("communityId"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := annotateMembership(ctx, viewerID, community); err != nil {
		util.RespondInternalError(c, "failed to load membership", err)
		return
	}
	util.RespondOK(c, community, "")
}

// UpdateCommunity edits a community. Admin only.
// PUT /api/v1/communities/:communityId
func (h *Handlers) UpdateCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req communityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}

	ctx := c.Request.Context()
	var community *models.Community
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if community, err = findCommunity(tx, c.Param("communityId")); err != nil {
			return err
		}
		role, err := memberRole(tx, community.ID, userID)
		if err != nil {
			return err
		}
		if role != models.CommunityRoleAdmin {
			return errors.Forbidden("only the community admin can edit it")
		}

		if apiErr := applyCommunityInput(community, req); apiErr != nil {
			return apiErr
		}
		if req.Name != nil {
			if err := ensureCommunityNameFree(tx, community, community.ID); err != nil {
				return err
			}
		}
		return tx.Model(community).
			Select("name", "slug", "description", "is_private").
			Updates(&community).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	community.IsMember = true
	community.Role = models.CommunityRoleAdmin
	util.RespondOK(c, community, "community updated")
}

// DeleteCommunity deletes a community and its memberships. Admin only.
// DELETE /api/v1/communities/:communityId
func (h *Handlers) DeleteCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var communityID string
	err := database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		community, err := findCommunity(tx, c.Param("communityId"))
		if err != nil {
			return err
		}
		communityID = community.ID
		role, err := memberRole(tx, communityID, userID)
		if err != nil {
			return err
		}
		if role != models.CommunityRoleAdmin {
			return errors.Forbidden("only the community admin can delete it")
		}
		if err := tx.Where("community_id = ?", communityID).Delete(&models.CommunityMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(community).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	logger.Log.Info("Community deleted", logger.WithUserID(userID), logger.WithCommunityID(communityID))
	util.RespondOK(c, gin.H{"id": communityID}, "community deleted")
}

// GetMyCommunities lists the communities the viewer belongs to
// GET /api/v1/communities/mine
func (h *Handlers) GetMyCommunities(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	communities := []*models.Community{}
	err := database.DB.WithContext(ctx).
		Joins("JOIN community_members ON community_members.community_id = communities.id").
		Where("community_members.user_id = ?", userID).
		Order("community_members.created_at DESC").
		Find(&communities).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load communities", err)
		return
	}
	if err := annotateMembership(ctx, userID, communities...); err != nil {
		util.RespondInternalError(c, "failed to load memberships", err)
		return
	}
	util.RespondOK(c, communities, "")
}

// GetCommunityFeed lists tweets from members of the viewer's communities
// GET /api/v1/communities/feed
func (h *Handlers) GetCommunityFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	feed, err := h.timeline.CommunityFeed(c.Request.Context(), userID, util.ParsePage(c, defaultTweetPageSize, maxTweetPageSize))
	if err != nil {
		util.RespondInternalError(c, "failed to load community feed", err)
		return
	}
	util.RespondOK(c, feed, "")
}

// GetCommunityPosts lists tweets by a community's members. Members only.
// GET /api/v1/communities/:communityId/posts
func (h *Handlers) GetCommunityPosts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	community, err := findCommunity(database.DB.WithContext(ctx), c.Param("communityId"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	role, err := memberRole(database.DB.WithContext(ctx), community.ID, userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	if role == "" {
		util.RespondForbidden(c, "only members can view community posts")
		return
	}

	feed, err := h.timeline.CommunityPosts(ctx, userID, community.ID, util.ParsePage(c, defaultTweetPageSize, maxTweetPageSize))
	if err != nil {
		util.RespondInternalError(c, "failed to load community posts", err)
		return
	}
	util.RespondOK(c, feed, "")
}

// applyCommunityInput validates and copies the provided fields onto community
func applyCommunityInput(community *models.Community, req communityInput) *errors.APIError {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return errors.ValidationError("name", "name is required")
		}
		if len([]rune(name)) > maxCommunityNameLength {
			return errors.ValidationError("name", "name is too long")
		}
		slug := util.Slugify(name)
		if slug == "" {
			return errors.ValidationError("name", "name must contain letters or digits")
		}
		community.Name = name
		community.Slug = slug
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if len([]rune(desc)) > maxCommunityDescriptionLength {
			return errors.ValidationError("description", "description is too long")
		}
		community.Description = desc
	}
	if req.IsPrivate != nil {
		community.IsPrivate = *req.IsPrivate
	}
	return nil
}

// ensureCommunityNameFree returns a conflict when another community owns the name or slug
func ensureCommunityNameFree(tx *gorm.DB, community *models.Community, exceptID string) error {
	q := tx.Model(&models.Community{}).
		Where("LOWER(name) = ? OR slug = ?", strings.ToLower(community.Name), community.Slug)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.Conflict("a community with this name already exists")
	}
	return nil
}

// memberRole returns the user's role in a community, or "" when they are not a member
// findCommunity resolves :communityId, which may be a uuid or a slug
func findCommunity(db *gorm.DB, ident string) (*models.Community, error) {
	q := db
	if _, err := uuid.Parse(ident); err == nil {
		q = q.Where("id = ?", ident)
	} else {
		q = q.Where("slug = ?", strings.ToLower(ident))
	}
	var community models.Community
	if err := q.First(&community).Error; err != nil {
		if util.IsNotFound(err) {
			return nil, errors.NotFound("community")
		}
		return nil, err
	}
	return &community, nil
}

func memberRole(db *gorm.DB, communityID, userID string) (models.CommunityRole, error) {
	var member models.CommunityMember
	err := db.Select("role").
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&member).Error
	if util.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

func annotateMembership(ctx context.Context, viewerID string, communities ...*models.Community) error {
	if len(communities) == 0 || viewerID == "" {
		return nil
	}
	ids := make([]string, len(communities))
	for i, community := range communities {
		ids[i] = community.ID
	}
	var members []models.CommunityMember
	err := database.DB.WithContext(ctx).
		Select("community_id", "role").
		Where("user_id = ? AND community_id IN ?", viewerID, ids).
		Find(&members).Error
	if err != nil {
		return err
	}
	roles := make(map[string]models.CommunityRole, len(members))
	for _, m := range members {
		roles[m.CommunityID] = m.Role
	}
	for _, community := range communities {
		community.Role, community.IsMember = roles[community.ID]
	}
	return nil
}
