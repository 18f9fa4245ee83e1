package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JoinCommunity adds the viewer to a public community
// POST /api/v1/communities/:communityId/join
func (h *Handlers) JoinCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var member *models.CommunityMember
	err := database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		community, err := findCommunity(tx, c.Param("communityId"))
		if err != nil {
			return err
		}
		communityID := community.ID
		role, err := memberRole(tx, communityID, userID)
		if err != nil {
			return err
		}
		if role != "" {
			return errors.BadRequest("you are already a member of this community")
		}
		if community.IsPrivate {
			return errors.Forbidden("this community is private")
		}
		member = &models.CommunityMember{CommunityID: communityID, UserID: userID, Role: models.CommunityRoleMember}
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		return tx.Model(&models.Community{}).Where("id = ?", communityID).
			Update("members_count", database.IncrementExpr("members_count")).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, member, "joined community")
}

// LeaveCommunity removes the viewer from a community. The last admin cannot leave.
// POST /api/v1/communities/:communityId/leave
func (h *Handlers) LeaveCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	err := database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		community, err := findCommunity(tx, c.Param("communityId"))
		if err != nil {
			return err
		}
		communityID := community.ID
		role, err := memberRole(tx, communityID, userID)
		if err != nil {
			return err
		}
		switch role {
		case "":
			return errors.NotFound("membership")
		case models.CommunityRoleAdmin:
			admins, err := adminCount(tx, communityID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return errors.BadRequest("the last admin cannot leave; make another member admin first")
			}
		}
		if err := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			Delete(&models.CommunityMember{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Community{}).Where("id = ?", communityID).
			Update("members_count", database.DecrementExpr("members_count")).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"isMember": false}, "left community")
}

// GetCommunityMembers pages through a community's members, optionally by role
// GET /api/v1/communities/:communityId/members
func (h *Handlers) GetCommunityMembers(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}
	ctx := c.Request.Context()
	page := util.ParsePage(c, 20, 100)

	community, err := findCommunity(database.DB.WithContext(ctx), c.Param("communityId"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	q := database.DB.WithContext(ctx).Model(&models.CommunityMember{}).Where("community_id = ?", community.ID)
	if role := models.CommunityRole(c.Query("role")); role != "" {
		if !role.IsValid() {
			util.RespondValidationError(c, "role", "role must be member, moderator or admin")
			return
		}
		q = q.Where("role = ?", role)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.RespondInternalError(c, "failed to load members", err)
		return
	}
	members := []*models.CommunityMember{}
	err = q.Session(&gorm.Session{}).
		Preload("User", models.SummaryScope).
		Order("created_at ASC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&members).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load members", err)
		return
	}
	util.RespondOK(c, gin.H{"members": members, "pagination": util.NewPagination(page, total)}, "")
}

// UpdateMemberRole changes a member's role. Admin only.
// PUT /api/v1/communities/:communityId/members/:memberId/role
func (h *Handlers) UpdateMemberRole(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req struct {
		Role models.CommunityRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}
	if !req.Role.IsValid() {
		util.RespondValidationError(c, "role", "role must be member, moderator or admin")
		return
	}
	memberID := c.Param("memberId")

	var communityID string
	var member models.CommunityMember
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
			return errors.Forbidden("only the community admin can change roles")
		}
		if err := tx.Where("community_id = ? AND user_id = ?", communityID, memberID).First(&member).Error; err != nil {
			if util.IsNotFound(err) {
				return errors.NotFound("member")
			}
			return err
		}
		if member.Role == models.CommunityRoleAdmin && req.Role != models.CommunityRoleAdmin {
			n, err := adminCount(tx, communityID)
			if err != nil {
				return err
			}
			if n <= 1 {
				return errors.BadRequest("a community needs at least one admin")
			}
		}
		member.Role = req.Role
		return tx.Model(&member).Update("role", req.Role).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	logger.Log.Info("Community role changed",
		logger.WithUserID(userID),
		logger.WithCommunityID(communityID),
		zap.String("member_id", memberID),
		zap.String("role", string(req.Role)))
	util.RespondOK(c, &member, "role updated")
}

// RemoveMember removes another member. Admins and moderators only, and only
// admins may remove an admin.
// DELETE /api/v1/communities/:communityId/members/:memberId
func (h *Handlers) RemoveMember(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	memberID := c.Param("memberId")
	if memberID == userID {
		util.RespondBadRequest(c, "use leave to remove yourself")
		return
	}

	err := database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		community, err := findCommunity(tx, c.Param("communityId"))
		if err != nil {
			return err
		}
		communityID := community.ID
		role, err := memberRole(tx, communityID, userID)
		if err != nil {
			return err
		}
		if role != models.CommunityRoleAdmin && role != models.CommunityRoleModerator {
			return errors.Forbidden("only admins and moderators can remove members")
		}
		target, err := memberRole(tx, communityID, memberID)
		if err != nil {
			return err
		}
		if target == "" {
			return errors.NotFound("member")
		}
		if target == models.CommunityRoleAdmin && role != models.CommunityRoleAdmin {
			return errors.Forbidden("only admins can remove an admin")
		}
		if err := tx.Where("community_id = ? AND user_id = ?", communityID, memberID).
			Delete(&models.CommunityMember{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Community{}).Where("id = ?", communityID).
			Update("members_count", database.DecrementExpr("members_count")).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"removed": memberID}, "member removed")
}

// GetMembershipStatus reports the viewer's membership in one community
// GET /api/v1/communities/:communityId/membership
func (h *Handlers) GetMembershipStatus(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	db := database.DB.WithContext(c.Request.Context())
	community, err := findCommunity(db, c.Param("communityId"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	role, err := memberRole(db, community.ID, userID)
	if err != nil {
		util.RespondInternalError(c, "failed to load membership", err)
		return
	}
	util.RespondOK(c, gin.H{"isMember": role != "", "role": role}, "")
}

// GetMyMemberships lists the viewer's memberships with each community attached
// GET /api/v1/communities/memberships
func (h *Handlers) GetMyMemberships(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	members := []*models.CommunityMember{}
	err := database.DB.WithContext(c.Request.Context()).
		Preload("Community").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&members).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load memberships", err)
		return
	}
	util.RespondOK(c, members, "")
}

func adminCount(tx *gorm.DB, communityID string) (int64, error) {
	var n int64
	err := tx.Model(&models.CommunityMember{}).
		Where("community_id = ? AND role = ?", communityID, models.CommunityRoleAdmin).
		Count(&n).Error
	return n, err
}
