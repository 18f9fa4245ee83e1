package handlers

import (
	"context"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/auth"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/storage"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Register creates an unverified account and emails its OTP
// POST /api/v1/users/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondCreated(c, gin.H{"userId": user.ID}, "user registered, check your email for the verification code")
}

// ResendOTP sends a new verification code
// POST /api/v1/users/resend-otp
func (h *Handlers) ResendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}

	remaining, err := h.auth.ResendOTP(c.Request.Context(), req.Email)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"remainingAttempts": remaining}, "verification code sent")
}

// VerifyOTP verifies the account and starts a session
// POST /api/v1/users/verify-otp
func (h *Handlers) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}

	result, err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	h.setSessionCookies(c, result.Tokens)
	h.indexUser(c.Request.Context(), result.User)
	util.RespondOK(c, result, "email verified")
}

// SetPassword sets the password of the current user
// POST /api/v1/users/set-password
func (h *Handlers) SetPassword(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}

	if err := h.auth.SetPassword(c.Request.Context(), userID, req.Password); err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, nil, "password set")
}

// DefaultUsernames suggests unused usernames derived from the full name
// GET /api/v1/users/default-usernames
func (h *Handlers) DefaultUsernames(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	names, err := h.auth.DefaultUsernames(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"usernames": names}, "")
}

// SetUsername claims a username
// POST /api/v1/users/set-username
func (h *Handlers) SetUsername(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}

	user, err := h.auth.SetUsername(c.Request.Context(), userID, req.Username)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	h.indexUser(c.Request.Context(), user)
	util.RespondOK(c, user, "username updated")
}

// UploadProfileImage replaces the avatar
// POST /api/v1/users/profile-image
func (h *Handlers) UploadProfileImage(c *gin.Context) {
	h.uploadUserImage(c, "avatars", "avatar_url")
}

// UploadBannerImage replaces the banner
// POST /api/v1/users/banner-image
func (h *Handlers) UploadBannerImage(c *gin.Context) {
	h.uploadUserImage(c, "banners", "banner_url")
}

func (h *Handlers) uploadUserImage(c *gin.Context, prefix, column string) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		util.RespondValidationError(c, "image", "an image file is required")
		return
	}
	if err := util.ProfileImagePolicy.Validate([]*multipart.FileHeader{fh}); err != nil {
		util.RespondWithError(c, err)
		return
	}

	result, err := storage.UploadFile(c.Request.Context(), h.media, prefix, userID, fh, util.ContentTypeOf(fh))
	if err != nil {
		util.RespondInternalError(c, "failed to upload image", err)
		return
	}
	if err := h.auth.Users().UpdateFields(c.Request.Context(), userID, map[string]interface{}{column: result.URL}); err != nil {
		storage.DeleteAll(c.Request.Context(), h.media, []string{result.Key})
		util.RespondInternalError(c, "failed to save image", err)
		return
	}
	util.RespondOK(c, gin.H{"url": result.URL}, "image updated")
}

// UpdateProfile edits the public profile fields
// PUT /api/v1/users/profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req struct {
		FullName *string `json:"fullName" binding:"omitempty,min=1,max=50"`
		Bio      *string `json:"bio"`
		Location *string `json:"location"`
		Website  *string `json:"website"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}

	updates := map[string]interface{}{}
	checks := []struct {
		field  string
		column string
		value  *string
		max    int
	}{
		{"fullName", "full_name", req.FullName, 50},
		{"bio", "bio", req.Bio, util.MaxBioLength},
		{"location", "location", req.Location, util.MaxLocationLen},
		{"website", "website", req.Website, util.MaxWebsiteLen},
	}
	for _, f := range checks {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if utf8.RuneCountInString(v) > f.max {
			util.RespondValidationError(c, f.field, f.field+" is too long")
			return
		}
		updates[f.column] = v
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "no profile fields to update")
		return
	}

	if err := h.auth.Users().UpdateFields(c.Request.Context(), user.ID, updates); err != nil {
		util.RespondInternalError(c, "failed to update profile", err)
		return
	}
	updated, err := h.auth.Users().GetUser(c.Request.Context(), user.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to reload profile", err)
		return
	}
	h.indexUser(c.Request.Context(), updated)
	util.RespondOK(c, updated, "profile updated")
}

// Login checks credentials; accounts with 2FA get a challenge instead of cookies
// POST /api/v1/users/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	if result.Requires2FA {
		util.RespondOK(c, result, "two-factor code required")
		return
	}
	h.setSessionCookies(c, result.Tokens)
	util.RespondOK(c, result, "login successful")
}

// LoginTwoFactor completes a login that required a TOTP code
// POST /api/v1/users/login/2fa
func (h *Handlers) LoginTwoFactor(c *gin.Context) {
	var req struct {
		UserID         string `json:"userId" binding:"required"`
		Code           string `json:"code" binding:"required"`
		TwoFactorToken string `json:"twoFactorToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}

	result, err := h.auth.CompleteTwoFactorLogin(c.Request.Context(), req.UserID, req.TwoFactorToken, req.Code)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	h.setSessionCookies(c, result.Tokens)
	util.RespondOK(c, result, "login successful")
}

// RefreshToken rotates the session tokens
// POST /api/v1/users/refresh-token
func (h *Handlers) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(RefreshTokenCookie)
	if token == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = c.ShouldBindJSON(&body)
		token = body.RefreshToken
	}

	result, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	h.setSessionCookies(c, result.Tokens)
	util.RespondOK(c, result, "tokens refreshed")
}

// Logout forgets the refresh token and revokes the current access token
// POST /api/v1/users/logout
func (h *Handlers) Logout(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	jti := c.GetString(util.ContextTokenJTI)
	var exp time.Time
	if v, exists := c.Get(util.ContextTokenExp); exists {
		exp, _ = v.(time.Time)
	}

	if err := h.auth.Logout(c.Request.Context(), userID, jti, exp); err != nil {
		util.RespondWithError(c, err)
		return
	}
	h.clearSessionCookies(c)
	util.RespondOK(c, nil, "logged out")
}

// Me returns the current user
// GET /api/v1/users/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	util.RespondOK(c, user, "")
}

// GetUser returns a public profile with an isFollowing flag
// GET /api/v1/users/:userId
func (h *Handlers) GetUser(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", c.Param("userId")).Error; err != nil {
		util.HandleDBError(c, err, "user")
		return
	}

	if user.ID != viewerID {
		user.Email = ""
		following, err := h.auth.Users().IsFollowing(c.Request.Context(), viewerID, user.ID)
		if err != nil {
			util.RespondInternalError(c, "failed to load follow state", err)
			return
		}
		user.IsFollowing = following
	}
	util.RespondOK(c, &user, "")
}

// ForgotPassword emails a reset link; the response never reveals whether the account exists
// POST /api/v1/users/forgot-password
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, nil, "if that account exists, a reset link has been sent")
}

// ResetPassword consumes a reset token
// POST /api/v1/users/reset-password
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, nil, "password has been reset")
}

// SearchUsers finds verified users by username or name
// GET /api/v1/users/search?q=
func (h *Handlers) SearchUsers(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}
	page := util.ParsePage(c, 10, 50)

	var users []*models.User
	var total int64
	if ids, n, ok := h.searchUserIDs(c, q, page); ok {
		total = n
		if len(ids) > 0 {
			found, err := h.auth.Users().GetUsers(c.Request.Context(), ids)
			if err != nil {
				util.RespondInternalError(c, "failed to load users", err)
				return
			}
			users = orderUsers(found, ids)
		}
	} else {
		pattern := "%" + strings.ToLower(q) + "%"
		query := database.DB.WithContext(c.Request.Context()).Model(&models.User{}).
			Where("is_verified = ? AND (LOWER(username) LIKE ? OR LOWER(full_name) LIKE ?)", true, pattern, pattern)
		if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			util.RespondInternalError(c, "failed to search users", err)
			return
		}
		if err := query.Session(&gorm.Session{}).Scopes(models.SummaryScope).
			Order("followers_count DESC, username ASC").
			Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
			util.RespondInternalError(c, "failed to search users", err)
			return
		}
	}

	if err := h.annotateFollowing(c, viewerID, users); err != nil {
		util.RespondInternalError(c, "failed to load follow state", err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	util.RespondOK(c, gin.H{"users": users, "pagination": util.NewPagination(page, total)}, "")
}

func (h *Handlers) searchUserIDs(c *gin.Context, q string, page util.Page) ([]string, int64, bool) {
	if h.search == nil {
		return nil, 0, false
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), searchTimeout)
	defer cancel()
	result, err := h.search.SearchUsers(ctx, q, page.Limit, page.Offset())
	if err != nil {
		logger.Log.Warn("User search failed, falling back to SQL", zap.Error(err))
		metrics.Get().SearchRequestsTotal.WithLabelValues("sql", "fallback").Inc()
		return nil, 0, false
	}
	return result.IDs, result.Total, true
}

func orderUsers(users []*models.User, ids []string) []*models.User {
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			u.Email = ""
			ordered = append(ordered, u)
		}
	}
	return ordered
}

// annotateFollowing sets IsFollowing on each user relative to the viewer
func (h *Handlers) annotateFollowing(c *gin.Context, viewerID string, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	set, err := h.auth.Users().FollowingSet(c.Request.Context(), viewerID, ids)
	if err != nil {
		return err
	}
	for _, u := range users {
		u.IsFollowing = set[u.ID]
	}
	return nil
}
