package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
)

type twoFactorCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// TwoFactorStatus reports whether 2FA is enabled
// GET /api/v1/users/2fa/status
func (h *Handlers) TwoFactorStatus(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	enabled, err := h.auth.TwoFactorStatus(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"enabled": enabled}, "")
}

// EnableTwoFactor generates a TOTP secret; 2FA turns on once a code is verified
// POST /api/v1/users/2fa/enable
func (h *Handlers) EnableTwoFactor(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	setup, err := h.auth.EnableTwoFactor(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, setup, "scan the code with your authenticator app, then verify")
}

// VerifyTwoFactor switches 2FA on after checking a code against the pending secret
// POST /api/v1/users/2fa/verify
func (h *Handlers) VerifyTwoFactor(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req twoFactorCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}
	if err := h.auth.VerifyTwoFactor(c.Request.Context(), userID, req.Code); err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"enabled": true}, "two-factor authentication enabled")
}

// DisableTwoFactor turns 2FA off; a current code is required
// POST /api/v1/users/2fa/disable
func (h *Handlers) DisableTwoFactor(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req twoFactorCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}
	if err := h.auth.DisableTwoFactor(c.Request.Context(), userID, req.Code); err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"enabled": false}, "two-factor authentication disabled")
}

const oauthStateCookie = "oauthState"

// GoogleLogin redirects to Google's consent screen
// GET /api/v1/users/google/login
func (h *Handlers) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		util.RespondWithAPIError(c, errors.ServiceUnavailable("google sign-in"))
		return
	}
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		util.RespondInternalError(c, "failed to start google sign-in", err)
		return
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.Redirect(http.StatusTemporaryRedirect, h.google.AuthURL(state))
}

// GoogleCallback finishes Google sign-in, sets the session cookies and
// redirects to the frontend
// GET /api/v1/users/google/callback
func (h *Handlers) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		util.RespondWithAPIError(c, errors.ServiceUnavailable("google sign-in"))
		return
	}
	expected, _ := c.Cookie(oauthStateCookie)
	if expected == "" || c.Query("state") != expected {
		util.RespondBadRequest(c, "invalid oauth state")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)

	code := c.Query("code")
	if code == "" {
		util.RespondValidationError(c, "code", "authorization code is required")
		return
	}

	info, err := h.google.Exchange(c.Request.Context(), code)
	if err != nil {
		logger.Log.Warn("Google code exchange failed", zap.Error(err))
		util.RespondUnauthorized(c, "google sign-in failed")
		return
	}
	result, err := h.auth.LoginWithGoogle(c.Request.Context(), info)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	h.setSessionCookies(c, result.Tokens)
	h.indexUser(c.Request.Context(), result.User)
	c.Redirect(http.StatusTemporaryRedirect, h.oauth.FrontendURL)
}
