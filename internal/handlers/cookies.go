package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/auth"
)

// Session cookie names
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieSettings controls the attributes of the session cookies
type CookieSettings struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// DefaultCookieSettings is HttpOnly, Secure and SameSite=None so a frontend on
// another origin can send the cookies with credentials.
func DefaultCookieSettings() CookieSettings {
	return CookieSettings{Secure: true, SameSite: http.SameSiteNoneMode}
}

func (h *Handlers) setSessionCookies(c *gin.Context, tokens *auth.TokenPair) {
	if tokens == nil {
		return
	}
	now := time.Now()
	h.setCookie(c, AccessTokenCookie, tokens.AccessToken, int(tokens.AccessExpiresAt.Sub(now).Seconds()))
	h.setCookie(c, RefreshTokenCookie, tokens.RefreshToken, int(tokens.RefreshExpiresAt.Sub(now).Seconds()))
}

func (h *Handlers) clearSessionCookies(c *gin.Context) {
	h.setCookie(c, AccessTokenCookie, "", -1)
	h.setCookie(c, RefreshTokenCookie, "", -1)
}

func (h *Handlers) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(h.cookies.SameSite)
	c.SetCookie(name, value, maxAge, "/", h.cookies.Domain, h.cookies.Secure, true)
}
