package handlers

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/models"
)

func sessionCookies(w *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range w.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func (suite *HandlersTestSuite) register(addr, name string) string {
	w, env := suite.request(http.MethodPost, "/users/register", "", gin.H{
		"email":       addr,
		"fullName":    name,
		"dateOfBirth": gin.H{"day": 1, "month": 1, "year": 1990},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var body struct {
		UserID string `json:"userId"`
	}
	suite.decode(env, &body)
	suite.Require().NotEmpty(body.UserID)
	return body.UserID
}

// =============================================================================
// ACCOUNT LIFECYCLE
// =============================================================================

func (suite *HandlersTestSuite) TestRegisterVerifyAndLogin() {
	userID := suite.register("Dave@Example.com", "Dave")

	sent, ok := suite.mailer.Last("otp")
	suite.Require().True(ok)
	suite.Equal("dave@example.com", sent.To)

	w, _ := suite.request(http.MethodPost, "/users/verify-otp", "", gin.H{"email": "dave@example.com", "otp": "not-it"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Empty(sessionCookies(w))

	w, env := suite.request(http.MethodPost, "/users/verify-otp", "", gin.H{"email": "dave@example.com", "otp": sent.Value})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	cookies := sessionCookies(w)
	suite.Require().Contains(cookies, AccessTokenCookie)
	suite.Require().Contains(cookies, RefreshTokenCookie)
	suite.True(cookies[AccessTokenCookie].HttpOnly)
	suite.NotEmpty(cookies[AccessTokenCookie].Value)

	var verified struct {
		User        models.User `json:"user"`
		AccessToken string      `json:"accessToken"`
	}
	suite.decode(env, &verified)
	suite.Equal(userID, verified.User.ID)
	suite.True(verified.User.IsVerified)
	suite.NotEmpty(verified.AccessToken)

	_, hasWelcome := suite.mailer.Last("welcome")
	suite.True(hasWelcome)

	w, _ = suite.request(http.MethodPost, "/users/set-password", userID, gin.H{"password": "abc"})
	suite.Equal(http.StatusBadRequest, w.Code)
	w, _ = suite.request(http.MethodPost, "/users/set-password", userID, gin.H{"password": "hunter22"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, _ = suite.request(http.MethodPost, "/users/login", "", gin.H{"email": "dave@example.com", "password": "wrong-one"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w, env = suite.request(http.MethodPost, "/users/login", "", gin.H{"email": "dave@example.com", "password": "hunter22"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(sessionCookies(w), AccessTokenCookie)
	var login struct {
		Requires2FA bool `json:"requires2FA"`
	}
	suite.decode(env, &login)
	suite.False(login.Requires2FA)
}

func (suite *HandlersTestSuite) TestRegisterDuplicateEmail() {
	suite.register("erin@example.com", "Erin")

	w, env := suite.request(http.MethodPost, "/users/register", "", gin.H{
		"email":       "ERIN@example.com",
		"fullName":    "Erin Again",
		"dateOfBirth": gin.H{"day": 2, "month": 3, "year": 1991},
	})
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("CONFLICT", env.Code)
}

func (suite *HandlersTestSuite) TestRegisterRejectsBadInput() {
	w, _ := suite.request(http.MethodPost, "/users/register", "", gin.H{"fullName": "No Email"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w, env := suite.request(http.MethodPost, "/users/register", "", gin.H{
		"email":       "frank@example.com",
		"fullName":    "Frank",
		"dateOfBirth": gin.H{"day": 30, "month": 2, "year": 1990},
	})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("VALIDATION_ERROR", env.Code)
}

func (suite *HandlersTestSuite) TestLoginUnverifiedAccount() {
	suite.register("gail@example.com", "Gail")
	w, _ := suite.request(http.MethodPost, "/users/login", "", gin.H{"email": "gail@example.com", "password": "whatever"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestForgotPasswordNeverRevealsAccounts() {
	w, _ := suite.request(http.MethodPost, "/users/forgot-password", "", gin.H{"email": "nobody@example.com"})
	suite.Equal(http.StatusOK, w.Code)
	_, sent := suite.mailer.Last("password_reset")
	suite.False(sent)

	w, _ = suite.request(http.MethodPost, "/users/forgot-password", "", gin.H{"email": suite.alice.Email})
	suite.Equal(http.StatusOK, w.Code)
	reset, sent := suite.mailer.Last("password_reset")
	suite.Require().True(sent)

	w, _ = suite.request(http.MethodPost, "/users/reset-password", "", gin.H{"token": "bogus", "password": "brandnew1"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodPost, "/users/reset-password", "", gin.H{"token": reset.Value, "password": "brandnew1"})
	suite.Require().Equal(http.StatusOK, w.Code)

	// tokens are single use
	w, _ = suite.request(http.MethodPost, "/users/reset-password", "", gin.H{"token": reset.Value, "password": "brandnew2"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestLogoutClearsCookies() {
	w, _ := suite.request(http.MethodPost, "/users/logout", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	cookies := sessionCookies(w)
	suite.Require().Contains(cookies, AccessTokenCookie)
	suite.Empty(cookies[AccessTokenCookie].Value)
	suite.True(cookies[AccessTokenCookie].MaxAge < 0)
}
