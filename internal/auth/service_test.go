package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/chirp/internal/config"
	"github.com/zfogg/chirp/internal/email"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/testutil"
	"gorm.io/gorm"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db     *gorm.DB
	mailer *email.MemoryMailer
	svc    *Service
	clock  time.Time
	ctx    context.Context
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

// SetupTest gives every test a fresh database and a controllable clock
func (s *AuthServiceTestSuite) SetupTest() {
	logger.InitializeForTests()
	s.db = testutil.NewTestDB(s.T())
	s.mailer = &email.MemoryMailer{}
	s.ctx = context.Background()

	issuer := NewTokenIssuer(config.AuthConfig{
		AccessTokenSecret:  "test-access-secret",
		RefreshTokenSecret: "test-refresh-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
	})
	s.svc = NewService(s.db, issuer, NewMemoryRevocationList(), s.mailer)
	s.clock = time.Now()
	s.svc.now = func() time.Time { return s.clock }
}

func (s *AuthServiceTestSuite) advance(d time.Duration) {
	s.clock = s.clock.Add(d)
}

func (s *AuthServiceTestSuite) requireStatus(err error, status int) *errors.APIError {
	s.Require().Error(err)
	apiErr, ok := errors.As(err)
	s.Require().True(ok, "expected an APIError, got %v", err)
	s.Require().Equal(status, apiErr.Status, apiErr.Message)
	return apiErr
}

func (s *AuthServiceTestSuite) register(addr, fullName string) *models.User {
	user, err := s.svc.Register(s.ctx, RegisterRequest{
		Email:       addr,
		FullName:    fullName,
		DateOfBirth: DateOfBirth{Day: 14, Month: 3, Year: 1995},
	})
	s.Require().NoError(err)
	return user
}

func (s *AuthServiceTestSuite) lastOTP() string {
	sent, ok := s.mailer.Last("otp")
	s.Require().True(ok, "no OTP email was sent")
	return sent.Value
}

// createAccount runs the whole sign-up flow and sets a password
func (s *AuthServiceTestSuite) createAccount(addr, fullName, password string) *models.User {
	user := s.register(addr, fullName)
	_, err := s.svc.VerifyOTP(s.ctx, addr, s.lastOTP())
	s.Require().NoError(err)
	s.Require().NoError(s.svc.SetPassword(s.ctx, user.ID, password))
	return user
}

func (s *AuthServiceTestSuite) reload(userID string) *models.User {
	var user models.User
	s.Require().NoError(s.db.First(&user, "id = ?", userID).Error)
	return &user
}

func (s *AuthServiceTestSuite) TestRegisterAndVerify() {
	user := s.register("Ada@Example.com", "Ada Lovelace")

	s.Equal("ada@example.com", user.Email)
	s.Equal("adalovelace", user.Username)
	s.False(user.IsVerified)
	s.Equal(1, user.OTPRequests)

	otp := s.lastOTP()
	s.Len(otp, OTPLength)

	_, err := s.svc.VerifyOTP(s.ctx, "ada@example.com", "000000x")
	s.requireStatus(err, http.StatusBadRequest)

	result, err := s.svc.VerifyOTP(s.ctx, "ada@example.com", otp)
	s.Require().NoError(err)
	s.NotEmpty(result.AccessToken)
	s.NotEmpty(result.RefreshToken)
	s.True(result.User.IsVerified)

	stored := s.reload(user.ID)
	s.True(stored.IsVerified)
	s.Nil(stored.OTPHash)
	s.Equal(0, stored.OTPRequests)
	s.NotNil(stored.RefreshTokenHash)

	_, welcomed := s.mailer.Last("welcome")
	s.True(welcomed)

	// The code is single use
	_, err = s.svc.VerifyOTP(s.ctx, "ada@example.com", otp)
	s.requireStatus(err, http.StatusBadRequest)
}

func (s *AuthServiceTestSuite) TestVerifyOTPExpires() {
	s.register("grace@example.com", "Grace Hopper")
	s.advance(OTPLifetime + time.Second)

	_, err := s.svc.VerifyOTP(s.ctx, "grace@example.com", s.lastOTP())
	apiErr := s.requireStatus(err, http.StatusBadRequest)
	s.Contains(apiErr.Message, "expired")
}

func (s *AuthServiceTestSuite) TestRegisterRejectsDuplicateEmail() {
	s.register("ada@example.com", "Ada Lovelace")

	_, err := s.svc.Register(s.ctx, RegisterRequest{
		Email:       "ADA@example.com",
		FullName:    "Someone Else",
		DateOfBirth: DateOfBirth{Day: 1, Month: 1, Year: 1990},
	})
	s.requireStatus(err, http.StatusConflict)
}

func (s *AuthServiceTestSuite) TestRegisterValidatesInput() {
	_, err := s.svc.Register(s.ctx, RegisterRequest{Email: "not-an-email", FullName: "X Y", DateOfBirth: DateOfBirth{Day: 1, Month: 1, Year: 1990}})
	s.Equal("email", s.requireStatus(err, http.StatusBadRequest).Field)

	_, err = s.svc.Register(s.ctx, RegisterRequest{Email: "x@example.com", FullName: "X Y", DateOfBirth: DateOfBirth{Day: 30, Month: 2, Year: 1990}})
	s.Equal("dateOfBirth", s.requireStatus(err, http.StatusBadRequest).Field)
}

func (s *AuthServiceTestSuite) TestResendOTPBlocksAfterThreshold() {
	s.register("ada@example.com", "Ada Lovelace")

	// Registration used the first of MaxOTPRequests
	for want := MaxOTPRequests - 2; want >= 0; want-- {
		remaining, err := s.svc.ResendOTP(s.ctx, "ada@example.com")
		s.Require().NoError(err)
		s.Equal(want, remaining)
	}

	_, err := s.svc.ResendOTP(s.ctx, "ada@example.com")
	s.requireStatus(err, http.StatusTooManyRequests)

	s.advance(10 * time.Minute)
	_, err = s.svc.ResendOTP(s.ctx, "ada@example.com")
	apiErr := s.requireStatus(err, http.StatusTooManyRequests)
	s.Contains(apiErr.Message, "20 minutes")

	s.advance(OTPBlockDuration)
	remaining, err := s.svc.ResendOTP(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(MaxOTPRequests-1, remaining)
}

func (s *AuthServiceTestSuite) TestResendOTPRejectsVerifiedAndUnknown() {
	s.createAccount("ada@example.com", "Ada Lovelace", "correct-horse")

	_, err := s.svc.ResendOTP(s.ctx, "ada@example.com")
	s.requireStatus(err, http.StatusBadRequest)

	_, err = s.svc.ResendOTP(s.ctx, "nobody@example.com")
	s.requireStatus(err, http.StatusNotFound)
}

func (s *AuthServiceTestSuite) TestLoginLocksAfterMaxAttempts() {
	user := s.createAccount("ada@example.com", "Ada Lovelace", "correct-horse")

	for i := 1; i < MaxLoginAttempts; i++ {
		_, err := s.svc.Login(s.ctx, LoginRequest{Email: "ada@example.com", Password: "wrong"})
		apiErr := s.requireStatus(err, http.StatusBadRequest)
		s.Contains(apiErr.Message, "attempt(s) remaining")
	}

	_, err := s.svc.Login(s.ctx, LoginRequest{Email: "ada@example.com", Password: "wrong"})
	apiErr := s.requireStatus(err, http.StatusBadRequest)
	s.Contains(apiErr.Message, "locked for 30 minutes")
	s.True(s.reload(user.ID).IsLocked)

	// Even the right password is refused while locked
	_, err = s.svc.Login(s.ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	apiErr = s.requireStatus(err, http.StatusForbidden)
	s.Equal(errors.ErrAccountLocked, apiErr.Code)

	s.advance(LockDuration + time.Minute)
	result, err := s.svc.Login(s.ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	s.Require().NoError(err)
	s.NotEmpty(result.AccessToken)

	stored := s.reload(user.ID)
	s.False(stored.IsLocked)
	s.Equal(0, stored.LoginAttempts)
	s.NotNil(stored.LastLoginAt)
}

func (s *AuthServiceTestSuite) TestLoginByUsernameAndErrors() {
	s.createAccount("ada@example.com", "Ada Lovelace", "correct-horse")

	_, err := s.svc.Login(s.ctx, LoginRequest{Username: "AdaLovelace", Password: "correct-horse"})
	s.Require().NoError(err)

	_, err = s.svc.Login(s.ctx, LoginRequest{Email: "nobody@example.com", Password: "x"})
	s.requireStatus(err, http.StatusNotFound)

	s.register("grace@example.com", "Grace Hopper")
	_, err = s.svc.Login(s.ctx, LoginRequest{Email: "grace@example.com", Password: "x"})
	s.requireStatus(err, http.StatusBadRequest)
}

func (s *AuthServiceTestSuite) TestRefreshRotatesTokens() {
	s.createAccount("ada@example.com", "Ada Lovelace", "correct-horse")
	login, err := s.svc.Login(s.ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	s.Require().NoError(err)

	rotated, err := s.svc.Refresh(s.ctx, login.RefreshToken)
	s.Require().NoError(err)
	s.NotEqual(login.RefreshToken, rotated.RefreshToken)

	// The old refresh token was replaced
	_, err = s.svc.Refresh(s.ctx, login.RefreshToken)
	s.requireStatus(err, http.StatusUnauthorized)

	// An access token is not a refresh token
	_, err = s.svc.Refresh(s.ctx, rotated.AccessToken)
	s.requireStatus(err, http.StatusUnauthorized)
}

func (s *AuthServiceTestSuite) TestLogoutRevokesTokens() {
	user := s.createAccount("ada@example.com", "Ada Lovelace", "correct-horse")
	login, err := s.svc.Login(s.ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	s.Require().NoError(err)

	claims, authed, err := s.svc.Authenticate(s.ctx, login.AccessToken)
	s.Require().NoError(err)
	s.Equal(user.ID, authed.ID)

	s.Require().NoError(s.svc.Logout(s.ctx, user.ID, claims.ID, claims.ExpiresAt.Time))

	_, _, err = s.svc.Authenticate(s.ctx, login.AccessToken)
	s.requireStatus(err, http.StatusUnauthorized)

	_, err = s.svc.Refresh(s.ctx, login.RefreshToken)
	s.requireStatus(err, http.StatusUnauthorized)
	s.Nil(s.reload(user.ID).RefreshTokenHash)
}

func (s *AuthServiceTestSuite) TestPasswordReset() {
	s.createAccount("ada@example.com", "Ada Lovelace", "correct-horse")

	s.Require().NoError(s.svc.ForgotPassword(s.ctx, "nobody@example.com"))
	_, sent := s.mailer.Last("password_reset")
	s.False(sent, "unknown emails must not trigger mail")

	s.Require().NoError(s.svc.ForgotPassword(s.ctx, "ada@example.com"))
	reset, sent := s.mailer.Last("password_reset")
	s.Require().True(sent)

	s.Require().NoError(s.svc.ResetPassword(s.ctx, reset.Value, "battery-staple"))

	_, err := s.svc.Login(s.ctx, LoginRequest{Email: "ada@example.com", Password: "battery-staple"})
	s.Require().NoError(err)

	// Single use
	err = s.svc.ResetPassword(s.ctx, reset.Value, "another-one")
	s.requireStatus(err, http.StatusBadRequest)
}

func (s *AuthServiceTestSuite) TestPasswordResetExpires() {
	s.createAccount("ada@example.com", "Ada Lovelace", "correct-horse")
	s.Require().NoError(s.svc.ForgotPassword(s.ctx, "ada@example.com"))
	reset, _ := s.mailer.Last("password_reset")

	s.advance(PasswordResetTTL + time.Minute)
	err := s.svc.ResetPassword(s.ctx, reset.Value, "battery-staple")
	s.requireStatus(err, http.StatusBadRequest)
}

func (s *AuthServiceTestSuite) TestTwoFactorLogin() {
	user := s.createAccount("ada@example.com", "Ada Lovelace", "correct-horse")

	setup, err := s.svc.EnableTwoFactor(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Contains(setup.URL, "otpauth://totp/")

	err = s.svc.VerifyTwoFactor(s.ctx, user.ID, "000000")
	s.requireStatus(err, http.StatusBadRequest)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.svc.VerifyTwoFactor(s.ctx, user.ID, code))

	enabled, err := s.svc.TwoFactorStatus(s.ctx, user.ID)
	s.Require().NoError(err)
	s.True(enabled)

	login, err := s.svc.Login(s.ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	s.Require().NoError(err)
	s.True(login.Requires2FA)
	s.Empty(login.AccessToken)
	s.Equal(user.ID, login.UserID)

	_, err = s.svc.CompleteTwoFactorLogin(s.ctx, user.ID, "forged", code)
	s.requireStatus(err, http.StatusUnauthorized)

	result, err := s.svc.CompleteTwoFactorLogin(s.ctx, user.ID, login.TwoFactorToken, code)
	s.Require().NoError(err)
	s.NotEmpty(result.AccessToken)

	s.Require().NoError(s.svc.DisableTwoFactor(s.ctx, user.ID, code))
	s.False(s.reload(user.ID).TwoFactorEnabled)
}

func (s *AuthServiceTestSuite) TestUsernames() {
	user := s.createAccount("ada@example.com", "Ada Lovelace", "correct-horse")
	other := s.createAccount("grace@example.com", "Grace Hopper", "correct-horse")

	suggestions, err := s.svc.DefaultUsernames(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Len(suggestions, 2)
	s.NotEqual(suggestions[0], suggestions[1])
	s.NotContains(suggestions, "adalovelace", "taken by the user already")

	_, err = s.svc.SetUsername(s.ctx, user.ID, "x!")
	s.Equal("username", s.requireStatus(err, http.StatusBadRequest).Field)

	_, err = s.svc.SetUsername(s.ctx, user.ID, other.Username)
	s.requireStatus(err, http.StatusConflict)

	updated, err := s.svc.SetUsername(s.ctx, user.ID, "Countess_Ada")
	s.Require().NoError(err)
	s.Equal("countess_ada", updated.Username)
}

func (s *AuthServiceTestSuite) TestSetPasswordRules() {
	user := s.register("ada@example.com", "Ada Lovelace")

	err := s.svc.SetPassword(s.ctx, user.ID, "short")
	s.Equal("password", s.requireStatus(err, http.StatusBadRequest).Field)

	err = s.svc.SetPassword(s.ctx, user.ID, "long-enough")
	apiErr := s.requireStatus(err, http.StatusBadRequest)
	s.Contains(apiErr.Message, "not verified")
}

func (s *AuthServiceTestSuite) TestLoginWithGoogle() {
	existing := s.createAccount("ada@example.com", "Ada Lovelace", "correct-horse")

	linked, err := s.svc.LoginWithGoogle(s.ctx, &GoogleUserInfo{Sub: "g-1", Email: "ada@example.com", EmailVerified: true, Name: "Ada"})
	s.Require().NoError(err)
	s.Equal(existing.ID, linked.User.ID)

	again, err := s.svc.LoginWithGoogle(s.ctx, &GoogleUserInfo{Sub: "g-1", Email: "changed@example.com", EmailVerified: true})
	s.Require().NoError(err)
	s.Equal(existing.ID, again.User.ID)

	created, err := s.svc.LoginWithGoogle(s.ctx, &GoogleUserInfo{Sub: "g-2", Email: "new@example.com", EmailVerified: true, Name: "New Person"})
	s.Require().NoError(err)
	s.True(created.User.IsVerified)
	s.Equal("newperson", created.User.Username)

	_, err = s.svc.LoginWithGoogle(s.ctx, &GoogleUserInfo{Sub: "g-3", Email: "x@example.com"})
	s.requireStatus(err, http.StatusForbidden)
}

func TestDateOfBirth(t *testing.T) {
	tests := []struct {
		name string
		dob  DateOfBirth
		ok   bool
	}{
		{"valid", DateOfBirth{Day: 14, Month: 3, Year: 1995}, true},
		{"leap day", DateOfBirth{Day: 29, Month: 2, Year: 2000}, true},
		{"not a leap year", DateOfBirth{Day: 29, Month: 2, Year: 2001}, false},
		{"february 30", DateOfBirth{Day: 30, Month: 2, Year: 1995}, false},
		{"month 13", DateOfBirth{Day: 1, Month: 13, Year: 1995}, false},
		{"zero", DateOfBirth{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.dob.Time()
			if ok != tt.ok {
				t.Errorf("Time() ok = %v, want %v", ok, tt.ok)
			}
		})
	}
}
