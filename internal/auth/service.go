// Package auth owns the account lifecycle: registration with email OTP,
// password and username setup, login with lockout, two-factor codes,
// session tokens and password reset.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/zfogg/chirp/internal/email"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/repository"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Account policy
const (
	MaxLoginAttempts = 5
	LockDuration     = 30 * time.Minute
	MaxOTPRequests   = 5
	OTPBlockDuration = 30 * time.Minute
	OTPLength        = 6
	OTPLifetime      = 10 * time.Minute
	PasswordResetTTL = time.Hour
	// bcrypt rejects longer inputs
	maxPasswordBytes = 72
)

// DateOfBirth is submitted as separate fields by the sign-up form
type DateOfBirth struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Time returns the date at UTC midnight, or false if it is not a real calendar date
func (d DateOfBirth) Time() (time.Time, bool) {
	if d.Year < 1900 || d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return time.Time{}, false
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes Feb 30 into March; reject anything that moved
	if t.Day() != d.Day || int(t.Month()) != d.Month {
		return time.Time{}, false
	}
	return t, true
}

// RegisterRequest represents the sign-up form
type RegisterRequest struct {
	Email       string      `json:"email" binding:"required"`
	FullName    string      `json:"fullName" binding:"required,max=50"`
	DateOfBirth DateOfBirth `json:"dateOfBirth"`
}

// LoginRequest accepts either an email or a username
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is returned by every flow that ends in a session
type AuthResult struct {
	User         *models.User `json:"user,omitempty"`
	AccessToken  string       `json:"accessToken,omitempty"`
	RefreshToken string       `json:"refreshToken,omitempty"`

	// Set instead of tokens when the account has two-factor auth enabled
	Requires2FA    bool   `json:"requires2FA,omitempty"`
	UserID         string `json:"userId,omitempty"`
	TwoFactorToken string `json:"twoFactorToken,omitempty"`

	Tokens *TokenPair `json:"-"`
}

// TwoFactorSetup is shown once, when the user starts enabling 2FA
type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauthUrl"`
}

// Service handles all authentication operations
type Service struct {
	db      *gorm.DB
	users   repository.UserRepository
	tokens  *TokenIssuer
	revoked RevocationList
	mailer  email.Mailer
	now     func() time.Time
}

// NewService creates a new authentication service
func NewService(db *gorm.DB, tokens *TokenIssuer, revoked RevocationList, mailer email.Mailer) *Service {
	if revoked == nil {
		revoked = NewMemoryRevocationList()
	}
	if mailer == nil {
		mailer = email.LogMailer{}
	}
	return &Service{
		db:      db,
		users:   repository.NewUserRepository(db),
		tokens:  tokens,
		revoked: revoked,
		mailer:  mailer,
		now:     time.Now,
	}
}

// Users exposes the user repository to handlers that share it
func (s *Service) Users() repository.UserRepository {
	return s.users
}

// Register creates an unverified account and emails its first OTP
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	addr := strings.ToLower(strings.TrimSpace(req.Email))
	if !util.IsValidEmail(addr) {
		return nil, errors.ValidationError("email", "invalid email format")
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, errors.ValidationError("fullName", "full name is required")
	}
	dob, ok := req.DateOfBirth.Time()
	if !ok || dob.After(s.now()) {
		return nil, errors.ValidationError("dateOfBirth", "invalid date of birth")
	}

	taken, err := s.users.EmailTaken(ctx, addr)
	if err != nil {
		return nil, errors.Internal("failed to check email", err)
	}
	if taken {
		return nil, errors.Conflict("an account with this email already exists")
	}

	candidates, err := s.usernameCandidates(ctx, util.UsernameBase(fullName), 1)
	if err != nil {
		return nil, err
	}

	otp, otpHash, err := newOTP()
	if err != nil {
		return nil, errors.Internal("failed to generate OTP", err)
	}

	now := s.now()
	expires := now.Add(OTPLifetime)
	user := &models.User{
		Email:            addr,
		FullName:         fullName,
		Username:         candidates[0],
		DateOfBirth:      &dob,
		OTPHash:          &otpHash,
		OTPExpiresAt:     &expires,
		OTPRequests:      1,
		LastOTPRequestAt: &now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, errors.Internal("failed to create user", err)
	}

	if err := s.mailer.SendOTP(ctx, user.Email, user.FullName, otp); err != nil {
		return nil, errors.Internal("failed to send verification email, request a new code", err)
	}

	metrics.RecordAuthEvent("register")
	metrics.RecordAuthEvent("otp_sent")
	logger.Log.Info("User registered", logger.WithUserID(user.ID))
	return user, nil
}

// ResendOTP issues a new code, enforcing the per-account request budget.
// It returns how many requests remain before the account is blocked.
func (s *Service) ResendOTP(ctx context.Context, addr string) (int, error) {
	user, err := s.userByEmail(ctx, addr)
	if err != nil {
		return 0, err
	}
	if user.IsVerified {
		return 0, errors.BadRequest("email is already verified")
	}

	now := s.now()
	if user.OTPBlockedUntil != nil {
		if user.OTPBlockedUntil.After(now) {
			metrics.RecordAuthEvent("otp_blocked")
			return 0, errors.RateLimited(fmt.Sprintf("too many OTP requests, try again in %d minutes",
				minutesUntil(now, *user.OTPBlockedUntil)))
		}
		user.OTPBlockedUntil = nil
		user.OTPRequests = 0
	}

	if user.OTPRequests >= MaxOTPRequests {
		until := now.Add(OTPBlockDuration)
		user.OTPBlockedUntil = &until
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return 0, errors.Internal("failed to update user", err)
		}
		metrics.RecordAuthEvent("otp_blocked")
		return 0, errors.RateLimited(fmt.Sprintf("too many OTP requests, try again in %d minutes",
			int(OTPBlockDuration.Minutes())))
	}

	otp, otpHash, err := newOTP()
	if err != nil {
		return 0, errors.Internal("failed to generate OTP", err)
	}
	expires := now.Add(OTPLifetime)
	user.OTPHash = &otpHash
	user.OTPExpiresAt = &expires
	user.OTPRequests++
	user.LastOTPRequestAt = &now

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return 0, errors.Internal("failed to update user", err)
	}
	if err := s.mailer.SendOTP(ctx, user.Email, user.FullName, otp); err != nil {
		return 0, errors.Internal("failed to send verification email", err)
	}

	metrics.RecordAuthEvent("otp_sent")
	return MaxOTPRequests - user.OTPRequests, nil
}

// VerifyOTP checks the emailed code, marks the account verified and starts a session
func (s *Service) VerifyOTP(ctx context.Context, addr, otp string) (*AuthResult, error) {
	user, err := s.userByEmail(ctx, addr)
	if err != nil {
		return nil, err
	}
	if user.OTPHash == nil || user.OTPExpiresAt == nil {
		return nil, errors.BadRequest("no OTP found for this user, request a new one")
	}
	if s.now().After(*user.OTPExpiresAt) {
		return nil, errors.BadRequest("OTP has expired, request a new one")
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.OTPHash), []byte(strings.TrimSpace(otp))) != nil {
		metrics.RecordAuthEvent("otp_invalid")
		return nil, errors.BadRequest("invalid OTP")
	}

	user.IsVerified = true
	user.OTPHash = nil
	user.OTPExpiresAt = nil
	user.OTPRequests = 0
	user.OTPBlockedUntil = nil

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendWelcome(ctx, user.Email, user.FullName); err != nil {
		logger.Log.Warn("Failed to send welcome email", logger.WithUserID(user.ID), zap.Error(err))
	}
	metrics.RecordAuthEvent("verified")
	return result, nil
}

// SetPassword sets or replaces the password of a verified account
func (s *Service) SetPassword(ctx context.Context, userID, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsVerified {
		return errors.BadRequest("email is not verified, verify it before setting a password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("failed to hash password", err)
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return errors.Internal("failed to update password", err)
	}
	return nil
}

// DefaultUsernames suggests two unused usernames derived from the user's name
func (s *Service) DefaultUsernames(ctx context.Context, userID string) ([]string, error) {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsVerified {
		return nil, errors.BadRequest("email is not verified, verify it before choosing a username")
	}
	return s.usernameCandidates(ctx, util.UsernameBase(user.FullName), 2)
}

// SetUsername claims a username for the user
func (s *Service) SetUsername(ctx context.Context, userID, username string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if !util.IsValidUsername(username) {
		return nil, errors.ValidationError("username", "username must be 3-30 characters of a-z, 0-9 or _")
	}

	user, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsVerified {
		return nil, errors.BadRequest("email is not verified, verify it before choosing a username")
	}
	if user.Username == username {
		return user, nil
	}

	taken, err := s.users.UsernameTaken(ctx, username)
	if err != nil {
		return nil, errors.Internal("failed to check username", err)
	}
	if taken {
		return nil, errors.Conflict("username is already taken")
	}

	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"username": username}); err != nil {
		return nil, errors.Internal("failed to update username", err)
	}
	user.Username = username
	return user, nil
}

// Login checks credentials with lockout. Accounts with 2FA get a challenge instead of a session.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	identifier := strings.TrimSpace(req.Email)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" {
		return nil, errors.ValidationError("email", "email or username is required")
	}

	user, err := s.users.GetUserByLogin(ctx, identifier)
	if stderrors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, errors.Internal("failed to look up user", err)
	}
	if !user.IsVerified {
		return nil, errors.BadRequest("email is not verified, verify it before logging in")
	}
	if !user.HasPassword() {
		return nil, errors.BadRequest("no password is set for this account")
	}

	now := s.now()
	if err := s.checkLock(ctx, user, now); err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
		return nil, s.recordFailure(ctx, user, now, "invalid password")
	}

	user.LoginAttempts = 0
	user.IsLocked = false
	user.LockUntil = nil
	user.LastLoginAt = &now

	if user.TwoFactorEnabled {
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, errors.Internal("failed to update user", err)
		}
		challenge, err := s.tokens.IssueChallenge(user)
		if err != nil {
			return nil, errors.Internal("failed to start two-factor login", err)
		}
		return &AuthResult{Requires2FA: true, UserID: user.ID, TwoFactorToken: challenge}, nil
	}

	metrics.RecordAuthEvent("login_success")
	return s.startSession(ctx, user)
}

// CompleteTwoFactorLogin finishes a login that returned Requires2FA
func (s *Service) CompleteTwoFactorLogin(ctx context.Context, userID, challenge, code string) (*AuthResult, error) {
	subject, err := s.tokens.ParseChallenge(challenge)
	if err != nil || subject != userID {
		return nil, errors.Unauthorized("two-factor session expired, log in again")
	}
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return nil, errors.BadRequest("two-factor authentication is not enabled")
	}

	now := s.now()
	if err := s.checkLock(ctx, user, now); err != nil {
		return nil, err
	}
	if !validateTOTP(code, *user.TwoFactorSecret) {
		return nil, s.recordFailure(ctx, user, now, "invalid two-factor code")
	}

	user.LoginAttempts = 0
	metrics.RecordAuthEvent("login_success")
	return s.startSession(ctx, user)
}

// checkLock rejects a locked account, or clears a lock whose time has passed
func (s *Service) checkLock(ctx context.Context, user *models.User, now time.Time) error {
	if !user.IsLocked || user.LockUntil == nil {
		return nil
	}
	if user.LockUntil.After(now) {
		metrics.RecordAuthEvent("login_locked")
		return errors.AccountLocked(fmt.Sprintf("account is locked due to too many failed attempts, try again in %d minutes",
			minutesUntil(now, *user.LockUntil)))
	}
	user.IsLocked = false
	user.LoginAttempts = 0
	user.LockUntil = nil
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return errors.Internal("failed to update user", err)
	}
	return nil
}

// recordFailure counts a failed attempt and locks the account at MaxLoginAttempts
func (s *Service) recordFailure(ctx context.Context, user *models.User, now time.Time, reason string) error {
	user.LoginAttempts++
	locked := user.LoginAttempts >= MaxLoginAttempts
	if locked {
		until := now.Add(LockDuration)
		user.IsLocked = true
		user.LockUntil = &until
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return errors.Internal("failed to update user", err)
	}

	if locked {
		metrics.RecordAuthEvent("account_locked")
		logger.Log.Warn("Account locked after failed logins", logger.WithUserID(user.ID))
		return errors.BadRequest(fmt.Sprintf("too many failed attempts, account locked for %d minutes",
			int(LockDuration.Minutes())))
	}
	metrics.RecordAuthEvent("login_failure")
	return errors.BadRequest(fmt.Sprintf("%s, %d attempt(s) remaining", reason, MaxLoginAttempts-user.LoginAttempts))
}

// Refresh rotates both tokens. A refresh token is accepted once; rotation or
// logout invalidates it.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, errors.Unauthorized("refresh token is required")
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.users.GetUser(ctx, claims.Subject)
	if err != nil {
		return nil, errors.Unauthorized("invalid or expired refresh token")
	}
	if user.RefreshTokenHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.RefreshTokenHash), []byte(claims.ID)) != nil {
		metrics.RecordAuthEvent("refresh_reused")
		return nil, errors.Unauthorized("refresh token has been revoked")
	}

	metrics.RecordAuthEvent("token_refresh")
	return s.startSession(ctx, user)
}

// Logout forgets the refresh token and revokes the access token until it expires
func (s *Service) Logout(ctx context.Context, userID, accessJTI string, accessExpiresAt time.Time) error {
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"refresh_token_hash": nil}); err != nil &&
		!stderrors.Is(err, repository.ErrUserNotFound) {
		return errors.Internal("failed to log out", err)
	}
	if accessJTI != "" {
		if err := s.revoked.Revoke(ctx, accessJTI, accessExpiresAt); err != nil {
			logger.Log.Warn("Failed to revoke access token", logger.WithUserID(userID), zap.Error(err))
		}
	}
	metrics.RecordAuthEvent("logout")
	return nil
}

// Authenticate verifies an access token and loads its user
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Claims, *models.User, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, nil, errors.Unauthorized("invalid or expired access token")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, errors.ServiceUnavailable("session store")
	}
	if revoked {
		return nil, nil, errors.Unauthorized("access token has been revoked")
	}

	user, err := s.users.GetUser(ctx, claims.Subject)
	if stderrors.Is(err, repository.ErrUserNotFound) {
		return nil, nil, errors.Unauthorized("user no longer exists")
	}
	if err != nil {
		return nil, nil, errors.Internal("failed to load user", err)
	}
	return claims, user, nil
}

// ForgotPassword emails a reset link if the account exists. It never reveals whether it does.
func (s *Service) ForgotPassword(ctx context.Context, addr string) error {
	user, err := s.users.GetUserByEmail(ctx, addr)
	if stderrors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return errors.Internal("failed to look up user", err)
	}

	token, err := randomToken()
	if err != nil {
		return errors.Internal("failed to generate reset token", err)
	}
	reset := models.PasswordReset{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: s.now().Add(PasswordResetTTL),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return errors.Internal("failed to create reset token", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.FullName, token); err != nil {
		logger.Log.Error("Failed to send password reset email", logger.WithUserID(user.ID), zap.Error(err))
	}
	metrics.RecordAuthEvent("password_reset_requested")
	return nil
}

// ResetPassword consumes a reset token, sets the new password and ends every session
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("failed to hash password", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordReset
		err := tx.Where("token_hash = ? AND used = ? AND expires_at > ?", hashToken(token), false, s.now()).
			First(&reset).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.BadRequest("invalid or expired reset token")
		}
		if err != nil {
			return errors.Internal("failed to look up reset token", err)
		}

		err = tx.Model(&models.User{}).Where("id = ?", reset.UserID).Updates(map[string]interface{}{
			"password_hash":      string(hash),
			"refresh_token_hash": nil,
			"is_locked":          false,
			"login_attempts":     0,
			"lock_until":         nil,
		}).Error
		if err != nil {
			return errors.Internal("failed to update password", err)
		}

		if err := tx.Model(&reset).Update("used", true).Error; err != nil {
			return errors.Internal("failed to consume reset token", err)
		}
		metrics.RecordAuthEvent("password_reset")
		return nil
	})
}

// TwoFactorStatus reports whether 2FA is on for the user
func (s *Service) TwoFactorStatus(ctx context.Context, userID string) (bool, error) {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.TwoFactorEnabled, nil
}

// startSession issues a token pair and stores the refresh JTI hash on the user
func (s *Service) startSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, errors.Internal("failed to generate authentication tokens", err)
	}
	refreshHash, err := bcrypt.GenerateFromPassword([]byte(pair.RefreshJTI), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash refresh token", err)
	}
	hash := string(refreshHash)
	user.RefreshTokenHash = &hash

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, errors.Internal("failed to save session", err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Tokens:       pair,
	}, nil
}

func (s *Service) userByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if stderrors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, errors.Internal("failed to load user", err)
	}
	return user, nil
}

func (s *Service) userByEmail(ctx context.Context, addr string) (*models.User, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.ValidationError("email", "email is required")
	}
	user, err := s.users.GetUserByEmail(ctx, addr)
	if stderrors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, errors.Internal("failed to load user", err)
	}
	return user, nil
}

// usernameCandidates returns n unused usernames built from base: the base itself,
// then base plus a random number, then base plus a time-derived suffix
func (s *Service) usernameCandidates(ctx context.Context, base string, n int) ([]string, error) {
	var out []string
	for attempt := 0; len(out) < n && attempt < 20; attempt++ {
		var candidate string
		switch attempt {
		case 0:
			candidate = base
		case 1:
			candidate = fmt.Sprintf("%s%d", base, randomInt(1000))
		default:
			candidate = fmt.Sprintf("%s%04d%02d", base, s.now().UnixMilli()%10000, randomInt(100))
		}
		if !util.IsValidUsername(candidate) || slices.Contains(out, candidate) {
			continue
		}
		taken, err := s.users.UsernameTaken(ctx, candidate)
		if err != nil {
			return nil, errors.Internal("failed to check username", err)
		}
		if !taken {
			out = append(out, candidate)
		}
	}
	if len(out) < n {
		return nil, errors.InternalError("failed to generate a username")
	}
	return out, nil
}

func validatePassword(password string) error {
	if len(password) < util.MinPasswordLen {
		return errors.ValidationError("password", fmt.Sprintf("password must be at least %d characters", util.MinPasswordLen))
	}
	if len(password) > maxPasswordBytes {
		return errors.ValidationError("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}

// newOTP returns a zero-padded numeric code and its bcrypt hash
func newOTP() (string, string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(math.Pow10(OTPLength))))
	if err != nil {
		return "", "", err
	}
	otp := fmt.Sprintf("%0*d", OTPLength, n.Int64())
	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return otp, string(hash), nil
}

func randomInt(max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0
	}
	return n.Int64()
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashToken is a lookup key for reset tokens; they carry 256 bits so no salt or stretching is needed
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func minutesUntil(now, t time.Time) int {
	return int(math.Ceil(t.Sub(now).Minutes()))
}
