package api

import (
	"strings"

	"github.com/zfogg/chirp/cli/pkg/logger"
)

// Register creates an unverified account; the server emails a one-time code
func Register(email, fullName string, dob DateOfBirth) (string, error) {
	logger.Debug("Registering account", "email", email)
	var out struct {
		UserID string `json:"userId"`
	}
	_, err := send("POST", "/api/v1/users/register", map[string]interface{}{
		"email":       email,
		"fullName":    fullName,
		"dateOfBirth": dob,
	}, &out)
	return out.UserID, err
}

// ResendOTP asks for a fresh verification code
func ResendOTP(email string) (int, error) {
	var out struct {
		RemainingAttempts int `json:"remainingAttempts"`
	}
	_, err := send("POST", "/api/v1/users/resend-otp", map[string]string{"email": email}, &out)
	return out.RemainingAttempts, err
}

// VerifyOTP confirms the emailed code and starts a session
func VerifyOTP(email, otp string) (*AuthResult, error) {
	var out AuthResult
	if _, err := send("POST", "/api/v1/users/verify-otp", map[string]string{"email": email, "otp": otp}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates with an email or username. Accounts with two-factor
// auth get a challenge (Requires2FA) instead of tokens.
func Login(identifier, password string) (*AuthResult, error) {
	logger.Debug("Attempting login", "identifier", identifier)
	body := map[string]string{"password": password}
	if isEmail(identifier) {
		body["email"] = identifier
	} else {
		body["username"] = identifier
	}

	var out AuthResult
	if _, err := send("POST", "/api/v1/users/login", body, &out); err != nil {
		return nil, err
	}
	if out.User != nil {
		logger.Debug("Login successful", "username", out.User.Username)
	}
	return &out, nil
}

// LoginTwoFactor answers the challenge returned by Login
func LoginTwoFactor(userID, twoFactorToken, code string) (*AuthResult, error) {
	var out AuthResult
	_, err := send("POST", "/api/v1/users/login/2fa", map[string]string{
		"userId":         userID,
		"twoFactorToken": twoFactorToken,
		"code":           code,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates both tokens
func Refresh(refreshToken string) (*AuthResult, error) {
	logger.Debug("Refreshing access token")
	var out AuthResult
	if _, err := send("POST", "/api/v1/users/refresh-token", map[string]string{"refreshToken": refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the current access token on the server
func Logout() error {
	_, err := send("POST", "/api/v1/users/logout", nil, nil)
	return err
}

// GetCurrentUser gets the current authenticated user
func GetCurrentUser() (*User, error) {
	var user User
	if err := get("/api/v1/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ForgotPassword requests a reset email. The server answers the same way
// whether or not the account exists.
func ForgotPassword(email string) error {
	_, err := send("POST", "/api/v1/users/forgot-password", map[string]string{"email": email}, nil)
	return err
}

// ResetPassword spends a reset token
func ResetPassword(token, password string) error {
	_, err := send("POST", "/api/v1/users/reset-password", map[string]string{"token": token, "password": password}, nil)
	return err
}

// SetPassword sets the password of the logged in account
func SetPassword(password string) error {
	_, err := send("POST", "/api/v1/users/set-password", map[string]string{"password": password}, nil)
	return err
}

// DefaultUsernames returns suggested usernames for a fresh account
func DefaultUsernames() ([]string, error) {
	var out struct {
		Usernames []string `json:"usernames"`
	}
	err := get("/api/v1/users/default-usernames", nil, &out)
	return out.Usernames, err
}

// SetUsername claims a username
func SetUsername(username string) (*User, error) {
	var user User
	if _, err := send("POST", "/api/v1/users/set-username", map[string]string{"username": username}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TwoFactorStatus reports whether 2FA is on
func TwoFactorStatus() (bool, error) {
	var out struct {
		Enabled bool `json:"enabled"`
	}
	err := get("/api/v1/users/2fa/status", nil, &out)
	return out.Enabled, err
}

// EnableTwoFactor creates a pending secret; VerifyTwoFactor switches it on
func EnableTwoFactor() (*TwoFactorSetup, error) {
	var setup TwoFactorSetup
	if _, err := send("POST", "/api/v1/users/2fa/enable", nil, &setup); err != nil {
		return nil, err
	}
	return &setup, nil
}

// VerifyTwoFactor confirms a code against the pending secret
func VerifyTwoFactor(code string) error {
	_, err := send("POST", "/api/v1/users/2fa/verify", map[string]string{"code": code}, nil)
	return err
}

// DisableTwoFactor turns 2FA off with a current code
func DisableTwoFactor(code string) error {
	_, err := send("POST", "/api/v1/users/2fa/disable", map[string]string{"code": code}, nil)
	return err
}

func isEmail(s string) bool {
	return strings.Contains(s, "@")
}
