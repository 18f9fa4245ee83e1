package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/zfogg/chirp/cli/pkg/api"
	"github.com/zfogg/chirp/cli/pkg/client"
	"github.com/zfogg/chirp/cli/pkg/credentials"
	"github.com/zfogg/chirp/cli/pkg/formatter"
	"github.com/zfogg/chirp/cli/pkg/logger"
	"github.com/zfogg/chirp/cli/pkg/prompter"
)

type AuthService struct{}

// NewAuthService creates a new auth service
func NewAuthService() *AuthService {
	return &AuthService{}
}

// Register creates an account, verifies the emailed code, then sets a
// password and username so the account can log in again later.
func (s *AuthService) Register() error {
	email, err := promptRequired("Email: ")
	if err != nil {
		return err
	}
	fullName, err := promptRequired("Full name: ")
	if err != nil {
		return err
	}
	dobRaw, err := promptRequired("Date of birth (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	dob, err := time.Parse("2006-01-02", dobRaw)
	if err != nil {
		return fmt.Errorf("date of birth must look like 1990-01-31")
	}

	client.Init()
	formatter.PrintInfo("Creating account...")
	if _, err := api.Register(email, fullName, api.DateOfBirth{Day: dob.Day(), Month: int(dob.Month()), Year: dob.Year()}); err != nil {
		formatter.PrintError("Registration failed: %v", err)
		return err
	}
	formatter.PrintSuccess("Check %s for a verification code.", email)

	result, err := s.verify(email)
	if err != nil {
		return err
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	if err := api.SetPassword(password); err != nil {
		formatter.PrintError("Failed to set password: %v", err)
		return err
	}

	username, err := chooseUsername(result.User.Handle())
	if err != nil {
		return err
	}
	if username != "" {
		user, err := api.SetUsername(username)
		if err != nil {
			formatter.PrintError("Failed to set username: %v", err)
			return err
		}
		result.User = user
		_ = saveSession(result, nil)
	}

	formatter.PrintSuccess("Welcome to Chirp, %s!", result.User.Handle())
	return nil
}

func (s *AuthService) verify(email string) (*api.AuthResult, error) {
	for {
		otp, err := prompter.PromptString("Verification code (blank to resend): ")
		if err != nil {
			return nil, err
		}
		if otp == "" {
			remaining, err := api.ResendOTP(email)
			if err != nil {
				formatter.PrintError("Could not resend code: %v", err)
				return nil, err
			}
			formatter.PrintInfo("Code sent again (%d resends left).", remaining)
			continue
		}

		result, err := api.VerifyOTP(email, otp)
		if err != nil {
			formatter.PrintError("Verification failed: %v", err)
			retry, perr := prompter.PromptConfirm("Try again?")
			if perr != nil || !retry {
				return nil, err
			}
			continue
		}
		if err := saveSession(result, nil); err != nil {
			return nil, err
		}
		formatter.PrintSuccess("Email verified.")
		return result, nil
	}
}

// Login handles user login, including the two-factor challenge
func (s *AuthService) Login() error {
	creds, err := credentials.Load()
	if err != nil {
		logger.Error("Failed to load credentials", "error", err)
		return err
	}
	if creds != nil && creds.IsValid() {
		formatter.PrintWarning("Already logged in as @%s", creds.Username)
		confirm, err := prompter.PromptConfirm("Continue with new login?")
		if err != nil || !confirm {
			return err
		}
	}

	identifier, err := promptRequired("Email or username: ")
	if err != nil {
		return err
	}
	password, err := prompter.PromptPassword("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	client.Init()
	formatter.PrintInfo("Authenticating...")
	result, err := api.Login(identifier, password)
	if err != nil {
		formatter.PrintError("Login failed: %v", err)
		return err
	}

	if result.Requires2FA {
		code, err := promptRequired("Authenticator code: ")
		if err != nil {
			return err
		}
		result, err = api.LoginTwoFactor(result.UserID, result.TwoFactorToken, code)
		if err != nil {
			formatter.PrintError("Two-factor verification failed: %v", err)
			return err
		}
	}

	if err := saveSession(result, nil); err != nil {
		formatter.PrintError("Failed to save credentials: %v", err)
		return err
	}

	formatter.PrintSuccess("Login successful!")
	if result.User.IsAdmin() {
		formatter.PrintInfo("Logged in as %s (ADMIN)", formatter.Bold.Sprint(result.User.Handle()))
	} else {
		formatter.PrintInfo("Logged in as %s", formatter.Bold.Sprint(result.User.Handle()))
	}
	return nil
}

// Logout revokes the session on the server and forgets it locally
func (s *AuthService) Logout() error {
	creds, err := credentials.Load()
	if err != nil {
		return err
	}
	if creds == nil {
		formatter.PrintWarning("Not logged in")
		return nil
	}

	if _, err := RequireSession(); err == nil {
		if err := api.Logout(); err != nil {
			logger.Warn("Server logout failed, removing local credentials anyway", "error", err)
		}
	}
	if err := credentials.Delete(); err != nil {
		formatter.PrintError("Failed to delete credentials: %v", err)
		return err
	}
	client.ClearAuthToken()

	formatter.PrintSuccess("Logged out successfully")
	return nil
}

// GetMe shows the current user
func (s *AuthService) GetMe() error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	user, err := api.GetCurrentUser()
	if err != nil {
		if api.IsUnauthorized(err) {
			_ = credentials.Delete()
		}
		return err
	}
	return show("user", user, func() { printProfile(user) })
}

// RefreshToken rotates the saved tokens
func (s *AuthService) RefreshToken() error {
	creds, err := credentials.Load()
	if err != nil {
		return err
	}
	if creds == nil || !creds.CanRefresh() {
		return fmt.Errorf("not logged in")
	}
	if err := refresh(creds); err != nil {
		return err
	}
	formatter.PrintSuccess("Session refreshed")
	return nil
}

// ForgotPassword requests a reset email
func (s *AuthService) ForgotPassword() error {
	email, err := promptRequired("Email: ")
	if err != nil {
		return err
	}
	if err := api.ForgotPassword(email); err != nil {
		return err
	}
	formatter.PrintSuccess("If an account exists for %s, a reset link is on its way.", email)
	return nil
}

// ResetPassword spends the token from the reset email
func (s *AuthService) ResetPassword() error {
	token, err := promptRequired("Reset token: ")
	if err != nil {
		return err
	}
	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	if err := api.ResetPassword(token, password); err != nil {
		formatter.PrintError("Reset failed: %v", err)
		return err
	}
	formatter.PrintSuccess("Password updated. Log in with 'chirp auth login'.")
	return nil
}

// TwoFactorStatus shows whether 2FA is on
func (s *AuthService) TwoFactorStatus() error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	enabled, err := api.TwoFactorStatus()
	if err != nil {
		return err
	}
	if enabled {
		formatter.PrintSuccess("Two-factor authentication is enabled")
	} else {
		formatter.PrintInfo("Two-factor authentication is disabled")
	}
	return nil
}

// EnableTwoFactor walks through pairing an authenticator app
func (s *AuthService) EnableTwoFactor() error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	setup, err := api.EnableTwoFactor()
	if err != nil {
		return err
	}
	formatter.PrintInfo("Add this account to your authenticator app:")
	formatter.PrintKeyValue(map[string]interface{}{
		"Secret": setup.Secret,
		"URL":    setup.URL,
	})
	code, err := promptRequired("Code from the app: ")
	if err != nil {
		return err
	}
	if err := api.VerifyTwoFactor(code); err != nil {
		formatter.PrintError("Verification failed: %v", err)
		return err
	}
	formatter.PrintSuccess("Two-factor authentication enabled")
	return nil
}

// DisableTwoFactor turns 2FA off
func (s *AuthService) DisableTwoFactor() error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	code, err := promptRequired("Current authenticator code: ")
	if err != nil {
		return err
	}
	if err := api.DisableTwoFactor(code); err != nil {
		return err
	}
	formatter.PrintSuccess("Two-factor authentication disabled")
	return nil
}

// chooseUsername offers the server's suggestions; blank keeps the current handle
func chooseUsername(current string) (string, error) {
	suggestions, err := api.DefaultUsernames()
	if err != nil || len(suggestions) == 0 {
		name, err := prompter.PromptString("Username (blank keeps " + current + "): ")
		return strings.TrimPrefix(name, "@"), err
	}
	options := append(append([]string{}, suggestions...), "something else")
	idx, err := prompter.PromptSelect("Pick a username (blank keeps "+current+"):", options)
	switch {
	case err != nil:
		return "", err
	case idx < 0:
		return "", nil
	case idx < len(suggestions):
		return suggestions[idx], nil
	}
	name, err := promptRequired("Username: ")
	return strings.TrimPrefix(name, "@"), err
}

func promptRequired(label string) (string, error) {
	value, err := prompter.PromptString(label)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.ToLower(strings.TrimSuffix(strings.TrimSpace(label), ":")))
	}
	return value, nil
}

func promptNewPassword() (string, error) {
	password, err := prompter.PromptPassword("New password: ")
	if err != nil {
		return "", err
	}
	confirm, err := prompter.PromptPassword("Repeat password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}
