package auth

import (
	"context"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/zfogg/chirp/internal/errors"
)

const totpIssuer = "Chirp"

// validateTOTP accepts the current 30s step plus one step of clock skew either way
func validateTOTP(code, secret string) bool {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	valid, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}

// EnableTwoFactor generates a secret for the user. 2FA stays off until VerifyTwoFactor
// confirms the authenticator app produces matching codes.
func (s *Service) EnableTwoFactor(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, errors.BadRequest("two-factor authentication is already enabled")
	}

	account := user.Email
	if account == "" {
		account = user.Username
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: account,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, errors.Internal("failed to generate two-factor secret", err)
	}

	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"two_factor_secret": key.Secret()}); err != nil {
		return nil, errors.Internal("failed to save two-factor secret", err)
	}

	return &TwoFactorSetup{Secret: key.Secret(), URL: key.URL()}, nil
}

// VerifyTwoFactor switches 2FA on once the user proves their app is set up
func (s *Service) VerifyTwoFactor(ctx context.Context, userID, code string) error {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorEnabled {
		return errors.BadRequest("two-factor authentication is already enabled")
	}
	if user.TwoFactorSecret == nil {
		return errors.BadRequest("start two-factor setup first")
	}
	if !validateTOTP(code, *user.TwoFactorSecret) {
		return errors.ValidationError("code", "invalid two-factor code")
	}

	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"two_factor_enabled": true}); err != nil {
		return errors.Internal("failed to enable two-factor authentication", err)
	}
	return nil
}

// DisableTwoFactor turns 2FA off. A current code is required.
func (s *Service) DisableTwoFactor(ctx context.Context, userID, code string) error {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return errors.BadRequest("two-factor authentication is not enabled")
	}
	if !validateTOTP(code, *user.TwoFactorSecret) {
		return errors.ValidationError("code", "invalid two-factor code")
	}

	err = s.users.UpdateFields(ctx, userID, map[string]interface{}{
		"two_factor_enabled": false,
		"two_factor_secret":  nil,
	})
	if err != nil {
		return errors.Internal("failed to disable two-factor authentication", err)
	}
	return nil
}
