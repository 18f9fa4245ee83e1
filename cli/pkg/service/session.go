package service

import (
	"fmt"
	"time"

	"github.com/zfogg/chirp/cli/pkg/api"
	"github.com/zfogg/chirp/cli/pkg/client"
	"github.com/zfogg/chirp/cli/pkg/credentials"
	clierrors "github.com/zfogg/chirp/cli/pkg/errors"
	"github.com/zfogg/chirp/cli/pkg/logger"
)

// refreshSkew refreshes a little before the access token actually expires
const refreshSkew = 30 * time.Second

// RequireSession loads saved credentials, refreshing the access token when it
// is about to expire, and installs it on the HTTP client.
func RequireSession() (*credentials.Credentials, error) {
	creds, err := credentials.Load()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil || creds.AccessToken == "" {
		return nil, clierrors.AuthError("Not logged in")
	}

	if time.Now().Add(refreshSkew).After(creds.ExpiresAt) {
		if !creds.CanRefresh() {
			return nil, clierrors.SessionExpiredError()
		}
		if err := refresh(creds); err != nil {
			return nil, err
		}
	}

	client.SetAuthToken(creds.AccessToken)
	return creds, nil
}

func refresh(creds *credentials.Credentials) error {
	logger.Debug("Refreshing token")
	result, err := api.Refresh(creds.RefreshToken)
	if err != nil {
		if api.IsUnauthorized(err) {
			_ = credentials.Delete()
			return clierrors.SessionExpiredError()
		}
		return err
	}
	return saveSession(result, creds)
}

// saveSession stores the tokens of an AuthResult. prev keeps the user fields
// when the result carries no user (token refresh).
func saveSession(result *api.AuthResult, prev *credentials.Credentials) error {
	creds := &credentials.Credentials{}
	if prev != nil {
		*creds = *prev
	}
	creds.AccessToken = result.AccessToken
	if result.RefreshToken != "" {
		creds.RefreshToken = result.RefreshToken
	}

	exp, err := credentials.TokenExpiry(result.AccessToken)
	if err != nil {
		logger.Warn("Could not read token expiry, assuming 15 minutes", "error", err)
		exp = time.Now().Add(15 * time.Minute)
	}
	creds.ExpiresAt = exp

	if u := result.User; u != nil {
		creds.UserID = u.ID
		creds.Username = u.Username
		creds.Email = u.Email
		creds.IsAdmin = u.IsAdmin()
	}

	if err := credentials.Save(creds); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	client.SetAuthToken(creds.AccessToken)
	return nil
}
