package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zfogg/chirp/internal/config"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/repository"
	"github.com/zfogg/chirp/internal/telemetry"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	jsoniter "github.com/json-iterator/go"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleUserInfo represents Google OAuth user response
type GoogleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleOAuth runs the authorization-code flow against Google
type GoogleOAuth struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogleOAuth returns nil when Google sign-in is not configured
func NewGoogleOAuth(cfg config.OAuthConfig) *GoogleOAuth {
	if !cfg.GoogleEnabled() {
		return nil
	}
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		httpClient:  telemetry.NewInstrumentedHTTPClient(10 * time.Second),
	}
}

// AuthURL returns Google OAuth authorization URL
func (g *GoogleOAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the user's Google profile
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*GoogleUserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	resp, err := g.config.Client(ctx, token).Get(g.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := jsoniter.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.Sub == "" || info.Email == "" {
		return nil, fmt.Errorf("incomplete user info from Google")
	}
	return &info, nil
}

// LoginWithGoogle links the Google identity to an account, creating a verified one if needed.
// Accounts are unified by email.
func (s *Service) LoginWithGoogle(ctx context.Context, info *GoogleUserInfo) (*AuthResult, error) {
	if !info.EmailVerified {
		return nil, errors.Forbidden("google account email is not verified")
	}

	user, err := s.users.GetUserByGoogleID(ctx, info.Sub)
	switch {
	case err == nil:
		metrics.RecordAuthEvent("login_success")
		return s.startSession(ctx, user)
	case !stderrors.Is(err, repository.ErrUserNotFound):
		return nil, errors.Internal("failed to look up user", err)
	}

	googleID := info.Sub
	user, err = s.users.GetUserByEmail(ctx, info.Email)
	switch {
	case err == nil:
		logger.Log.Info("Linking Google account to existing user", logger.WithUserID(user.ID))
		user.GoogleID = &googleID
		user.IsVerified = true
		if user.AvatarURL == "" {
			user.AvatarURL = info.Picture
		}
		metrics.RecordAuthEvent("login_success")
		return s.startSession(ctx, user)
	case !stderrors.Is(err, repository.ErrUserNotFound):
		return nil, errors.Internal("failed to look up user", err)
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = strings.Split(info.Email, "@")[0]
	}
	candidates, err := s.usernameCandidates(ctx, util.UsernameBase(name), 1)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		Email:      info.Email,
		FullName:   name,
		Username:   candidates[0],
		AvatarURL:  info.Picture,
		IsVerified: true,
		GoogleID:   &googleID,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, errors.Internal("failed to create user", err)
	}
	logger.Log.Info("User registered with Google", logger.WithUserID(user.ID), zap.String("username", user.Username))
	metrics.RecordAuthEvent("register")
	return s.startSession(ctx, user)
}
