package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/zfogg/chirp/internal/config"
	"github.com/zfogg/chirp/internal/models"
)

const (
	tokenIssuer       = "chirp"
	challengeAudience = "2fa"
	challengeTTL      = 5 * time.Minute
)

// Claims is shared by access and refresh tokens. Subject is the user ID and ID is the JTI.
type Claims struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is a freshly signed access and refresh token
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessJTI        string
	RefreshJTI       string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenIssuer signs and verifies session tokens. Access and refresh tokens use separate
// HS256 secrets so one can never be presented as the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer creates a TokenIssuer from the auth config
func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}
}

// IssueChallenge signs a short-lived token proving the password step of a 2FA login passed
func (t *TokenIssuer) IssueChallenge(user *models.User) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   user.ID,
		Audience:  jwt.ClaimStrings{challengeAudience},
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(challengeTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.challengeSecret())
	if err != nil {
		return "", fmt.Errorf("failed to sign challenge: %w", err)
	}
	return signed, nil
}

// ParseChallenge returns the user ID of a valid 2FA challenge
func (t *TokenIssuer) ParseChallenge(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.challengeSecret(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(challengeAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("invalid challenge: %w", err)
	}
	return claims.Subject, nil
}

func (t *TokenIssuer) challengeSecret() []byte {
	secret := make([]byte, 0, len(t.accessSecret)+len(challengeAudience)+1)
	secret = append(secret, t.accessSecret...)
	return append(secret, ":"+challengeAudience...)
}

// Issue signs a new access and refresh token for the user
func (t *TokenIssuer) Issue(user *models.User) (*TokenPair, error) {
	now := t.now()
	pair := &TokenPair{
		AccessJTI:        uuid.New().String(),
		RefreshJTI:       uuid.New().String(),
		AccessExpiresAt:  now.Add(t.accessTTL),
		RefreshExpiresAt: now.Add(t.refreshTTL),
	}

	access := Claims{
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			ID:        pair.AccessJTI,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(pair.AccessExpiresAt),
		},
	}
	refresh := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			ID:        pair.RefreshJTI,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(pair.RefreshExpiresAt),
		},
	}

	var err error
	pair.AccessToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(t.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	pair.RefreshToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(t.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return pair, nil
}

// ParseAccess verifies an access token and returns its claims
func (t *TokenIssuer) ParseAccess(tokenString string) (*Claims, error) {
	return t.parse(tokenString, t.accessSecret)
}

// ParseRefresh verifies a refresh token and returns its claims
func (t *TokenIssuer) ParseRefresh(tokenString string) (*Claims, error) {
	return t.parse(tokenString, t.refreshSecret)
}

func (t *TokenIssuer) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
