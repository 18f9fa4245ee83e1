package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/repository"
	"gorm.io/gorm"
)

func findUser(db *gorm.DB, identifier string) (*models.User, error) {
	var user models.User
	ident := strings.ToLower(strings.TrimSpace(identifier))
	err := db.Where("LOWER(email) = ? OR LOWER(username) = ?", ident, ident).First(&user).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user not found: %s", identifier)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// setAdmin adds or removes the admin role. changed is false when the user
// already had the requested state.
func setAdmin(db *gorm.DB, identifier string, admin bool) (*models.User, bool, error) {
	user, err := findUser(db, identifier)
	if err != nil {
		return nil, false, err
	}
	if user.IsAdmin() == admin {
		return user, false, nil
	}

	roles := models.StringArray{}
	for _, r := range user.Roles {
		if r != models.RoleAdmin {
			roles = append(roles, r)
		}
	}
	if admin {
		roles = append(roles, models.RoleAdmin)
	}
	if err := db.Model(user).Update("roles", roles).Error; err != nil {
		return nil, false, fmt.Errorf("failed to update roles: %w", err)
	}
	user.Roles = roles
	return user, true, nil
}

func unlockUser(db *gorm.DB, identifier string) (*models.User, error) {
	user, err := findUser(db, identifier)
	if err != nil {
		return nil, err
	}
	err = db.Model(user).Updates(map[string]interface{}{
		"is_locked":      false,
		"login_attempts": 0,
		"lock_until":     nil,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to unlock user: %w", err)
	}
	return user, nil
}

func resetOTP(db *gorm.DB, identifier string) (*models.User, error) {
	user, err := findUser(db, identifier)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, fmt.Errorf("%s is already verified", user.Email)
	}
	err = db.Model(user).Updates(map[string]interface{}{
		"otp_requests":      0,
		"otp_blocked_until": nil,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reset OTP state: %w", err)
	}
	return user, nil
}

type siteStats struct {
	Users       int64
	Tweets      int64
	Communities int64
	Messages    int64
}

func collectStats(ctx context.Context, db *gorm.DB) (*siteStats, error) {
	users, err := repository.NewUserRepository(db).GetTotalUserCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	stats := &siteStats{Users: users}
	for _, c := range []struct {
		model interface{}
		dst   *int64
	}{
		{&models.Tweet{}, &stats.Tweets},
		{&models.Community{}, &stats.Communities},
		{&models.Message{}, &stats.Messages},
	} {
		if err := db.WithContext(ctx).Model(c.model).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}
