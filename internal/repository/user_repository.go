package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid input")
)

// UserRepository handles all database operations for users and the follow graph
type UserRepository interface {
	// User CRUD
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// GetUserByLogin matches either the email or the username
	GetUserByLogin(ctx context.Context, identifier string) (*models.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error

	// User queries
	GetUsers(ctx context.Context, userIDs []string) ([]*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)

	// Followers/Following
	GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*models.User, int64, error)
	GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, int64, error)

	// Follow relationship. Create and delete keep both users' counters in step
	// and report whether an edge actually changed.
	CreateFollow(ctx context.Context, followerID, followingID string) (bool, error)
	DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	FollowingSet(ctx context.Context, followerID string, candidateIDs []string) (map[string]bool, error)

	// Stats
	GetTotalUserCount(ctx context.Context) (int64, error)
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateUser creates a new user
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser gets a user by ID
func (r *userRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return r.first(ctx, "id = ?", userID)
}

// GetUserByEmail gets a user by email (case-insensitive)
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", normalize(email))
}

// GetUserByUsername gets a user by username
func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", normalize(username))
}

func (r *userRepository) GetUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	id := normalize(identifier)
	return r.first(ctx, "email = ? OR username = ?", id, id)
}

func (r *userRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.first(ctx, "google_id = ?", googleID)
}

// UpdateUser saves every column of the user
func (r *userRepository) UpdateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateFields writes only the given columns, including zero values
func (r *userRepository) UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" || len(fields) == 0 {
		return ErrInvalidInput
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetUsers gets multiple users by IDs
func (r *userRepository) GetUsers(ctx context.Context, userIDs []string) ([]*models.User, error) {
	var users []*models.User
	if len(userIDs) == 0 {
		return users, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&users).Error

	return users, err
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", normalize(username))
}

func (r *userRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", normalize(email))
}

func (r *userRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where(query, args...).Count(&count).Error
	return count > 0, err
}

// GetFollowers gets users following the given user, newest edge first
func (r *userRepository) GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*models.User, int64, error) {
	return r.followPage(ctx, "follows.follower_id = users.id", "follows.following_id = ?", userID, limit, offset)
}

// GetFollowing gets users that the given user follows
func (r *userRepository) GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, int64, error) {
	return r.followPage(ctx, "follows.following_id = users.id", "follows.follower_id = ?", userID, limit, offset)
}

func (r *userRepository) followPage(ctx context.Context, join, where, userID string, limit, offset int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	base := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN follows ON "+join).
		Where(where, userID).
		Session(&gorm.Session{})

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := base.
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error

	return users, total, err
}

// CreateFollow inserts the edge if missing and bumps both counters
func (r *userRepository) CreateFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true
		if err := tx.Model(&models.User{}).Where("id = ?", followingID).
			Update("followers_count", database.IncrementExpr("followers_count")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", followerID).
			Update("following_count", database.IncrementExpr("following_count")).Error
	})
	return created, err
}

// DeleteFollow removes the edge if present and decrements both counters
func (r *userRepository) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&models.Follow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		deleted = true
		if err := tx.Model(&models.User{}).Where("id = ?", followingID).
			Update("followers_count", database.DecrementExpr("followers_count")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", followerID).
			Update("following_count", database.DecrementExpr("following_count")).Error
	})
	return deleted, err
}

// IsFollowing checks if follower follows following
func (r *userRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error

	return count > 0, err
}

// FollowingSet reports which of candidateIDs the follower follows
func (r *userRepository) FollowingSet(ctx context.Context, followerID string, candidateIDs []string) (map[string]bool, error) {
	set := make(map[string]bool, len(candidateIDs))
	if followerID == "" || len(candidateIDs) == 0 {
		return set, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id IN ?", followerID, candidateIDs).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// GetTotalUserCount gets total user count
func (r *userRepository) GetTotalUserCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Count(&count).Error

	return count, err
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
