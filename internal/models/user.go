package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// StringArray is stored as a "{a,b,c}" text literal so it reads back from both
// PostgreSQL and SQLite.
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	// Values are role names, never quoted or comma-bearing
	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// Contains reports whether s is in the array
func (a StringArray) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// User is an account. Credential, OTP and lockout state never leave the server.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	FullName string `gorm:"not null" json:"fullName"`
	Email    string `gorm:"uniqueIndex;not null" json:"email,omitempty"`

	PasswordHash     *string `gorm:"type:text" json:"-"`
	RefreshTokenHash *string `gorm:"type:text" json:"-"`

	Bio        string      `gorm:"type:text" json:"bio"`
	Location   string      `json:"location"`
	Website    string      `json:"website"`
	AvatarURL  string      `json:"avatarUrl"`
	BannerURL  string      `json:"bannerUrl"`
	IsVerified bool        `gorm:"default:false" json:"isVerified"`
	Roles      StringArray `gorm:"type:text" json:"roles,omitempty"`

	FollowersCount int `gorm:"default:0" json:"followersCount"`
	FollowingCount int `gorm:"default:0" json:"followingCount"`
	TweetsCount    int `gorm:"default:0" json:"tweetsCount"`

	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`

	// Email OTP state
	OTPHash          *string    `gorm:"type:text" json:"-"`
	OTPExpiresAt     *time.Time `json:"-"`
	OTPRequests      int        `gorm:"default:0" json:"-"`
	LastOTPRequestAt *time.Time `json:"-"`
	OTPBlockedUntil  *time.Time `json:"-"`

	// Login lockout state
	IsLocked      bool       `gorm:"default:false" json:"-"`
	LoginAttempts int        `gorm:"default:0" json:"-"`
	LockUntil     *time.Time `json:"-"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`

	TwoFactorEnabled bool    `gorm:"default:false" json:"twoFactorEnabled"`
	TwoFactorSecret  *string `gorm:"type:text" json:"-"`
	GoogleID         *string `gorm:"uniqueIndex" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Per-viewer annotation
	IsFollowing bool `gorm:"-" json:"isFollowing"`
}

// UserSummaryColumns is the projection used when a user is embedded in another resource
var UserSummaryColumns = []string{"id", "username", "full_name", "avatar_url", "is_verified"}

// SummaryScope preloads only the public profile columns
func SummaryScope(db *gorm.DB) *gorm.DB {
	return db.Select(UserSummaryColumns)
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Roles.Contains(RoleAdmin)
}

// HasPassword reports whether the account has finished password setup
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// PasswordReset is a single-use, hashed password reset token
type PasswordReset struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"default:false" json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	if u.Roles == nil {
		u.Roles = StringArray{RoleUser}
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.ToLower(u.Username)
	return nil
}

func (p *PasswordReset) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func generateUUID() string {
	return uuid.New().String()
}
