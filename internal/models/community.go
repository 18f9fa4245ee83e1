package models

import (
	"time"

	"gorm.io/gorm"
)

// CommunityRole is a member's role within a community
type CommunityRole string

const (
	CommunityRoleMember    CommunityRole = "member"
	CommunityRoleModerator CommunityRole = "moderator"
	CommunityRoleAdmin     CommunityRole = "admin"
)

// IsValid reports whether r is a known role
func (r CommunityRole) IsValid() bool {
	switch r {
	case CommunityRoleMember, CommunityRoleModerator, CommunityRoleAdmin:
		return true
	}
	return false
}

// Community is a named group of users
type Community struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug         string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatorID    string    `gorm:"type:uuid;not null;index" json:"creatorId"`
	Creator      *User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	IsPrivate    bool      `gorm:"default:false" json:"isPrivate"`
	MembersCount int       `gorm:"default:0" json:"membersCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Per-viewer annotations
	IsMember bool          `gorm:"-" json:"isMember"`
	Role     CommunityRole `gorm:"-" json:"role,omitempty"`
}

// CommunityMember is a user's membership in a community
type CommunityMember struct {
	ID          string        `gorm:"primaryKey;type:uuid" json:"id"`
	CommunityID string        `gorm:"type:uuid;not null;uniqueIndex:idx_community_members_pair,priority:1" json:"communityId"`
	UserID      string        `gorm:"type:uuid;not null;uniqueIndex:idx_community_members_pair,priority:2;index" json:"userId"`
	Role        CommunityRole `gorm:"type:varchar(16);not null" json:"role"`
	Community   *Community    `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"community,omitempty"`
	User        *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt   time.Time     `json:"joinedAt"`
}

func (c *Community) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (m *CommunityMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	if m.Role == "" {
		m.Role = CommunityRoleMember
	}
	return nil
}
