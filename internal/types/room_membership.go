package types

import (
	"time"

	"github.com/google/uuid"
)

type MembershipRole string

const (
	MembershipRoleOwner     MembershipRole = "owner"
	MembershipRoleModerator MembershipRole = "moderator"
	MembershipRoleMember    MembershipRole = "member"
)

func (r MembershipRole) Valid() bool {
	switch r {
	case MembershipRoleOwner, MembershipRoleModerator, MembershipRoleMember:
		return true
	}
	return false
}

type RoomMembership struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_room_user,priority:1" json:"room_id"`
	Room      *Room          `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoomID;references:ID" json:"room,omitempty"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_room_user,priority:2" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Role      MembershipRole `gorm:"not null;default:'member';column:role" json:"role"`
	JoinedAt  time.Time      `gorm:"not null;column:joined_at" json:"joined_at"`
	LeftAt    *time.Time     `gorm:"column:left_at" json:"left_at,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (RoomMembership) TableName() string { return "room_membership" }
