package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password    string         `gorm:"not null;column:password" json:"-"`
	DisplayName string         `gorm:"not null;column:display_name" json:"display_name"`
	AvatarURL   string         `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	Country     string         `gorm:"column:country" json:"country,omitempty"`
	Language    string         `gorm:"not null;default:'ja';column:language" json:"language"`
	Preferences datatypes.JSON `gorm:"type:jsonb;column:preferences" json:"preferences,omitempty"`
	Reputation  float64        `gorm:"not null;default:0" json:"reputation"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }
