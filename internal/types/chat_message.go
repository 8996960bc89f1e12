package types

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID          uuid.UUID `gorm:"type:uuid;not null;index" json:"room_id"`
	Room            *Room     `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoomID;references:ID" json:"room,omitempty"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Body            string    `gorm:"type:text;not null;column:body" json:"body"`
	TrackPositionMS *int64    `gorm:"column:track_position_ms" json:"track_position_ms,omitempty"`
	Lang            string    `gorm:"not null;default:'ja';column:lang" json:"lang"`
	CreatedAt       time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }
