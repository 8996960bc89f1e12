package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RoomMode string

const (
	RoomModeLive   RoomMode = "live"
	RoomModeOffset RoomMode = "offset"
	RoomModeFocus  RoomMode = "focus"
)

func (m RoomMode) Valid() bool {
	switch m {
	case RoomModeLive, RoomModeOffset, RoomModeFocus:
		return true
	}
	return false
}

type Room struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ArtistID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"artist_id"`
	Artist           *Artist        `gorm:"constraint:OnDelete:CASCADE;foreignKey:ArtistID;references:ID" json:"artist,omitempty"`
	Name             string         `gorm:"not null;column:name" json:"name"`
	Description      string         `gorm:"type:text;column:description" json:"description,omitempty"`
	Mode             RoomMode       `gorm:"not null;default:'live';column:mode" json:"mode"`
	Rules            datatypes.JSON `gorm:"type:jsonb;column:rules" json:"rules,omitempty"`
	PinnedMessageIDs datatypes.JSON `gorm:"type:jsonb;column:pinned_message_ids" json:"pinned_message_ids,omitempty"`
	LiveTrackID      *uuid.UUID     `gorm:"type:uuid;index;column:live_track_id" json:"live_track_id,omitempty"`
	LiveTrack        *Track         `gorm:"constraint:OnDelete:SET NULL;foreignKey:LiveTrackID;references:ID" json:"live_track,omitempty"`
	IsFeatured       bool           `gorm:"not null;default:false" json:"is_featured"`
	FocusLevel       *int           `gorm:"column:focus_level" json:"focus_level,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (Room) TableName() string { return "room" }
