package types

import (
	"time"

	"github.com/google/uuid"
)

// PlaybackState is the single authoritative clock anchor for a room.
// Position while playing is OffsetMS + (now - AnchorServerTS); while paused
// the position is frozen at OffsetMS. One row per room, mutated only through
// the playback service.
type PlaybackState struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"room_id"`
	Room           *Room     `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoomID;references:ID" json:"room,omitempty"`
	TrackID        uuid.UUID `gorm:"type:uuid;not null;index" json:"track_id"`
	Track          *Track    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TrackID;references:ID" json:"track,omitempty"`
	StartTS        time.Time `gorm:"not null;column:start_ts" json:"start_ts"`
	AnchorServerTS time.Time `gorm:"not null;column:anchor_server_ts" json:"anchor_server_ts"`
	OffsetMS       int64     `gorm:"not null;default:0;column:offset_ms" json:"offset_ms"`
	IsPaused       bool      `gorm:"not null;default:false" json:"is_paused"`
	Listeners      int       `gorm:"not null;default:0" json:"listeners"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (PlaybackState) TableName() string { return "playback_state" }
