package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RoomTrackHistory is an append-only span: one row per contiguous interval
// during which a track was the room's live track. EndedAt nil marks the open
// span; at most one per room.
type RoomTrackHistory struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID        uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:uq_room_track_play,priority:1" json:"room_id"`
	Room          *Room          `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoomID;references:ID" json:"room,omitempty"`
	TrackID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"track_id"`
	Track         *Track         `gorm:"constraint:OnDelete:CASCADE;foreignKey:TrackID;references:ID" json:"track,omitempty"`
	PlayedAt      time.Time      `gorm:"not null;uniqueIndex:uq_room_track_play,priority:2" json:"played_at"`
	EndedAt       *time.Time     `gorm:"column:ended_at" json:"ended_at,omitempty"`
	WasSkipped    bool           `gorm:"not null;default:false" json:"was_skipped"`
	ScoreSnapshot datatypes.JSON `gorm:"type:jsonb;column:score_snapshot" json:"score_snapshot,omitempty"`
}

func (RoomTrackHistory) TableName() string { return "room_track_history" }
