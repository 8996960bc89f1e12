package types

import (
	"time"

	"github.com/google/uuid"
)

type QueueEntry struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_room_queue_position,priority:1" json:"room_id"`
	Room          *Room      `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoomID;references:ID" json:"room,omitempty"`
	TrackID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"track_id"`
	Track         *Track     `gorm:"constraint:OnDelete:CASCADE;foreignKey:TrackID;references:ID" json:"track,omitempty"`
	RequestedByID *uuid.UUID `gorm:"type:uuid;column:requested_by_id" json:"requested_by_id,omitempty"`
	RequestedBy   *User      `gorm:"constraint:OnDelete:SET NULL;foreignKey:RequestedByID;references:ID" json:"requested_by,omitempty"`
	Position      int        `gorm:"not null;uniqueIndex:uq_room_queue_position,priority:2" json:"position"`
	Note          string     `gorm:"column:note" json:"note,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

func (QueueEntry) TableName() string { return "queue_entry" }
