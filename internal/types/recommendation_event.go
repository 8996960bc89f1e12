package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecommendationEvent is an immutable snapshot of one scoring run. The only
// post-creation mutation is attaching the chosen track once a recommendation
// is accepted.
type RecommendationEvent struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"room_id"`
	Room          *Room          `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoomID;references:ID" json:"room,omitempty"`
	InputContext  datatypes.JSON `gorm:"type:jsonb;column:input_context" json:"input_context"`
	RankedList    datatypes.JSON `gorm:"type:jsonb;column:ranked_list" json:"ranked_list"`
	ChosenTrackID *uuid.UUID     `gorm:"type:uuid;column:chosen_track_id" json:"chosen_track_id,omitempty"`
	ChosenTrack   *Track         `gorm:"constraint:OnDelete:SET NULL;foreignKey:ChosenTrackID;references:ID" json:"chosen_track,omitempty"`
	AcceptedSource string        `gorm:"column:accepted_source" json:"accepted_source,omitempty"`
	AcceptedAt    *time.Time     `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (RecommendationEvent) TableName() string { return "recommendation_event" }
