package types

import (
	"time"

	"github.com/google/uuid"
)

type ReactionType string

const (
	ReactionTypeLike     ReactionType = "like"
	ReactionTypeLaugh    ReactionType = "laugh"
	ReactionTypeFire     ReactionType = "fire"
	ReactionTypeQuestion ReactionType = "question"
)

func (t ReactionType) Valid() bool {
	switch t {
	case ReactionTypeLike, ReactionTypeLaugh, ReactionTypeFire, ReactionTypeQuestion:
		return true
	}
	return false
}

type Reaction struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uq_reaction_unique,priority:1" json:"message_id"`
	Message   *ChatMessage `gorm:"constraint:OnDelete:CASCADE;foreignKey:MessageID;references:ID" json:"message,omitempty"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uq_reaction_unique,priority:2" json:"user_id"`
	User      *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Type      ReactionType `gorm:"not null;uniqueIndex:uq_reaction_unique,priority:3;column:type" json:"type"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Reaction) TableName() string { return "reaction" }
