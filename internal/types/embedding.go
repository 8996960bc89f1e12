package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type EntityKind string

const (
	EntityKindRoom    EntityKind = "room"
	EntityKindMessage EntityKind = "message"
	EntityKindUser    EntityKind = "user"
	EntityKindTrack   EntityKind = "track"
	EntityKindArtist  EntityKind = "artist"
)

func (k EntityKind) Valid() bool {
	switch k {
	case EntityKindRoom, EntityKindMessage, EntityKindUser, EntityKindTrack, EntityKindArtist:
		return true
	}
	return false
}

type Embedding struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType     EntityKind     `gorm:"not null;uniqueIndex:uq_embedding_entity,priority:1;column:entity_type" json:"entity_type"`
	EntityID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_embedding_entity,priority:2;column:entity_id" json:"entity_id"`
	Vector         datatypes.JSON `gorm:"type:jsonb;column:vector" json:"vector"`
	ModelVersion   string         `gorm:"not null;default:'v0';column:model_version" json:"model_version"`
	Dimensionality int            `gorm:"not null;default:0" json:"dimensionality"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (Embedding) TableName() string { return "embedding" }

// VectorFloats decodes the JSON vector column. Returns nil on empty or
// malformed payloads; scoring treats that as "no embedding".
func (e *Embedding) VectorFloats() []float64 {
	if e == nil || len(e.Vector) == 0 {
		return nil
	}
	var out []float64
	if err := jsonUnmarshal(e.Vector, &out); err != nil {
		return nil
	}
	return out
}
