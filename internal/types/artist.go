package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Artist struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SpotifyID    string         `gorm:"uniqueIndex;not null;column:spotify_id" json:"spotify_id"`
	SpotifyURI   string         `gorm:"uniqueIndex;not null;column:spotify_uri" json:"spotify_uri"`
	SpotifyURL   string         `gorm:"column:spotify_url" json:"spotify_url,omitempty"`
	Name         string         `gorm:"not null;column:name" json:"name"`
	Metadata     datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	Followers    int            `gorm:"not null;default:0" json:"followers"`
	Popularity   int            `gorm:"not null;default:0" json:"popularity"`
	OfficialFlag bool           `gorm:"not null;default:false" json:"official_flag"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (Artist) TableName() string { return "artist" }
