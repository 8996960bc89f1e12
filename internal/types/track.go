package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Track struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ArtistID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"artist_id"`
	Artist        *Artist        `gorm:"constraint:OnDelete:CASCADE;foreignKey:ArtistID;references:ID" json:"artist,omitempty"`
	SpotifyID     string         `gorm:"uniqueIndex;not null;column:spotify_id" json:"spotify_id"`
	SpotifyURI    string         `gorm:"uniqueIndex;not null;column:spotify_uri" json:"spotify_uri"`
	Title         string         `gorm:"not null;column:title" json:"title"`
	URI           string         `gorm:"uniqueIndex;not null;column:uri" json:"uri"`
	DurationMS    int64          `gorm:"not null;column:duration_ms" json:"duration_ms"`
	AlbumName     string         `gorm:"column:album_name" json:"album_name,omitempty"`
	AlbumURI      string         `gorm:"column:album_uri" json:"album_uri,omitempty"`
	AlbumImageURL string         `gorm:"column:album_image_url" json:"album_image_url,omitempty"`
	DiscNumber    int            `gorm:"not null;default:1" json:"disc_number"`
	TrackNumber   int            `gorm:"not null;default:0" json:"track_number"`
	Explicit      bool           `gorm:"not null;default:false" json:"explicit"`
	PreviewURL    string         `gorm:"column:preview_url" json:"preview_url,omitempty"`
	ISRC          string         `gorm:"column:isrc" json:"isrc,omitempty"`
	Popularity    int            `gorm:"not null;default:0" json:"popularity"`
	AudioFeatures datatypes.JSON `gorm:"type:jsonb;column:audio_features" json:"audio_features,omitempty"`
	PlayCount     int            `gorm:"not null;default:0" json:"play_count"`
	SkipCount     int            `gorm:"not null;default:0" json:"skip_count"`
	LastPlayedAt  *time.Time     `gorm:"column:last_played_at" json:"last_played_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (Track) TableName() string { return "track" }
