package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "github.com/kyotosound/soundrooms-backend/internal/services"
)

type CatalogHandler struct {
  catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
  return &CatalogHandler{catalogService: catalogService}
}

func (ch *CatalogHandler) CreateArtist(c *gin.Context) {
  var req struct {
    SpotifyID    string         `json:"spotify_id"`
    SpotifyURI   string         `json:"spotify_uri"`
    SpotifyURL   string         `json:"spotify_url"`
    Name         string         `json:"name"`
    Metadata     datatypes.JSON `json:"metadata"`
    Followers    int            `json:"followers"`
    Popularity   int            `json:"popularity"`
    OfficialFlag bool           `json:"official_flag"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body"))
    return
  }
  artist, err := ch.catalogService.CreateArtist(c.Request.Context(), services.CreateArtistInput{
    SpotifyID:    req.SpotifyID,
    SpotifyURI:   req.SpotifyURI,
    SpotifyURL:   req.SpotifyURL,
    Name:         req.Name,
    Metadata:     req.Metadata,
    Followers:    req.Followers,
    Popularity:   req.Popularity,
    OfficialFlag: req.OfficialFlag,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, artist)
}

func (ch *CatalogHandler) GetArtist(c *gin.Context) {
  artistID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid artist id"))
    return
  }
  artist, err := ch.catalogService.GetArtist(c.Request.Context(), artistID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, artist)
}

func (ch *CatalogHandler) ListArtists(c *gin.Context) {
  artists, err := ch.catalogService.ListArtists(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, artists)
}

func (ch *CatalogHandler) CreateTrack(c *gin.Context) {
  var req struct {
    ArtistID      uuid.UUID      `json:"artist_id"`
    SpotifyID     string         `json:"spotify_id"`
    SpotifyURI    string         `json:"spotify_uri"`
    Title         string         `json:"title"`
    URI           string         `json:"uri"`
    DurationMS    int64          `json:"duration_ms"`
    AlbumName     string         `json:"album_name"`
    AlbumURI      string         `json:"album_uri"`
    AlbumImageURL string         `json:"album_image_url"`
    DiscNumber    int            `json:"disc_number"`
    TrackNumber   int            `json:"track_number"`
    Explicit      bool           `json:"explicit"`
    PreviewURL    string         `json:"preview_url"`
    ISRC          string         `json:"isrc"`
    Popularity    int            `json:"popularity"`
    AudioFeatures datatypes.JSON `json:"audio_features"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body"))
    return
  }
  track, err := ch.catalogService.CreateTrack(c.Request.Context(), services.CreateTrackInput{
    ArtistID:      req.ArtistID,
    SpotifyID:     req.SpotifyID,
    SpotifyURI:    req.SpotifyURI,
    Title:         req.Title,
    URI:           req.URI,
    DurationMS:    req.DurationMS,
    AlbumName:     req.AlbumName,
    AlbumURI:      req.AlbumURI,
    AlbumImageURL: req.AlbumImageURL,
    DiscNumber:    req.DiscNumber,
    TrackNumber:   req.TrackNumber,
    Explicit:      req.Explicit,
    PreviewURL:    req.PreviewURL,
    ISRC:          req.ISRC,
    Popularity:    req.Popularity,
    AudioFeatures: req.AudioFeatures,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, track)
}

func (ch *CatalogHandler) GetTrack(c *gin.Context) {
  trackID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid track id"))
    return
  }
  track, err := ch.catalogService.GetTrack(c.Request.Context(), trackID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, track)
}

func (ch *CatalogHandler) ListTracks(c *gin.Context) {
  var artistID *uuid.UUID
  if raw := c.Query("artist_id"); raw != "" {
    id, err := uuid.Parse(raw)
    if err != nil {
      RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid artist id"))
      return
    }
    artistID = &id
  }
  tracks, err := ch.catalogService.ListTracks(c.Request.Context(), artistID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, tracks)
}
