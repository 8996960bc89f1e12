package services

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/repos"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type CreateArtistInput struct {
  SpotifyID    string
  SpotifyURI   string
  SpotifyURL   string
  Name         string
  Metadata     datatypes.JSON
  Followers    int
  Popularity   int
  OfficialFlag bool
}

type CreateTrackInput struct {
  ArtistID      uuid.UUID
  SpotifyID     string
  SpotifyURI    string
  Title         string
  URI           string
  DurationMS    int64
  AlbumName     string
  AlbumURI      string
  AlbumImageURL string
  DiscNumber    int
  TrackNumber   int
  Explicit      bool
  PreviewURL    string
  ISRC          string
  Popularity    int
  AudioFeatures datatypes.JSON
}

// CatalogService is the artist/track reference data the rooms play from.
// Ingestion from external catalogs happens out of process; this only accepts
// already-resolved records.
type CatalogService interface {
  CreateArtist(ctx context.Context, in CreateArtistInput) (*types.Artist, error)
  GetArtist(ctx context.Context, artistID uuid.UUID) (*types.Artist, error)
  ListArtists(ctx context.Context) ([]*types.Artist, error)

  CreateTrack(ctx context.Context, in CreateTrackInput) (*types.Track, error)
  GetTrack(ctx context.Context, trackID uuid.UUID) (*types.Track, error)
  ListTracks(ctx context.Context, artistID *uuid.UUID) ([]*types.Track, error)
}

type catalogService struct {
  db         *gorm.DB
  log        *logger.Logger
  artistRepo repos.ArtistRepo
  trackRepo  repos.TrackRepo
}

func NewCatalogService(db *gorm.DB, log *logger.Logger, artistRepo repos.ArtistRepo, trackRepo repos.TrackRepo) CatalogService {
  serviceLog := log.With("service", "CatalogService")
  return &catalogService{db: db, log: serviceLog, artistRepo: artistRepo, trackRepo: trackRepo}
}

func (cs *catalogService) CreateArtist(ctx context.Context, in CreateArtistInput) (*types.Artist, error) {
  if strings.TrimSpace(in.Name) == "" {
    return nil, fmt.Errorf("%w: artist name required", ErrInvalidInput)
  }
  if strings.TrimSpace(in.SpotifyID) == "" || strings.TrimSpace(in.SpotifyURI) == "" {
    return nil, fmt.Errorf("%w: spotify id and uri required", ErrInvalidInput)
  }
  return cs.artistRepo.Create(ctx, nil, &types.Artist{
    SpotifyID:    in.SpotifyID,
    SpotifyURI:   in.SpotifyURI,
    SpotifyURL:   in.SpotifyURL,
    Name:         in.Name,
    Metadata:     in.Metadata,
    Followers:    in.Followers,
    Popularity:   in.Popularity,
    OfficialFlag: in.OfficialFlag,
  })
}

func (cs *catalogService) GetArtist(ctx context.Context, artistID uuid.UUID) (*types.Artist, error) {
  artist, err := cs.artistRepo.GetByID(ctx, nil, artistID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrArtistNotFound
    }
    return nil, err
  }
  return artist, nil
}

func (cs *catalogService) ListArtists(ctx context.Context) ([]*types.Artist, error) {
  return cs.artistRepo.List(ctx, nil)
}

func (cs *catalogService) CreateTrack(ctx context.Context, in CreateTrackInput) (*types.Track, error) {
  if strings.TrimSpace(in.Title) == "" {
    return nil, fmt.Errorf("%w: track title required", ErrInvalidInput)
  }
  if in.DurationMS <= 0 {
    return nil, fmt.Errorf("%w: track duration must be positive", ErrInvalidInput)
  }
  if _, err := cs.artistRepo.GetByID(ctx, nil, in.ArtistID); err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrArtistNotFound
    }
    return nil, err
  }
  disc := in.DiscNumber
  if disc <= 0 {
    disc = 1
  }
  return cs.trackRepo.Create(ctx, nil, &types.Track{
    ArtistID:      in.ArtistID,
    SpotifyID:     in.SpotifyID,
    SpotifyURI:    in.SpotifyURI,
    Title:         in.Title,
    URI:           in.URI,
    DurationMS:    in.DurationMS,
    AlbumName:     in.AlbumName,
    AlbumURI:      in.AlbumURI,
    AlbumImageURL: in.AlbumImageURL,
    DiscNumber:    disc,
    TrackNumber:   in.TrackNumber,
    Explicit:      in.Explicit,
    PreviewURL:    in.PreviewURL,
    ISRC:          in.ISRC,
    Popularity:    in.Popularity,
    AudioFeatures: in.AudioFeatures,
  })
}

func (cs *catalogService) GetTrack(ctx context.Context, trackID uuid.UUID) (*types.Track, error) {
  track, err := cs.trackRepo.GetByID(ctx, nil, trackID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrTrackNotFound
    }
    return nil, err
  }
  return track, nil
}

func (cs *catalogService) ListTracks(ctx context.Context, artistID *uuid.UUID) ([]*types.Track, error) {
  return cs.trackRepo.List(ctx, nil, artistID)
}
