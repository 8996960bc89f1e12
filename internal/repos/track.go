package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type TrackRepo interface {
  Create(ctx context.Context, tx *gorm.DB, track *types.Track) (*types.Track, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Track, error)
  List(ctx context.Context, tx *gorm.DB, artistID *uuid.UUID) ([]*types.Track, error)
  // ListCandidatesByArtist returns the artist catalog in stable id order,
  // which is the deterministic tiebreak for equal recommendation scores.
  ListCandidatesByArtist(ctx context.Context, tx *gorm.DB, artistID uuid.UUID) ([]*types.Track, error)
  Save(ctx context.Context, tx *gorm.DB, track *types.Track) error
}

type trackRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTrackRepo(db *gorm.DB, baseLog *logger.Logger) TrackRepo {
  repoLog := baseLog.With("repo", "TrackRepo")
  return &trackRepo{db: db, log: repoLog}
}

func (r *trackRepo) Create(ctx context.Context, tx *gorm.DB, track *types.Track) (*types.Track, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if track.ID == uuid.Nil {
    track.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(track).Error; err != nil {
    return nil, err
  }
  return track, nil
}

func (r *trackRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Track, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var track types.Track
  if err := transaction.WithContext(ctx).Where("id = ?", id).First(&track).Error; err != nil {
    return nil, err
  }
  return &track, nil
}

func (r *trackRepo) List(ctx context.Context, tx *gorm.DB, artistID *uuid.UUID) ([]*types.Track, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  q := transaction.WithContext(ctx).Model(&types.Track{})
  if artistID != nil {
    q = q.Where("artist_id = ?", *artistID)
  }
  var tracks []*types.Track
  if err := q.Order("popularity DESC").Order("created_at DESC").Find(&tracks).Error; err != nil {
    return nil, err
  }
  return tracks, nil
}

func (r *trackRepo) ListCandidatesByArtist(ctx context.Context, tx *gorm.DB, artistID uuid.UUID) ([]*types.Track, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var tracks []*types.Track
  if err := transaction.WithContext(ctx).
    Where("artist_id = ?", artistID).
    Order("id ASC").
    Find(&tracks).Error; err != nil {
    return nil, err
  }
  return tracks, nil
}

func (r *trackRepo) Save(ctx context.Context, tx *gorm.DB, track *types.Track) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).Save(track).Error
}
