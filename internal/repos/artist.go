package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type ArtistRepo interface {
  Create(ctx context.Context, tx *gorm.DB, artist *types.Artist) (*types.Artist, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Artist, error)
  List(ctx context.Context, tx *gorm.DB) ([]*types.Artist, error)
}

type artistRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewArtistRepo(db *gorm.DB, baseLog *logger.Logger) ArtistRepo {
  repoLog := baseLog.With("repo", "ArtistRepo")
  return &artistRepo{db: db, log: repoLog}
}

func (r *artistRepo) Create(ctx context.Context, tx *gorm.DB, artist *types.Artist) (*types.Artist, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if artist.ID == uuid.Nil {
    artist.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(artist).Error; err != nil {
    return nil, err
  }
  return artist, nil
}

func (r *artistRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Artist, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var artist types.Artist
  if err := transaction.WithContext(ctx).Where("id = ?", id).First(&artist).Error; err != nil {
    return nil, err
  }
  return &artist, nil
}

func (r *artistRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Artist, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var artists []*types.Artist
  if err := transaction.WithContext(ctx).
    Order("popularity DESC").
    Order("followers DESC").
    Order("name ASC").
    Find(&artists).Error; err != nil {
    return nil, err
  }
  return artists, nil
}
