package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type PlaybackStateRepo interface {
  Create(ctx context.Context, tx *gorm.DB, state *types.PlaybackState) (*types.PlaybackState, error)
  GetByRoomID(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) (*types.PlaybackState, error)
  Save(ctx context.Context, tx *gorm.DB, state *types.PlaybackState) error
}

type playbackStateRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPlaybackStateRepo(db *gorm.DB, baseLog *logger.Logger) PlaybackStateRepo {
  repoLog := baseLog.With("repo", "PlaybackStateRepo")
  return &playbackStateRepo{db: db, log: repoLog}
}

func (r *playbackStateRepo) Create(ctx context.Context, tx *gorm.DB, state *types.PlaybackState) (*types.PlaybackState, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if state.ID == uuid.Nil {
    state.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(state).Error; err != nil {
    return nil, err
  }
  return state, nil
}

func (r *playbackStateRepo) GetByRoomID(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) (*types.PlaybackState, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var state types.PlaybackState
  if err := transaction.WithContext(ctx).Where("room_id = ?", roomID).First(&state).Error; err != nil {
    return nil, err
  }
  return &state, nil
}

func (r *playbackStateRepo) Save(ctx context.Context, tx *gorm.DB, state *types.PlaybackState) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).Save(state).Error
}
