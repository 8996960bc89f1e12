package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type RoomTrackHistoryRepo interface {
  Create(ctx context.Context, tx *gorm.DB, span *types.RoomTrackHistory) (*types.RoomTrackHistory, error)
  // GetOpenByRoom returns spans with ended_at NULL, newest first. Under the
  // single-writer discipline there is at most one.
  GetOpenByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) ([]*types.RoomTrackHistory, error)
  ListRecentByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID, limit int) ([]*types.RoomTrackHistory, error)
  Save(ctx context.Context, tx *gorm.DB, span *types.RoomTrackHistory) error
}

type roomTrackHistoryRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewRoomTrackHistoryRepo(db *gorm.DB, baseLog *logger.Logger) RoomTrackHistoryRepo {
  repoLog := baseLog.With("repo", "RoomTrackHistoryRepo")
  return &roomTrackHistoryRepo{db: db, log: repoLog}
}

func (r *roomTrackHistoryRepo) Create(ctx context.Context, tx *gorm.DB, span *types.RoomTrackHistory) (*types.RoomTrackHistory, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if span.ID == uuid.Nil {
    span.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(span).Error; err != nil {
    return nil, err
  }
  return span, nil
}

func (r *roomTrackHistoryRepo) GetOpenByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) ([]*types.RoomTrackHistory, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var spans []*types.RoomTrackHistory
  if err := transaction.WithContext(ctx).
    Where("room_id = ?", roomID).
    Where("ended_at IS NULL").
    Order("played_at DESC").
    Find(&spans).Error; err != nil {
    return nil, err
  }
  return spans, nil
}

func (r *roomTrackHistoryRepo) ListRecentByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID, limit int) ([]*types.RoomTrackHistory, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var spans []*types.RoomTrackHistory
  q := transaction.WithContext(ctx).
    Where("room_id = ?", roomID).
    Order("played_at DESC")
  if limit > 0 {
    q = q.Limit(limit)
  }
  if err := q.Find(&spans).Error; err != nil {
    return nil, err
  }
  return spans, nil
}

func (r *roomTrackHistoryRepo) Save(ctx context.Context, tx *gorm.DB, span *types.RoomTrackHistory) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).Save(span).Error
}
