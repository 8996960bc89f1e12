package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type QueueEntryRepo interface {
  Create(ctx context.Context, tx *gorm.DB, entry *types.QueueEntry) (*types.QueueEntry, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QueueEntry, error)
  ListByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) ([]*types.QueueEntry, error)
  FirstByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) (*types.QueueEntry, error)
  MaxPosition(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) (int, error)
  Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type queueEntryRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewQueueEntryRepo(db *gorm.DB, baseLog *logger.Logger) QueueEntryRepo {
  repoLog := baseLog.With("repo", "QueueEntryRepo")
  return &queueEntryRepo{db: db, log: repoLog}
}

func (r *queueEntryRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.QueueEntry) (*types.QueueEntry, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if entry.ID == uuid.Nil {
    entry.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
    return nil, err
  }
  return entry, nil
}

func (r *queueEntryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QueueEntry, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var entry types.QueueEntry
  if err := transaction.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
    return nil, err
  }
  return &entry, nil
}

func (r *queueEntryRepo) ListByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) ([]*types.QueueEntry, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var entries []*types.QueueEntry
  if err := transaction.WithContext(ctx).
    Where("room_id = ?", roomID).
    Order("position ASC").
    Find(&entries).Error; err != nil {
    return nil, err
  }
  return entries, nil
}

func (r *queueEntryRepo) FirstByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) (*types.QueueEntry, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var entry types.QueueEntry
  if err := transaction.WithContext(ctx).
    Where("room_id = ?", roomID).
    Order("position ASC").
    First(&entry).Error; err != nil {
    return nil, err
  }
  return &entry, nil
}

func (r *queueEntryRepo) MaxPosition(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var max *int
  if err := transaction.WithContext(ctx).
    Model(&types.QueueEntry{}).
    Where("room_id = ?", roomID).
    Select("MAX(position)").
    Scan(&max).Error; err != nil {
    return 0, err
  }
  if max == nil {
    return 0, nil
  }
  return *max, nil
}

func (r *queueEntryRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.QueueEntry{}).Error
}
