package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type RoomFilter struct {
  ArtistID *uuid.UUID
  Mode     *types.RoomMode
  Featured *bool
}

type RoomRepo interface {
  Create(ctx context.Context, tx *gorm.DB, room *types.Room) (*types.Room, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Room, error)
  List(ctx context.Context, tx *gorm.DB, filter RoomFilter) ([]*types.Room, error)
  Save(ctx context.Context, tx *gorm.DB, room *types.Room) error
}

type roomRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewRoomRepo(db *gorm.DB, baseLog *logger.Logger) RoomRepo {
  repoLog := baseLog.With("repo", "RoomRepo")
  return &roomRepo{db: db, log: repoLog}
}

func (r *roomRepo) Create(ctx context.Context, tx *gorm.DB, room *types.Room) (*types.Room, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if room.ID == uuid.Nil {
    room.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(room).Error; err != nil {
    return nil, err
  }
  return room, nil
}

func (r *roomRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Room, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var room types.Room
  if err := transaction.WithContext(ctx).Where("id = ?", id).First(&room).Error; err != nil {
    return nil, err
  }
  return &room, nil
}

func (r *roomRepo) List(ctx context.Context, tx *gorm.DB, filter RoomFilter) ([]*types.Room, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  q := transaction.WithContext(ctx).Model(&types.Room{})
  if filter.ArtistID != nil {
    q = q.Where("artist_id = ?", *filter.ArtistID)
  }
  if filter.Mode != nil {
    q = q.Where("mode = ?", *filter.Mode)
  }
  if filter.Featured != nil {
    q = q.Where("is_featured = ?", *filter.Featured)
  }
  var rooms []*types.Room
  if err := q.Order("created_at DESC").Find(&rooms).Error; err != nil {
    return nil, err
  }
  return rooms, nil
}

func (r *roomRepo) Save(ctx context.Context, tx *gorm.DB, room *types.Room) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).Save(room).Error
}
