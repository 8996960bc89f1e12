package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type RoomMembershipRepo interface {
  Create(ctx context.Context, tx *gorm.DB, membership *types.RoomMembership) (*types.RoomMembership, error)
  GetByRoomAndUser(ctx context.Context, tx *gorm.DB, roomID, userID uuid.UUID) (*types.RoomMembership, error)
  // CountActiveByRoom counts memberships with no left_at, the definition of
  // an active listener.
  CountActiveByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) (int, error)
  Save(ctx context.Context, tx *gorm.DB, membership *types.RoomMembership) error
}

type roomMembershipRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewRoomMembershipRepo(db *gorm.DB, baseLog *logger.Logger) RoomMembershipRepo {
  repoLog := baseLog.With("repo", "RoomMembershipRepo")
  return &roomMembershipRepo{db: db, log: repoLog}
}

func (r *roomMembershipRepo) Create(ctx context.Context, tx *gorm.DB, membership *types.RoomMembership) (*types.RoomMembership, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if membership.ID == uuid.Nil {
    membership.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(membership).Error; err != nil {
    return nil, err
  }
  return membership, nil
}

func (r *roomMembershipRepo) GetByRoomAndUser(ctx context.Context, tx *gorm.DB, roomID, userID uuid.UUID) (*types.RoomMembership, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var membership types.RoomMembership
  if err := transaction.WithContext(ctx).
    Where("room_id = ?", roomID).
    Where("user_id = ?", userID).
    First(&membership).Error; err != nil {
    return nil, err
  }
  return &membership, nil
}

func (r *roomMembershipRepo) CountActiveByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.RoomMembership{}).
    Where("room_id = ?", roomID).
    Where("left_at IS NULL").
    Count(&count).Error; err != nil {
    return 0, err
  }
  return int(count), nil
}

func (r *roomMembershipRepo) Save(ctx context.Context, tx *gorm.DB, membership *types.RoomMembership) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).Save(membership).Error
}
