package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type ReactionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, reaction *types.Reaction) (*types.Reaction, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Reaction, error)
  Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
  // CountForRoomSince counts reactions attached to messages posted in the
  // room within the window; reactionType nil counts all types.
  CountForRoomSince(ctx context.Context, tx *gorm.DB, roomID uuid.UUID, since time.Time, reactionType *types.ReactionType) (int, error)
}

type reactionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewReactionRepo(db *gorm.DB, baseLog *logger.Logger) ReactionRepo {
  repoLog := baseLog.With("repo", "ReactionRepo")
  return &reactionRepo{db: db, log: repoLog}
}

func (r *reactionRepo) Create(ctx context.Context, tx *gorm.DB, reaction *types.Reaction) (*types.Reaction, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if reaction.ID == uuid.Nil {
    reaction.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(reaction).Error; err != nil {
    return nil, err
  }
  return reaction, nil
}

func (r *reactionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Reaction, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var reaction types.Reaction
  if err := transaction.WithContext(ctx).Where("id = ?", id).First(&reaction).Error; err != nil {
    return nil, err
  }
  return &reaction, nil
}

func (r *reactionRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Reaction{}).Error
}

func (r *reactionRepo) CountForRoomSince(ctx context.Context, tx *gorm.DB, roomID uuid.UUID, since time.Time, reactionType *types.ReactionType) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  q := transaction.WithContext(ctx).
    Model(&types.Reaction{}).
    Joins("JOIN chat_message ON chat_message.id = reaction.message_id").
    Where("chat_message.room_id = ?", roomID).
    Where("chat_message.created_at >= ?", since)
  if reactionType != nil {
    q = q.Where("reaction.type = ?", *reactionType)
  }
  var count int64
  if err := q.Count(&count).Error; err != nil {
    return 0, err
  }
  return int(count), nil
}
