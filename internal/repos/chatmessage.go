package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type ChatMessageRepo interface {
  Create(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatMessage, error)
  // ListByRoom returns the newest messages first, capped at limit; since
  // narrows to messages created at or after that instant.
  ListByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID, since *time.Time, limit int) ([]*types.ChatMessage, error)
  // ListByRoomSince returns the full window, oldest first, for scoring.
  ListByRoomSince(ctx context.Context, tx *gorm.DB, roomID uuid.UUID, since time.Time) ([]*types.ChatMessage, error)
}

type chatMessageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
  repoLog := baseLog.With("repo", "ChatMessageRepo")
  return &chatMessageRepo{db: db, log: repoLog}
}

func (r *chatMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if message.ID == uuid.Nil {
    message.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(message).Error; err != nil {
    return nil, err
  }
  return message, nil
}

func (r *chatMessageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var message types.ChatMessage
  if err := transaction.WithContext(ctx).Where("id = ?", id).First(&message).Error; err != nil {
    return nil, err
  }
  return &message, nil
}

func (r *chatMessageRepo) ListByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID, since *time.Time, limit int) ([]*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  q := transaction.WithContext(ctx).
    Where("room_id = ?", roomID).
    Order("created_at DESC")
  if since != nil {
    q = q.Where("created_at >= ?", *since)
  }
  if limit > 0 {
    q = q.Limit(limit)
  }
  var messages []*types.ChatMessage
  if err := q.Find(&messages).Error; err != nil {
    return nil, err
  }
  return messages, nil
}

func (r *chatMessageRepo) ListByRoomSince(ctx context.Context, tx *gorm.DB, roomID uuid.UUID, since time.Time) ([]*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var messages []*types.ChatMessage
  if err := transaction.WithContext(ctx).
    Where("room_id = ?", roomID).
    Where("created_at >= ?", since).
    Order("created_at ASC").
    Find(&messages).Error; err != nil {
    return nil, err
  }
  return messages, nil
}
