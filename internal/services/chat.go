package services

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/realtime"
  "github.com/kyotosound/soundrooms-backend/internal/repos"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

const maxMessageLength = 2000

type PostMessageInput struct {
  Body            string
  TrackPositionMS *int64
  Lang            string
}

// ChatService is the activity feed the scorer reads: messages and typed
// reactions per room, time windowed.
type ChatService interface {
  PostMessage(ctx context.Context, roomID, userID uuid.UUID, in PostMessageInput) (*types.ChatMessage, error)
  ListMessages(ctx context.Context, roomID uuid.UUID, since *time.Time, limit int) ([]*types.ChatMessage, error)
  AddReaction(ctx context.Context, messageID, userID uuid.UUID, reactionType types.ReactionType) (*types.Reaction, error)
  RemoveReaction(ctx context.Context, reactionID, userID uuid.UUID) error
}

type chatService struct {
  db           *gorm.DB
  log          *logger.Logger
  roomRepo     repos.RoomRepo
  userRepo     repos.UserRepo
  chatRepo     repos.ChatMessageRepo
  reactionRepo repos.ReactionRepo
  bus          realtime.Bus

  now func() time.Time
}

func NewChatService(
  db *gorm.DB,
  log *logger.Logger,
  roomRepo repos.RoomRepo,
  userRepo repos.UserRepo,
  chatRepo repos.ChatMessageRepo,
  reactionRepo repos.ReactionRepo,
  bus realtime.Bus,
) ChatService {
  serviceLog := log.With("service", "ChatService")
  return &chatService{
    db:           db,
    log:          serviceLog,
    roomRepo:     roomRepo,
    userRepo:     userRepo,
    chatRepo:     chatRepo,
    reactionRepo: reactionRepo,
    bus:          bus,
    now:          time.Now,
  }
}

func (cs *chatService) PostMessage(ctx context.Context, roomID, userID uuid.UUID, in PostMessageInput) (*types.ChatMessage, error) {
  body := strings.TrimSpace(in.Body)
  if body == "" {
    return nil, fmt.Errorf("%w: message body required", ErrInvalidInput)
  }
  if len(body) > maxMessageLength {
    return nil, fmt.Errorf("%w: message body exceeds %d characters", ErrInvalidInput, maxMessageLength)
  }

  var message *types.ChatMessage
  err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := cs.roomRepo.GetByID(ctx, tx, roomID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrRoomNotFound
      }
      return err
    }
    if _, err := cs.userRepo.GetByID(ctx, tx, userID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrUserNotFound
      }
      return err
    }
    msg := &types.ChatMessage{
      RoomID:          roomID,
      UserID:          userID,
      Body:            body,
      TrackPositionMS: in.TrackPositionMS,
      CreatedAt:       cs.now().UTC(),
    }
    if lang := strings.TrimSpace(in.Lang); lang != "" {
      msg.Lang = lang
    }
    var err error
    message, err = cs.chatRepo.Create(ctx, tx, msg)
    return err
  })
  if err != nil {
    return nil, err
  }
  cs.notify(ctx, roomID, realtime.KindMessagePosted)
  return message, nil
}

func (cs *chatService) ListMessages(ctx context.Context, roomID uuid.UUID, since *time.Time, limit int) ([]*types.ChatMessage, error) {
  if _, err := cs.roomRepo.GetByID(ctx, nil, roomID); err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrRoomNotFound
    }
    return nil, err
  }
  if limit <= 0 || limit > 200 {
    limit = 50
  }
  return cs.chatRepo.ListByRoom(ctx, nil, roomID, since, limit)
}

func (cs *chatService) AddReaction(ctx context.Context, messageID, userID uuid.UUID, reactionType types.ReactionType) (*types.Reaction, error) {
  if !reactionType.Valid() {
    return nil, fmt.Errorf("%w: unknown reaction type %q", ErrInvalidInput, reactionType)
  }

  var reaction *types.Reaction
  var roomID uuid.UUID
  err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    message, err := cs.chatRepo.GetByID(ctx, tx, messageID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrMessageNotFound
      }
      return err
    }
    roomID = message.RoomID
    if _, err := cs.userRepo.GetByID(ctx, tx, userID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrUserNotFound
      }
      return err
    }
    reaction, err = cs.reactionRepo.Create(ctx, tx, &types.Reaction{
      MessageID: messageID,
      UserID:    userID,
      Type:      reactionType,
    })
    if err != nil {
      // uq_reaction_unique: one reaction per (message, user, type).
      if errors.Is(err, gorm.ErrDuplicatedKey) {
        return ErrReactionExists
      }
      return err
    }
    return nil
  })
  if err != nil {
    return nil, err
  }
  cs.notify(ctx, roomID, realtime.KindReactionAdded)
  return reaction, nil
}

func (cs *chatService) RemoveReaction(ctx context.Context, reactionID, userID uuid.UUID) error {
  return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    reaction, err := cs.reactionRepo.GetByID(ctx, tx, reactionID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrReactionNotFound
      }
      return err
    }
    if reaction.UserID != userID {
      return ErrReactionNotFound
    }
    return cs.reactionRepo.Delete(ctx, tx, reaction.ID)
  })
}

func (cs *chatService) notify(ctx context.Context, roomID uuid.UUID, kind string) {
  if cs.bus == nil {
    return
  }
  if err := cs.bus.Publish(ctx, realtime.RoomEvent{RoomID: roomID, Kind: kind}); err != nil {
    cs.log.Warn("Failed to publish room event", "room_id", roomID, "kind", kind, "error", err)
  }
}
