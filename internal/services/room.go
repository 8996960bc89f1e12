package services

import (
  "context"
  "errors"
  "fmt"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/realtime"
  "github.com/kyotosound/soundrooms-backend/internal/repos"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type CreateRoomInput struct {
  ArtistID    uuid.UUID
  Name        string
  Description string
  Mode        types.RoomMode
  IsFeatured  bool
  FocusLevel  *int
}

type UpdateRoomInput struct {
  Name        *string
  Description *string
  Mode        *types.RoomMode
  IsFeatured  *bool
  FocusLevel  *int
}

type EnqueueInput struct {
  TrackID       uuid.UUID
  RequestedByID *uuid.UUID
  Note          string
}

// RoomService covers room CRUD, membership (join/leave) and the track
// queue. Join and leave drive listener accounting: the last listener leaving
// pauses playback, the first one joining resumes it.
type RoomService interface {
  Create(ctx context.Context, in CreateRoomInput) (*types.Room, error)
  Get(ctx context.Context, roomID uuid.UUID) (*types.Room, error)
  List(ctx context.Context, filter repos.RoomFilter) ([]*types.Room, error)
  Update(ctx context.Context, roomID uuid.UUID, in UpdateRoomInput) (*types.Room, error)

  Join(ctx context.Context, roomID, userID uuid.UUID) (*types.RoomMembership, error)
  Leave(ctx context.Context, roomID, userID uuid.UUID) error

  Enqueue(ctx context.Context, roomID uuid.UUID, in EnqueueInput) (*types.QueueEntry, error)
  ListQueue(ctx context.Context, roomID uuid.UUID) ([]*types.QueueEntry, error)
  Dequeue(ctx context.Context, roomID, entryID uuid.UUID) error
  // PopNext removes and returns the head of the queue.
  PopNext(ctx context.Context, roomID uuid.UUID) (*types.QueueEntry, error)
}

type roomService struct {
  db             *gorm.DB
  log            *logger.Logger
  roomRepo       repos.RoomRepo
  artistRepo     repos.ArtistRepo
  trackRepo      repos.TrackRepo
  userRepo       repos.UserRepo
  membershipRepo repos.RoomMembershipRepo
  queueRepo      repos.QueueEntryRepo
  playback       PlaybackService
  bus            realtime.Bus

  now func() time.Time
}

func NewRoomService(
  db *gorm.DB,
  log *logger.Logger,
  roomRepo repos.RoomRepo,
  artistRepo repos.ArtistRepo,
  trackRepo repos.TrackRepo,
  userRepo repos.UserRepo,
  membershipRepo repos.RoomMembershipRepo,
  queueRepo repos.QueueEntryRepo,
  playback PlaybackService,
  bus realtime.Bus,
) RoomService {
  serviceLog := log.With("service", "RoomService")
  return &roomService{
    db:             db,
    log:            serviceLog,
    roomRepo:       roomRepo,
    artistRepo:     artistRepo,
    trackRepo:      trackRepo,
    userRepo:       userRepo,
    membershipRepo: membershipRepo,
    queueRepo:      queueRepo,
    playback:       playback,
    bus:            bus,
    now:            time.Now,
  }
}

func (rs *roomService) Create(ctx context.Context, in CreateRoomInput) (*types.Room, error) {
  if in.Name == "" {
    return nil, fmt.Errorf("%w: room name required", ErrInvalidInput)
  }
  mode := in.Mode
  if mode == "" {
    mode = types.RoomModeLive
  }
  if !mode.Valid() {
    return nil, fmt.Errorf("%w: unknown room mode %q", ErrInvalidInput, mode)
  }
  if _, err := rs.artistRepo.GetByID(ctx, nil, in.ArtistID); err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrArtistNotFound
    }
    return nil, err
  }
  return rs.roomRepo.Create(ctx, nil, &types.Room{
    ArtistID:    in.ArtistID,
    Name:        in.Name,
    Description: in.Description,
    Mode:        mode,
    IsFeatured:  in.IsFeatured,
    FocusLevel:  in.FocusLevel,
  })
}

func (rs *roomService) Get(ctx context.Context, roomID uuid.UUID) (*types.Room, error) {
  room, err := rs.roomRepo.GetByID(ctx, nil, roomID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrRoomNotFound
    }
    return nil, err
  }
  return room, nil
}

func (rs *roomService) List(ctx context.Context, filter repos.RoomFilter) ([]*types.Room, error) {
  return rs.roomRepo.List(ctx, nil, filter)
}

func (rs *roomService) Update(ctx context.Context, roomID uuid.UUID, in UpdateRoomInput) (*types.Room, error) {
  var room *types.Room
  err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    var err error
    room, err = rs.roomRepo.GetByID(ctx, tx, roomID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrRoomNotFound
      }
      return err
    }
    if in.Name != nil {
      room.Name = *in.Name
    }
    if in.Description != nil {
      room.Description = *in.Description
    }
    if in.Mode != nil {
      if !in.Mode.Valid() {
        return fmt.Errorf("%w: unknown room mode %q", ErrInvalidInput, *in.Mode)
      }
      room.Mode = *in.Mode
    }
    if in.IsFeatured != nil {
      room.IsFeatured = *in.IsFeatured
    }
    if in.FocusLevel != nil {
      room.FocusLevel = in.FocusLevel
    }
    return rs.roomRepo.Save(ctx, tx, room)
  })
  if err != nil {
    return nil, err
  }
  return room, nil
}

// Join creates or reactivates the user's membership. When the room goes
// from zero listeners to one, playback resumes.
func (rs *roomService) Join(ctx context.Context, roomID, userID uuid.UUID) (*types.RoomMembership, error) {
  var membership *types.RoomMembership
  wasEmpty := false
  err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := rs.roomRepo.GetByID(ctx, tx, roomID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrRoomNotFound
      }
      return err
    }
    if _, err := rs.userRepo.GetByID(ctx, tx, userID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrUserNotFound
      }
      return err
    }
    active, err := rs.membershipRepo.CountActiveByRoom(ctx, tx, roomID)
    if err != nil {
      return err
    }
    wasEmpty = active == 0

    now := rs.now().UTC()
    existing, err := rs.membershipRepo.GetByRoomAndUser(ctx, tx, roomID, userID)
    if err != nil {
      if !errors.Is(err, gorm.ErrRecordNotFound) {
        return err
      }
      membership, err = rs.membershipRepo.Create(ctx, tx, &types.RoomMembership{
        RoomID:   roomID,
        UserID:   userID,
        Role:     types.MembershipRoleMember,
        JoinedAt: now,
      })
      return err
    }
    if existing.LeftAt == nil {
      membership = existing
      wasEmpty = false
      return nil
    }
    existing.LeftAt = nil
    existing.JoinedAt = now
    if err := rs.membershipRepo.Save(ctx, tx, existing); err != nil {
      return err
    }
    membership = existing
    return nil
  })
  if err != nil {
    return nil, err
  }

  count, err := rs.playback.RecomputeListeners(ctx, roomID)
  if err != nil {
    return nil, err
  }
  if wasEmpty && count > 0 {
    if err := rs.playback.Resume(ctx, roomID, &count); err != nil {
      return nil, err
    }
  }
  rs.notify(ctx, roomID, realtime.KindMembersChanged)
  return membership, nil
}

// Leave stamps left_at on the membership. When the last listener leaves,
// playback pauses with the position captured at that instant.
func (rs *roomService) Leave(ctx context.Context, roomID, userID uuid.UUID) error {
  err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := rs.roomRepo.GetByID(ctx, tx, roomID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrRoomNotFound
      }
      return err
    }
    membership, err := rs.membershipRepo.GetByRoomAndUser(ctx, tx, roomID, userID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrMembershipNotFound
      }
      return err
    }
    if membership.LeftAt != nil {
      return nil
    }
    now := rs.now().UTC()
    membership.LeftAt = &now
    return rs.membershipRepo.Save(ctx, tx, membership)
  })
  if err != nil {
    return err
  }

  count, err := rs.playback.RecomputeListeners(ctx, roomID)
  if err != nil {
    return err
  }
  if count == 0 {
    if err := rs.playback.Pause(ctx, roomID, &count); err != nil {
      return err
    }
  }
  rs.notify(ctx, roomID, realtime.KindMembersChanged)
  return nil
}

func (rs *roomService) Enqueue(ctx context.Context, roomID uuid.UUID, in EnqueueInput) (*types.QueueEntry, error) {
  var entry *types.QueueEntry
  err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := rs.roomRepo.GetByID(ctx, tx, roomID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrRoomNotFound
      }
      return err
    }
    if _, err := rs.trackRepo.GetByID(ctx, tx, in.TrackID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrTrackNotFound
      }
      return err
    }
    max, err := rs.queueRepo.MaxPosition(ctx, tx, roomID)
    if err != nil {
      return err
    }
    entry, err = rs.queueRepo.Create(ctx, tx, &types.QueueEntry{
      RoomID:        roomID,
      TrackID:       in.TrackID,
      RequestedByID: in.RequestedByID,
      Position:      max + 1,
      Note:          in.Note,
    })
    return err
  })
  if err != nil {
    return nil, err
  }
  rs.notify(ctx, roomID, realtime.KindQueueUpdated)
  return entry, nil
}

func (rs *roomService) ListQueue(ctx context.Context, roomID uuid.UUID) ([]*types.QueueEntry, error) {
  if _, err := rs.roomRepo.GetByID(ctx, nil, roomID); err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrRoomNotFound
    }
    return nil, err
  }
  return rs.queueRepo.ListByRoom(ctx, nil, roomID)
}

func (rs *roomService) Dequeue(ctx context.Context, roomID, entryID uuid.UUID) error {
  err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    entry, err := rs.queueRepo.GetByID(ctx, tx, entryID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrQueueEntryNotFound
      }
      return err
    }
    if entry.RoomID != roomID {
      return ErrQueueEntryNotFound
    }
    return rs.queueRepo.Delete(ctx, tx, entry.ID)
  })
  if err != nil {
    return err
  }
  rs.notify(ctx, roomID, realtime.KindQueueUpdated)
  return nil
}

func (rs *roomService) PopNext(ctx context.Context, roomID uuid.UUID) (*types.QueueEntry, error) {
  var entry *types.QueueEntry
  err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := rs.roomRepo.GetByID(ctx, tx, roomID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrRoomNotFound
      }
      return err
    }
    var err error
    entry, err = rs.queueRepo.FirstByRoom(ctx, tx, roomID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrQueueEmpty
      }
      return err
    }
    return rs.queueRepo.Delete(ctx, tx, entry.ID)
  })
  if err != nil {
    return nil, err
  }
  rs.notify(ctx, roomID, realtime.KindQueueUpdated)
  return entry, nil
}

func (rs *roomService) notify(ctx context.Context, roomID uuid.UUID, kind string) {
  if rs.bus == nil {
    return
  }
  if err := rs.bus.Publish(ctx, realtime.RoomEvent{RoomID: roomID, Kind: kind}); err != nil {
    rs.log.Warn("Failed to publish room event", "room_id", roomID, "kind", kind, "error", err)
  }
}
