package services

import (
  "context"
  "errors"
  "sync"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/realtime"
  "github.com/kyotosound/soundrooms-backend/internal/repos"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

// A closed span shorter than this counts as a skip for the outgoing track.
const skipCutoff = 30 * time.Second

type SetTrackInput struct {
  StartTS   *time.Time
  OffsetMS  int64
  IsPaused  bool
  Listeners *int
}

// PlaybackService owns every mutation of a room's playback state. SetTrack
// is the single transition choke point; Resume and Pause re-anchor the same
// track through it, so a track change is the only thing that touches the
// history ledger or play counters.
//
// Absent state or absent live track is normal traffic: Resume/Pause are
// silent no-ops then, never errors.
type PlaybackService interface {
  GetState(ctx context.Context, roomID uuid.UUID) (*types.PlaybackState, error)
  SetTrack(ctx context.Context, roomID, trackID uuid.UUID, in SetTrackInput) (*types.PlaybackState, error)
  Resume(ctx context.Context, roomID uuid.UUID, listeners *int) error
  Pause(ctx context.Context, roomID uuid.UUID, listeners *int) error
  RecomputeListeners(ctx context.Context, roomID uuid.UUID) (int, error)
}

type playbackService struct {
  db             *gorm.DB
  log            *logger.Logger
  roomRepo       repos.RoomRepo
  trackRepo      repos.TrackRepo
  stateRepo      repos.PlaybackStateRepo
  historyRepo    repos.RoomTrackHistoryRepo
  membershipRepo repos.RoomMembershipRepo
  bus            realtime.Bus

  locks roomLocks
  now   func() time.Time
}

func NewPlaybackService(
  db *gorm.DB,
  log *logger.Logger,
  roomRepo repos.RoomRepo,
  trackRepo repos.TrackRepo,
  stateRepo repos.PlaybackStateRepo,
  historyRepo repos.RoomTrackHistoryRepo,
  membershipRepo repos.RoomMembershipRepo,
  bus realtime.Bus,
) PlaybackService {
  serviceLog := log.With("service", "PlaybackService")
  return &playbackService{
    db:             db,
    log:            serviceLog,
    roomRepo:       roomRepo,
    trackRepo:      trackRepo,
    stateRepo:      stateRepo,
    historyRepo:    historyRepo,
    membershipRepo: membershipRepo,
    bus:            bus,
    now:            time.Now,
  }
}

// roomLocks serializes mutations per room. Different rooms proceed in
// parallel; the same room's Resume/Pause/SetTrack calls queue up here, which
// is what keeps the single-open-span invariant under concurrency.
type roomLocks struct {
  mu sync.Map
}

func (l *roomLocks) acquire(roomID uuid.UUID) *sync.Mutex {
  v, _ := l.mu.LoadOrStore(roomID, &sync.Mutex{})
  m := v.(*sync.Mutex)
  m.Lock()
  return m
}

func (ps *playbackService) GetState(ctx context.Context, roomID uuid.UUID) (*types.PlaybackState, error) {
  if _, err := ps.roomRepo.GetByID(ctx, nil, roomID); err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrRoomNotFound
    }
    return nil, err
  }
  state, err := ps.stateRepo.GetByRoomID(ctx, nil, roomID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrPlaybackNotFound
    }
    return nil, err
  }
  return state, nil
}

func (ps *playbackService) SetTrack(ctx context.Context, roomID, trackID uuid.UUID, in SetTrackInput) (*types.PlaybackState, error) {
  mu := ps.locks.acquire(roomID)
  defer mu.Unlock()

  var state *types.PlaybackState
  err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    room, err := ps.roomRepo.GetByID(ctx, tx, roomID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrRoomNotFound
      }
      return err
    }
    track, err := ps.trackRepo.GetByID(ctx, tx, trackID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrTrackNotFound
      }
      return err
    }
    state, err = ps.applyTrack(ctx, tx, room, track, in)
    return err
  })
  if err != nil {
    return nil, err
  }
  ps.notify(ctx, roomID, realtime.KindPlaybackUpdated)
  return state, nil
}

func (ps *playbackService) Resume(ctx context.Context, roomID uuid.UUID, listeners *int) error {
  mu := ps.locks.acquire(roomID)
  defer mu.Unlock()

  changed := false
  err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    room, err := ps.roomRepo.GetByID(ctx, tx, roomID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrRoomNotFound
      }
      return err
    }
    state, err := ps.stateRepo.GetByRoomID(ctx, tx, roomID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil
      }
      return err
    }
    track, err := ps.trackRepo.GetByID(ctx, tx, state.TrackID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil
      }
      return err
    }

    if !state.IsPaused {
      // Already playing: refresh the listener count if supplied, but do
      // not re-anchor.
      if listeners != nil && *listeners != state.Listeners {
        state.Listeners = *listeners
        if err := ps.stateRepo.Save(ctx, tx, state); err != nil {
          return err
        }
        changed = true
      }
      return nil
    }

    now := ps.now().UTC()
    offset := state.OffsetMS
    if offset < 0 {
      offset = 0
    }
    start := now
    if offset > 0 {
      start = now.Add(-time.Duration(offset) * time.Millisecond)
    }
    count := state.Listeners
    if listeners != nil {
      count = *listeners
    }
    if _, err := ps.applyTrack(ctx, tx, room, track, SetTrackInput{
      StartTS:   &start,
      OffsetMS:  offset,
      IsPaused:  false,
      Listeners: &count,
    }); err != nil {
      return err
    }
    changed = true
    return nil
  })
  if err != nil {
    return err
  }
  if changed {
    ps.notify(ctx, roomID, realtime.KindPlaybackUpdated)
  }
  return nil
}

func (ps *playbackService) Pause(ctx context.Context, roomID uuid.UUID, listeners *int) error {
  mu := ps.locks.acquire(roomID)
  defer mu.Unlock()

  changed := false
  err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    room, err := ps.roomRepo.GetByID(ctx, tx, roomID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrRoomNotFound
      }
      return err
    }
    state, err := ps.stateRepo.GetByRoomID(ctx, tx, roomID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil
      }
      return err
    }
    track, err := ps.trackRepo.GetByID(ctx, tx, state.TrackID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil
      }
      return err
    }

    if state.IsPaused {
      if listeners != nil && *listeners != state.Listeners {
        state.Listeners = *listeners
        if err := ps.stateRepo.Save(ctx, tx, state); err != nil {
          return err
        }
        changed = true
      }
      return nil
    }

    now := ps.now().UTC()
    offset := state.OffsetMS
    if offset < 0 {
      offset = 0
    }
    offset += ElapsedMS(state.AnchorServerTS, now)
    start := state.StartTS
    if start.IsZero() {
      start = now.Add(-time.Duration(offset) * time.Millisecond)
    }
    count := state.Listeners
    if listeners != nil {
      count = *listeners
    }
    if _, err := ps.applyTrack(ctx, tx, room, track, SetTrackInput{
      StartTS:   &start,
      OffsetMS:  offset,
      IsPaused:  true,
      Listeners: &count,
    }); err != nil {
      return err
    }
    changed = true
    return nil
  })
  if err != nil {
    return err
  }
  if changed {
    ps.notify(ctx, roomID, realtime.KindPlaybackUpdated)
  }
  return nil
}

func (ps *playbackService) RecomputeListeners(ctx context.Context, roomID uuid.UUID) (int, error) {
  mu := ps.locks.acquire(roomID)
  defer mu.Unlock()

  count := 0
  err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := ps.roomRepo.GetByID(ctx, tx, roomID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrRoomNotFound
      }
      return err
    }
    c, err := ps.membershipRepo.CountActiveByRoom(ctx, tx, roomID)
    if err != nil {
      return err
    }
    count = c
    state, err := ps.stateRepo.GetByRoomID(ctx, tx, roomID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil
      }
      return err
    }
    state.Listeners = count
    return ps.stateRepo.Save(ctx, tx, state)
  })
  if err != nil {
    return 0, err
  }
  return count, nil
}

// applyTrack is the transition core. Everything that mutates playback state,
// history spans or track counters funnels through here, inside the caller's
// transaction and room lock.
func (ps *playbackService) applyTrack(ctx context.Context, tx *gorm.DB, room *types.Room, track *types.Track, in SetTrackInput) (*types.PlaybackState, error) {
  now := ps.now().UTC()
  start := now
  if in.StartTS != nil {
    start = in.StartTS.UTC()
  }
  offset := in.OffsetMS
  if offset < 0 {
    offset = 0
  }

  state, err := ps.stateRepo.GetByRoomID(ctx, tx, room.ID)
  if err != nil {
    if !errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, err
    }
    state = nil
  }

  trackChanged := state == nil || state.TrackID != track.ID

  if trackChanged && state != nil {
    if err := ps.closeOpenSpans(ctx, tx, room.ID, now); err != nil {
      return nil, err
    }
  }

  if trackChanged {
    if _, err := ps.historyRepo.Create(ctx, tx, &types.RoomTrackHistory{
      RoomID:   room.ID,
      TrackID:  track.ID,
      PlayedAt: now,
    }); err != nil {
      return nil, err
    }
    track.PlayCount++
    played := now
    track.LastPlayedAt = &played
    if err := ps.trackRepo.Save(ctx, tx, track); err != nil {
      return nil, err
    }
  } else if track.LastPlayedAt == nil {
    played := now
    track.LastPlayedAt = &played
    if err := ps.trackRepo.Save(ctx, tx, track); err != nil {
      return nil, err
    }
  }

  if state == nil {
    state = &types.PlaybackState{
      RoomID:         room.ID,
      TrackID:        track.ID,
      StartTS:        start,
      AnchorServerTS: now,
      OffsetMS:       offset,
      IsPaused:       in.IsPaused,
    }
    if in.Listeners != nil {
      state.Listeners = *in.Listeners
    }
    if _, err := ps.stateRepo.Create(ctx, tx, state); err != nil {
      return nil, err
    }
  } else {
    state.TrackID = track.ID
    state.StartTS = start
    state.OffsetMS = offset
    state.IsPaused = in.IsPaused
    state.AnchorServerTS = now
    if in.Listeners != nil {
      state.Listeners = *in.Listeners
    }
    if err := ps.stateRepo.Save(ctx, tx, state); err != nil {
      return nil, err
    }
  }

  if room.LiveTrackID == nil || *room.LiveTrackID != track.ID {
    liveID := track.ID
    room.LiveTrackID = &liveID
    if err := ps.roomRepo.Save(ctx, tx, room); err != nil {
      return nil, err
    }
  }

  return state, nil
}

// closeOpenSpans terminates the room's open history span(s) at endedAt. Zero
// open spans is absorbed silently; more than one means the single-open-span
// invariant was broken elsewhere, so it logs and closes them all.
func (ps *playbackService) closeOpenSpans(ctx context.Context, tx *gorm.DB, roomID uuid.UUID, endedAt time.Time) error {
  spans, err := ps.historyRepo.GetOpenByRoom(ctx, tx, roomID)
  if err != nil {
    return err
  }
  if len(spans) == 0 {
    return nil
  }
  if len(spans) > 1 {
    ps.log.Error("Multiple open history spans for room, closing all", "room_id", roomID, "count", len(spans))
  }
  for _, span := range spans {
    ended := endedAt
    span.EndedAt = &ended
    if endedAt.Sub(span.PlayedAt) < skipCutoff {
      span.WasSkipped = true
      track, err := ps.trackRepo.GetByID(ctx, tx, span.TrackID)
      if err != nil {
        // A span pointing at a deleted track still closes; anything else
        // is a real failure.
        if !errors.Is(err, gorm.ErrRecordNotFound) {
          return err
        }
      } else {
        track.SkipCount++
        if err := ps.trackRepo.Save(ctx, tx, track); err != nil {
          return err
        }
      }
    }
    if err := ps.historyRepo.Save(ctx, tx, span); err != nil {
      return err
    }
  }
  return nil
}

func (ps *playbackService) notify(ctx context.Context, roomID uuid.UUID, kind string) {
  if ps.bus == nil {
    return
  }
  if err := ps.bus.Publish(ctx, realtime.RoomEvent{RoomID: roomID, Kind: kind}); err != nil {
    ps.log.Warn("Failed to publish room event", "room_id", roomID, "kind", kind, "error", err)
  }
}
