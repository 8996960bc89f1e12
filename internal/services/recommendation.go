package services

import (
  "context"
  "errors"
  "math"
  "sort"
  "time"
  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/realtime"
  "github.com/kyotosound/soundrooms-backend/internal/repos"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

const (
  defaultRankLimit = 10
  maxRankLimit     = 25
)

// ScoreBreakdown carries each weighted term of a candidate's score, rounded
// to 4 decimals for explainability.
type ScoreBreakdown struct {
  Engagement float64 `json:"engagement"`
  Similarity float64 `json:"similarity"`
  Novelty    float64 `json:"novelty"`
  Penalty    float64 `json:"penalty"`
}

type RankedItem struct {
  TrackID   uuid.UUID      `json:"track_id"`
  Title     string         `json:"title"`
  Score     float64        `json:"score"`
  Breakdown ScoreBreakdown `json:"breakdown"`
}

// RankContext is the input snapshot of one scoring run, persisted verbatim
// on the recommendation event.
type RankContext struct {
  RoomID        uuid.UUID  `json:"room_id"`
  CurrentTrack  *uuid.UUID `json:"current_track_id,omitempty"`
  HasVector     bool       `json:"has_vector"`
  MessageCount  int        `json:"message_count"`
  UserCount     int        `json:"user_count"`
  ReactionCount int        `json:"reaction_count"`
  LikeCount     int        `json:"like_count"`
  DeltaMinutes  float64    `json:"delta_minutes"`
  CVS           float64    `json:"cvs"`
  WindowMinutes int        `json:"window_minutes"`
  CandidateSize int        `json:"candidate_size"`
  IncludeRecent bool       `json:"include_recent"`
}

type RankResult struct {
  EventID uuid.UUID    `json:"event_id"`
  Items   []RankedItem `json:"items"`
  Context RankContext  `json:"context"`
}

type RecommendationService interface {
  Rank(ctx context.Context, roomID uuid.UUID, limit int, includeRecent bool) (*RankResult, error)
  // Accept attaches the chosen track to a prior scoring run: the explicit
  // event if eventID is set, otherwise the room's most recent one.
  Accept(ctx context.Context, roomID, trackID uuid.UUID, eventID *uuid.UUID, source string) error
}

type recommendationService struct {
  db            *gorm.DB
  log           *logger.Logger
  cfg           ScoringConfig
  roomRepo      repos.RoomRepo
  trackRepo     repos.TrackRepo
  stateRepo     repos.PlaybackStateRepo
  historyRepo   repos.RoomTrackHistoryRepo
  chatRepo      repos.ChatMessageRepo
  reactionRepo  repos.ReactionRepo
  queueRepo     repos.QueueEntryRepo
  embeddingRepo repos.EmbeddingRepo
  eventRepo     repos.RecommendationEventRepo
  bus           realtime.Bus

  now func() time.Time
}

func NewRecommendationService(
  db *gorm.DB,
  log *logger.Logger,
  cfg ScoringConfig,
  roomRepo repos.RoomRepo,
  trackRepo repos.TrackRepo,
  stateRepo repos.PlaybackStateRepo,
  historyRepo repos.RoomTrackHistoryRepo,
  chatRepo repos.ChatMessageRepo,
  reactionRepo repos.ReactionRepo,
  queueRepo repos.QueueEntryRepo,
  embeddingRepo repos.EmbeddingRepo,
  eventRepo repos.RecommendationEventRepo,
  bus realtime.Bus,
) RecommendationService {
  serviceLog := log.With("service", "RecommendationService")
  return &recommendationService{
    db:            db,
    log:           serviceLog,
    cfg:           cfg,
    roomRepo:      roomRepo,
    trackRepo:     trackRepo,
    stateRepo:     stateRepo,
    historyRepo:   historyRepo,
    chatRepo:      chatRepo,
    reactionRepo:  reactionRepo,
    queueRepo:     queueRepo,
    embeddingRepo: embeddingRepo,
    eventRepo:     eventRepo,
    bus:           bus,
    now:           time.Now,
  }
}

// rankInputs is everything the scorer reads, gathered concurrently before
// the pure scoring pass.
type rankInputs struct {
  messages      []*types.ChatMessage
  reactionCount int
  likeCount     int
  state         *types.PlaybackState
  spans         []*types.RoomTrackHistory
  queued        []*types.QueueEntry
  candidates    []*types.Track
}

func (rs *recommendationService) Rank(ctx context.Context, roomID uuid.UUID, limit int, includeRecent bool) (*RankResult, error) {
  room, err := rs.roomRepo.GetByID(ctx, nil, roomID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrRoomNotFound
    }
    return nil, err
  }

  if limit <= 0 {
    limit = defaultRankLimit
  }
  if limit > maxRankLimit {
    limit = maxRankLimit
  }

  now := rs.now().UTC()
  since := now.Add(-time.Duration(rs.cfg.WindowMinutes) * time.Minute)

  in, err := rs.gather(ctx, room, since)
  if err != nil {
    return nil, err
  }

  rctx := rs.buildContext(room, in, now, includeRecent)

  var currentVec []float64
  if rctx.CurrentTrack != nil {
    if emb, err := rs.embeddingRepo.GetByEntity(ctx, nil, types.EntityKindTrack, *rctx.CurrentTrack); err == nil {
      currentVec = emb.VectorFloats()
    } else if !errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, err
    }
  }
  rctx.HasVector = len(currentVec) > 0

  recentIndex := make(map[uuid.UUID]int, len(in.spans))
  for i, span := range in.spans {
    if _, seen := recentIndex[span.TrackID]; !seen {
      recentIndex[span.TrackID] = i
    }
  }
  recentlySeen := make(map[uuid.UUID]bool, rs.cfg.RecentSeen)
  for i, span := range in.spans {
    if i >= rs.cfg.RecentSeen {
      break
    }
    recentlySeen[span.TrackID] = true
  }
  queued := make(map[uuid.UUID]bool, len(in.queued))
  for _, entry := range in.queued {
    queued[entry.TrackID] = true
  }

  items := make([]RankedItem, 0, len(in.candidates))
  for _, candidate := range in.candidates {
    if rctx.CurrentTrack != nil && candidate.ID == *rctx.CurrentTrack {
      continue
    }
    if !includeRecent && recentlySeen[candidate.ID] {
      continue
    }

    similarity := 0.0
    if len(currentVec) > 0 {
      if emb, err := rs.embeddingRepo.GetByEntity(ctx, nil, types.EntityKindTrack, candidate.ID); err == nil {
        similarity = CosineSimilarity(currentVec, emb.VectorFloats())
      } else if !errors.Is(err, gorm.ErrRecordNotFound) {
        return nil, err
      }
    }

    novelty := rs.novelty(candidate, now)

    fatigue := 0.0
    if idx, ok := recentIndex[candidate.ID]; ok {
      fatigue = math.Max(0, 1-float64(idx)/float64(rs.cfg.RecentSeen))
    }
    queuePenalty := 0.0
    if queued[candidate.ID] {
      queuePenalty = rs.cfg.QueuePenalty
    }

    breakdown := ScoreBreakdown{
      Engagement: round4(rs.cfg.WeightEngagement * rctx.CVS),
      Similarity: round4(rs.cfg.WeightSimilarity * similarity),
      Novelty:    round4(rs.cfg.WeightNovelty * novelty),
      Penalty:    round4(rs.cfg.WeightPenalty * (fatigue + queuePenalty)),
    }
    score := rs.cfg.WeightEngagement*rctx.CVS +
      rs.cfg.WeightSimilarity*similarity +
      rs.cfg.WeightNovelty*novelty -
      rs.cfg.WeightPenalty*(fatigue+queuePenalty)

    items = append(items, RankedItem{
      TrackID:   candidate.ID,
      Title:     candidate.Title,
      Score:     round4(score),
      Breakdown: breakdown,
    })
  }

  // Candidates arrive in stable id order, so a stable sort gives the
  // id-ascending tiebreak for equal scores.
  sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
  if len(items) > limit {
    items = items[:limit]
  }

  event, err := rs.eventRepo.Create(ctx, nil, &types.RecommendationEvent{
    RoomID:       roomID,
    InputContext: types.MustJSON(rctx),
    RankedList:   types.MustJSON(items),
  })
  if err != nil {
    return nil, err
  }

  if rs.bus != nil {
    if err := rs.bus.Publish(ctx, realtime.RoomEvent{RoomID: roomID, Kind: realtime.KindRecommendation}); err != nil {
      rs.log.Warn("Failed to publish recommendation event", "room_id", roomID, "error", err)
    }
  }

  return &RankResult{EventID: event.ID, Items: items, Context: rctx}, nil
}

func (rs *recommendationService) Accept(ctx context.Context, roomID, trackID uuid.UUID, eventID *uuid.UUID, source string) error {
  return rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := rs.roomRepo.GetByID(ctx, tx, roomID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrRoomNotFound
      }
      return err
    }
    if _, err := rs.trackRepo.GetByID(ctx, tx, trackID); err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrTrackNotFound
      }
      return err
    }

    var event *types.RecommendationEvent
    var err error
    if eventID != nil {
      event, err = rs.eventRepo.GetByID(ctx, tx, *eventID)
    } else {
      event, err = rs.eventRepo.GetLatestByRoom(ctx, tx, roomID)
    }
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrEventNotFound
      }
      return err
    }
    if event.RoomID != roomID {
      return ErrEventNotFound
    }

    chosen := trackID
    accepted := rs.now().UTC()
    event.ChosenTrackID = &chosen
    event.AcceptedSource = source
    event.AcceptedAt = &accepted
    return rs.eventRepo.Save(ctx, tx, event)
  })
}

func (rs *recommendationService) gather(ctx context.Context, room *types.Room, since time.Time) (*rankInputs, error) {
  in := &rankInputs{}
  like := types.ReactionTypeLike

  g, gctx := errgroup.WithContext(ctx)
  g.Go(func() error {
    messages, err := rs.chatRepo.ListByRoomSince(gctx, nil, room.ID, since)
    if err != nil {
      return err
    }
    in.messages = messages
    return nil
  })
  g.Go(func() error {
    count, err := rs.reactionRepo.CountForRoomSince(gctx, nil, room.ID, since, nil)
    if err != nil {
      return err
    }
    in.reactionCount = count
    return nil
  })
  g.Go(func() error {
    count, err := rs.reactionRepo.CountForRoomSince(gctx, nil, room.ID, since, &like)
    if err != nil {
      return err
    }
    in.likeCount = count
    return nil
  })
  g.Go(func() error {
    state, err := rs.stateRepo.GetByRoomID(gctx, nil, room.ID)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil
      }
      return err
    }
    in.state = state
    return nil
  })
  g.Go(func() error {
    spans, err := rs.historyRepo.ListRecentByRoom(gctx, nil, room.ID, rs.cfg.HistoryDepth)
    if err != nil {
      return err
    }
    in.spans = spans
    return nil
  })
  g.Go(func() error {
    entries, err := rs.queueRepo.ListByRoom(gctx, nil, room.ID)
    if err != nil {
      return err
    }
    in.queued = entries
    return nil
  })
  g.Go(func() error {
    candidates, err := rs.trackRepo.ListCandidatesByArtist(gctx, nil, room.ArtistID)
    if err != nil {
      return err
    }
    in.candidates = candidates
    return nil
  })
  if err := g.Wait(); err != nil {
    return nil, err
  }
  return in, nil
}

func (rs *recommendationService) buildContext(room *types.Room, in *rankInputs, now time.Time, includeRecent bool) RankContext {
  senders := make(map[uuid.UUID]bool, len(in.messages))
  var newest time.Time
  for _, msg := range in.messages {
    senders[msg.UserID] = true
    if msg.CreatedAt.After(newest) {
      newest = msg.CreatedAt
    }
  }
  userCount := len(senders)
  if userCount < 1 {
    userCount = 1
  }

  // Quiet rooms decay from the last room update instead of the last
  // message, so a dead room's engagement still trends to zero.
  ref := newest
  if ref.IsZero() {
    ref = room.UpdatedAt
  }
  deltaMinutes := 0.0
  if !ref.IsZero() {
    deltaMinutes = math.Max(0, now.Sub(ref).Minutes())
  }

  cvs := EngagementScore(len(in.messages), in.likeCount, in.reactionCount, userCount, deltaMinutes, rs.cfg)

  rctx := RankContext{
    RoomID:        room.ID,
    MessageCount:  len(in.messages),
    UserCount:     userCount,
    ReactionCount: in.reactionCount,
    LikeCount:     in.likeCount,
    DeltaMinutes:  round4(deltaMinutes),
    CVS:           cvs,
    WindowMinutes: rs.cfg.WindowMinutes,
    CandidateSize: len(in.candidates),
    IncludeRecent: includeRecent,
  }

  if in.state != nil {
    id := in.state.TrackID
    rctx.CurrentTrack = &id
  } else if room.LiveTrackID != nil {
    id := *room.LiveTrackID
    rctx.CurrentTrack = &id
  }
  return rctx
}

func (rs *recommendationService) novelty(track *types.Track, now time.Time) float64 {
  base := 1.0 / float64(1+track.PlayCount)
  if track.LastPlayedAt == nil {
    return base + 0.2
  }
  minutesSince := math.Max(0, now.Sub(*track.LastPlayedAt).Minutes())
  return base + 0.2*math.Min(minutesSince/rs.cfg.NoveltyRecencyMinutes, 1)
}

// EngagementScore is the decayed room-activity composite (CVS): volume terms
// normalized by sqrt of participant count, decayed exponentially by minutes
// of silence. Half-life at the default lambda is about 5.8 minutes.
func EngagementScore(messages, likes, reactions, users int, deltaMinutes float64, cfg ScoringConfig) float64 {
  if users < 1 {
    users = 1
  }
  base := (cfg.Alpha*float64(messages) + cfg.Beta*float64(likes) + cfg.Gamma*float64(reactions)) / math.Sqrt(float64(users))
  decay := math.Exp(-cfg.Lambda * math.Max(0, deltaMinutes))
  return round4(base * decay)
}

// CosineSimilarity returns 0 for empty, mismatched-length or zero-norm
// vectors; it never divides by zero.
func CosineSimilarity(a, b []float64) float64 {
  if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
    return 0
  }
  var dot, normA, normB float64
  for i := range a {
    dot += a[i] * b[i]
    normA += a[i] * a[i]
    normB += b[i] * b[i]
  }
  if normA == 0 || normB == 0 {
    return 0
  }
  return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func round4(v float64) float64 {
  return math.Round(v*10000) / 10000
}
