package realtime

import (
  "context"
  "time"
  "github.com/google/uuid"
)

// Event kinds published after committed mutations. Consumers subscribe on
// the Redis channel and fan the events out to clients however they like;
// this process only announces that room state changed.
const (
  KindPlaybackUpdated = "playback.updated"
  KindQueueUpdated    = "queue.updated"
  KindMessagePosted   = "message.posted"
  KindReactionAdded   = "reaction.added"
  KindMembersChanged  = "members.changed"
  KindRecommendation  = "recommendation.ready"
)

type RoomEvent struct {
  RoomID uuid.UUID `json:"room_id"`
  Kind   string    `json:"kind"`
  At     time.Time `json:"at,omitempty"`
}

type Bus interface {
  Publish(ctx context.Context, event RoomEvent) error
  StartForwarder(ctx context.Context, onEvent func(e RoomEvent)) error
  Close() error
}
