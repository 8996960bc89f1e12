package services

import "errors"

// NotFound sentinels surfaced to callers; handlers map these to 404.
// Precondition failures inside playback transitions are deliberately NOT
// errors (see PlaybackService).
var (
  ErrRoomNotFound       = errors.New("room not found")
  ErrArtistNotFound     = errors.New("artist not found")
  ErrTrackNotFound      = errors.New("track not found")
  ErrUserNotFound       = errors.New("user not found")
  ErrMembershipNotFound = errors.New("membership not found")
  ErrMessageNotFound    = errors.New("message not found")
  ErrReactionNotFound   = errors.New("reaction not found")
  ErrQueueEntryNotFound = errors.New("queue entry not found")
  ErrQueueEmpty         = errors.New("queue is empty")
  ErrEventNotFound      = errors.New("recommendation event not found")
  ErrPlaybackNotFound   = errors.New("playback state not initialized")
  ErrEmbeddingNotFound  = errors.New("embedding not found")

  ErrEmailTaken         = errors.New("email already registered")
  ErrInvalidCredentials = errors.New("invalid credentials")
  ErrReactionExists     = errors.New("reaction already exists")

  // ErrInvalidInput wraps rejected request arguments; handlers map it to
  // 400 instead of the internal-error fallback.
  ErrInvalidInput = errors.New("invalid input")
)
