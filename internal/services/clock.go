package services

import "time"

// Pure clock math for the playback anchor model. The stored pair
// (offset_ms, anchor_server_ts) is the only authority on position: while
// playing, position = offset + elapsed since anchor; while paused, position
// stays frozen at offset.

// ElapsedMS returns the whole milliseconds between anchor and now, clamped
// at zero so clock skew can never run the position backwards.
func ElapsedMS(anchor, now time.Time) int64 {
  d := now.Sub(anchor)
  if d < 0 {
    return 0
  }
  return d.Milliseconds()
}

// PlaybackPositionMS projects the current position from a stored anchor.
func PlaybackPositionMS(anchor time.Time, offsetMS int64, isPaused bool, now time.Time) int64 {
  if offsetMS < 0 {
    offsetMS = 0
  }
  if isPaused {
    return offsetMS
  }
  return offsetMS + ElapsedMS(anchor, now)
}
