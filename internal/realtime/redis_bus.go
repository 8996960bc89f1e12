package realtime

import (
  "context"
  "encoding/json"
  "fmt"
  "os"
  "strings"
  "time"
  goredis "github.com/redis/go-redis/v9"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
)

type redisBus struct {
  log     *logger.Logger
  rdb     *goredis.Client
  channel string
}

// NewRedisBus connects to REDIS_ADDR and publishes room events on
// REDIS_CHANNEL (default "rooms"). Callers treat a nil Bus as "events
// disabled", so a missing REDIS_ADDR is an error here, not a fallback.
func NewRedisBus(log *logger.Logger) (Bus, error) {
  if log == nil {
    return nil, fmt.Errorf("logger required")
  }
  addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
  if addr == "" {
    return nil, fmt.Errorf("missing REDIS_ADDR")
  }
  ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
  if ch == "" {
    ch = "rooms"
  }

  rdb := goredis.NewClient(&goredis.Options{
    Addr:        addr,
    DialTimeout: 5 * time.Second,
  })

  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    _ = rdb.Close()
    return nil, fmt.Errorf("redis ping: %w", err)
  }

  return &redisBus{
    log:     log.With("service", "RedisRoomBus"),
    rdb:     rdb,
    channel: ch,
  }, nil
}

func (b *redisBus) Publish(ctx context.Context, event RoomEvent) error {
  if b == nil || b.rdb == nil {
    return fmt.Errorf("room bus not initialized")
  }
  if event.At.IsZero() {
    event.At = time.Now().UTC()
  }
  raw, err := json.Marshal(event)
  if err != nil {
    return err
  }
  return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onEvent func(e RoomEvent)) error {
  if b == nil || b.rdb == nil {
    return fmt.Errorf("room bus not initialized")
  }
  if onEvent == nil {
    return fmt.Errorf("onEvent callback required")
  }

  sub := b.rdb.Subscribe(ctx, b.channel)

  // ensures subscription actually started
  if _, err := sub.Receive(ctx); err != nil {
    _ = sub.Close()
    return fmt.Errorf("redis subscribe: %w", err)
  }

  go func() {
    ch := sub.Channel()
    for {
      select {
      case <-ctx.Done():
        _ = sub.Close()
        return
      case m, ok := <-ch:
        if !ok || m == nil {
          _ = sub.Close()
          return
        }
        var event RoomEvent
        if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
          b.log.Warn("bad redis room event payload", "error", err)
          continue
        }
        onEvent(event)
      }
    }
  }()

  return nil
}

func (b *redisBus) Close() error {
  if b == nil || b.rdb == nil {
    return nil
  }
  return b.rdb.Close()
}
