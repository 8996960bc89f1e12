package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kyotosound/soundrooms-backend/internal/logger"
	"github.com/kyotosound/soundrooms-backend/internal/repos"
	"github.com/kyotosound/soundrooms-backend/internal/types"
)

var testDBCounter int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Artist{},
		&types.Track{},
		&types.Room{},
		&types.PlaybackState{},
		&types.RoomTrackHistory{},
		&types.RoomMembership{},
		&types.QueueEntry{},
		&types.ChatMessage{},
		&types.Reaction{},
		&types.RecommendationEvent{},
		&types.Embedding{},
	)
	if err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// fakeClock makes elapsed-time behavior deterministic in tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	db             *gorm.DB
	log            *logger.Logger
	clock          *fakeClock
	userRepo       repos.UserRepo
	userTokenRepo  repos.UserTokenRepo
	artistRepo     repos.ArtistRepo
	trackRepo      repos.TrackRepo
	roomRepo       repos.RoomRepo
	stateRepo      repos.PlaybackStateRepo
	historyRepo    repos.RoomTrackHistoryRepo
	membershipRepo repos.RoomMembershipRepo
	queueRepo      repos.QueueEntryRepo
	chatRepo       repos.ChatMessageRepo
	reactionRepo   repos.ReactionRepo
	eventRepo      repos.RecommendationEventRepo
	embeddingRepo  repos.EmbeddingRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := logger.NewNop()
	return &testEnv{
		db:             db,
		log:            log,
		clock:          newFakeClock(),
		userRepo:       repos.NewUserRepo(db, log),
		userTokenRepo:  repos.NewUserTokenRepo(db, log),
		artistRepo:     repos.NewArtistRepo(db, log),
		trackRepo:      repos.NewTrackRepo(db, log),
		roomRepo:       repos.NewRoomRepo(db, log),
		stateRepo:      repos.NewPlaybackStateRepo(db, log),
		historyRepo:    repos.NewRoomTrackHistoryRepo(db, log),
		membershipRepo: repos.NewRoomMembershipRepo(db, log),
		queueRepo:      repos.NewQueueEntryRepo(db, log),
		chatRepo:       repos.NewChatMessageRepo(db, log),
		reactionRepo:   repos.NewReactionRepo(db, log),
		eventRepo:      repos.NewRecommendationEventRepo(db, log),
		embeddingRepo:  repos.NewEmbeddingRepo(db, log),
	}
}

func (e *testEnv) playbackService(t *testing.T) *playbackService {
	t.Helper()
	svc := NewPlaybackService(e.db, e.log, e.roomRepo, e.trackRepo, e.stateRepo, e.historyRepo, e.membershipRepo, nil)
	ps := svc.(*playbackService)
	ps.now = e.clock.Now
	return ps
}

func (e *testEnv) recommendationService(t *testing.T, cfg ScoringConfig) *recommendationService {
	t.Helper()
	svc := NewRecommendationService(e.db, e.log, cfg, e.roomRepo, e.trackRepo, e.stateRepo, e.historyRepo, e.chatRepo, e.reactionRepo, e.queueRepo, e.embeddingRepo, e.eventRepo, nil)
	rs := svc.(*recommendationService)
	rs.now = e.clock.Now
	return rs
}

func (e *testEnv) roomService(t *testing.T, playback PlaybackService) *roomService {
	t.Helper()
	svc := NewRoomService(e.db, e.log, e.roomRepo, e.artistRepo, e.trackRepo, e.userRepo, e.membershipRepo, e.queueRepo, playback, nil)
	rs := svc.(*roomService)
	rs.now = e.clock.Now
	return rs
}

func (e *testEnv) seedArtist(t *testing.T, name string) *types.Artist {
	t.Helper()
	artist, err := e.artistRepo.Create(context.Background(), nil, &types.Artist{
		SpotifyID:  "sp-artist-" + name,
		SpotifyURI: "spotify:artist:" + name,
		Name:       name,
	})
	if err != nil {
		t.Fatalf("seed artist: %v", err)
	}
	return artist
}

func (e *testEnv) seedTrack(t *testing.T, artistID uuid.UUID, title string) *types.Track {
	t.Helper()
	track, err := e.trackRepo.Create(context.Background(), nil, &types.Track{
		ArtistID:   artistID,
		SpotifyID:  "sp-track-" + title,
		SpotifyURI: "spotify:track:" + title,
		Title:      title,
		URI:        "uri:" + title,
		DurationMS: 180000,
	})
	if err != nil {
		t.Fatalf("seed track: %v", err)
	}
	return track
}

func (e *testEnv) seedRoom(t *testing.T, artistID uuid.UUID, name string) *types.Room {
	t.Helper()
	room, err := e.roomRepo.Create(context.Background(), nil, &types.Room{
		ArtistID: artistID,
		Name:     name,
		Mode:     types.RoomModeLive,
	})
	if err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return room
}

func (e *testEnv) seedUser(t *testing.T, email string) *types.User {
	t.Helper()
	user, err := e.userRepo.Create(context.Background(), nil, &types.User{
		Email:       email,
		Password:    "hashed",
		DisplayName: email,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (e *testEnv) seedEmbedding(t *testing.T, trackID uuid.UUID, vector []float64) {
	t.Helper()
	_, err := e.embeddingRepo.Upsert(context.Background(), nil, &types.Embedding{
		EntityType:     types.EntityKindTrack,
		EntityID:       trackID,
		Vector:         types.MustJSON(vector),
		Dimensionality: len(vector),
	})
	if err != nil {
		t.Fatalf("seed embedding: %v", err)
	}
}

func (e *testEnv) openSpans(t *testing.T, roomID uuid.UUID) []*types.RoomTrackHistory {
	t.Helper()
	spans, err := e.historyRepo.GetOpenByRoom(context.Background(), nil, roomID)
	if err != nil {
		t.Fatalf("list open spans: %v", err)
	}
	return spans
}
