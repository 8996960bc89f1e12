package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kyotosound/soundrooms-backend/internal/types"
)

func (e *testEnv) seedMessage(t *testing.T, roomID, userID uuid.UUID, body string) *types.ChatMessage {
	t.Helper()
	msg, err := e.chatRepo.Create(context.Background(), nil, &types.ChatMessage{
		RoomID:    roomID,
		UserID:    userID,
		Body:      body,
		CreatedAt: e.clock.Now(),
	})
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return msg
}

func TestRankSimilarityDrivesOrdering(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	rec := env.recommendationService(t, DefaultScoringConfig())
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	current := env.seedTrack(t, artist.ID, "current")
	close_ := env.seedTrack(t, artist.ID, "close")
	far := env.seedTrack(t, artist.ID, "far")

	if _, err := ps.SetTrack(ctx, room.ID, current.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}
	env.seedEmbedding(t, current.ID, []float64{1, 0})
	env.seedEmbedding(t, close_.ID, []float64{1, 0})
	env.seedEmbedding(t, far.ID, []float64{0, 1})

	res, err := rec.Rank(ctx, room.ID, 10, false)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if !res.Context.HasVector {
		t.Fatal("context should report a current vector")
	}
	if res.Context.CurrentTrack == nil || *res.Context.CurrentTrack != current.ID {
		t.Fatalf("context current track=%v, want %v", res.Context.CurrentTrack, current.ID)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items=%d, want 2 (live track excluded)", len(res.Items))
	}
	if res.Items[0].TrackID != close_.ID {
		t.Fatalf("top item=%v, want the similar track %v", res.Items[0].TrackID, close_.ID)
	}
	if res.Items[0].Breakdown.Similarity != 0.35 {
		t.Fatalf("similarity term=%v, want 0.35", res.Items[0].Breakdown.Similarity)
	}
	if res.Items[1].TrackID != far.ID {
		t.Fatalf("second item=%v, want %v", res.Items[1].TrackID, far.ID)
	}
	if res.Items[1].Breakdown.Similarity != 0 {
		t.Fatalf("orthogonal similarity term=%v, want 0", res.Items[1].Breakdown.Similarity)
	}
	if res.Items[0].Score <= res.Items[1].Score {
		t.Fatalf("scores not descending: %v then %v", res.Items[0].Score, res.Items[1].Score)
	}
}

func TestRankExcludesLiveTrack(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	rec := env.recommendationService(t, DefaultScoringConfig())
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	live := env.seedTrack(t, artist.ID, "live")
	env.seedTrack(t, artist.ID, "other")

	if _, err := ps.SetTrack(ctx, room.ID, live.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}
	res, err := rec.Rank(ctx, room.ID, 10, true)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	for _, item := range res.Items {
		if item.TrackID == live.ID {
			t.Fatal("live track must never be recommended")
		}
	}
	if len(res.Items) != 1 {
		t.Fatalf("items=%d, want 1", len(res.Items))
	}
}

func TestRankRecentlySeenFilter(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	rec := env.recommendationService(t, DefaultScoringConfig())
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	earlier := env.seedTrack(t, artist.ID, "earlier")
	live := env.seedTrack(t, artist.ID, "live")

	if _, err := ps.SetTrack(ctx, room.ID, earlier.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack earlier: %v", err)
	}
	env.clock.Advance(4 * time.Minute)
	if _, err := ps.SetTrack(ctx, room.ID, live.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack live: %v", err)
	}

	res, err := rec.Rank(ctx, room.ID, 10, false)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	for _, item := range res.Items {
		if item.TrackID == earlier.ID {
			t.Fatal("recently played track returned without include_recent")
		}
	}

	res, err = rec.Rank(ctx, room.ID, 10, true)
	if err != nil {
		t.Fatalf("Rank include_recent: %v", err)
	}
	var got *RankedItem
	for i := range res.Items {
		if res.Items[i].TrackID == earlier.ID {
			got = &res.Items[i]
		}
	}
	if got == nil {
		t.Fatal("include_recent should surface the recently played track")
	}
	// The earlier track sits one slot down the history, so its fatigue is
	// 1 - 1/5 and the weighted penalty term 0.1 * 0.8.
	if got.Breakdown.Penalty != 0.08 {
		t.Fatalf("penalty term=%v, want 0.08", got.Breakdown.Penalty)
	}
}

func TestRankQueuePenalty(t *testing.T) {
	env := newTestEnv(t)
	rec := env.recommendationService(t, DefaultScoringConfig())
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	queuedTrack := env.seedTrack(t, artist.ID, "queued")
	freeTrack := env.seedTrack(t, artist.ID, "free")

	_, err := env.queueRepo.Create(ctx, nil, &types.QueueEntry{
		RoomID:   room.ID,
		TrackID:  queuedTrack.ID,
		Position: 1,
	})
	if err != nil {
		t.Fatalf("seed queue entry: %v", err)
	}

	res, err := rec.Rank(ctx, room.ID, 10, false)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	byID := map[uuid.UUID]RankedItem{}
	for _, item := range res.Items {
		byID[item.TrackID] = item
	}
	q, ok := byID[queuedTrack.ID]
	if !ok {
		t.Fatal("queued track missing from ranking")
	}
	f, ok := byID[freeTrack.ID]
	if !ok {
		t.Fatal("unqueued track missing from ranking")
	}
	if q.Breakdown.Penalty != 0.01 {
		t.Fatalf("queued penalty term=%v, want 0.01", q.Breakdown.Penalty)
	}
	if f.Breakdown.Penalty != 0 {
		t.Fatalf("free penalty term=%v, want 0", f.Breakdown.Penalty)
	}
	if q.Score >= f.Score {
		t.Fatalf("queued track %v should score below identical free track %v", q.Score, f.Score)
	}
}

func TestRankEngagementInContext(t *testing.T) {
	env := newTestEnv(t)
	rec := env.recommendationService(t, DefaultScoringConfig())
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	env.seedTrack(t, artist.ID, "candidate")
	user := env.seedUser(t, "alice@example.com")

	for i := 0; i < 4; i++ {
		env.seedMessage(t, room.ID, user.ID, "hello")
	}

	res, err := rec.Rank(ctx, room.ID, 10, false)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if res.Context.MessageCount != 4 {
		t.Fatalf("message_count=%d, want 4", res.Context.MessageCount)
	}
	if res.Context.UserCount != 1 {
		t.Fatalf("user_count=%d, want 1", res.Context.UserCount)
	}
	// 4 messages from 1 user, no idle time: 0.6*4 / sqrt(1) = 2.4.
	if res.Context.CVS != 2.4 {
		t.Fatalf("cvs=%v, want 2.4", res.Context.CVS)
	}
	if len(res.Items) != 1 {
		t.Fatalf("items=%d, want 1", len(res.Items))
	}
	if got := res.Items[0].Breakdown.Engagement; got != 0.84 {
		t.Fatalf("engagement term=%v, want 0.84", got)
	}
}

func TestRankLimitClamp(t *testing.T) {
	env := newTestEnv(t)
	rec := env.recommendationService(t, DefaultScoringConfig())
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	for i := 0; i < 12; i++ {
		env.seedTrack(t, artist.ID, "track-"+string(rune('a'+i)))
	}

	res, err := rec.Rank(ctx, room.ID, 0, false)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(res.Items) != defaultRankLimit {
		t.Fatalf("items=%d, want default limit %d", len(res.Items), defaultRankLimit)
	}
	if res.Context.CandidateSize != 12 {
		t.Fatalf("candidate_size=%d, want 12", res.Context.CandidateSize)
	}
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i-1].Score < res.Items[i].Score {
			t.Fatalf("scores not descending at %d: %v then %v", i, res.Items[i-1].Score, res.Items[i].Score)
		}
	}
}

func TestRankPersistsEvent(t *testing.T) {
	env := newTestEnv(t)
	rec := env.recommendationService(t, DefaultScoringConfig())
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	env.seedTrack(t, artist.ID, "candidate")

	res, err := rec.Rank(ctx, room.ID, 10, false)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if res.EventID == uuid.Nil {
		t.Fatal("rank result missing event id")
	}
	event, err := env.eventRepo.GetByID(ctx, nil, res.EventID)
	if err != nil {
		t.Fatalf("load event: %v", err)
	}
	if event.RoomID != room.ID {
		t.Fatalf("event room=%v, want %v", event.RoomID, room.ID)
	}
	if len(event.RankedList) == 0 || len(event.InputContext) == 0 {
		t.Fatal("event should persist ranked list and input context")
	}
	if event.ChosenTrackID != nil {
		t.Fatal("fresh event should have no chosen track")
	}
}

func TestRankUnknownRoom(t *testing.T) {
	env := newTestEnv(t)
	rec := env.recommendationService(t, DefaultScoringConfig())
	if _, err := rec.Rank(context.Background(), uuid.New(), 10, false); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err=%v, want ErrRoomNotFound", err)
	}
}

func TestAcceptLatestEvent(t *testing.T) {
	env := newTestEnv(t)
	rec := env.recommendationService(t, DefaultScoringConfig())
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	track := env.seedTrack(t, artist.ID, "chosen")

	res, err := rec.Rank(ctx, room.ID, 10, false)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if err := rec.Accept(ctx, room.ID, track.ID, nil, "auto"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	event, err := env.eventRepo.GetByID(ctx, nil, res.EventID)
	if err != nil {
		t.Fatalf("load event: %v", err)
	}
	if event.ChosenTrackID == nil || *event.ChosenTrackID != track.ID {
		t.Fatalf("chosen track=%v, want %v", event.ChosenTrackID, track.ID)
	}
	if event.AcceptedSource != "auto" {
		t.Fatalf("accepted source=%q, want auto", event.AcceptedSource)
	}
	if event.AcceptedAt == nil || !event.AcceptedAt.Equal(env.clock.Now()) {
		t.Fatalf("accepted_at=%v, want %v", event.AcceptedAt, env.clock.Now())
	}
}

func TestAcceptExplicitEvent(t *testing.T) {
	env := newTestEnv(t)
	rec := env.recommendationService(t, DefaultScoringConfig())
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	track := env.seedTrack(t, artist.ID, "chosen")

	first, err := rec.Rank(ctx, room.ID, 10, false)
	if err != nil {
		t.Fatalf("first Rank: %v", err)
	}
	env.clock.Advance(time.Minute)
	if _, err := rec.Rank(ctx, room.ID, 10, false); err != nil {
		t.Fatalf("second Rank: %v", err)
	}

	if err := rec.Accept(ctx, room.ID, track.ID, &first.EventID, "manual"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	event, err := env.eventRepo.GetByID(ctx, nil, first.EventID)
	if err != nil {
		t.Fatalf("load event: %v", err)
	}
	if event.ChosenTrackID == nil || *event.ChosenTrackID != track.ID {
		t.Fatalf("chosen track=%v, want %v", event.ChosenTrackID, track.ID)
	}
}

func TestAcceptErrors(t *testing.T) {
	env := newTestEnv(t)
	rec := env.recommendationService(t, DefaultScoringConfig())
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	other := env.seedRoom(t, artist.ID, "other")
	track := env.seedTrack(t, artist.ID, "chosen")

	// No events for the room yet.
	if err := rec.Accept(ctx, room.ID, track.ID, nil, "manual"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("err=%v, want ErrEventNotFound", err)
	}

	res, err := rec.Rank(ctx, room.ID, 10, false)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	if err := rec.Accept(ctx, room.ID, uuid.New(), nil, "manual"); !errors.Is(err, ErrTrackNotFound) {
		t.Fatalf("err=%v, want ErrTrackNotFound", err)
	}
	missing := uuid.New()
	if err := rec.Accept(ctx, room.ID, track.ID, &missing, "manual"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("err=%v, want ErrEventNotFound", err)
	}
	// Event belongs to a different room.
	if err := rec.Accept(ctx, other.ID, track.ID, &res.EventID, "manual"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("err=%v, want ErrEventNotFound", err)
	}
}
