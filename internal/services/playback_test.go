package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kyotosound/soundrooms-backend/internal/types"
)

func TestSetTrackCreatesStateAndOpensSpan(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	track := env.seedTrack(t, artist.ID, "migration")
	room := env.seedRoom(t, artist.ID, "morning room")

	state, err := ps.SetTrack(ctx, room.ID, track.ID, SetTrackInput{OffsetMS: 0, IsPaused: false})
	if err != nil {
		t.Fatalf("SetTrack: %v", err)
	}
	if state.TrackID != track.ID {
		t.Fatalf("state.TrackID=%v, want %v", state.TrackID, track.ID)
	}
	if !state.AnchorServerTS.Equal(env.clock.Now()) {
		t.Fatalf("anchor=%v, want %v", state.AnchorServerTS, env.clock.Now())
	}
	if state.IsPaused {
		t.Fatal("state should be playing")
	}

	spans := env.openSpans(t, room.ID)
	if len(spans) != 1 {
		t.Fatalf("open spans=%d, want 1", len(spans))
	}
	if spans[0].TrackID != track.ID {
		t.Fatalf("span track=%v, want %v", spans[0].TrackID, track.ID)
	}

	got, err := env.trackRepo.GetByID(ctx, nil, track.ID)
	if err != nil {
		t.Fatalf("reload track: %v", err)
	}
	if got.PlayCount != 1 {
		t.Fatalf("play_count=%d, want 1", got.PlayCount)
	}
	if got.LastPlayedAt == nil {
		t.Fatal("last_played_at not set")
	}

	reloaded, err := env.roomRepo.GetByID(ctx, nil, room.ID)
	if err != nil {
		t.Fatalf("reload room: %v", err)
	}
	if reloaded.LiveTrackID == nil || *reloaded.LiveTrackID != track.ID {
		t.Fatalf("room live track not set")
	}
}

func TestSetTrackUnknownRoomOrTrack(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	ctx := context.Background()

	artist := env.seedArtist(t, "haru")
	track := env.seedTrack(t, artist.ID, "a")
	room := env.seedRoom(t, artist.ID, "r")

	if _, err := ps.SetTrack(ctx, uuid.New(), track.ID, SetTrackInput{}); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err=%v, want ErrRoomNotFound", err)
	}
	if _, err := ps.SetTrack(ctx, room.ID, uuid.New(), SetTrackInput{}); !errors.Is(err, ErrTrackNotFound) {
		t.Fatalf("err=%v, want ErrTrackNotFound", err)
	}
}

func TestTrackChangeBookkeeping(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	trackA := env.seedTrack(t, artist.ID, "first")
	trackB := env.seedTrack(t, artist.ID, "second")
	room := env.seedRoom(t, artist.ID, "room")

	if _, err := ps.SetTrack(ctx, room.ID, trackA.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack A: %v", err)
	}
	env.clock.Advance(3 * time.Minute)
	changeAt := env.clock.Now()
	if _, err := ps.SetTrack(ctx, room.ID, trackB.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack B: %v", err)
	}

	spans := env.openSpans(t, room.ID)
	if len(spans) != 1 {
		t.Fatalf("open spans=%d, want 1", len(spans))
	}
	if spans[0].TrackID != trackB.ID {
		t.Fatalf("open span track=%v, want B=%v", spans[0].TrackID, trackB.ID)
	}

	all, err := env.historyRepo.ListRecentByRoom(ctx, nil, room.ID, 0)
	if err != nil {
		t.Fatalf("list spans: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("total spans=%d, want 2", len(all))
	}
	found := false
	for _, span := range all {
		if span.TrackID != trackA.ID {
			continue
		}
		found = true
		if span.EndedAt == nil {
			t.Fatal("span for A not closed")
		}
		if !span.EndedAt.Equal(changeAt) {
			t.Fatalf("A ended_at=%v, want %v", span.EndedAt, changeAt)
		}
		if span.WasSkipped {
			t.Fatal("3-minute play should not count as a skip")
		}
	}
	if !found {
		t.Fatal("no span found for track A")
	}

	gotB, err := env.trackRepo.GetByID(ctx, nil, trackB.ID)
	if err != nil {
		t.Fatalf("reload B: %v", err)
	}
	if gotB.PlayCount != 1 {
		t.Fatalf("B play_count=%d, want 1", gotB.PlayCount)
	}
}

func TestQuickTrackChangeCountsAsSkip(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	trackA := env.seedTrack(t, artist.ID, "skipped")
	trackB := env.seedTrack(t, artist.ID, "kept")
	room := env.seedRoom(t, artist.ID, "room")

	if _, err := ps.SetTrack(ctx, room.ID, trackA.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack A: %v", err)
	}
	env.clock.Advance(10 * time.Second)
	if _, err := ps.SetTrack(ctx, room.ID, trackB.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack B: %v", err)
	}

	all, err := env.historyRepo.ListRecentByRoom(ctx, nil, room.ID, 0)
	if err != nil {
		t.Fatalf("list spans: %v", err)
	}
	for _, span := range all {
		if span.TrackID == trackA.ID && !span.WasSkipped {
			t.Fatal("10-second span should be marked skipped")
		}
	}
	gotA, err := env.trackRepo.GetByID(ctx, nil, trackA.ID)
	if err != nil {
		t.Fatalf("reload A: %v", err)
	}
	if gotA.SkipCount != 1 {
		t.Fatalf("A skip_count=%d, want 1", gotA.SkipCount)
	}
}

func TestCloseSpansToleratesMissingTrack(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	trackA := env.seedTrack(t, artist.ID, "first")
	trackB := env.seedTrack(t, artist.ID, "second")
	room := env.seedRoom(t, artist.ID, "room")

	if _, err := ps.SetTrack(ctx, room.ID, trackA.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack A: %v", err)
	}
	// A stray second open span whose track no longer exists.
	_, err := env.historyRepo.Create(ctx, nil, &types.RoomTrackHistory{
		RoomID:   room.ID,
		TrackID:  uuid.New(),
		PlayedAt: env.clock.Now().Add(time.Millisecond),
	})
	if err != nil {
		t.Fatalf("seed stray span: %v", err)
	}

	env.clock.Advance(10 * time.Second)
	if _, err := ps.SetTrack(ctx, room.ID, trackB.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack B: %v", err)
	}

	spans := env.openSpans(t, room.ID)
	if len(spans) != 1 || spans[0].TrackID != trackB.ID {
		t.Fatalf("open spans=%+v, want only the span for B", spans)
	}
	gotA, err := env.trackRepo.GetByID(ctx, nil, trackA.ID)
	if err != nil {
		t.Fatalf("reload A: %v", err)
	}
	if gotA.SkipCount != 1 {
		t.Fatalf("A skip_count=%d, want 1", gotA.SkipCount)
	}
}

func TestSameTrackPauseResumeNoSpanChurn(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	track := env.seedTrack(t, artist.ID, "loop")
	room := env.seedRoom(t, artist.ID, "room")

	if _, err := ps.SetTrack(ctx, room.ID, track.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}
	for i := 0; i < 3; i++ {
		env.clock.Advance(time.Minute)
		if err := ps.Pause(ctx, room.ID, nil); err != nil {
			t.Fatalf("Pause: %v", err)
		}
		env.clock.Advance(time.Minute)
		if err := ps.Resume(ctx, room.ID, nil); err != nil {
			t.Fatalf("Resume: %v", err)
		}
	}

	all, err := env.historyRepo.ListRecentByRoom(ctx, nil, room.ID, 0)
	if err != nil {
		t.Fatalf("list spans: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("spans=%d, want 1 (no churn)", len(all))
	}
	if all[0].EndedAt != nil {
		t.Fatal("single span should remain open")
	}
	got, err := env.trackRepo.GetByID(ctx, nil, track.ID)
	if err != nil {
		t.Fatalf("reload track: %v", err)
	}
	if got.PlayCount != 1 {
		t.Fatalf("play_count=%d, want 1", got.PlayCount)
	}
}

func TestPauseCapturesElapsedOffset(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	track := env.seedTrack(t, artist.ID, "five-seconds")
	room := env.seedRoom(t, artist.ID, "room")

	if _, err := ps.SetTrack(ctx, room.ID, track.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}
	env.clock.Advance(5 * time.Second)
	if err := ps.Pause(ctx, room.ID, nil); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	state, err := ps.GetState(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !state.IsPaused {
		t.Fatal("state should be paused")
	}
	if state.OffsetMS != 5000 {
		t.Fatalf("offset_ms=%d, want 5000", state.OffsetMS)
	}

	// Position stays frozen while paused.
	env.clock.Advance(time.Hour)
	pos := PlaybackPositionMS(state.AnchorServerTS, state.OffsetMS, state.IsPaused, env.clock.Now())
	if pos != 5000 {
		t.Fatalf("paused position=%d, want 5000", pos)
	}
}

func TestResumeReanchorsWithoutPositionJump(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	track := env.seedTrack(t, artist.ID, "continuity")
	room := env.seedRoom(t, artist.ID, "room")

	if _, err := ps.SetTrack(ctx, room.ID, track.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}
	env.clock.Advance(7 * time.Second)
	if err := ps.Pause(ctx, room.ID, nil); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	env.clock.Advance(10 * time.Minute)
	if err := ps.Resume(ctx, room.ID, nil); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	state, err := ps.GetState(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.IsPaused {
		t.Fatal("state should be playing")
	}
	if state.OffsetMS != 7000 {
		t.Fatalf("offset_ms=%d, want 7000", state.OffsetMS)
	}
	// Position picks up exactly where pause froze it.
	pos := PlaybackPositionMS(state.AnchorServerTS, state.OffsetMS, state.IsPaused, env.clock.Now())
	if pos != 7000 {
		t.Fatalf("resumed position=%d, want 7000", pos)
	}
	// And advances again with the clock.
	env.clock.Advance(3 * time.Second)
	pos = PlaybackPositionMS(state.AnchorServerTS, state.OffsetMS, state.IsPaused, env.clock.Now())
	if pos != 10000 {
		t.Fatalf("position=%d, want 10000", pos)
	}
	// start_ts was recomputed so that now - start_ts equals the offset.
	if got := state.AnchorServerTS.Sub(state.StartTS).Milliseconds(); got != 7000 {
		t.Fatalf("start_ts recomputed to %dms before anchor, want 7000", got)
	}
}

func TestResumePauseIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	track := env.seedTrack(t, artist.ID, "idem")
	room := env.seedRoom(t, artist.ID, "room")

	// No state yet: both are silent no-ops.
	if err := ps.Resume(ctx, room.ID, nil); err != nil {
		t.Fatalf("Resume without state: %v", err)
	}
	if err := ps.Pause(ctx, room.ID, nil); err != nil {
		t.Fatalf("Pause without state: %v", err)
	}
	if _, err := ps.GetState(ctx, room.ID); !errors.Is(err, ErrPlaybackNotFound) {
		t.Fatalf("err=%v, want ErrPlaybackNotFound", err)
	}

	if _, err := ps.SetTrack(ctx, room.ID, track.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}
	before, err := ps.GetState(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}

	// Resume while already playing must not re-anchor.
	env.clock.Advance(time.Minute)
	if err := ps.Resume(ctx, room.ID, nil); err != nil {
		t.Fatalf("Resume while playing: %v", err)
	}
	after, err := ps.GetState(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !after.AnchorServerTS.Equal(before.AnchorServerTS) {
		t.Fatal("resume while playing must not move the anchor")
	}

	// Pause twice: second is a no-op, offset unchanged.
	if err := ps.Pause(ctx, room.ID, nil); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	paused, _ := ps.GetState(ctx, room.ID)
	env.clock.Advance(time.Minute)
	if err := ps.Pause(ctx, room.ID, nil); err != nil {
		t.Fatalf("second Pause: %v", err)
	}
	pausedAgain, _ := ps.GetState(ctx, room.ID)
	if pausedAgain.OffsetMS != paused.OffsetMS {
		t.Fatalf("second pause changed offset: %d -> %d", paused.OffsetMS, pausedAgain.OffsetMS)
	}
}

func TestResumeUpdatesListenersWithoutReanchor(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	track := env.seedTrack(t, artist.ID, "listeners")
	room := env.seedRoom(t, artist.ID, "room")

	two := 2
	if _, err := ps.SetTrack(ctx, room.ID, track.ID, SetTrackInput{Listeners: &two}); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}
	env.clock.Advance(time.Minute)
	five := 5
	if err := ps.Resume(ctx, room.ID, &five); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	state, err := ps.GetState(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Listeners != 5 {
		t.Fatalf("listeners=%d, want 5", state.Listeners)
	}
}

func TestRecomputeListeners(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	track := env.seedTrack(t, artist.ID, "count")
	room := env.seedRoom(t, artist.ID, "room")
	alice := env.seedUser(t, "alice@example.com")
	bob := env.seedUser(t, "bob@example.com")

	now := env.clock.Now()
	for _, u := range []uuid.UUID{alice.ID, bob.ID} {
		_, err := env.membershipRepo.Create(ctx, nil, &types.RoomMembership{
			RoomID:   room.ID,
			UserID:   u,
			Role:     types.MembershipRoleMember,
			JoinedAt: now,
		})
		if err != nil {
			t.Fatalf("seed membership: %v", err)
		}
	}

	count, err := ps.RecomputeListeners(ctx, room.ID)
	if err != nil {
		t.Fatalf("RecomputeListeners: %v", err)
	}
	if count != 2 {
		t.Fatalf("count=%d, want 2", count)
	}

	// With playback state present the count is written through.
	if _, err := ps.SetTrack(ctx, room.ID, track.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}
	// One member leaves.
	m, err := env.membershipRepo.GetByRoomAndUser(ctx, nil, room.ID, bob.ID)
	if err != nil {
		t.Fatalf("load membership: %v", err)
	}
	left := env.clock.Now()
	m.LeftAt = &left
	if err := env.membershipRepo.Save(ctx, nil, m); err != nil {
		t.Fatalf("save membership: %v", err)
	}

	count, err = ps.RecomputeListeners(ctx, room.ID)
	if err != nil {
		t.Fatalf("RecomputeListeners: %v", err)
	}
	if count != 1 {
		t.Fatalf("count=%d, want 1", count)
	}
	state, err := ps.GetState(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Listeners != 1 {
		t.Fatalf("state listeners=%d, want 1", state.Listeners)
	}
}
