package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kyotosound/soundrooms-backend/internal/types"
)

func TestCreateRoomValidation(t *testing.T) {
	env := newTestEnv(t)
	rs := env.roomService(t, env.playbackService(t))
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")

	if _, err := rs.Create(ctx, CreateRoomInput{ArtistID: artist.ID}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err=%v, want ErrInvalidInput for missing name", err)
	}
	if _, err := rs.Create(ctx, CreateRoomInput{ArtistID: uuid.New(), Name: "room"}); !errors.Is(err, ErrArtistNotFound) {
		t.Fatalf("err=%v, want ErrArtistNotFound", err)
	}
	if _, err := rs.Create(ctx, CreateRoomInput{ArtistID: artist.ID, Name: "room", Mode: "karaoke"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err=%v, want ErrInvalidInput for unknown mode", err)
	}

	room, err := rs.Create(ctx, CreateRoomInput{ArtistID: artist.ID, Name: "room"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if room.Mode != types.RoomModeLive {
		t.Fatalf("mode=%q, want default live", room.Mode)
	}
}

func TestJoinFirstListenerResumesPlayback(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	rs := env.roomService(t, ps)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	track := env.seedTrack(t, artist.ID, "song")
	alice := env.seedUser(t, "alice@example.com")

	// Empty room: playing state gets paused when everyone is gone.
	if _, err := ps.SetTrack(ctx, room.ID, track.ID, SetTrackInput{IsPaused: true, OffsetMS: 42000}); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}

	membership, err := rs.Join(ctx, room.ID, alice.ID)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if membership.LeftAt != nil {
		t.Fatal("fresh membership should be active")
	}

	state, err := ps.GetState(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.IsPaused {
		t.Fatal("first listener joining should resume playback")
	}
	if state.OffsetMS != 42000 {
		t.Fatalf("offset_ms=%d, want 42000 preserved across resume", state.OffsetMS)
	}
	if state.Listeners != 1 {
		t.Fatalf("listeners=%d, want 1", state.Listeners)
	}
}

func TestJoinIdempotentWhileActive(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	rs := env.roomService(t, ps)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	alice := env.seedUser(t, "alice@example.com")

	first, err := rs.Join(ctx, room.ID, alice.ID)
	if err != nil {
		t.Fatalf("first Join: %v", err)
	}
	env.clock.Advance(time.Minute)
	second, err := rs.Join(ctx, room.ID, alice.ID)
	if err != nil {
		t.Fatalf("second Join: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("re-join while active must reuse the membership row")
	}
	if !second.JoinedAt.Equal(first.JoinedAt) {
		t.Fatal("re-join while active must not restamp joined_at")
	}
	count, err := env.membershipRepo.CountActiveByRoom(ctx, nil, room.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("active members=%d, want 1", count)
	}
}

func TestRejoinAfterLeaveReactivates(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	rs := env.roomService(t, ps)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	alice := env.seedUser(t, "alice@example.com")

	first, err := rs.Join(ctx, room.ID, alice.ID)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := rs.Leave(ctx, room.ID, alice.ID); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	env.clock.Advance(10 * time.Minute)
	again, err := rs.Join(ctx, room.ID, alice.ID)
	if err != nil {
		t.Fatalf("re-Join: %v", err)
	}
	if again.ID != first.ID {
		t.Fatal("re-join must reactivate the same membership row")
	}
	if again.LeftAt != nil {
		t.Fatal("reactivated membership should clear left_at")
	}
	if again.JoinedAt.Equal(first.JoinedAt) {
		t.Fatal("reactivation should restamp joined_at")
	}
}

func TestLastListenerLeavingPausesWithPosition(t *testing.T) {
	env := newTestEnv(t)
	ps := env.playbackService(t)
	rs := env.roomService(t, ps)
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	track := env.seedTrack(t, artist.ID, "song")
	alice := env.seedUser(t, "alice@example.com")
	bob := env.seedUser(t, "bob@example.com")

	if _, err := rs.Join(ctx, room.ID, alice.ID); err != nil {
		t.Fatalf("Join alice: %v", err)
	}
	if _, err := rs.Join(ctx, room.ID, bob.ID); err != nil {
		t.Fatalf("Join bob: %v", err)
	}
	if _, err := ps.SetTrack(ctx, room.ID, track.ID, SetTrackInput{}); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}

	env.clock.Advance(90 * time.Second)
	if err := rs.Leave(ctx, room.ID, alice.ID); err != nil {
		t.Fatalf("Leave alice: %v", err)
	}
	state, err := ps.GetState(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.IsPaused {
		t.Fatal("room still has a listener, playback must keep going")
	}
	if state.Listeners != 1 {
		t.Fatalf("listeners=%d, want 1", state.Listeners)
	}

	env.clock.Advance(30 * time.Second)
	if err := rs.Leave(ctx, room.ID, bob.ID); err != nil {
		t.Fatalf("Leave bob: %v", err)
	}
	state, err = ps.GetState(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !state.IsPaused {
		t.Fatal("last listener leaving must pause playback")
	}
	if state.OffsetMS != 120000 {
		t.Fatalf("offset_ms=%d, want 120000 captured at pause", state.OffsetMS)
	}
	if state.Listeners != 0 {
		t.Fatalf("listeners=%d, want 0", state.Listeners)
	}

	// Leaving twice is a no-op, not an error.
	if err := rs.Leave(ctx, room.ID, bob.ID); err != nil {
		t.Fatalf("second Leave: %v", err)
	}
	if err := rs.Leave(ctx, room.ID, uuid.New()); !errors.Is(err, ErrMembershipNotFound) {
		t.Fatalf("err=%v, want ErrMembershipNotFound", err)
	}
}

func TestQueueLifecycle(t *testing.T) {
	env := newTestEnv(t)
	rs := env.roomService(t, env.playbackService(t))
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	trackA := env.seedTrack(t, artist.ID, "a")
	trackB := env.seedTrack(t, artist.ID, "b")
	alice := env.seedUser(t, "alice@example.com")

	if _, err := rs.PopNext(ctx, room.ID); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("err=%v, want ErrQueueEmpty", err)
	}

	first, err := rs.Enqueue(ctx, room.ID, EnqueueInput{TrackID: trackA.ID, RequestedByID: &alice.ID})
	if err != nil {
		t.Fatalf("Enqueue A: %v", err)
	}
	second, err := rs.Enqueue(ctx, room.ID, EnqueueInput{TrackID: trackB.ID})
	if err != nil {
		t.Fatalf("Enqueue B: %v", err)
	}
	if first.Position != 1 || second.Position != 2 {
		t.Fatalf("positions=%d,%d, want 1,2", first.Position, second.Position)
	}

	entries, err := rs.ListQueue(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListQueue: %v", err)
	}
	if len(entries) != 2 || entries[0].TrackID != trackA.ID {
		t.Fatalf("unexpected queue order: %+v", entries)
	}

	popped, err := rs.PopNext(ctx, room.ID)
	if err != nil {
		t.Fatalf("PopNext: %v", err)
	}
	if popped.TrackID != trackA.ID {
		t.Fatalf("popped=%v, want head %v", popped.TrackID, trackA.ID)
	}

	if err := rs.Dequeue(ctx, room.ID, second.ID); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if _, err := rs.PopNext(ctx, room.ID); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("err=%v, want ErrQueueEmpty after drain", err)
	}

	if _, err := rs.Enqueue(ctx, room.ID, EnqueueInput{TrackID: uuid.New()}); !errors.Is(err, ErrTrackNotFound) {
		t.Fatalf("err=%v, want ErrTrackNotFound", err)
	}
}

func TestDequeueWrongRoom(t *testing.T) {
	env := newTestEnv(t)
	rs := env.roomService(t, env.playbackService(t))
	ctx := context.Background()

	artist := env.seedArtist(t, "ichiko")
	room := env.seedRoom(t, artist.ID, "room")
	other := env.seedRoom(t, artist.ID, "other")
	track := env.seedTrack(t, artist.ID, "a")

	entry, err := rs.Enqueue(ctx, room.ID, EnqueueInput{TrackID: track.ID})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := rs.Dequeue(ctx, other.ID, entry.ID); !errors.Is(err, ErrQueueEntryNotFound) {
		t.Fatalf("err=%v, want ErrQueueEntryNotFound", err)
	}
	entries, err := rs.ListQueue(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListQueue: %v", err)
	}
	if len(entries) != 1 {
		t.Fatal("entry must survive a cross-room dequeue attempt")
	}
}
