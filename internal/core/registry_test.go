package core

import (
	"context"
	"testing"

	"github.com/shahjalal-bu/liveshare/internal/bus"
)

func TestCreateThenJoinHasExactlyCreator(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(newFakeStore(), bus.NewMemory(), "https://example.test/live", nil)
	defer reg.Close()

	room := reg.CreateRoom(ctx, "Demo", "u1")
	if len(room.Participants) != 0 {
		t.Fatalf("fresh room should have no participants, got %d", len(room.Participants))
	}
	if room.Language != DefaultLanguage {
		t.Fatalf("fresh room language = %q, want %q", room.Language, DefaultLanguage)
	}

	joined, err := reg.JoinRoom(ctx, room.ID, "u1", "Alice")
	if err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	if !sameIDs(rosterIDs(joined.Participants), "u1") {
		t.Fatalf("roster = %v, want exactly [u1]", rosterIDs(joined.Participants))
	}
}

func TestJoinUnknownRoomIsNotFound(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(newFakeStore(), bus.NewMemory(), "https://example.test/live", nil)
	defer reg.Close()

	if _, err := reg.JoinRoom(ctx, "no-such-room", "u1", "Alice"); err != ErrRoomNotFound {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestJoinLockedRoomIsRejected(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(newFakeStore(), bus.NewMemory(), "https://example.test/live", nil)
	defer reg.Close()

	room := reg.CreateRoom(ctx, "Locked", "u1")
	if _, err := reg.JoinRoom(ctx, room.ID, "u1", "Alice"); err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	reg.SetLocked(ctx, room.ID, true)

	if _, err := reg.JoinRoom(ctx, room.ID, "u3", "Carol"); err != ErrRoomLocked {
		t.Fatalf("err = %v, want ErrRoomLocked", err)
	}

	got := reg.GetRoom(ctx, room.ID)
	if !sameIDs(rosterIDs(got.Participants), "u1") {
		t.Fatalf("rejected join changed roster: %v", rosterIDs(got.Participants))
	}
}

func TestRejoinIsIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(newFakeStore(), bus.NewMemory(), "https://example.test/live", nil)
	defer reg.Close()

	room := reg.CreateRoom(ctx, "Demo", "u1")
	first, err := reg.JoinRoom(ctx, room.ID, "u1", "Alice")
	if err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	second, err := reg.JoinRoom(ctx, room.ID, "u1", "Alice")
	if err != nil {
		t.Fatalf("re-join failed: %v", err)
	}

	if !sameIDs(rosterIDs(second.Participants), "u1") {
		t.Fatalf("re-join duplicated entry: %v", rosterIDs(second.Participants))
	}
	// The replacement entry may carry a refreshed timestamp.
	if second.Participants[0].JoinedAt.Before(first.Participants[0].JoinedAt) {
		t.Fatal("re-join kept a stale join timestamp")
	}
}

func TestLeaveRemovesExactlyOneAndToleratesStrangers(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(newFakeStore(), bus.NewMemory(), "https://example.test/live", nil)
	defer reg.Close()

	room := reg.CreateRoom(ctx, "Demo", "u1")
	_, _ = reg.JoinRoom(ctx, room.ID, "u1", "Alice")
	_, _ = reg.JoinRoom(ctx, room.ID, "u2", "Bob")

	reg.LeaveRoom(ctx, room.ID, "u2")
	got := reg.GetRoom(ctx, room.ID)
	if !sameIDs(rosterIDs(got.Participants), "u1") {
		t.Fatalf("roster after leave = %v, want [u1]", rosterIDs(got.Participants))
	}

	// Non-member and nonexistent room are silent no-ops.
	reg.LeaveRoom(ctx, room.ID, "u99")
	reg.LeaveRoom(ctx, "no-such-room", "u1")

	got = reg.GetRoom(ctx, room.ID)
	if got == nil {
		t.Fatal("room deleted after members left")
	}
	if !sameIDs(rosterIDs(got.Participants), "u1") {
		t.Fatalf("no-op leave changed roster: %v", rosterIDs(got.Participants))
	}

	// Even the last participant leaving keeps the room alive.
	reg.LeaveRoom(ctx, room.ID, "u1")
	if reg.GetRoom(ctx, room.ID) == nil {
		t.Fatal("room deleted after last participant left")
	}
}

func TestUpdateCodeLastWriteWins(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(newFakeStore(), bus.NewMemory(), "https://example.test/live", nil)
	defer reg.Close()

	room := reg.CreateRoom(ctx, "Demo", "u1")
	reg.UpdateCode(ctx, CodeUpdate{RoomID: room.ID, Code: "first", Language: "javascript", UserID: "u1"})
	reg.UpdateCode(ctx, CodeUpdate{RoomID: room.ID, Code: "second", Language: "go", UserID: "u2"})

	got := reg.GetRoom(ctx, room.ID)
	if got.ActiveCode != "second" || got.Language != "go" {
		t.Fatalf("code=%q lang=%q, want the later update exactly", got.ActiveCode, got.Language)
	}
}

func TestSubscribeSeesSelfOriginatedMessages(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(newFakeStore(), bus.NewMemory(), "https://example.test/live", nil)
	defer reg.Close()

	room := reg.CreateRoom(ctx, "Demo", "u1")
	rec := &recorder{}
	unsub := reg.Subscribe(room.ID, rec.callback)
	defer unsub()

	_, _ = reg.JoinRoom(ctx, room.ID, "u1", "Alice")

	msg := mustMessage(t, rec, MessageJoin, "u1")
	p, err := msg.JoinedParticipant()
	if err != nil {
		t.Fatalf("join payload: %v", err)
	}
	if p.Name != "Alice" || p.Color == "" {
		t.Fatalf("unexpected join participant: %+v", p)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(newFakeStore(), bus.NewMemory(), "https://example.test/live", nil)
	defer reg.Close()

	room := reg.CreateRoom(ctx, "Demo", "u1")
	rec := &recorder{}
	unsub := reg.Subscribe(room.ID, rec.callback)
	unsub()

	_, _ = reg.JoinRoom(ctx, room.ID, "u1", "Alice")

	if len(rec.all()) != 0 {
		t.Fatalf("cancelled subscriber received %d messages", len(rec.all()))
	}
}

func TestHydrateRoomFromStorage(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()

	creator := NewRegistry(st, bus.NewMemory(), "https://example.test/live", nil)
	room := creator.CreateRoom(ctx, "Persisted", "u1")
	creator.Close()

	// A registry that never witnessed creation resolves the room from the
	// shared snapshot.
	late := NewRegistry(st, bus.NewMemory(), "https://example.test/live", nil)
	defer late.Close()

	joined, err := late.JoinRoom(ctx, room.ID, "u2", "Bob")
	if err != nil {
		t.Fatalf("JoinRoom after hydration failed: %v", err)
	}
	if joined.Name != "Persisted" || !sameIDs(rosterIDs(joined.Participants), "u2") {
		t.Fatalf("hydrated room wrong: %+v", joined)
	}
}

func TestPersistenceFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.failSaves = true

	reg := NewRegistry(st, bus.NewMemory(), "https://example.test/live", nil)
	defer reg.Close()

	room := reg.CreateRoom(ctx, "Demo", "u1")
	rec := &recorder{}
	unsub := reg.Subscribe(room.ID, rec.callback)
	defer unsub()

	joined, err := reg.JoinRoom(ctx, room.ID, "u1", "Alice")
	if err != nil {
		t.Fatalf("join must succeed locally despite failed persistence: %v", err)
	}
	if !sameIDs(rosterIDs(joined.Participants), "u1") {
		t.Fatalf("roster = %v", rosterIDs(joined.Participants))
	}
	mustMessage(t, rec, MessageJoin, "u1")
}

func TestCrossTabSyncOverSharedBus(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	medium := bus.NewMemory()
	defer medium.Close()

	tabA := NewRegistry(st, medium, "https://example.test/live", nil)
	defer tabA.Close()
	tabB := NewRegistry(st, medium, "https://example.test/live", nil)
	defer tabB.Close()

	room := tabA.CreateRoom(ctx, "Demo", "u1")
	_, _ = tabA.JoinRoom(ctx, room.ID, "u1", "Alice")

	recA := &recorder{}
	unsubA := tabA.Subscribe(room.ID, recA.callback)
	defer unsubA()

	if _, err := tabB.JoinRoom(ctx, room.ID, "u2", "Bob"); err != nil {
		t.Fatalf("tab B join failed: %v", err)
	}

	// Tab A replays the join and its subscriber hears about it.
	mustMessage(t, recA, MessageJoin, "u2")
	waitFor(t, func() bool {
		got := tabA.GetRoom(ctx, room.ID)
		return sameIDs(rosterIDs(got.Participants), "u1", "u2")
	})

	// Code flows the other way.
	tabA.UpdateCode(ctx, CodeUpdate{RoomID: room.ID, Code: "console.log(1)", Language: "javascript", UserID: "u1"})
	waitFor(t, func() bool {
		got := tabB.GetRoom(ctx, room.ID)
		return got.ActiveCode == "console.log(1)"
	})

	// Leave propagates too.
	tabB.LeaveRoom(ctx, room.ID, "u2")
	left := mustMessage(t, recA, MessageLeave, "u2")
	if left.RoomID != room.ID {
		t.Fatalf("leave for wrong room: %+v", left)
	}
	waitFor(t, func() bool {
		got := tabA.GetRoom(ctx, room.ID)
		return sameIDs(rosterIDs(got.Participants), "u1")
	})
}

func TestShareableLinkAndClipboard(t *testing.T) {
	reg := NewRegistry(newFakeStore(), bus.NewMemory(), "https://shahjalal.dev/code-live", nil)
	defer reg.Close()

	link := reg.ShareableLink("abc 123")
	if link != "https://shahjalal.dev/code-live?room=abc+123" {
		t.Fatalf("link = %q", link)
	}

	clip := &fakeClip{result: true}
	reg.SetClipboard(clip)
	if !reg.CopyShareableLink("r1") {
		t.Fatal("copy should succeed")
	}
	if len(clip.wrote) != 1 || clip.wrote[0] != reg.ShareableLink("r1") {
		t.Fatalf("clipboard got %v", clip.wrote)
	}

	clip.result = false
	if reg.CopyShareableLink("r1") {
		t.Fatal("copy failure must surface as false")
	}
}
