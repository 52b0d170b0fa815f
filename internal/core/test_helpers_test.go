package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeStore is an in-memory store.Store for tests. failSaves makes every
// Save error to exercise the best-effort persistence policy.
type fakeStore struct {
	mu        sync.Mutex
	data      map[string][]byte
	failSaves bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return errors.New("quota exceeded")
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *fakeStore) Close() error { return nil }

// fakeClip records clipboard writes and returns a canned result.
type fakeClip struct {
	mu     sync.Mutex
	wrote  []string
	result bool
}

func (c *fakeClip) Write(text string) bool {
	c.mu.Lock()
	c.wrote = append(c.wrote, text)
	c.mu.Unlock()
	return c.result
}

// recorder collects messages delivered to a Subscribe callback.
type recorder struct {
	mu   sync.Mutex
	msgs []RoomMessage
}

func (r *recorder) callback(msg RoomMessage) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recorder) all() []RoomMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RoomMessage, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// mustMessage waits until the recorder holds a message of the given kind
// for userID and returns it.
func mustMessage(t *testing.T, rec *recorder, kind MessageKind, userID string) RoomMessage {
	t.Helper()

	var found RoomMessage
	waitFor(t, func() bool {
		for _, m := range rec.all() {
			if m.Kind == kind && m.UserID == userID {
				found = m
				return true
			}
		}
		return false
	})
	return found
}

func rosterIDs(ps []Participant) []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}

func sameIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
