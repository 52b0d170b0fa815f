package sqlite

import (
	"bytes"
	"context"
	"testing"
)

func TestLoadMissingKey(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	_, ok, err := s.Load(context.Background(), "liveshare:rooms")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Fatal("expected missing key, got ok=true")
	}
}

func TestSaveLoadOverwrite(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value []byte
	}{
		{name: "first write", key: "liveshare:rooms", value: []byte(`{"rooms":{}}`)},
		{name: "overwrite", key: "liveshare:rooms", value: []byte(`{"rooms":{"a":{}}}`)},
		{name: "independent key", key: "liveshare:snippets", value: []byte(`[]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Save(ctx, tt.key, tt.value); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			got, ok, err := s.Load(ctx, tt.key)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if !ok {
				t.Fatal("expected key to exist")
			}
			if !bytes.Equal(got, tt.value) {
				t.Fatalf("Load returned %q, want %q", got, tt.value)
			}
		})
	}
}

func TestKeysAreIsolated(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	if err := s.Save(ctx, "liveshare:rooms", []byte("rooms")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, "liveshare:snippets", []byte("snips")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := s.Load(ctx, "liveshare:rooms")
	if err != nil || !ok {
		t.Fatalf("Load rooms: ok=%v err=%v", ok, err)
	}
	if string(got) != "rooms" {
		t.Fatalf("rooms snapshot clobbered: %q", got)
	}
}
