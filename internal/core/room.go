package core

import (
	"math/rand"
	"time"
)

// DefaultLanguage is the language tag a fresh room starts with.
const DefaultLanguage = "javascript"

// participantPalette is the fixed set of display colors handed out at join
// time. Colors are picked at random and may repeat across participants.
var participantPalette = []string{
	"#ef4444", // red
	"#f97316", // orange
	"#eab308", // yellow
	"#22c55e", // green
	"#06b6d4", // cyan
	"#3b82f6", // blue
	"#8b5cf6", // violet
	"#ec4899", // pink
}

func pickColor() string {
	return participantPalette[rand.Intn(len(participantPalette))]
}

// Participant is one user's membership record within a room.
type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joinedAt"`
	IsActive bool      `json:"isActive"`
}

// Room is a named, uniquely identified shared coding session. Participants
// keep insertion order; the code buffer is a whole-value, last-write-wins
// field with no merging.
type Room struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CreatedAt    time.Time     `json:"createdAt"`
	CreatedBy    string        `json:"createdBy"`
	Participants []Participant `json:"participants"`
	ActiveCode   string        `json:"activeCode"`
	Language     string        `json:"language"`
	IsLocked     bool          `json:"isLocked"`
}

// Clone returns a deep copy so callers can never reach into registry state.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	out.Participants = make([]Participant, len(r.Participants))
	copy(out.Participants, r.Participants)
	return &out
}

// upsertParticipant appends p, first dropping any prior entry with the same
// id so a re-join never produces duplicates.
func (r *Room) upsertParticipant(p Participant) {
	r.removeParticipant(p.ID)
	r.Participants = append(r.Participants, p)
}

// removeParticipant filters out the entry with the given id, if present.
func (r *Room) removeParticipant(id string) {
	kept := r.Participants[:0]
	for _, p := range r.Participants {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	r.Participants = kept
}

// HasParticipant reports whether id is currently in the roster.
func (r *Room) HasParticipant(id string) bool {
	for _, p := range r.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}
