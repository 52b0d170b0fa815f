package core

import (
	"encoding/json"
	"time"
)

// MessageKind discriminates RoomMessage payloads.
type MessageKind string

const (
	// MessageJoin announces a participant joining; payload is the Participant.
	MessageJoin MessageKind = "join"
	// MessageLeave announces a participant leaving; no payload.
	MessageLeave MessageKind = "leave"
	// MessageCodeUpdate carries a full-buffer code change; payload is a CodeUpdate.
	MessageCodeUpdate MessageKind = "code-update"
	// MessageCursorMove carries a cursor position; presentation-only, never
	// folded into room state.
	MessageCursorMove MessageKind = "cursor-move"
	// MessageLanguageChange announces a language switch. In practice language
	// rides along inside code-update payloads; the kind is kept for wire
	// compatibility with older tabs.
	MessageLanguageChange MessageKind = "language-change"
)

// RoomMessage is the envelope for everything crossing the broadcast
// transport. All tabs receive all rooms' messages and filter on RoomID.
type RoomMessage struct {
	Kind      MessageKind     `json:"kind"`
	RoomID    string          `json:"roomId"`
	UserID    string          `json:"userId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// CodeUpdate carries a code/language change through the transport. It is
// transient: on receipt its payload is folded into the room's code and
// language fields and the update itself is discarded.
type CodeUpdate struct {
	RoomID    string    `json:"roomId"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

func newJoinMessage(roomID string, p Participant) RoomMessage {
	payload, _ := json.Marshal(p)
	return RoomMessage{
		Kind:      MessageJoin,
		RoomID:    roomID,
		UserID:    p.ID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

func newLeaveMessage(roomID, userID string) RoomMessage {
	return RoomMessage{
		Kind:      MessageLeave,
		RoomID:    roomID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func newCodeUpdateMessage(u CodeUpdate) RoomMessage {
	payload, _ := json.Marshal(u)
	return RoomMessage{
		Kind:      MessageCodeUpdate,
		RoomID:    u.RoomID,
		UserID:    u.UserID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// JoinedParticipant decodes the payload of a join message.
func (m RoomMessage) JoinedParticipant() (Participant, error) {
	var p Participant
	err := json.Unmarshal(m.Payload, &p)
	return p, err
}

// Update decodes the payload of a code-update message.
func (m RoomMessage) Update() (CodeUpdate, error) {
	var u CodeUpdate
	err := json.Unmarshal(m.Payload, &u)
	return u, err
}
