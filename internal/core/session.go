package core

import (
	"context"
	"sync"
	"time"

	"github.com/shahjalal-bu/liveshare/internal/utils"
)

// Session is the per-tab controller between user intent and the registry.
// It owns a stable participant id, at most one joined room, and an
// eventually consistent local view of that room's roster and code buffer,
// reconciled from inbound messages. All methods are safe to call from any
// goroutine; inbound messages arrive on bus goroutines.
type Session struct {
	reg      *Registry
	userID   string
	userName string

	mu        sync.Mutex
	room      *Room
	roster    []Participant
	code      string
	language  string
	connected bool
	unsub     func()
}

// View is a read snapshot of session state for the presentation layer.
type View struct {
	Room      *Room
	Roster    []Participant
	Code      string
	Language  string
	Connected bool
}

// NewSession creates a disconnected session with a fresh participant id.
// The id is generated once and stays stable for the session's lifetime.
func NewSession(reg *Registry, userName string) *Session {
	return &Session{
		reg:      reg,
		userID:   utils.NewSessionID(),
		userName: userName,
	}
}

// UserID returns the session's stable participant id.
func (s *Session) UserID() string { return s.userID }

// UserName returns the session's display name.
func (s *Session) UserName() string { return s.userName }

// Connected reports whether the session is bound to a room.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// CreateRoom creates a room and immediately joins it.
func (s *Session) CreateRoom(ctx context.Context, roomName string) (*Room, error) {
	room := s.reg.CreateRoom(ctx, roomName, s.userID)
	if err := s.Join(ctx, room.ID); err != nil {
		return nil, err
	}
	return s.Snapshot().Room, nil
}

// Join binds the session to roomID. On rejection the session stays
// disconnected and the error is the user-facing signal.
func (s *Session) Join(ctx context.Context, roomID string) error {
	s.mu.Lock()
	if s.connected {
		unsub := s.unsub
		prev := s.room
		s.mu.Unlock()
		// One room at a time: joining elsewhere leaves the current room first.
		if unsub != nil {
			unsub()
		}
		if prev != nil {
			s.reg.LeaveRoom(ctx, prev.ID, s.userID)
		}
		s.mu.Lock()
		s.reset()
	}
	s.mu.Unlock()

	room, err := s.reg.JoinRoom(ctx, roomID, s.userID, s.userName)
	if err != nil {
		return err
	}

	unsub := s.reg.Subscribe(roomID, s.handleMessage)

	s.mu.Lock()
	s.room = room
	s.roster = append([]Participant(nil), room.Participants...)
	s.code = room.ActiveCode
	s.language = room.Language
	s.connected = true
	s.unsub = unsub
	s.mu.Unlock()
	return nil
}

// Leave detaches from the current room. A no-op when disconnected.
func (s *Session) Leave(ctx context.Context) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	roomID := s.room.ID
	unsub := s.unsub
	s.reset()
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.reg.LeaveRoom(ctx, roomID, s.userID)
}

// EditCode replaces the shared buffer with the full current text. The local
// view updates optimistically before the registry round-trip; the echo of
// this update is ignored on receipt so in-flight edits are not clobbered.
func (s *Session) EditCode(ctx context.Context, code string) error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.code = code
	u := CodeUpdate{
		RoomID:    s.room.ID,
		Code:      code,
		Language:  s.language,
		UserID:    s.userID,
		Timestamp: time.Now(),
	}
	s.mu.Unlock()

	s.reg.UpdateCode(ctx, u)
	return nil
}

// SetLanguage switches the shared language tag, same optimistic pattern as
// EditCode.
func (s *Session) SetLanguage(ctx context.Context, language string) error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.language = language
	u := CodeUpdate{
		RoomID:    s.room.ID,
		Code:      s.code,
		Language:  language,
		UserID:    s.userID,
		Timestamp: time.Now(),
	}
	s.mu.Unlock()

	s.reg.UpdateCode(ctx, u)
	return nil
}

// ShareLink returns the URL that drops a visitor into the current room, or
// "" when disconnected.
func (s *Session) ShareLink() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ""
	}
	return s.reg.ShareableLink(s.room.ID)
}

// CopyLink writes the share link to the clipboard, best effort.
func (s *Session) CopyLink() bool {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return false
	}
	roomID := s.room.ID
	s.mu.Unlock()
	return s.reg.CopyShareableLink(roomID)
}

// Snapshot returns a copy of the reactive state the presentation layer
// renders.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Room:      s.room.Clone(),
		Roster:    append([]Participant(nil), s.roster...),
		Code:      s.code,
		Language:  s.language,
		Connected: s.connected,
	}
}

// handleMessage reconciles one inbound message into the local view.
func (s *Session) handleMessage(msg RoomMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected || s.room == nil || msg.RoomID != s.room.ID {
		return
	}

	switch msg.Kind {
	case MessageJoin:
		p, err := msg.JoinedParticipant()
		if err != nil {
			return
		}
		for _, known := range s.roster {
			if known.ID == p.ID {
				return
			}
		}
		s.roster = append(s.roster, p)
	case MessageLeave:
		kept := s.roster[:0]
		for _, p := range s.roster {
			if p.ID != msg.UserID {
				kept = append(kept, p)
			}
		}
		s.roster = kept
	case MessageCodeUpdate:
		// Self-originated echoes were already applied optimistically;
		// re-applying would clobber newer local edits.
		if msg.UserID == s.userID {
			return
		}
		u, err := msg.Update()
		if err != nil {
			return
		}
		s.code = u.Code
		s.language = u.Language
	case MessageCursorMove, MessageLanguageChange:
		// Nothing to fold into the view.
	}
}

// reset clears room-bound state; caller holds the lock.
func (s *Session) reset() {
	s.room = nil
	s.roster = nil
	s.code = ""
	s.language = ""
	s.connected = false
	s.unsub = nil
}
