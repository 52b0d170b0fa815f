package core

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shahjalal-bu/liveshare/internal/bus"
	"github.com/shahjalal-bu/liveshare/internal/clipboard"
	applog "github.com/shahjalal-bu/liveshare/internal/log"
	"github.com/shahjalal-bu/liveshare/internal/store"
)

// Registry is the single source of truth (per simulated tab) for room
// existence and membership, and the fan-out point for change notifications.
// One Registry corresponds to one browser tab: it owns an in-memory room
// map, snapshots it to the shared store, and exchanges RoomMessages with
// every other tab over the bus.
//
// Construct exactly one Registry per tab at startup and inject it into
// sessions; there is no package-level instance.
type Registry struct {
	id      string
	baseURL string
	store   store.Store
	bus     bus.Bus
	clip    clipboard.Writer
	log     *zerolog.Logger

	mu      sync.RWMutex
	rooms   map[string]*Room
	subs    map[string]map[int]func(RoomMessage)
	nextSub int

	cancelBus func()
}

// NewRegistry builds a registry bound to a snapshot store and a broadcast
// bus. Both may be nil: a nil store degrades to memory-only persistence, a
// nil bus isolates the registry from other tabs. baseURL is the page the
// shareable link points at.
func NewRegistry(st store.Store, b bus.Bus, baseURL string, logger *zerolog.Logger) *Registry {
	if logger == nil {
		logger = applog.Nop()
	}
	r := &Registry{
		id:      uuid.NewString(),
		baseURL: baseURL,
		store:   st,
		bus:     b,
		clip:    clipboard.System{Log: logger},
		log:     logger,
		rooms:   make(map[string]*Room),
		subs:    make(map[string]map[int]func(RoomMessage)),
	}
	if b != nil {
		r.cancelBus = b.Subscribe(r.handleFrame)
	}
	return r
}

// SetClipboard swaps the clipboard writer; used by the demo harness and tests.
func (r *Registry) SetClipboard(w clipboard.Writer) {
	r.clip = w
}

// Close detaches the registry from the bus. The store and bus themselves are
// owned by the caller and stay open.
func (r *Registry) Close() {
	if r.cancelBus != nil {
		r.cancelBus()
	}
}

// CreateRoom allocates a fresh room owned by creatorID: empty roster, empty
// code buffer, default language, unlocked. Creation alone broadcasts
// nothing; the creator becomes a participant only by joining.
func (r *Registry) CreateRoom(ctx context.Context, name, creatorID string) *Room {
	room := &Room{
		ID:           uuid.NewString(),
		Name:         name,
		CreatedAt:    time.Now(),
		CreatedBy:    creatorID,
		Participants: []Participant{},
		Language:     DefaultLanguage,
	}

	r.mu.Lock()
	r.rooms[room.ID] = room
	snapshot := room.Clone()
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.log.Debug().Str("room", room.ID).Str("creator", creatorID).Msg("room created")
	return snapshot
}

// JoinRoom adds userID to the room, hydrating the room from storage when
// this tab never witnessed its creation. Re-joining with the same id
// replaces the prior entry (fresh color and timestamp) rather than
// duplicating it. Returns ErrRoomNotFound or ErrRoomLocked as soft
// rejections; the caller owns user-facing messaging.
func (r *Registry) JoinRoom(ctx context.Context, roomID, userID, userName string) (*Room, error) {
	r.mu.Lock()
	room := r.resolveLocked(ctx, roomID)
	if room == nil {
		r.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	if room.IsLocked {
		r.mu.Unlock()
		return nil, ErrRoomLocked
	}

	p := Participant{
		ID:       userID,
		Name:     userName,
		Color:    pickColor(),
		JoinedAt: time.Now(),
		IsActive: true,
	}
	room.upsertParticipant(p)
	snapshot := room.Clone()
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.emit(ctx, newJoinMessage(roomID, p))
	return snapshot, nil
}

// LeaveRoom removes userID from the room's roster. Unknown rooms and
// non-members are a no-op, never an error, and a room survives its last
// participant leaving.
func (r *Registry) LeaveRoom(ctx context.Context, roomID, userID string) {
	r.mu.Lock()
	room := r.rooms[roomID]
	if room == nil {
		r.mu.Unlock()
		return
	}
	room.removeParticipant(userID)
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.emit(ctx, newLeaveMessage(roomID, userID))
}

// UpdateCode folds a code/language change into the room, last write wins.
// Concurrent updates from different tabs silently overwrite each other;
// that is the accepted conflict policy, not a defect.
func (r *Registry) UpdateCode(ctx context.Context, u CodeUpdate) {
	r.mu.Lock()
	room := r.resolveLocked(ctx, u.RoomID)
	if room == nil {
		r.mu.Unlock()
		return
	}
	room.ActiveCode = u.Code
	room.Language = u.Language
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.emit(ctx, newCodeUpdateMessage(u))
}

// SetLocked flips the room's lock flag. A locked room rejects all joins.
func (r *Registry) SetLocked(ctx context.Context, roomID string, locked bool) {
	r.mu.Lock()
	room := r.resolveLocked(ctx, roomID)
	if room != nil {
		room.IsLocked = locked
		r.persistLocked(ctx)
	}
	r.mu.Unlock()
}

// GetRoom returns a copy of the room, falling back to storage hydration.
// Returns nil when the id resolves nowhere.
func (r *Registry) GetRoom(ctx context.Context, roomID string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(ctx, roomID).Clone()
}

// Subscribe registers fn for every message addressed to roomID, whether
// originated by this tab or received over the bus. The returned function
// deregisters exactly that callback.
func (r *Registry) Subscribe(roomID string, fn func(RoomMessage)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	if r.subs[roomID] == nil {
		r.subs[roomID] = make(map[int]func(RoomMessage))
	}
	r.subs[roomID][id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		if m := r.subs[roomID]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(r.subs, roomID)
			}
		}
		r.mu.Unlock()
	}
}

// ShareableLink derives the URL that drops a visitor into the room.
func (r *Registry) ShareableLink(roomID string) string {
	return r.baseURL + "?room=" + url.QueryEscape(roomID)
}

// CopyShareableLink writes the link to the clipboard, best effort.
func (r *Registry) CopyShareableLink(roomID string) bool {
	return r.clip.Write(r.ShareableLink(roomID))
}

// resolveLocked returns the room from memory, hydrating and caching it from
// the persisted snapshot when absent. Caller holds the write lock.
func (r *Registry) resolveLocked(ctx context.Context, roomID string) *Room {
	if room := r.rooms[roomID]; room != nil {
		return room
	}
	if r.store == nil {
		return nil
	}

	raw, ok, err := r.store.Load(ctx, store.KeyRooms)
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to load room snapshot")
		return nil
	}
	if !ok {
		return nil
	}

	var persisted map[string]*Room
	if err := json.Unmarshal(raw, &persisted); err != nil {
		r.log.Warn().Err(err).Msg("corrupt room snapshot")
		return nil
	}
	room := persisted[roomID]
	if room == nil {
		return nil
	}
	r.rooms[roomID] = room
	return room
}

// persistLocked snapshots the full room map. Failures are logged and
// swallowed: the in-memory mutation and the broadcast still count, the
// feature is a convenience demo rather than a system of record. Caller
// holds the write lock.
func (r *Registry) persistLocked(ctx context.Context) {
	if r.store == nil {
		return
	}
	raw, err := json.Marshal(r.rooms)
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to encode room snapshot")
		return
	}
	if err := r.store.Save(ctx, store.KeyRooms, raw); err != nil {
		r.log.Warn().Err(err).Msg("failed to persist room snapshot")
	}
}

// emit delivers msg to local subscribers and publishes it on the bus.
// Self-originated messages reach local subscribers through this direct
// path, so handleFrame can discard the bus echo.
func (r *Registry) emit(ctx context.Context, msg RoomMessage) {
	r.dispatch(msg)
	if r.bus == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to encode room message")
		return
	}
	if err := r.bus.Publish(ctx, bus.Frame{Origin: r.id, Room: msg.RoomID, Payload: payload}); err != nil {
		r.log.Warn().Err(err).Str("room", msg.RoomID).Msg("failed to publish room message")
	}
}

// dispatch invokes the subscribers registered for msg's room. Callbacks run
// outside the registry lock so they may call back into the registry.
func (r *Registry) dispatch(msg RoomMessage) {
	r.mu.RLock()
	fns := make([]func(RoomMessage), 0, len(r.subs[msg.RoomID]))
	for _, fn := range r.subs[msg.RoomID] {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(msg)
	}
}

// handleFrame replays mutations received from other tabs against the local
// room map without re-broadcasting, then notifies local subscribers. Own
// frames echoed back by the transport are discarded; emit already covered
// local delivery for those.
func (r *Registry) handleFrame(f bus.Frame) {
	if f.Origin == r.id {
		return
	}

	var msg RoomMessage
	if err := json.Unmarshal(f.Payload, &msg); err != nil {
		r.log.Warn().Err(err).Msg("dropping malformed room message")
		return
	}

	r.apply(msg)
	r.dispatch(msg)
}

// apply folds an externally sourced message into the in-memory map. Rooms
// this tab cannot resolve are skipped; a later join will hydrate them.
func (r *Registry) apply(msg RoomMessage) {
	ctx := context.Background()

	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.resolveLocked(ctx, msg.RoomID)
	if room == nil {
		return
	}

	switch msg.Kind {
	case MessageJoin:
		p, err := msg.JoinedParticipant()
		if err != nil {
			r.log.Warn().Err(err).Msg("dropping join with bad payload")
			return
		}
		room.upsertParticipant(p)
	case MessageLeave:
		room.removeParticipant(msg.UserID)
	case MessageCodeUpdate:
		u, err := msg.Update()
		if err != nil {
			r.log.Warn().Err(err).Msg("dropping code-update with bad payload")
			return
		}
		room.ActiveCode = u.Code
		room.Language = u.Language
	case MessageCursorMove, MessageLanguageChange:
		// Presentation-only kinds; subscribers see them, room state does not.
	}
}
