package snippets

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	applog "github.com/shahjalal-bu/liveshare/internal/log"
	"github.com/shahjalal-bu/liveshare/internal/store"
)

// ErrNotFound is returned for operations on an unknown snippet id.
var ErrNotFound = errors.New("snippet not found")

// Manager is a CRUD-plus-search surface over a locally persisted snippet
// list. Unlike rooms there is no cross-tab sync: the list lives in one
// process and snapshots to its own store key. Persistence failures are
// logged and non-fatal, same policy as the room registry.
type Manager struct {
	store store.Store
	log   *zerolog.Logger

	mu       sync.RWMutex
	snippets []Snippet
	loaded   bool
}

// NewManager builds a manager over the given store. A nil store keeps
// everything in memory.
func NewManager(st store.Store, logger *zerolog.Logger) *Manager {
	if logger == nil {
		logger = applog.Nop()
	}
	return &Manager{store: st, log: logger}
}

// Create saves a new snippet and returns it with generated id and
// timestamps.
func (m *Manager) Create(ctx context.Context, s Snippet) Snippet {
	now := time.Now()
	s.ID = uuid.NewString()
	s.CreatedAt = now
	s.UpdatedAt = now

	m.mu.Lock()
	m.ensureLoadedLocked(ctx)
	m.snippets = append(m.snippets, s.clone())
	m.persistLocked(ctx)
	m.mu.Unlock()
	return s
}

// Update overwrites the snippet with matching id, refreshing UpdatedAt.
func (m *Manager) Update(ctx context.Context, s Snippet) (Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoadedLocked(ctx)

	for i, existing := range m.snippets {
		if existing.ID == s.ID {
			s.CreatedAt = existing.CreatedAt
			s.UpdatedAt = time.Now()
			m.snippets[i] = s.clone()
			m.persistLocked(ctx)
			return s, nil
		}
	}
	return Snippet{}, ErrNotFound
}

// Delete removes the snippet with matching id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoadedLocked(ctx)

	for i, s := range m.snippets {
		if s.ID == id {
			m.snippets = append(m.snippets[:i], m.snippets[i+1:]...)
			m.persistLocked(ctx)
			return nil
		}
	}
	return ErrNotFound
}

// Duplicate copies a snippet under a fresh id with a " (copy)" title suffix.
func (m *Manager) Duplicate(ctx context.Context, id string) (Snippet, error) {
	m.mu.Lock()
	m.ensureLoadedLocked(ctx)
	var src *Snippet
	for i := range m.snippets {
		if m.snippets[i].ID == id {
			src = &m.snippets[i]
			break
		}
	}
	if src == nil {
		m.mu.Unlock()
		return Snippet{}, ErrNotFound
	}
	dup := src.clone()
	m.mu.Unlock()

	dup.Title = dup.Title + " (copy)"
	return m.Create(ctx, dup), nil
}

// Get returns the snippet with matching id.
func (m *Manager) Get(ctx context.Context, id string) (Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoadedLocked(ctx)

	for _, s := range m.snippets {
		if s.ID == id {
			return s.clone(), nil
		}
	}
	return Snippet{}, ErrNotFound
}

// List returns all snippets in insertion order.
func (m *Manager) List(ctx context.Context) []Snippet {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoadedLocked(ctx)
	return m.copyAllLocked()
}

// Search returns snippets whose title, code, or description contains the
// query, case-insensitive.
func (m *Manager) Search(ctx context.Context, query string) []Snippet {
	q := strings.ToLower(query)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoadedLocked(ctx)

	var out []Snippet
	for _, s := range m.snippets {
		if strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.Code), q) ||
			strings.Contains(strings.ToLower(s.Description), q) {
			out = append(out, s.clone())
		}
	}
	return out
}

// FilterByLanguage returns snippets with an exact language tag match.
func (m *Manager) FilterByLanguage(ctx context.Context, language string) []Snippet {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoadedLocked(ctx)

	var out []Snippet
	for _, s := range m.snippets {
		if s.Language == language {
			out = append(out, s.clone())
		}
	}
	return out
}

// FilterByTag returns snippets carrying the given tag.
func (m *Manager) FilterByTag(ctx context.Context, tag string) []Snippet {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoadedLocked(ctx)

	var out []Snippet
	for _, s := range m.snippets {
		if s.hasTag(tag) {
			out = append(out, s.clone())
		}
	}
	return out
}

// ClearAll drops every snippet.
func (m *Manager) ClearAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = true
	m.snippets = nil
	m.persistLocked(ctx)
}

// Export serializes the full list as a JSON array with RFC3339 timestamps,
// the same form used for user-initiated file export.
func (m *Manager) Export(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoadedLocked(ctx)

	if m.snippets == nil {
		return []byte("[]"), nil
	}
	return json.MarshalIndent(m.snippets, "", "  ")
}

// Import merges a previously exported JSON array. Matching ids keep
// whichever side has the newer UpdatedAt; unknown ids are appended.
// Returns the number of snippets taken from the import.
func (m *Manager) Import(ctx context.Context, data []byte) (int, error) {
	var incoming []Snippet
	if err := json.Unmarshal(data, &incoming); err != nil {
		return 0, errors.New("invalid snippet export: " + err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoadedLocked(ctx)

	taken := 0
	for _, in := range incoming {
		idx := -1
		for i, s := range m.snippets {
			if s.ID == in.ID {
				idx = i
				break
			}
		}
		switch {
		case idx == -1:
			m.snippets = append(m.snippets, in.clone())
			taken++
		case in.UpdatedAt.After(m.snippets[idx].UpdatedAt):
			m.snippets[idx] = in.clone()
			taken++
		}
	}
	m.persistLocked(ctx)
	return taken, nil
}

// ensureLoadedLocked lazily hydrates the list from storage on first use.
func (m *Manager) ensureLoadedLocked(ctx context.Context) {
	if m.loaded {
		return
	}
	m.loaded = true
	if m.store == nil {
		return
	}

	raw, ok, err := m.store.Load(ctx, store.KeySnippets)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to load snippet snapshot")
		return
	}
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, &m.snippets); err != nil {
		m.log.Warn().Err(err).Msg("corrupt snippet snapshot")
		m.snippets = nil
	}
}

func (m *Manager) persistLocked(ctx context.Context) {
	if m.store == nil {
		return
	}
	raw, err := json.Marshal(m.snippets)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to encode snippet snapshot")
		return
	}
	if err := m.store.Save(ctx, store.KeySnippets, raw); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist snippet snapshot")
	}
}

func (m *Manager) copyAllLocked() []Snippet {
	out := make([]Snippet, len(m.snippets))
	for i, s := range m.snippets {
		out[i] = s.clone()
	}
	return out
}
