package app

import (
	"errors"
	"sync"

	"github.com/dkeye/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotAllowed     = errors.New("username not allowed")
	ErrUsernameTaken  = errors.New("username taken")
	ErrRoomFull       = errors.New("room full")
	ErrAlreadyJoined  = errors.New("connection already joined")
	ErrInvalidRoomCap = errors.New("room capacity must be positive")
)

// Registry is the room roster: the single source of truth for who is in the
// room. Admission checks and insertion happen under one lock.
type Registry struct {
	mu       sync.RWMutex
	allowed  map[string]struct{}
	capacity int

	byID  map[domain.ConnID]domain.Member
	order []domain.ConnID
}

func NewRegistry(allowed []string, capacity int) (*Registry, error) {
	if capacity <= 0 {
		return nil, ErrInvalidRoomCap
	}
	set := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		if n := domain.NormalizeUsername(name); n != "" {
			set[n] = struct{}{}
		}
	}
	return &Registry{
		allowed:  set,
		capacity: capacity,
		byID:     make(map[domain.ConnID]domain.Member),
	}, nil
}

// Admit validates rawUsername and inserts a new member. The checks run in a
// fixed order: allow-list, then uniqueness, then capacity.
func (r *Registry) Admit(id domain.ConnID, rawUsername string) (domain.Member, error) {
	name := domain.NormalizeUsername(rawUsername)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; ok {
		return domain.Member{}, ErrAlreadyJoined
	}
	if _, ok := r.allowed[name]; !ok {
		return domain.Member{}, ErrNotAllowed
	}
	for _, m := range r.byID {
		if m.Username == name {
			return domain.Member{}, ErrUsernameTaken
		}
	}
	if len(r.byID) >= r.capacity {
		return domain.Member{}, ErrRoomFull
	}

	m := domain.NewMember(id, name)
	r.byID[id] = m
	r.order = append(r.order, id)
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("username", name).Int("count", len(r.byID)).Msg("member admitted")
	return m, nil
}

// Remove drops id from the roster. Removing an unknown id is a no-op.
func (r *Registry) Remove(id domain.ConnID) (domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return domain.Member{}, false
	}
	delete(r.byID, id)
	for i, sid := range r.order {
		if sid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("username", m.Username).Int("count", len(r.byID)).Msg("member removed")
	return m, true
}

func (r *Registry) IsMember(id domain.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

func (r *Registry) Get(id domain.ConnID) (domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	return m, ok
}

// Snapshot returns the members in arrival order.
func (r *Registry) Snapshot() []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *Registry) Capacity() int { return r.capacity }
