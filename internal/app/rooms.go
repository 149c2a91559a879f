package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vkoshev/relay/internal/core"
	"github.com/vkoshev/relay/internal/domain"
)

// KeySource mints one group key per room. Exactly one call is made per
// room, at first creation; joiners always receive the stored key.
type KeySource func() (domain.GroupKey, error)

type RoomsImpl struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]core.RoomService
	genKey KeySource
}

func NewRooms() *RoomsImpl {
	return &RoomsImpl{
		rooms:  make(map[domain.RoomID]core.RoomService),
		genKey: domain.NewGroupKey,
	}
}

// NewRoomsWithKeySource lets tests substitute the key generator.
func NewRoomsWithKeySource(gen KeySource) *RoomsImpl {
	r := NewRooms()
	r.genKey = gen
	return r
}

// Create is idempotent: the first call for an id mints the room and its
// key, every later call returns the same room and the same key.
func (f *RoomsImpl) Create(id domain.RoomID) (core.RoomService, bool, error) {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if ok {
		return room, false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[id]; ok {
		return room, false, nil
	}
	key, err := f.genKey()
	if err != nil {
		return nil, false, err
	}
	room = core.NewRoomService(&domain.Room{ID: id, Key: key})
	f.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return room, true, nil
}

func (f *RoomsImpl) Get(id domain.RoomID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomsImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		out = append(out, core.RoomInfo{
			ID:          id,
			MemberCount: r.MemberCount(),
			Members:     r.MembersSnapshot(),
		})
	}
	return out
}

func (f *RoomsImpl) Evict(id domain.RoomID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room evicted")
}

// SweepIdle evicts rooms that have sat memberless for at least ttl.
// A room recreated after eviction is a brand-new room with a fresh key.
func (f *RoomsImpl) SweepIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id, r := range f.rooms {
		empty := r.EmptySince()
		if r.MemberCount() == 0 && !empty.IsZero() && empty.Before(cutoff) {
			delete(f.rooms, id)
			n++
			log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("idle room swept")
		}
	}
	return n
}

// RunJanitor sweeps idle rooms every interval until ctx is done.
// A zero or negative ttl disables eviction entirely.
func (f *RoomsImpl) RunJanitor(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 {
		log.Info().Str("module", "app.rooms").Msg("room eviction disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := f.SweepIdle(ttl); n > 0 {
				log.Info().Str("module", "app.rooms").Int("count", n).Msg("janitor sweep")
			}
		}
	}
}
