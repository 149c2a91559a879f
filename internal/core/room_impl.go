package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/vkoshev/relay/internal/domain"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room *domain.Room

	mu         sync.RWMutex
	bySID      map[SessionID]MemberSession
	emptySince time.Time
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:       room,
		bySID:      make(map[SessionID]MemberSession),
		emptySince: time.Now(),
	}
}

func (r *roomImpl) Room() *domain.Room   { return r.room }
func (r *roomImpl) Key() domain.GroupKey { return r.room.Key }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) EmptySince() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.emptySince
}

func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[sid] = ms
	r.emptySince = time.Time{}
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; !ok {
		return
	}
	delete(r.bySID, sid)
	if len(r.bySID) == 0 {
		r.emptySince = time.Now()
	}
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Msg("member removed")
}

// Broadcast fans data out to every member except the sender. It holds the
// write lock for the whole fan-out so concurrent sends into the same room
// reach all members in one total order.
func (r *roomImpl) Broadcast(from SessionID, data Frame) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := PublishResult{}
	for sid, m := range r.bySID {
		if sid == from {
			continue
		}
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Str("from", string(from)).
		Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.MapToSlice(r.bySID, func(_ SessionID, ms MemberSession) MemberDTO {
		u := ms.User()
		return MemberDTO{ID: u.ID, Username: u.Username}
	})
}
