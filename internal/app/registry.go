package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vkoshev/relay/internal/core"
	"github.com/vkoshev/relay/internal/domain"
)

type sessionEntry struct {
	RoomID  domain.RoomID
	Session core.MemberSession
	Cancel  context.CancelFunc
}

// Registry tracks every live connection: its identity, its transport
// session and which room it currently sits in (at most one).
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	users    map[core.SessionID]*domain.User
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		users:    make(map[core.SessionID]*domain.User),
	}
}

func (r *Registry) Bind(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

// Unbind drops the connection record. Calling it for an unknown or
// already-removed sid is a no-op.
func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	delete(r.users, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// GetOrCreateUser returns the user record for sid, minting an anonymous
// one on first use. The pointer is shared with the member session, so an
// identity declared later is visible everywhere at once.
func (r *Registry) GetOrCreateUser(sid core.SessionID) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[sid]; ok {
		return u
	}
	u := &domain.User{ID: domain.UserID(sid)}
	r.users[sid] = u
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("created new user")
	return u
}

// SetIdentity attaches or overwrites the display name of a connection.
// Names are not unique across connections.
func (r *Registry) SetIdentity(sid core.SessionID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[sid]
	if !ok {
		u = &domain.User{ID: domain.UserID(sid)}
		r.users[sid] = u
	}
	if err := u.SetUsername(name); err != nil {
		return err
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("username", name).Msg("identity declared")
	return nil
}

// UserOf returns the identity record and whether a name was declared.
func (r *Registry) UserOf(sid core.SessionID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[sid]
	if !ok {
		return nil, false
	}
	return u, u.Username != ""
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.RoomID == "" {
		return "", false
	}
	return entry.RoomID, true
}

func (r *Registry) UpdateRoom(sid core.SessionID, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return false
	}
	entry.RoomID = roomID
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Msg("updated room")
	return true
}

func (r *Registry) ClearRoom(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sid]; ok {
		entry.RoomID = ""
	}
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
