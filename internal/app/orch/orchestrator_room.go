package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/vkoshev/relay/internal/core"
	"github.com/vkoshev/relay/internal/domain"
)

// CreateRoom creates (or finds) the room and auto-joins the creator as a
// member. The identity check comes first: an anonymous connection never
// touches the directory and never sees a key.
func (o *Orchestrator) CreateRoom(sid core.SessionID, roomID domain.RoomID) (domain.GroupKey, error) {
	if _, ok := o.Registry.UserOf(sid); !ok {
		return "", domain.ErrIdentityMissing
	}
	room, created, err := o.Rooms.Create(roomID)
	if err != nil {
		return "", err
	}
	o.enterRoom(sid, room)
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(roomID)).
		Bool("created", created).Msg("create room")
	return room.Key(), nil
}

// JoinRoom adds the connection to an existing room and returns the room
// key. A join against an unknown room changes nothing anywhere.
func (o *Orchestrator) JoinRoom(sid core.SessionID, roomID domain.RoomID) (domain.GroupKey, error) {
	if _, ok := o.Registry.UserOf(sid); !ok {
		return "", domain.ErrIdentityMissing
	}
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return "", domain.ErrRoomNotFound
	}
	o.enterRoom(sid, room)
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("join room")
	return room.Key(), nil
}

// enterRoom moves the connection into room, leaving any previous room
// first so a connection is never a member of two rooms at once.
func (o *Orchestrator) enterRoom(sid core.SessionID, room core.RoomService) {
	if prevID, ok := o.Registry.RoomOf(sid); ok && prevID != room.Room().ID {
		o.cleanupMembership(sid)
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("from_room", string(prevID)).Msg("left previous room")
	}
	if session, ok := o.Registry.GetSession(sid); ok {
		room.AddMember(sid, session)
		o.Registry.UpdateRoom(sid, room.Room().ID)
	}
}
