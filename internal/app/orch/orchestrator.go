// Package orch coordinates the registry and the room directory; every
// room-affecting flow goes through here.
package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/vkoshev/relay/internal/app"
	"github.com/vkoshev/relay/internal/core"
	"github.com/vkoshev/relay/internal/domain"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomDirectory
}

// Publish fans a frame out to the other members of roomID. A missing
// room is not an error on this path: the frame is dropped and the drop
// logged, the sender is told nothing.
func (o *Orchestrator) Publish(sid core.SessionID, roomID domain.RoomID, frame core.Frame) (core.PublishResult, bool) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		log.Warn().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(roomID)).
			Msg("publish to unknown room, dropped")
		return core.PublishResult{}, false
	}
	return room.Broadcast(sid, frame), true
}

// Disconnect tears a connection down: membership first, then the record.
// Safe to call more than once for the same sid.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.cleanupMembership(sid)
	o.Registry.Cancel(sid)
	o.Registry.Unbind(sid)
}

func (o *Orchestrator) cleanupMembership(sid core.SessionID) {
	roomID, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	if room, ok := o.Rooms.Get(roomID); ok {
		room.RemoveMember(sid)
	}
	o.Registry.ClearRoom(sid)
}
