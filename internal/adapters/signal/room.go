package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/vkoshev/relay/internal/core"
	"github.com/vkoshev/relay/internal/domain"
)

type roomPayload struct {
	Type   string `json:"type"`
	RoomID string `json:"roomID"`
	Name   string `json:"name,omitempty"`
}

// decodeRoomPayload parses the shared create/join shape and applies the
// inline identity declaration, when the payload carries one.
func (ctl *SignalWSController) decodeRoomPayload(sid core.SessionID, c *WsSignalConn, data []byte) (domain.RoomID, bool) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad room payload")
		ctl.sendError(c, "bad_payload")
		return "", false
	}
	// Over-long ids are rejected outright: truncating would alias two
	// distinct identifiers onto one room and leak its key.
	if p.RoomID == "" || len(p.RoomID) > domain.MaxRoomIDLen {
		ctl.sendError(c, "bad_payload")
		return "", false
	}
	if p.Name != "" {
		if err := ctl.Orch.Registry.SetIdentity(sid, p.Name); err != nil {
			ctl.sendError(c, err.Error())
			return "", false
		}
	}
	return domain.RoomID(p.RoomID), true
}

func (ctl *SignalWSController) handleCreate(sid core.SessionID, c *WsSignalConn, data []byte) {
	roomID, ok := ctl.decodeRoomPayload(sid, c, data)
	if !ok {
		return
	}
	key, err := ctl.Orch.CreateRoom(sid, roomID)
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	resp := struct {
		Type   string          `json:"type"`
		RoomID domain.RoomID   `json:"roomID"`
		Key    domain.GroupKey `json:"key"`
	}{
		Type:   "room-created",
		RoomID: roomID,
		Key:    key,
	}
	ctl.sendJSON(c, resp)
}

func (ctl *SignalWSController) handleJoin(sid core.SessionID, c *WsSignalConn, data []byte) {
	roomID, ok := ctl.decodeRoomPayload(sid, c, data)
	if !ok {
		return
	}
	key, err := ctl.Orch.JoinRoom(sid, roomID)
	if err != nil {
		if !errors.Is(err, domain.ErrRoomNotFound) && !errors.Is(err, domain.ErrIdentityMissing) {
			log.Error().Err(err).Str("module", "signal").Str("room", string(roomID)).Msg("join failed")
		}
		ctl.sendError(c, err.Error())
		return
	}

	resp := struct {
		Type   string          `json:"type"`
		RoomID domain.RoomID   `json:"roomID"`
		Key    domain.GroupKey `json:"key"`
	}{
		Type:   "room-joined",
		RoomID: roomID,
		Key:    key,
	}
	ctl.sendJSON(c, resp)

	user, _ := ctl.Orch.Registry.UserOf(sid)
	announce, err := json.Marshal(struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}{
		Type: "user-joined",
		Name: user.Username,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("marshal announcement")
		return
	}
	// The joiner is already a member here, so the fan-out reaches
	// everyone else and skips the joiner.
	ctl.Orch.Publish(sid, roomID, announce)
}
