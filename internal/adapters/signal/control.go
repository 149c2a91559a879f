package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vkoshev/relay/internal/core"
	"github.com/vkoshev/relay/internal/domain"
)

// handleEvent dispatches one inbound event. Malformed or unknown input
// only ever answers the offending connection; it never reaches a room.
func (ctl *SignalWSController) handleEvent(ctx context.Context, sid core.SessionID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case "declare-identity":
		ctl.handleIdentity(sid, c, data)
	case "create-room":
		ctl.handleCreate(sid, c, data)
	case "join-room":
		ctl.handleJoin(sid, c, data)
	case "send-message":
		ctl.handleSend(ctx, sid, c, data)
	case "whoami":
		ctl.handleWhoAmI(sid, c)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *SignalWSController) handleIdentity(sid core.SessionID, c *WsSignalConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad identity payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := ctl.Orch.Registry.SetIdentity(sid, p.Name); err != nil {
		ctl.sendError(c, err.Error())
		return
	}
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID, c *WsSignalConn) {
	user := ctl.Orch.Registry.GetOrCreateUser(sid)

	resp := struct {
		Type string        `json:"type"`
		Name string        `json:"name"`
		Room domain.RoomID `json:"roomID,omitempty"`
	}{
		Type: "whoami",
		Name: user.Username,
	}
	if roomID, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		resp.Room = roomID
	}
	ctl.sendJSON(c, resp)
}

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(c, resp)
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, msg string) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": msg,
	})
}
