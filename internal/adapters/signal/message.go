package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vkoshev/relay/internal/core"
	"github.com/vkoshev/relay/internal/domain"
	"github.com/vkoshev/relay/internal/safety"
)

// handleSend relays an opaque payload to the other members of the room.
// The relay never looks inside the payload; the only plaintext it sees
// is the optional url field, which is handed to the safety classifier.
// The verdict annotates this one message and never blocks delivery.
func (ctl *SignalWSController) handleSend(ctx context.Context, sid core.SessionID, c *WsSignalConn, data []byte) {
	var p struct {
		Type    string `json:"type"`
		RoomID  string `json:"roomID"`
		Payload string `json:"payload"`
		URL     string `json:"url,omitempty"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad message payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if p.RoomID == "" || p.Payload == "" {
		ctl.sendError(c, "bad_payload")
		return
	}

	sender, ok := ctl.Orch.Registry.UserOf(sid)
	if !ok {
		ctl.sendError(c, domain.ErrIdentityMissing.Error())
		return
	}

	out := struct {
		Type    string         `json:"type"`
		Sender  string         `json:"sender"`
		Payload string         `json:"payload"`
		Safety  safety.Verdict `json:"safety,omitempty"`
	}{
		Type:    "receive-message",
		Sender:  sender.Username,
		Payload: p.Payload,
	}
	if p.URL != "" && ctl.Safety != nil {
		out.Safety = ctl.Safety.Check(ctx, p.URL)
	}

	frame, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("marshal message")
		return
	}

	res, delivered := ctl.Orch.Publish(sid, domain.RoomID(p.RoomID), frame)
	if !delivered {
		// Lenient by protocol: the sender gets no error for an
		// unknown room, the drop is only visible in the logs.
		return
	}
	log.Debug().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).
		Int("sent_to", res.SentTo).Msg("message relayed")
}
