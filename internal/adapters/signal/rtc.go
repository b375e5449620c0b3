package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/videoconnect/server/internal/core"
	"github.com/videoconnect/server/internal/domain"
	"github.com/videoconnect/server/internal/protocol"
)

// handleSignal forwards one negotiation hop (offer/answer/ice-candidate).
// The payload stays opaque end to end; only the target route is read here.
func (ctl *Controller) handleSignal(id domain.ConnID, c *WsConn, event string, data []byte) {
	var p protocol.Signal
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad signal payload")
		ctl.badPayload(c)
		return
	}
	ctl.Coord.Relay(event, id, domain.ConnID(p.Target), p.Payload)
}

func (ctl *Controller) handleToggle(id domain.ConnID, c *WsConn, event string, data []byte) {
	var p protocol.ToggleMedia
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad toggle payload")
		ctl.badPayload(c)
		return
	}
	kind := coreMediaKind(event)
	ctl.Coord.ToggleMedia(id, kind, p.Enabled)
}

func coreMediaKind(event string) core.MediaKind {
	if event == protocol.EvtToggleVideo {
		return core.MediaVideo
	}
	return core.MediaAudio
}

func (ctl *Controller) handleScreenShare(id domain.ConnID, c *WsConn, start bool, data []byte) {
	var p protocol.StartScreenShare
	if start {
		if err := json.Unmarshal(data, &p); err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("bad screen share payload")
			ctl.badPayload(c)
			return
		}
	}
	ctl.Coord.ScreenShare(id, start, p.StreamID)
}
