package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/videoconnect/server/internal/core"
	"github.com/videoconnect/server/internal/domain"
	"github.com/videoconnect/server/internal/protocol"
)

func (ctl *Controller) handleAdminToggle(id domain.ConnID, c *WsConn, event string, data []byte) {
	var p protocol.AdminToggleMedia
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad admin toggle payload")
		ctl.badPayload(c)
		return
	}

	kind := core.MediaAudio
	if event == protocol.EvtAdminToggleVideo {
		kind = core.MediaVideo
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).
		Str("target", p.TargetConnectionID).Str("event", event).Bool("enabled", p.Enabled).Msg("admin toggle")
	ctl.Coord.AdminToggleMedia(id, domain.ConnID(p.TargetConnectionID), kind, p.Enabled)
}

func (ctl *Controller) handleKick(id domain.ConnID, c *WsConn, data []byte) {
	var p protocol.KickUser
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad kick payload")
		ctl.badPayload(c)
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(id)).
		Str("target", p.TargetConnectionID).Msg("kick")
	ctl.Coord.Kick(id, domain.ConnID(p.TargetConnectionID))
}
