package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/videoconnect/server/internal/domain"
	"github.com/videoconnect/server/internal/protocol"
)

func (ctl *Controller) handleJoin(id domain.ConnID, c *WsConn, data []byte) {
	var p protocol.JoinMeeting
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.badPayload(c)
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(id)).
		Str("meeting", p.MeetingID).Str("name", p.Name).Bool("is_host", p.IsHost).Msg("join")
	ctl.Coord.Join(id, domain.MeetingID(p.MeetingID), p.Name, p.IsHost)
}

func (ctl *Controller) handleApprove(id domain.ConnID, c *WsConn, data []byte) {
	var p protocol.ApproveUser
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad approve payload")
		ctl.badPayload(c)
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(id)).
		Str("target", p.TargetConnectionID).Bool("approved", p.Approved).Msg("approve decision")
	ctl.Coord.Decide(id, domain.ConnID(p.TargetConnectionID), p.Approved)
}

func (ctl *Controller) handleChat(id domain.ConnID, c *WsConn, data []byte) {
	var p protocol.SendMessage
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad message payload")
		ctl.badPayload(c)
		return
	}
	ctl.Coord.SendChat(id, p.Text)
}
