package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/videoconnect/server/internal/domain"
	"github.com/videoconnect/server/internal/protocol"
)

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, id domain.ConnID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")
		ctl.Coord.Disconnect(id)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
				return
			}
			ctl.handleFrame(id, c, data)
		}
	}
}

func (ctl *Controller) handleFrame(id domain.ConnID, c *WsConn, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case protocol.EvtJoinMeeting:
		ctl.handleJoin(id, c, data)
	case protocol.EvtApproveUser:
		ctl.handleApprove(id, c, data)
	case protocol.EvtAdminToggleAudio, protocol.EvtAdminToggleVideo:
		ctl.handleAdminToggle(id, c, env.Type, data)
	case protocol.EvtKickUser:
		ctl.handleKick(id, c, data)
	case protocol.EvtEndMeetingForAll:
		ctl.Coord.EndMeeting(id)
	case protocol.EvtOffer, protocol.EvtAnswer, protocol.EvtICECandidate:
		ctl.handleSignal(id, c, env.Type, data)
	case protocol.EvtSendMessage:
		ctl.handleChat(id, c, data)
	case protocol.EvtToggleAudio, protocol.EvtToggleVideo:
		ctl.handleToggle(id, c, env.Type, data)
	case protocol.EvtStartScreenShare:
		ctl.handleScreenShare(id, c, true, data)
	case protocol.EvtStopScreenShare:
		ctl.handleScreenShare(id, c, false, data)
	case protocol.EvtPing:
		ctl.sendJSON(c, protocol.Pong{Type: protocol.EvtPong})
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) badPayload(c *WsConn) {
	ctl.sendJSON(c, protocol.MeetingError{
		Type:    protocol.EvtMeetingError,
		Message: "Malformed payload",
	})
}
