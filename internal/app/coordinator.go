package app

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/videoconnect/server/internal/core"
	"github.com/videoconnect/server/internal/domain"
	"github.com/videoconnect/server/internal/protocol"
)

// Coordinator routes connection events to the owning meeting and reports
// failures privately to the acting connection. All meeting state changes go
// through core; the coordinator only resolves which meeting a connection is
// bound to and releases bindings after teardowns.
type Coordinator struct {
	Store *core.Store
	Reg   *Registry
}

func NewCoordinator(store *core.Store, reg *Registry) *Coordinator {
	return &Coordinator{Store: store, Reg: reg}
}

// Join runs the admission flow for one connection against a meeting id.
func (c *Coordinator) Join(id domain.ConnID, meetingID domain.MeetingID, name string, isHost bool) {
	conn, ok := c.Reg.Conn(id)
	if !ok {
		return
	}
	m, ok := c.Store.Get(meetingID)
	if !ok {
		c.fail(id, "Meeting not found")
		return
	}
	if err := domain.ValidateName(name); err != nil {
		c.fail(id, "Invalid display name")
		return
	}
	if _, err := m.Join(id, conn, name, isHost); err != nil {
		c.fail(id, "Meeting not found")
		return
	}
	// Bound for pending requesters too, so their disconnect reaches the
	// meeting that parked them.
	c.Reg.SetMeeting(id, meetingID)
}

// Decide resolves a parked join request on behalf of the admin.
func (c *Coordinator) Decide(adminID, targetID domain.ConnID, approved bool) {
	m, ok := c.meetingOf(adminID)
	if !ok {
		c.fail(adminID, "Not authorized")
		return
	}
	if err := m.Decide(adminID, targetID, approved); err != nil {
		c.fail(adminID, decideErrMessage(err))
	}
}

// AdminToggleMedia forces a participant's media flag on the admin's behalf.
func (c *Coordinator) AdminToggleMedia(adminID, targetID domain.ConnID, kind core.MediaKind, enabled bool) {
	m, ok := c.meetingOf(adminID)
	if !ok {
		c.fail(adminID, "Not authorized")
		return
	}
	if err := m.ForceToggleMedia(adminID, targetID, kind, enabled); err != nil {
		c.fail(adminID, adminErrMessage(err))
	}
}

// Kick removes a participant on the admin's behalf.
func (c *Coordinator) Kick(adminID, targetID domain.ConnID) {
	m, ok := c.meetingOf(adminID)
	if !ok {
		c.fail(adminID, "Not authorized")
		return
	}
	td, err := m.Kick(adminID, targetID)
	if err != nil {
		c.fail(adminID, adminErrMessage(err))
		return
	}
	c.applyTeardown(m.ID(), td)
}

// EndMeeting terminates the admin's meeting for everyone.
func (c *Coordinator) EndMeeting(adminID domain.ConnID) {
	m, ok := c.meetingOf(adminID)
	if !ok {
		c.fail(adminID, "Not authorized")
		return
	}
	td, err := m.EndForAll(adminID)
	if err != nil {
		c.fail(adminID, adminErrMessage(err))
		return
	}
	c.applyTeardown(m.ID(), td)
}

// Relay forwards one opaque negotiation payload to the target connection,
// tagged with the sender. A vanished target is a silent drop; the sender is
// never told.
func (c *Coordinator) Relay(event string, senderID, targetID domain.ConnID, payload json.RawMessage) {
	conn, ok := c.Reg.Conn(targetID)
	if !ok {
		log.Debug().Str("module", "app.coordinator").Str("event", event).
			Str("target", string(targetID)).Msg("relay target gone, dropping")
		return
	}
	c.send(conn, protocol.RelayedSignal{Type: event, Payload: payload, Sender: string(senderID)})
}

// SendChat appends and fans out a chat message from a participant.
func (c *Coordinator) SendChat(id domain.ConnID, text string) {
	if m, ok := c.meetingOf(id); ok {
		m.SendChat(id, text)
	}
}

// ToggleMedia reports a self-initiated media flag change.
func (c *Coordinator) ToggleMedia(id domain.ConnID, kind core.MediaKind, enabled bool) {
	if m, ok := c.meetingOf(id); ok {
		m.ToggleMedia(id, kind, enabled)
	}
}

// ScreenShare reports a screen share start/stop.
func (c *Coordinator) ScreenShare(id domain.ConnID, start bool, streamID string) {
	if m, ok := c.meetingOf(id); ok {
		m.ScreenShare(id, start, streamID)
	}
}

// Disconnect handles a dropped connection in any state and unbinds it.
func (c *Coordinator) Disconnect(id domain.ConnID) {
	if m, ok := c.meetingOf(id); ok {
		c.applyTeardown(m.ID(), m.Disconnect(id))
	}
	c.Reg.Cancel(id)
	c.Reg.Unbind(id)
}

func (c *Coordinator) meetingOf(id domain.ConnID) (*core.Meeting, bool) {
	mid, ok := c.Reg.MeetingOf(id)
	if !ok {
		return nil, false
	}
	return c.Store.Get(mid)
}

func (c *Coordinator) applyTeardown(mid domain.MeetingID, td core.Teardown) {
	for _, id := range td.Removed {
		c.Reg.ClearMeeting(id)
	}
	if td.Deleted {
		c.Store.Delete(mid)
	}
}

// fail reports an error privately to the acting connection. Never broadcast,
// never a state change.
func (c *Coordinator) fail(id domain.ConnID, msg string) {
	conn, ok := c.Reg.Conn(id)
	if !ok {
		return
	}
	c.send(conn, protocol.MeetingError{Type: protocol.EvtMeetingError, Message: msg})
}

func (c *Coordinator) send(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("send marshal")
		return
	}
	_ = conn.TrySend(b)
}

func decideErrMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return "Not authorized"
	case errors.Is(err, core.ErrPendingNotFound):
		return "User not found in pending list"
	default:
		return "Meeting not found"
	}
}

func adminErrMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return "Not authorized"
	case errors.Is(err, core.ErrParticipantNotFound):
		return "User not found"
	default:
		return "Meeting not found"
	}
}
