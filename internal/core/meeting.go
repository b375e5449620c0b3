package core

import (
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/videoconnect/server/internal/domain"
	"github.com/videoconnect/server/internal/protocol"
)

// MediaKind selects which media flag a toggle event refers to.
type MediaKind int

const (
	MediaAudio MediaKind = iota
	MediaVideo
)

// member binds a participant's meta and its transport endpoint.
type member struct {
	part domain.Participant
	conn SignalConnection
}

// pendingMember is a parked join request plus the requester's endpoint,
// kept so the decision outcome can be delivered.
type pendingMember struct {
	req  domain.PendingJoin
	conn SignalConnection
}

// JoinOutcome tells the caller how a join request resolved.
type JoinOutcome int

const (
	JoinAdmitted JoinOutcome = iota
	JoinPending
)

// Teardown reports the membership fallout of an operation so the caller can
// release connection bindings and drop the meeting from the store.
type Teardown struct {
	Deleted bool
	Removed []domain.ConnID
}

// Meeting owns all mutable state of one live meeting. Every operation takes
// the meeting mutex, so admission, kicks, decisions and disconnects for the
// same meeting are serialized and broadcasts see a consistent membership
// snapshot. Sends are fire-and-forget TrySend, never blocking on a peer.
type Meeting struct {
	meta domain.Meeting

	mu           sync.Mutex
	closed       bool
	admin        domain.ConnID
	participants map[domain.ConnID]*member
	pending      map[domain.ConnID]*pendingMember
	chat         []domain.ChatMessage
}

func newMeeting(meta domain.Meeting) *Meeting {
	return &Meeting{
		meta:         meta,
		participants: make(map[domain.ConnID]*member),
		pending:      make(map[domain.ConnID]*pendingMember),
	}
}

func (m *Meeting) ID() domain.MeetingID { return m.meta.ID }

func (m *Meeting) Meta() domain.Meeting { return m.meta }

// Admin returns the designated admin connection, empty until won.
func (m *Meeting) Admin() domain.ConnID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admin
}

func (m *Meeting) ParticipantCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.participants)
}

func (m *Meeting) HasParticipant(id domain.ConnID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.participants[id]
	return ok
}

// Roster is the current participant set, ordered by join time.
func (m *Meeting) Roster() []domain.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rosterLocked()
}

func (m *Meeting) Pending() []domain.PendingJoin {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := lo.Map(lo.Values(m.pending), func(p *pendingMember, _ int) domain.PendingJoin {
		return p.req
	})
	slices.SortFunc(reqs, func(a, b domain.PendingJoin) int {
		return strings.Compare(string(a.ConnID), string(b.ConnID))
	})
	return reqs
}

func (m *Meeting) Chat() []domain.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.chat)
}

// Join runs the admission state machine for one connection.
//
// The first connection to join while the participant set is empty and whose
// request self-identifies as host wins the admin assignment; the check-and-set
// happens under the meeting mutex so concurrent host joins cannot both win.
// A non-host join is parked when approval is required and an admin exists,
// otherwise admission completes immediately.
func (m *Meeting) Join(id domain.ConnID, conn SignalConnection, name string, isHost bool) (JoinOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrMeetingNotFound
	}

	if len(m.participants) == 0 && isHost && m.admin == "" {
		m.admin = id
		log.Info().Str("module", "core.meeting").Str("meeting", string(m.meta.ID)).
			Str("conn", string(id)).Str("name", name).Msg("admin assigned")
	}

	if m.meta.Settings.RequireApproval && !isHost && m.admin != "" {
		req := domain.PendingJoin{ConnID: id, Name: name, RequestedAt: time.Now()}
		m.pending[id] = &pendingMember{req: req, conn: conn}

		if adm, ok := m.participants[m.admin]; ok {
			push(adm.conn, protocol.UserWaitingApproval{
				Type:         protocol.EvtUserWaitingApprove,
				User:         req,
				ConnectionID: string(id),
			})
		}
		push(conn, protocol.Notice{
			Type:    protocol.EvtWaitingForApproval,
			Message: "Waiting for host approval to join the meeting",
		})
		log.Info().Str("module", "core.meeting").Str("meeting", string(m.meta.ID)).
			Str("conn", string(id)).Str("name", name).Msg("join parked for approval")
		return JoinPending, nil
	}

	m.admitLocked(id, conn, name, isHost)
	return JoinAdmitted, nil
}

// Decide resolves a parked join request. Admin-scoped.
func (m *Meeting) Decide(adminID, targetID domain.ConnID, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdminLocked(adminID); err != nil {
		return err
	}
	p, ok := m.pending[targetID]
	if !ok {
		return ErrPendingNotFound
	}
	delete(m.pending, targetID)

	adm := m.participants[adminID]
	if approved {
		m.admitLocked(targetID, p.conn, p.req.Name, false)
		push(adm.conn, protocol.Decision{
			Type:         protocol.EvtUserApproved,
			ConnectionID: string(targetID),
			UserName:     p.req.Name,
		})
	} else {
		push(p.conn, protocol.Notice{
			Type:    protocol.EvtJoinDeclined,
			Message: "Host declined your join request",
		})
		push(adm.conn, protocol.Decision{
			Type:         protocol.EvtUserDeclined,
			ConnectionID: string(targetID),
			UserName:     p.req.Name,
		})
	}
	log.Info().Str("module", "core.meeting").Str("meeting", string(m.meta.ID)).
		Str("target", string(targetID)).Bool("approved", approved).Msg("pending join decided")
	return nil
}

// ForceToggleMedia sends a private media directive to target and tells the
// rest of the meeting the change was admin-initiated. Admin-scoped.
func (m *Meeting) ForceToggleMedia(adminID, targetID domain.ConnID, kind MediaKind, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdminLocked(adminID); err != nil {
		return err
	}
	target, ok := m.participants[targetID]
	if !ok {
		return ErrParticipantNotFound
	}

	adminName := m.participants[adminID].part.Name
	switch kind {
	case MediaAudio:
		push(target.conn, protocol.ForceToggleMedia{Type: protocol.EvtForceToggleAudio, Enabled: enabled})
		m.broadcastLocked(adminID, protocol.UserAudioToggled{
			Type:         protocol.EvtUserAudioToggled,
			UserID:       string(targetID),
			AudioEnabled: enabled,
			ByAdmin:      true,
			AdminName:    adminName,
		})
	case MediaVideo:
		push(target.conn, protocol.ForceToggleMedia{Type: protocol.EvtForceToggleVideo, Enabled: enabled})
		m.broadcastLocked(adminID, protocol.UserVideoToggled{
			Type:         protocol.EvtUserVideoToggled,
			UserID:       string(targetID),
			VideoEnabled: enabled,
			ByAdmin:      true,
			AdminName:    adminName,
		})
	}
	return nil
}

// Kick removes target as if it had disconnected, then tells the remaining
// participants who was kicked and by whom. Admin-scoped.
func (m *Meeting) Kick(adminID, targetID domain.ConnID) (Teardown, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdminLocked(adminID); err != nil {
		return Teardown{}, err
	}
	target, ok := m.participants[targetID]
	if !ok {
		return Teardown{}, ErrParticipantNotFound
	}
	targetName := target.part.Name
	adminName := m.participants[adminID].part.Name

	push(target.conn, protocol.Notice{
		Type:    protocol.EvtKickedFromMeeting,
		Message: "You have been removed from the meeting by the host",
	})
	m.removeParticipantLocked(targetID)

	m.broadcastLocked("", protocol.UserKicked{
		Type:     protocol.EvtUserKicked,
		UserID:   string(targetID),
		UserName: targetName,
		ByAdmin:  adminName,
	})
	log.Info().Str("module", "core.meeting").Str("meeting", string(m.meta.ID)).
		Str("target", string(targetID)).Str("by", adminName).Msg("participant kicked")

	td := Teardown{Removed: []domain.ConnID{targetID}}
	if len(m.participants) == 0 {
		m.closed = true
		td.Deleted = true
	}
	return td, nil
}

// EndForAll terminates the meeting unconditionally. Admin-scoped.
// A single meeting-ended notice supersedes per-user roster churn, so the
// purge itself broadcasts nothing.
func (m *Meeting) EndForAll(adminID domain.ConnID) (Teardown, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdminLocked(adminID); err != nil {
		return Teardown{}, err
	}
	m.broadcastLocked("", protocol.Notice{
		Type:    protocol.EvtMeetingEnded,
		Message: "Meeting has been ended by the host",
	})
	log.Info().Str("module", "core.meeting").Str("meeting", string(m.meta.ID)).Msg("meeting ended by host")
	return m.purgeLocked(), nil
}

// SendChat appends to history and fans the message out to everyone,
// including the sender. A non-participant sender is a no-op.
func (m *Meeting) SendChat(id domain.ConnID, text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sender, ok := m.participants[id]
	if !ok {
		return false
	}
	msg := domain.NewChatMessage(sender.part.Name, text)
	m.chat = append(m.chat, msg)
	m.broadcastLocked("", protocol.NewMessage{Type: protocol.EvtNewMessage, ChatMessage: msg})
	return true
}

// ToggleMedia reports a participant's own media flag change to the others.
func (m *Meeting) ToggleMedia(id domain.ConnID, kind MediaKind, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.participants[id]; !ok {
		return
	}
	switch kind {
	case MediaAudio:
		m.broadcastLocked(id, protocol.UserAudioToggled{
			Type:         protocol.EvtUserAudioToggled,
			UserID:       string(id),
			AudioEnabled: enabled,
		})
	case MediaVideo:
		m.broadcastLocked(id, protocol.UserVideoToggled{
			Type:         protocol.EvtUserVideoToggled,
			UserID:       string(id),
			VideoEnabled: enabled,
		})
	}
}

// ScreenShare reports a screen share start/stop to the other participants.
func (m *Meeting) ScreenShare(id domain.ConnID, start bool, streamID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.participants[id]; !ok {
		return
	}
	evt := protocol.ScreenShare{Type: protocol.EvtScreenShareStopped, UserID: string(id)}
	if start {
		evt.Type = protocol.EvtScreenShareStarted
		evt.StreamID = streamID
	}
	m.broadcastLocked(id, evt)
}

// Disconnect restores invariants after a connection drops in any state.
//
// An ordinary participant leaving only deletes the meeting once it is empty;
// the admin leaving always tears the whole meeting down. That asymmetry is
// deliberate.
func (m *Meeting) Disconnect(id domain.ConnID) Teardown {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pending[id]; ok {
		delete(m.pending, id)
		log.Info().Str("module", "core.meeting").Str("meeting", string(m.meta.ID)).
			Str("conn", string(id)).Msg("pending requester disconnected")
		return Teardown{Removed: []domain.ConnID{id}}
	}
	if _, ok := m.participants[id]; !ok {
		return Teardown{}
	}

	if id == m.admin {
		m.broadcastLocked(id, protocol.Notice{
			Type:    protocol.EvtMeetingEnded,
			Message: "Meeting has been ended because the host left",
		})
		log.Info().Str("module", "core.meeting").Str("meeting", string(m.meta.ID)).Msg("host left, meeting torn down")
		return m.purgeLocked()
	}

	m.removeParticipantLocked(id)
	td := Teardown{Removed: []domain.ConnID{id}}
	if len(m.participants) == 0 {
		m.closed = true
		td.Deleted = true
	}
	return td
}

// admitLocked performs step 4 of the join flow: create the participant,
// announce it to the whole meeting and hand the joiner the current state.
func (m *Meeting) admitLocked(id domain.ConnID, conn SignalConnection, name string, isHost bool) {
	part := domain.Participant{ConnID: id, Name: name, IsHost: isHost, JoinedAt: time.Now()}
	m.participants[id] = &member{part: part, conn: conn}

	roster := m.rosterLocked()
	m.broadcastLocked("", protocol.UserJoined{
		Type:         protocol.EvtUserJoined,
		User:         part,
		Participants: roster,
	})
	push(conn, protocol.MeetingJoined{
		Type:         protocol.EvtMeetingJoined,
		Participants: roster,
		Chat:         slices.Clone(m.chat),
		IsHost:       isHost,
	})
	log.Info().Str("module", "core.meeting").Str("meeting", string(m.meta.ID)).
		Str("conn", string(id)).Str("name", name).Bool("is_host", isHost).Msg("participant admitted")
}

// removeParticipantLocked drops id from both maps (pending defensively) and
// broadcasts the updated roster to whoever remains.
func (m *Meeting) removeParticipantLocked(id domain.ConnID) {
	delete(m.participants, id)
	delete(m.pending, id)
	m.broadcastLocked("", protocol.UserLeft{
		Type:         protocol.EvtUserLeft,
		UserID:       string(id),
		Participants: m.rosterLocked(),
	})
}

// purgeLocked empties the meeting without per-user broadcasts and marks it
// closed so a racing join resolves as meeting-not-found.
func (m *Meeting) purgeLocked() Teardown {
	td := Teardown{Deleted: true}
	for id := range m.participants {
		td.Removed = append(td.Removed, id)
	}
	for id := range m.pending {
		td.Removed = append(td.Removed, id)
	}
	m.participants = make(map[domain.ConnID]*member)
	m.pending = make(map[domain.ConnID]*pendingMember)
	m.closed = true
	return td
}

// requireAdminLocked is the authorization guard for admin-scoped calls:
// the caller must be a participant flagged as host and must hold the
// meeting's admin assignment.
func (m *Meeting) requireAdminLocked(id domain.ConnID) error {
	caller, ok := m.participants[id]
	if !ok || !caller.part.IsHost || id != m.admin {
		return ErrUnauthorized
	}
	return nil
}

func (m *Meeting) rosterLocked() []domain.Participant {
	parts := lo.Map(lo.Values(m.participants), func(mb *member, _ int) domain.Participant {
		return mb.part
	})
	slices.SortFunc(parts, func(a, b domain.Participant) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ConnID), string(b.ConnID))
	})
	return parts
}

func (m *Meeting) broadcastLocked(except domain.ConnID, v any) {
	for id, mb := range m.participants {
		if id == except {
			continue
		}
		push(mb.conn, v)
	}
}

func push(conn SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.meeting").Msg("push marshal")
		return
	}
	_ = conn.TrySend(b)
}
