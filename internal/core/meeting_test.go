package core

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videoconnect/server/internal/domain"
	"github.com/videoconnect/server/internal/protocol"
)

// fakeConn records every frame pushed to it, for assertion purposes.
type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
}

func (f *fakeConn) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

// events decodes every recorded frame into a generic map.
func (f *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(fr, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) eventTypes(t *testing.T) []string {
	t.Helper()
	evts := f.events(t)
	types := make([]string, 0, len(evts))
	for _, e := range evts {
		types = append(types, e["type"].(string))
	}
	return types
}

func (f *fakeConn) lastOfType(t *testing.T, typ string) map[string]any {
	t.Helper()
	var found map[string]any
	for _, e := range f.events(t) {
		if e["type"] == typ {
			found = e
		}
	}
	require.NotNil(t, found, "no %s event recorded", typ)
	return found
}

func newTestMeeting() *Meeting {
	return NewStore().Create()
}

// joinHost admits a host and returns its connection.
func joinHost(t *testing.T, m *Meeting, id domain.ConnID, name string) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	outcome, err := m.Join(id, conn, name, true)
	require.NoError(t, err)
	require.Equal(t, JoinAdmitted, outcome)
	return conn
}

func TestJoin_FirstHostWinsAdmin(t *testing.T) {
	m := newTestMeeting()

	joinHost(t, m, "a", "Alice")
	assert.Equal(t, domain.ConnID("a"), m.Admin())

	// A second self-declared host joins a non-empty meeting: admitted as a
	// regular participant, never promoted.
	conn := &fakeConn{}
	outcome, err := m.Join("b", conn, "Bob", true)
	require.NoError(t, err)
	assert.Equal(t, JoinAdmitted, outcome)
	assert.Equal(t, domain.ConnID("a"), m.Admin())
}

func TestJoin_ConcurrentHostElectionIsAtomic(t *testing.T) {
	m := newTestMeeting()

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.ConnID(string(rune('a' + i)))
			_, _ = m.Join(id, &fakeConn{}, "host", true)
		}(i)
	}
	wg.Wait()

	admin := m.Admin()
	require.NotEmpty(t, admin)

	// Exactly one participant holds the admin assignment; everyone got in.
	assert.Equal(t, n, m.ParticipantCount())
	winners := 0
	for _, p := range m.Roster() {
		if p.ConnID == admin {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestJoin_NonHostIsParkedWhenApprovalRequired(t *testing.T) {
	m := newTestMeeting()
	adminConn := joinHost(t, m, "a", "Alice")

	bConn := &fakeConn{}
	outcome, err := m.Join("b", bConn, "Bob", false)
	require.NoError(t, err)
	assert.Equal(t, JoinPending, outcome)

	// B is pending, not a participant, and never showed up in a roster.
	assert.False(t, m.HasParticipant("b"))
	require.Len(t, m.Pending(), 1)
	assert.Equal(t, "Bob", m.Pending()[0].Name)

	waiting := adminConn.lastOfType(t, protocol.EvtUserWaitingApprove)
	assert.Equal(t, "b", waiting["connectionId"])

	assert.Equal(t, []string{protocol.EvtWaitingForApproval}, bConn.eventTypes(t))
}

func TestJoin_ImmediateWhenNoAdminAssigned(t *testing.T) {
	m := newTestMeeting()

	// First joiner does not claim host: no admin, so approval cannot be
	// routed anywhere and admission completes immediately.
	conn := &fakeConn{}
	outcome, err := m.Join("x", conn, "Xena", false)
	require.NoError(t, err)
	assert.Equal(t, JoinAdmitted, outcome)
	assert.Empty(t, m.Admin())
	assert.True(t, m.HasParticipant("x"))
}

func TestDecide_ApproveAdmitsTarget(t *testing.T) {
	m := newTestMeeting()
	adminConn := joinHost(t, m, "a", "Alice")

	bConn := &fakeConn{}
	_, err := m.Join("b", bConn, "Bob", false)
	require.NoError(t, err)

	require.NoError(t, m.Decide("a", "b", true))

	assert.True(t, m.HasParticipant("b"))
	assert.Empty(t, m.Pending())

	joined := bConn.lastOfType(t, protocol.EvtMeetingJoined)
	assert.Equal(t, false, joined["isHost"])
	assert.Len(t, joined["participants"], 2)

	approved := adminConn.lastOfType(t, protocol.EvtUserApproved)
	assert.Equal(t, "b", approved["connectionId"])
	assert.Equal(t, "Bob", approved["userName"])

	// Admin also saw the roster broadcast for B's admission.
	userJoined := adminConn.lastOfType(t, protocol.EvtUserJoined)
	assert.Len(t, userJoined["participants"], 2)
}

func TestDecide_DeclineNotifiesTargetOnly(t *testing.T) {
	m := newTestMeeting()
	adminConn := joinHost(t, m, "a", "Alice")

	cConn := &fakeConn{}
	_, err := m.Join("c", cConn, "Carol", false)
	require.NoError(t, err)

	require.NoError(t, m.Decide("a", "c", false))

	assert.False(t, m.HasParticipant("c"))
	assert.Empty(t, m.Pending())

	assert.Equal(t, []string{protocol.EvtWaitingForApproval, protocol.EvtJoinDeclined}, cConn.eventTypes(t))
	declined := adminConn.lastOfType(t, protocol.EvtUserDeclined)
	assert.Equal(t, "Carol", declined["userName"])

	// No roster broadcast happened for the decline.
	assert.NotContains(t, adminConn.eventTypes(t), protocol.EvtUserJoined)
}

func TestDecide_RequiresAdmin(t *testing.T) {
	m := newTestMeeting()
	joinHost(t, m, "a", "Alice")

	bConn := &fakeConn{}
	_, err := m.Join("b", bConn, "Bob", false)
	require.NoError(t, err)

	// A pending requester cannot decide on itself.
	err = m.Decide("b", "b", true)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Len(t, m.Pending(), 1)
}

func TestDecide_UnknownTarget(t *testing.T) {
	m := newTestMeeting()
	joinHost(t, m, "a", "Alice")

	err := m.Decide("a", "ghost", true)
	assert.ErrorIs(t, err, ErrPendingNotFound)
}

func TestAdminGuard_HostFlagAloneIsNotEnough(t *testing.T) {
	m := newTestMeeting()
	joinHost(t, m, "a", "Alice")

	// B is admitted with isHost=true but never won the election.
	bConn := &fakeConn{}
	_, err := m.Join("b", bConn, "Bob", true)
	require.NoError(t, err)

	err = m.ForceToggleMedia("b", "a", MediaAudio, false)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = m.Kick("b", "a")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = m.EndForAll("b")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestForceToggleMedia(t *testing.T) {
	m := newTestMeeting()
	adminConn := joinHost(t, m, "a", "Alice")
	bConn := &fakeConn{}
	cConn := &fakeConn{}
	_, err := m.Join("b", bConn, "Bob", true)
	require.NoError(t, err)
	_, err = m.Join("c", cConn, "Carol", true)
	require.NoError(t, err)

	require.NoError(t, m.ForceToggleMedia("a", "b", MediaAudio, false))

	directive := bConn.lastOfType(t, protocol.EvtForceToggleAudio)
	assert.Equal(t, false, directive["enabled"])

	notice := cConn.lastOfType(t, protocol.EvtUserAudioToggled)
	assert.Equal(t, "b", notice["userId"])
	assert.Equal(t, false, notice["audioEnabled"])
	assert.Equal(t, true, notice["byAdmin"])
	assert.Equal(t, "Alice", notice["adminName"])

	// The admin initiated the change and is not re-notified.
	assert.NotContains(t, adminConn.eventTypes(t), protocol.EvtUserAudioToggled)

	err = m.ForceToggleMedia("a", "ghost", MediaVideo, true)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestKick(t *testing.T) {
	m := newTestMeeting()
	adminConn := joinHost(t, m, "a", "Alice")
	bConn := &fakeConn{}
	_, err := m.Join("b", bConn, "Bob", true)
	require.NoError(t, err)

	td, err := m.Kick("a", "b")
	require.NoError(t, err)
	assert.False(t, td.Deleted)
	assert.Equal(t, []domain.ConnID{"b"}, td.Removed)

	assert.False(t, m.HasParticipant("b"))
	bTypes := bConn.eventTypes(t)
	assert.Equal(t, protocol.EvtKickedFromMeeting, bTypes[len(bTypes)-1])

	left := adminConn.lastOfType(t, protocol.EvtUserLeft)
	assert.Len(t, left["participants"], 1)
	kicked := adminConn.lastOfType(t, protocol.EvtUserKicked)
	assert.Equal(t, "Bob", kicked["userName"])
	assert.Equal(t, "Alice", kicked["byAdmin"])

	// Kicking again fails: the target is gone.
	_, err = m.Kick("a", "b")
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestEndForAll(t *testing.T) {
	m := newTestMeeting()
	adminConn := joinHost(t, m, "a", "Alice")
	bConn := &fakeConn{}
	_, err := m.Join("b", bConn, "Bob", true)
	require.NoError(t, err)
	pConn := &fakeConn{}
	// Flip approval path on: park a requester to verify pending is cleared.
	_, err = m.Join("p", pConn, "Pat", false)
	require.NoError(t, err)

	td, err := m.EndForAll("a")
	require.NoError(t, err)
	assert.True(t, td.Deleted)
	assert.ElementsMatch(t, []domain.ConnID{"a", "b", "p"}, td.Removed)

	assert.Equal(t, 0, m.ParticipantCount())
	assert.Empty(t, m.Pending())

	assert.Contains(t, adminConn.eventTypes(t), protocol.EvtMeetingEnded)
	// The purge is silent: the termination notice is the last thing anyone sees.
	bTypes := bConn.eventTypes(t)
	assert.Equal(t, protocol.EvtMeetingEnded, bTypes[len(bTypes)-1])
}

func TestDisconnect_OrdinaryParticipant(t *testing.T) {
	m := newTestMeeting()
	adminConn := joinHost(t, m, "a", "Alice")
	bConn := &fakeConn{}
	_, err := m.Join("b", bConn, "Bob", true)
	require.NoError(t, err)

	td := m.Disconnect("b")
	assert.False(t, td.Deleted, "admin still present, meeting survives")
	assert.Equal(t, []domain.ConnID{"b"}, td.Removed)

	left := adminConn.lastOfType(t, protocol.EvtUserLeft)
	assert.Equal(t, "b", left["userId"])
	assert.Len(t, left["participants"], 1)
}

func TestDisconnect_LastParticipantDeletesMeeting(t *testing.T) {
	m := newTestMeeting()
	conn := &fakeConn{}
	_, err := m.Join("x", conn, "Xena", false)
	require.NoError(t, err)

	td := m.Disconnect("x")
	assert.True(t, td.Deleted)
}

func TestDisconnect_AdminTearsMeetingDown(t *testing.T) {
	m := newTestMeeting()
	joinHost(t, m, "a", "Alice")
	bConn := &fakeConn{}
	cConn := &fakeConn{}
	_, err := m.Join("b", bConn, "Bob", true)
	require.NoError(t, err)
	_, err = m.Join("c", cConn, "Carol", true)
	require.NoError(t, err)

	td := m.Disconnect("a")
	assert.True(t, td.Deleted, "admin disconnect tears down regardless of remaining participants")
	assert.ElementsMatch(t, []domain.ConnID{"a", "b", "c"}, td.Removed)

	assert.Contains(t, bConn.eventTypes(t), protocol.EvtMeetingEnded)
	assert.Contains(t, cConn.eventTypes(t), protocol.EvtMeetingEnded)
}

func TestDisconnect_PendingRequesterDropsEntryQuietly(t *testing.T) {
	m := newTestMeeting()
	adminConn := joinHost(t, m, "a", "Alice")
	pConn := &fakeConn{}
	_, err := m.Join("p", pConn, "Pat", false)
	require.NoError(t, err)

	before := len(adminConn.events(t))
	td := m.Disconnect("p")
	assert.False(t, td.Deleted)
	assert.Empty(t, m.Pending())
	assert.Len(t, adminConn.events(t), before, "no broadcast for a vanished requester")

	// The decision now has nothing to land on.
	err = m.Decide("a", "p", true)
	assert.ErrorIs(t, err, ErrPendingNotFound)
}

func TestSendChat_OrderAndSnapshot(t *testing.T) {
	m := newTestMeeting()
	adminConn := joinHost(t, m, "a", "Alice")

	assert.True(t, m.SendChat("a", "first"))
	assert.True(t, m.SendChat("a", "second"))
	assert.False(t, m.SendChat("ghost", "nope"), "non-participant chat is a no-op")

	history := m.Chat()
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Text)
	assert.Equal(t, "second", history[1].Text)
	assert.NotEqual(t, history[0].ID, history[1].ID)

	// Sender receives its own message too.
	msg := adminConn.lastOfType(t, protocol.EvtNewMessage)
	assert.Equal(t, "second", msg["text"])
	assert.Equal(t, "Alice", msg["user"])

	// A later joiner sees the full history in its snapshot, in order.
	bConn := &fakeConn{}
	_, err := m.Join("b", bConn, "Bob", true)
	require.NoError(t, err)
	joined := bConn.lastOfType(t, protocol.EvtMeetingJoined)
	chat := joined["chat"].([]any)
	require.Len(t, chat, 2)
	assert.Equal(t, "first", chat[0].(map[string]any)["text"])
	assert.Equal(t, "second", chat[1].(map[string]any)["text"])
}

func TestToggleMedia_ExcludesSender(t *testing.T) {
	m := newTestMeeting()
	aConn := joinHost(t, m, "a", "Alice")
	bConn := &fakeConn{}
	_, err := m.Join("b", bConn, "Bob", true)
	require.NoError(t, err)

	m.ToggleMedia("b", MediaVideo, false)

	notice := aConn.lastOfType(t, protocol.EvtUserVideoToggled)
	assert.Equal(t, "b", notice["userId"])
	assert.Equal(t, false, notice["videoEnabled"])
	_, hasByAdmin := notice["byAdmin"]
	assert.False(t, hasByAdmin, "self toggle carries no admin attribution")

	assert.NotContains(t, bConn.eventTypes(t), protocol.EvtUserVideoToggled)
}

func TestScreenShare(t *testing.T) {
	m := newTestMeeting()
	aConn := joinHost(t, m, "a", "Alice")
	bConn := &fakeConn{}
	_, err := m.Join("b", bConn, "Bob", true)
	require.NoError(t, err)

	m.ScreenShare("b", true, "stream-1")
	started := aConn.lastOfType(t, protocol.EvtScreenShareStarted)
	assert.Equal(t, "stream-1", started["streamId"])

	m.ScreenShare("b", false, "")
	stopped := aConn.lastOfType(t, protocol.EvtScreenShareStopped)
	assert.Equal(t, "b", stopped["userId"])
}

func TestRoster_OrderedByJoinTime(t *testing.T) {
	m := newTestMeeting()
	joinHost(t, m, "a", "Alice")
	_, err := m.Join("b", &fakeConn{}, "Bob", true)
	require.NoError(t, err)
	_, err = m.Join("c", &fakeConn{}, "Carol", true)
	require.NoError(t, err)

	roster := m.Roster()
	require.Len(t, roster, 3)
	assert.Equal(t, "Alice", roster[0].Name)
}

func TestJoin_ClosedMeetingIsNotFound(t *testing.T) {
	m := newTestMeeting()
	joinHost(t, m, "a", "Alice")
	_, err := m.EndForAll("a")
	require.NoError(t, err)

	_, err = m.Join("late", &fakeConn{}, "Late", false)
	assert.ErrorIs(t, err, ErrMeetingNotFound)
}
