// Package protocol defines the realtime wire surface: event names and the
// typed payloads exchanged over a signal connection. Every frame is a JSON
// object carrying a "type" tag next to its payload fields.
package protocol

// Client-originated events.
const (
	EvtJoinMeeting      = "join-meeting"
	EvtApproveUser      = "approve-user"
	EvtAdminToggleAudio = "admin-toggle-audio"
	EvtAdminToggleVideo = "admin-toggle-video"
	EvtKickUser         = "kick-user"
	EvtEndMeetingForAll = "end-meeting-for-all"
	EvtOffer            = "offer"
	EvtAnswer           = "answer"
	EvtICECandidate     = "ice-candidate"
	EvtSendMessage      = "send-message"
	EvtToggleAudio      = "toggle-audio"
	EvtToggleVideo      = "toggle-video"
	EvtStartScreenShare = "start-screen-share"
	EvtStopScreenShare  = "stop-screen-share"
	EvtPing             = "ping"
)

// Server-originated events.
const (
	EvtMeetingJoined      = "meeting-joined"
	EvtMeetingError       = "meeting-error"
	EvtUserWaitingApprove = "user-waiting-approval"
	EvtWaitingForApproval = "waiting-for-approval"
	EvtUserApproved       = "user-approved"
	EvtUserDeclined       = "user-declined"
	EvtJoinDeclined       = "join-declined"
	EvtUserJoined         = "user-joined"
	EvtUserLeft           = "user-left"
	EvtForceToggleAudio   = "force-toggle-audio"
	EvtForceToggleVideo   = "force-toggle-video"
	EvtUserAudioToggled   = "user-audio-toggled"
	EvtUserVideoToggled   = "user-video-toggled"
	EvtKickedFromMeeting  = "kicked-from-meeting"
	EvtUserKicked         = "user-kicked"
	EvtMeetingEnded       = "meeting-ended-by-host"
	EvtNewMessage         = "new-message"
	EvtScreenShareStarted = "screen-share-started"
	EvtScreenShareStopped = "screen-share-stopped"
	EvtPong               = "pong"
)
