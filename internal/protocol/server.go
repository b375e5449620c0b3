package protocol

import (
	"encoding/json"

	"github.com/videoconnect/server/internal/domain"
)

type MeetingJoined struct {
	Type         string               `json:"type"`
	Participants []domain.Participant `json:"participants"`
	Chat         []domain.ChatMessage `json:"chat"`
	IsHost       bool                 `json:"isHost"`
}

type MeetingError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type UserWaitingApproval struct {
	Type         string             `json:"type"`
	User         domain.PendingJoin `json:"user"`
	ConnectionID string             `json:"connectionId"`
}

// Notice is the shape of the message-only events: waiting-for-approval,
// join-declined, kicked-from-meeting, meeting-ended-by-host.
type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Decision reports an approve/decline outcome back to the admin.
type Decision struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
	UserName     string `json:"userName"`
}

type UserJoined struct {
	Type         string               `json:"type"`
	User         domain.Participant   `json:"user"`
	Participants []domain.Participant `json:"participants"`
}

type UserLeft struct {
	Type         string               `json:"type"`
	UserID       string               `json:"userId"`
	Participants []domain.Participant `json:"participants"`
}

type ForceToggleMedia struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

type UserAudioToggled struct {
	Type         string `json:"type"`
	UserID       string `json:"userId"`
	AudioEnabled bool   `json:"audioEnabled"`
	ByAdmin      bool   `json:"byAdmin,omitempty"`
	AdminName    string `json:"adminName,omitempty"`
}

type UserVideoToggled struct {
	Type         string `json:"type"`
	UserID       string `json:"userId"`
	VideoEnabled bool   `json:"videoEnabled"`
	ByAdmin      bool   `json:"byAdmin,omitempty"`
	AdminName    string `json:"adminName,omitempty"`
}

type UserKicked struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	ByAdmin  string `json:"byAdmin"`
}

type NewMessage struct {
	Type string `json:"type"`
	domain.ChatMessage
}

// RelayedSignal is a delivered negotiation hop, tagged with its sender.
type RelayedSignal struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Sender  string          `json:"sender"`
}

type ScreenShare struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	StreamID string `json:"streamId,omitempty"`
}

type Pong struct {
	Type string `json:"type"`
}
