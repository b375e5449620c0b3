package protocol

import "encoding/json"

// Envelope is the minimal view of any client frame, enough to dispatch on.
type Envelope struct {
	Type string `json:"type"`
}

type JoinMeeting struct {
	MeetingID string `json:"meetingId"`
	Name      string `json:"name"`
	IsHost    bool   `json:"isHost"`
}

type ApproveUser struct {
	TargetConnectionID string `json:"targetConnectionId"`
	Approved           bool   `json:"approved"`
}

type AdminToggleMedia struct {
	TargetConnectionID string `json:"targetConnectionId"`
	Enabled            bool   `json:"enabled"`
}

type KickUser struct {
	TargetConnectionID string `json:"targetConnectionId"`
}

// Signal carries one negotiation hop. Payload is owned by the peers'
// negotiation stacks and is never parsed here.
type Signal struct {
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

type SendMessage struct {
	Text string `json:"text"`
}

type ToggleMedia struct {
	Enabled bool `json:"enabled"`
}

type StartScreenShare struct {
	StreamID string `json:"streamId,omitempty"`
}
