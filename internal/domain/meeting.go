package domain

import "time"

type (
	MeetingID string
	// ConnID identifies a single live connection on the realtime surface.
	ConnID string
)

// Settings are per-meeting admission knobs.
// Locked is reserved: it is carried on the wire but nothing consumes it yet.
type Settings struct {
	RequireApproval bool `json:"requireApproval"`
	Locked          bool `json:"locked"`
}

// Meeting holds meeting meta only. Membership, chat and admin assignment are
// mutable state and live behind the core store's serialization.
type Meeting struct {
	ID        MeetingID
	CreatedAt time.Time
	Settings  Settings
}

func DefaultSettings() Settings {
	return Settings{RequireApproval: true, Locked: false}
}
