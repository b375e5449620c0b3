// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"
	"time"
)

const MaxNameLen = 64

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
)

// Participant is a connection admitted into a meeting's roster.
// Owned exclusively by its meeting.
type Participant struct {
	ConnID   ConnID    `json:"connectionId"`
	Name     string    `json:"name"`
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`
}

// PendingJoin is a connection parked until the host decides on it.
type PendingJoin struct {
	ConnID      ConnID    `json:"connectionId"`
	Name        string    `json:"name"`
	RequestedAt time.Time `json:"requestedAt"`
}

// ValidateName keeps ad-hoc length checks out of the adapters.
func ValidateName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}
