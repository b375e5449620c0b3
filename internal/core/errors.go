package core

import "errors"

var (
	ErrMeetingNotFound     = errors.New("meeting not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrPendingNotFound     = errors.New("no pending join for target")
	ErrUnauthorized        = errors.New("not authorized")
)
