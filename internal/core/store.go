package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/videoconnect/server/internal/domain"
)

// Store owns the set of live meetings. It is the sole owner of meeting
// lifetimes; nothing else creates or destroys Meeting records.
type Store struct {
	mu       sync.RWMutex
	meetings map[domain.MeetingID]*Meeting
}

func NewStore() *Store {
	return &Store{meetings: make(map[domain.MeetingID]*Meeting)}
}

// Create allocates a fresh meeting with default settings and no admin.
// IDs are random UUIDs; the id space is large enough that collisions are
// not retried.
func (s *Store) Create() *Meeting {
	meta := domain.Meeting{
		ID:        domain.MeetingID(uuid.NewString()),
		CreatedAt: time.Now(),
		Settings:  domain.DefaultSettings(),
	}
	m := newMeeting(meta)

	s.mu.Lock()
	s.meetings[meta.ID] = m
	s.mu.Unlock()

	log.Info().Str("module", "core.store").Str("meeting", string(meta.ID)).Msg("meeting created")
	return m
}

func (s *Store) Get(id domain.MeetingID) (*Meeting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meetings[id]
	return m, ok
}

// Delete removes the meeting entirely; idempotent.
func (s *Store) Delete(id domain.MeetingID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetings[id]; ok {
		delete(s.meetings, id)
		log.Info().Str("module", "core.store").Str("meeting", string(id)).Msg("meeting deleted")
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meetings)
}
