package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/videoconnect/server/internal/core"
	"github.com/videoconnect/server/internal/domain"
)

type connEntry struct {
	Conn    core.SignalConnection
	Meeting domain.MeetingID
	Cancel  context.CancelFunc
}

// Registry tracks every live connection and which meeting it is bound to.
// It holds routing state only; meeting membership itself lives in core.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*connEntry)}
}

func (r *Registry) Bind(id domain.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("bound connection")
}

func (r *Registry) Conn(id domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) SetMeeting(id domain.ConnID, mid domain.MeetingID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Meeting = mid
	}
}

func (r *Registry) ClearMeeting(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Meeting = ""
	}
}

func (r *Registry) MeetingOf(id domain.ConnID) (domain.MeetingID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.Meeting == "" {
		return "", false
	}
	return e.Meeting, true
}

func (r *Registry) Unbind(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbound connection")
}

// Cancel fires the connection's cancel func, tearing down its pumps.
func (r *Registry) Cancel(id domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	return true
}
