package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/videoconnect/server/internal/core"
	"github.com/videoconnect/server/internal/domain"
)

// MeetingHandler is the thin request-response resource boundary: create and
// lookup by id. Everything stateful happens on the realtime surface.
type MeetingHandler struct {
	Store *core.Store
}

type CreateMeetingResponse struct {
	MeetingID string `json:"meetingId"`
	Success   bool   `json:"success"`
}

type LookupMeetingResponse struct {
	MeetingID    string               `json:"meetingId"`
	Participants []domain.Participant `json:"participants"`
	Exists       bool                 `json:"exists"`
}

func (h *MeetingHandler) Create(c *gin.Context) {
	m := h.Store.Create()
	c.JSON(http.StatusOK, CreateMeetingResponse{
		MeetingID: string(m.ID()),
		Success:   true,
	})
}

func (h *MeetingHandler) Lookup(c *gin.Context) {
	id := domain.MeetingID(c.Param("meetingId"))
	m, ok := h.Store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
		return
	}
	c.JSON(http.StatusOK, LookupMeetingResponse{
		MeetingID:    string(id),
		Participants: m.Roster(),
		Exists:       true,
	})
}
