package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chris/mira/internal/model"
	"github.com/chris/mira/internal/state"
)

type stateRequest struct {
	Phase      *model.Phase `json:"phase"`
	Capacity   *int         `json:"capacity"`
	Anchors    *[]string    `json:"anchors"`
	VisionLine *string      `json:"visionLine"`
	IsShutdown *bool        `json:"isShutdown"`
}

func (r stateRequest) update() state.Update {
	u := state.Update{
		Phase:      r.Phase,
		Capacity:   r.Capacity,
		VisionLine: r.VisionLine,
		IsShutdown: r.IsShutdown,
	}
	if r.Anchors != nil {
		u.Anchors = *r.Anchors
		u.SetAnchors = true
	}
	return u
}

type syncResponse struct {
	State   *model.OSState `json:"state"`
	Changed bool           `json:"changed"`
}

func (s *Server) handleGetState(c *gin.Context) {
	id := userID(c)
	st, err := s.svc.States.GetOrCreate(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.svc.Sessions.Heartbeat(id)
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleUpdateState(c *gin.Context) {
	var req stateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u := req.update()
	if err := u.Validate(); err != nil {
		s.respondError(c, err)
		return
	}
	id := userID(c)
	st, err := s.svc.States.ApplyUpdate(c.Request.Context(), id, u)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.svc.Sessions.Heartbeat(id)
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleStartSession(c *gin.Context) {
	st, err := s.svc.Sessions.Activate(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleEndSession(c *gin.Context) {
	s.svc.Sessions.Deactivate(userID(c))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSync(c *gin.Context) {
	st, changed, err := s.svc.Sessions.Sync(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, syncResponse{State: st, Changed: changed})
}
