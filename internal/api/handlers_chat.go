package api

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chris/mira/internal/agent"
	"github.com/chris/mira/internal/model"
)

type chatRequest struct {
	Messages []model.Message `json:"messages"`
}

type voiceRequest struct {
	Audio          string          `json:"audio"`
	Messages       []model.Message `json:"messages"`
	ConversationID int64           `json:"conversationId"`
}

type linkCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type waitlistRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

var (
	chatRoles  = []model.Role{model.RoleUser, model.RoleAssistant, model.RoleSystem}
	voiceRoles = []model.Role{model.RoleUser, model.RoleAssistant}
)

// validRoles rejects messages whose role is not in allowed.
func validRoles(messages []model.Message, allowed []model.Role) error {
	for i, m := range messages {
		if !slices.Contains(allowed, m.Role) {
			return model.Invalid("messages", "message %d has unsupported role %q", i, m.Role)
		}
	}
	return nil
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Messages) == 0 {
		s.respondError(c, model.Invalid("messages", "at least one message is required"))
		return
	}
	if err := validRoles(req.Messages, chatRoles); err != nil {
		s.respondError(c, err)
		return
	}
	id := userID(c)
	reply, err := s.svc.Agent.Chat(c.Request.Context(), id, req.Messages)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.svc.Sessions.Heartbeat(id)
	c.JSON(http.StatusOK, reply)
}

func (s *Server) handleVoice(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxVoiceBytes)
	var req voiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio too large"})
			return
		}
		badRequest(c, err)
		return
	}
	if req.Audio == "" {
		s.respondError(c, model.Invalid("audio", "audio is required"))
		return
	}
	if err := validRoles(req.Messages, voiceRoles); err != nil {
		s.respondError(c, err)
		return
	}
	id := userID(c)
	reply, err := s.svc.Agent.VoiceChat(c.Request.Context(), agent.VoiceRequest{
		Audio:          req.Audio,
		UserID:         id,
		History:        req.Messages,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	if id != 0 {
		s.svc.Sessions.Heartbeat(id)
	}
	c.JSON(http.StatusOK, reply)
}

// handleLinkCode issues a one-time code the caller redeems with `!link <code>`
// in a Discord DM.
func (s *Server) handleLinkCode(c *gin.Context) {
	code, expires, err := s.svc.LinkCodes.IssueLinkCode(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, linkCodeResponse{Code: code, ExpiresAt: expires})
}

func (s *Server) handleWaitlist(c *gin.Context) {
	var req waitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.Waitlist.Join(c.Request.Context(), req.Email, req.Name); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func (s *Server) handleMedia(c *gin.Context) {
	path, err := s.svc.Media.Path(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.File(path)
}
