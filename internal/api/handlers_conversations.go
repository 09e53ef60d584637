package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chris/mira/internal/model"
)

type titleRequest struct {
	Title string `json:"title"`
}

type messageRequest struct {
	Role     model.Role `json:"role"`
	Content  string     `json:"content"`
	AudioURL string     `json:"audioUrl"`
}

// conversationID parses :id. Malformed ids look the same as missing ones.
func conversationID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrNotFoundOrAccessDenied
	}
	return id, nil
}

func (s *Server) handleListConversations(c *gin.Context) {
	list, err := s.svc.Conversations.List(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleCreateConversation(c *gin.Context) {
	var req titleRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	conv, err := s.svc.Conversations.Create(c.Request.Context(), userID(c), req.Title)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (s *Server) handleGetConversation(c *gin.Context) {
	id, err := conversationID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	thread, err := s.svc.Conversations.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (s *Server) handleRenameConversation(c *gin.Context) {
	id, err := conversationID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.Conversations.UpdateTitle(c.Request.Context(), userID(c), id, req.Title); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleAddMessage(c *gin.Context) {
	id, err := conversationID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msgID, err := s.svc.Conversations.AddMessage(c.Request.Context(), userID(c), id, req.Role, req.Content, req.AudioURL)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": msgID})
}
