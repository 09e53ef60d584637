package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chris/mira/internal/goals"
	"github.com/chris/mira/internal/onboarding"
	"github.com/chris/mira/internal/state"
)

func (s *Server) handleCheckOnboarding(c *gin.Context) {
	done, err := s.svc.Onboarding.Check(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasCompletedOnboarding": done})
}

func (s *Server) handleSaveOnboarding(c *gin.Context) {
	var answers onboarding.Answers
	if err := c.ShouldBindJSON(&answers); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.Onboarding.Save(c.Request.Context(), userID(c), answers); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleGetGoals(c *gin.Context) {
	g, err := s.svc.Goals.GetToday(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) handleSetGoals(c *gin.Context) {
	var in goals.GoalsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	g, err := s.svc.Goals.SetToday(c.Request.Context(), userID(c), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) handleRecentGoals(c *gin.Context) {
	list, err := s.svc.Goals.Recent(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetReflection(c *gin.Context) {
	r, err := s.svc.Goals.GetTodayReflection(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// handleSetReflection saves the reflection and carries its vision line into
// the OS state.
func (s *Server) handleSetReflection(c *gin.Context) {
	var in goals.ReflectionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	id := userID(c)
	r, err := s.svc.Goals.SetTodayReflection(ctx, id, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if in.VisionLine != "" {
		if _, err := s.svc.States.ApplyUpdate(ctx, id, state.Update{VisionLine: &in.VisionLine}); err != nil {
			s.respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, r)
}
