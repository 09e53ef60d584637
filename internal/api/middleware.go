package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chris/mira/internal/model"
)

const (
	userIDKey       = "mira.user_id"
	requestIDHeader = "X-Request-ID"
)

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		logger.Debug("request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// requireUser rejects requests without a valid user id header.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUserID(c.GetHeader(s.authHeader))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// optionalUser records the user id when present and valid.
func (s *Server) optionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := parseUserID(c.GetHeader(s.authHeader)); ok {
			c.Set(userIDKey, id)
		}
		c.Next()
	}
}

func parseUserID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// userID is zero for anonymous requests.
func userID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

// respondError maps the error taxonomy onto status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		status, msg = http.StatusBadRequest, ve.Error()
	case errors.Is(err, model.ErrNotFoundOrAccessDenied):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, model.ErrAlreadyExists):
		status, msg = http.StatusConflict, strings.TrimSuffix(err.Error(), ": "+model.ErrAlreadyExists.Error())
	case errors.Is(err, model.ErrTranscriptionFailed):
		status, msg = http.StatusUnprocessableEntity, "could not transcribe audio"
	case errors.Is(err, model.ErrCompletionFailed):
		status, msg = http.StatusBadGateway, "could not generate a reply"
	case errors.Is(err, model.ErrStorageUnavailable):
		status, msg = http.StatusServiceUnavailable, "storage unavailable"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}
