// Package api exposes Mira over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chris/mira/internal/agent"
	"github.com/chris/mira/internal/conversations"
	"github.com/chris/mira/internal/goals"
	"github.com/chris/mira/internal/logging"
	"github.com/chris/mira/internal/model"
	"github.com/chris/mira/internal/onboarding"
	"github.com/chris/mira/internal/state"
)

// Agent runs chat and voice turns; *agent.Agent satisfies it.
type Agent interface {
	Chat(ctx context.Context, userID int64, history []model.Message) (model.ChatReply, error)
	VoiceChat(ctx context.Context, req agent.VoiceRequest) (model.VoiceReply, error)
}

type States interface {
	GetOrCreate(ctx context.Context, userID int64) (*model.OSState, error)
	ApplyUpdate(ctx context.Context, userID int64, u state.Update) (*model.OSState, error)
}

// Sessions is satisfied by *scheduler.PhaseSync.
type Sessions interface {
	Activate(ctx context.Context, userID int64) (*model.OSState, error)
	Heartbeat(userID int64)
	Deactivate(userID int64)
	Sync(ctx context.Context, userID int64) (*model.OSState, bool, error)
}

type Waitlist interface {
	Join(ctx context.Context, email, name string) error
}

// LinkCodes issues Discord link codes; *discord.Linker satisfies it.
type LinkCodes interface {
	IssueLinkCode(ctx context.Context, userID int64) (string, time.Time, error)
}

// Media resolves a stored object key to a local file.
type Media interface {
	Path(key string) (string, error)
}

type Services struct {
	Agent         Agent
	States        States
	Sessions      Sessions
	Onboarding    *onboarding.Service
	Goals         *goals.Service
	Conversations *conversations.Service
	Waitlist      Waitlist
	Media         Media     // optional
	LinkCodes     LinkCodes // optional
}

// DefaultMaxVoiceBytes caps a voice request body; Whisper rejects uploads
// above 25 MB.
const DefaultMaxVoiceBytes = 25 << 20

type Options struct {
	Addr          string
	AuthHeader    string
	CORSOrigins   []string
	MaxVoiceBytes int64
	Logger        *zap.Logger
}

type Server struct {
	svc           Services
	authHeader    string
	maxVoiceBytes int64
	logger        *zap.Logger
	engine        *gin.Engine
	httpServer    *http.Server
}

func NewServer(svc Services, opts Options) *Server {
	if opts.AuthHeader == "" {
		opts.AuthHeader = "X-Mira-User"
	}
	if opts.MaxVoiceBytes <= 0 {
		opts.MaxVoiceBytes = DefaultMaxVoiceBytes
	}
	logger := logging.OrNop(opts.Logger).Named("api")

	engine := gin.New()
	engine.Use(requestLogger(logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(opts.CORSOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.CORSOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", opts.AuthHeader}
	engine.Use(cors.New(corsConfig))

	s := &Server{
		svc:           svc,
		authHeader:    opts.AuthHeader,
		maxVoiceBytes: opts.MaxVoiceBytes,
		logger:        logger,
		engine:        engine,
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.svc.Media != nil {
		s.engine.GET("/media/*key", s.handleMedia)
	}

	public := s.engine.Group("/api")
	public.POST("/voice", s.optionalUser(), s.handleVoice)
	public.POST("/waitlist", s.handleWaitlist)

	api := s.engine.Group("/api", s.requireUser())

	osGroup := api.Group("/os")
	{
		osGroup.GET("/state", s.handleGetState)
		osGroup.PATCH("/state", s.handleUpdateState)
		osGroup.POST("/session", s.handleStartSession)
		osGroup.DELETE("/session", s.handleEndSession)
		osGroup.POST("/sync", s.handleSync)
	}

	api.POST("/chat", s.handleChat)
	api.GET("/onboarding", s.handleCheckOnboarding)
	api.POST("/onboarding", s.handleSaveOnboarding)

	api.GET("/goals/today", s.handleGetGoals)
	api.PUT("/goals/today", s.handleSetGoals)
	api.GET("/goals/recent", s.handleRecentGoals)
	api.GET("/reflections/today", s.handleGetReflection)
	api.PUT("/reflections/today", s.handleSetReflection)

	if s.svc.LinkCodes != nil {
		api.POST("/discord/link-code", s.handleLinkCode)
	}

	conv := api.Group("/conversations")
	{
		conv.GET("", s.handleListConversations)
		conv.POST("", s.handleCreateConversation)
		conv.GET("/:id", s.handleGetConversation)
		conv.PATCH("/:id", s.handleRenameConversation)
		conv.POST("/:id/messages", s.handleAddMessage)
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
