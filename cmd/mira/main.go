package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chris/mira/config"
	"github.com/chris/mira/internal/agent"
	"github.com/chris/mira/internal/api"
	"github.com/chris/mira/internal/blobstore"
	"github.com/chris/mira/internal/conversations"
	"github.com/chris/mira/internal/db"
	"github.com/chris/mira/internal/discord"
	"github.com/chris/mira/internal/goals"
	"github.com/chris/mira/internal/llm"
	"github.com/chris/mira/internal/logging"
	"github.com/chris/mira/internal/notify"
	"github.com/chris/mira/internal/onboarding"
	"github.com/chris/mira/internal/prompt"
	"github.com/chris/mira/internal/scheduler"
	"github.com/chris/mira/internal/state"
	"github.com/chris/mira/internal/voice"
	"github.com/chris/mira/internal/waitlist"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("mira exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	apiKey, baseURL := cfg.LLMKey()
	client, err := llm.NewClient(llm.ProviderConfig{
		Provider:  cfg.LLMProvider,
		APIKey:    apiKey,
		AuthToken: cfg.AnthropicToken,
		Model:     cfg.LLMModel,
		BaseURL:   baseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	var synth voice.Synthesizer = voice.NewSpeechSynthesizer(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.TTSModel)
	if cfg.VoiceMock {
		synth = voice.Silent{}
	}

	media, err := blobstore.NewFilesystemStore(cfg.MediaDir, cfg.PublicURL)
	if err != nil {
		return err
	}

	store := state.NewStore(database,
		state.WithLocation(loc),
		state.WithLocator(profileLocator(database, logger)),
	)
	convs := conversations.NewService(database)

	ag := agent.New(agent.Deps{
		Rows:             database,
		State:            store,
		Compiler:         prompt.New(prompt.DefaultPersona),
		Client:           client,
		Transcriber:      voice.NewWhisperTranscriber(cfg.OpenAIKey, cfg.OpenAIBaseURL),
		Synthesizer:      synth,
		Objects:          media,
		Recorder:         convs,
		VoiceID:          cfg.TTSVoice,
		Logger:           logger,
		MaxContextTokens: cfg.MaxContextTokens,
	})

	phases := scheduler.New(store, scheduler.Options{
		Spec:        cfg.PhaseSyncCron,
		IdleTimeout: cfg.SessionIdleTimeout,
		Logger:      logger,
	})
	if err := phases.Start(); err != nil {
		return err
	}
	defer phases.Stop()

	// Link codes are only useful when the bot is running.
	var linkCodes api.LinkCodes
	if cfg.DiscordToken != "" {
		linkCodes = discord.NewLinker(database, nil)
	}

	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(api.Services{
		Agent:         ag,
		States:        store,
		Sessions:      phases,
		Onboarding:    onboarding.NewService(database),
		Goals:         goals.NewService(database, store),
		Conversations: convs,
		Waitlist:      waitlist.NewService(database, notify.NewWebhook(cfg.DiscordWebhook), logger),
		Media:         media,
		LinkCodes:     linkCodes,
	}, api.Options{
		Addr:        cfg.HTTPAddr,
		AuthHeader:  cfg.AuthHeader,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	// If Discord token is set, run the bot alongside the API
	if cfg.DiscordToken != "" {
		router, err := discord.NewRouter(discord.RouterOptions{
			Chatter:          ag,
			Links:            database,
			States:           store,
			MaxContextTokens: cfg.MaxContextTokens,
			Logger:           logger,
		})
		if err != nil {
			return err
		}
		bot, err := discord.NewBot(cfg.DiscordToken, router, logger)
		if err != nil {
			return fmt.Errorf("failed to start Discord bot: %w", err)
		}
		defer bot.Close()
	}

	logger.Info("mira is running",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("timezone", loc.String()),
		zap.Bool("voice_mock", cfg.VoiceMock),
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}

// profileLocator resolves a user's zone from their onboarding profile.
func profileLocator(database *db.DB, logger *zap.Logger) state.Locator {
	return func(ctx context.Context, userID int64) *time.Location {
		p, err := database.GetUserProfile(ctx, userID)
		if err != nil {
			logger.Warn("loading profile timezone", zap.Int64("user_id", userID), zap.Error(err))
			return nil
		}
		if p == nil || p.Timezone == "" {
			return nil
		}
		loc, err := time.LoadLocation(p.Timezone)
		if err != nil {
			return nil
		}
		return loc
	}
}
