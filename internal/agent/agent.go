// Package agent runs one conversational turn: it loads the user's context,
// compiles the system prompt, calls the model and, for voice turns, handles
// transcription and speech.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chris/mira/internal/drift"
	"github.com/chris/mira/internal/llm"
	"github.com/chris/mira/internal/logging"
	"github.com/chris/mira/internal/model"
	"github.com/chris/mira/internal/prompt"
	"github.com/chris/mira/internal/voice"
)

// FallbackReply is returned when the model answers without usable text.
const FallbackReply = "I'm here for you. Tell me more."

const (
	// outputReserve is kept free in the context window for the reply.
	outputReserve = 1024
	minHistory    = 1000
	voiceKeyDir   = "mira-voice"
)

// Rows is the read side of the row store the turn needs.
type Rows interface {
	GetUserProfile(ctx context.Context, userID int64) (*model.UserProfile, error)
	GetDailyGoals(ctx context.Context, userID int64, date string) (*model.DailyGoals, error)
}

// StateReader is satisfied by *state.Store.
type StateReader interface {
	Get(ctx context.Context, userID int64) (*model.OSState, error)
	Touch(ctx context.Context, userID int64) error
	Now() time.Time
	Today() string
}

type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// TurnRecorder appends a finished voice exchange to a saved conversation.
type TurnRecorder interface {
	AppendTurn(ctx context.Context, userID, conversationID int64, transcript, reply, audioURL string) error
}

type Deps struct {
	Rows        Rows
	State       StateReader
	Compiler    *prompt.Compiler
	Client      llm.Client
	Transcriber voice.Transcriber
	Synthesizer voice.Synthesizer // optional
	Objects     ObjectStore       // optional
	Recorder    TurnRecorder      // optional
	VoiceID     string
	Logger      *zap.Logger

	MaxContextTokens int
}

type Agent struct {
	rows        Rows
	state       StateReader
	compiler    *prompt.Compiler
	client      llm.Client
	transcriber voice.Transcriber
	synth       voice.Synthesizer
	objects     ObjectStore
	recorder    TurnRecorder
	voiceID     string
	logger      *zap.Logger

	MaxContextTokens int
}

func New(d Deps) *Agent {
	return &Agent{
		rows:             d.Rows,
		state:            d.State,
		compiler:         d.Compiler,
		client:           d.Client,
		transcriber:      d.Transcriber,
		synth:            d.Synthesizer,
		objects:          d.Objects,
		recorder:         d.Recorder,
		voiceID:          d.VoiceID,
		logger:           logging.OrNop(d.Logger).Named("agent"),
		MaxContextTokens: d.MaxContextTokens,
	}
}

// turnContext is what the prompt is compiled from. Any field may be nil.
type turnContext struct {
	profile *model.UserProfile
	state   *model.OSState
	goals   *model.DailyGoals
}

// Chat answers the history with the user's full context in the system prompt.
func (a *Agent) Chat(ctx context.Context, userID int64, history []model.Message) (model.ChatReply, error) {
	tc := a.loadContext(ctx, userID)

	var pref model.CallOutPreference
	if tc.profile != nil {
		pref = tc.profile.CallOutPreference
	}
	now := a.state.Now()
	fragment := drift.Detect(tc.state, pref, now)
	if fragment != "" {
		a.logger.Info("drift detected",
			zap.Int64("user_id", userID),
			zap.String("last_seen", drift.Describe(tc.state, now)),
			zap.String("call_out", string(pref)),
		)
	}

	system := a.compiler.Compile(tc.profile, tc.state, tc.goals, fragment)
	text, err := a.complete(ctx, system, history)
	if err != nil {
		return model.ChatReply{}, err
	}

	if tc.state != nil {
		if err := a.state.Touch(ctx, userID); err != nil {
			a.logger.Warn("touching last interaction", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return model.ChatReply{Role: model.RoleAssistant, Content: text}, nil
}

// loadContext reads profile, state and today's goals concurrently. A failed
// read is logged and treated as absent.
func (a *Agent) loadContext(ctx context.Context, userID int64) turnContext {
	var tc turnContext
	today := a.state.Today()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := a.rows.GetUserProfile(gctx, userID)
		if err != nil {
			a.logger.Warn("loading profile", zap.Int64("user_id", userID), zap.Error(err))
			return nil
		}
		tc.profile = p
		return nil
	})
	g.Go(func() error {
		s, err := a.state.Get(gctx, userID)
		if err != nil {
			a.logger.Warn("loading state", zap.Int64("user_id", userID), zap.Error(err))
			return nil
		}
		tc.state = s
		return nil
	})
	g.Go(func() error {
		goals, err := a.rows.GetDailyGoals(gctx, userID, today)
		if err != nil {
			a.logger.Warn("loading goals", zap.Int64("user_id", userID), zap.String("date", today), zap.Error(err))
			return nil
		}
		tc.goals = goals
		return nil
	})
	_ = g.Wait() // loaders never return an error
	return tc
}

// complete trims the history to the token budget, prepends the system prompt
// and calls the model.
func (a *Agent) complete(ctx context.Context, system string, history []model.Message) (string, error) {
	budget := a.MaxContextTokens - llm.EstimateTokens(system) - outputReserve
	if budget < minHistory {
		budget = minHistory
	}
	trimmed := llm.TrimMessages(history, budget)
	if len(trimmed) < len(history) {
		a.logger.Debug("context trimmed", zap.Int("from", len(history)), zap.Int("to", len(trimmed)))
	}

	messages := make([]model.Message, 0, len(trimmed)+1)
	messages = append(messages, model.Message{Role: model.RoleSystem, Content: system})
	messages = append(messages, trimmed...)

	text, err := a.client.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrCompletionFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		a.logger.Warn("empty completion, using fallback reply")
		return FallbackReply, nil
	}
	return text, nil
}

type VoiceRequest struct {
	// Audio is a base64 data URI such as "data:audio/webm;base64,...".
	Audio string
	// UserID is zero for anonymous callers.
	UserID         int64
	History        []model.Message
	ConversationID int64
}

// VoiceChat transcribes the clip, answers it and tries to speak the answer.
// Speech and upload failures only drop the audio URL.
func (a *Agent) VoiceChat(ctx context.Context, req VoiceRequest) (model.VoiceReply, error) {
	audio, mime, err := voice.DecodeDataURI(req.Audio)
	if err != nil {
		return model.VoiceReply{}, err
	}

	transcript, err := a.transcriber.Transcribe(ctx, audio, mime)
	if err != nil {
		if !errors.Is(err, model.ErrTranscriptionFailed) {
			err = fmt.Errorf("%w: %w", model.ErrTranscriptionFailed, err)
		}
		return model.VoiceReply{}, err
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return model.VoiceReply{}, fmt.Errorf("%w: empty transcript", model.ErrTranscriptionFailed)
	}

	history := make([]model.Message, 0, len(req.History)+1)
	history = append(history, req.History...)
	history = append(history, model.Message{Role: model.RoleUser, Content: transcript})

	var text string
	if req.UserID != 0 {
		reply, err := a.Chat(ctx, req.UserID, history)
		if err != nil {
			return model.VoiceReply{}, err
		}
		text = reply.Content
	} else {
		text, err = a.complete(ctx, a.compiler.Persona(), history)
		if err != nil {
			return model.VoiceReply{}, err
		}
	}

	out := model.VoiceReply{Transcript: transcript, Message: text}
	out.AudioURL = a.speak(ctx, text)

	if req.UserID != 0 && req.ConversationID != 0 && a.recorder != nil {
		if err := a.recorder.AppendTurn(ctx, req.UserID, req.ConversationID, transcript, text, out.AudioURL); err != nil {
			a.logger.Warn("saving voice turn",
				zap.Int64("user_id", req.UserID),
				zap.Int64("conversation_id", req.ConversationID),
				zap.Error(err),
			)
		}
	}
	return out, nil
}

// speak synthesizes and uploads the reply, returning "" on any failure.
func (a *Agent) speak(ctx context.Context, text string) string {
	if a.synth == nil || a.objects == nil {
		return ""
	}
	audio, contentType, err := a.synth.Synthesize(ctx, text, a.voiceID)
	if err != nil {
		a.logger.Warn("synthesizing reply", zap.Error(err))
		return ""
	}
	key := audioKey(a.state.Now(), contentType)
	url, err := a.objects.Put(ctx, key, audio, contentType)
	if err != nil {
		a.logger.Warn("uploading reply audio", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

// audioKey names an uploaded reply: mira-voice/<unix-ms>-<uuid>.<ext>.
func audioKey(now time.Time, contentType string) string {
	ext := "mp3"
	if contentType == "audio/wav" {
		ext = "wav"
	}
	return fmt.Sprintf("%s/%d-%s.%s", voiceKeyDir, now.UnixMilli(), uuid.NewString(), ext)
}
