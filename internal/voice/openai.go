package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/chris/mira/internal/model"
)

const (
	DefaultVoice    = "nova"
	DefaultTTSModel = "tts-1"
)

// WhisperTranscriber uses the OpenAI transcription endpoint.
type WhisperTranscriber struct {
	client openai.Client
}

func NewWhisperTranscriber(apiKey, baseURL string) *WhisperTranscriber {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &WhisperTranscriber{client: openai.NewClient(opts...)}
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	res, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), "audio."+Extension(mimeType), mimeType),
		Model: openai.AudioModelWhisper1,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrTranscriptionFailed, err)
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript", model.ErrTranscriptionFailed)
	}
	return text, nil
}

// SpeechSynthesizer uses the OpenAI speech endpoint. Retries are off so a
// rate-limited request fails the voice turn's audio right away.
type SpeechSynthesizer struct {
	client openai.Client
	model  string
}

func NewSpeechSynthesizer(apiKey, baseURL, ttsModel string) *SpeechSynthesizer {
	if ttsModel == "" {
		ttsModel = DefaultTTSModel
	}
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &SpeechSynthesizer{client: openai.NewClient(opts...), model: ttsModel}
}

func (s *SpeechSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, string, error) {
	if voiceID == "" {
		voiceID = DefaultVoice
	}
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          s.model,
		Voice:          openai.AudioSpeechNewParamsVoice(voiceID),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, "", errSynthesis(fmt.Errorf("speech request: %w", err))
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errSynthesis(fmt.Errorf("reading response: %w", err))
	}
	if len(audio) == 0 {
		return nil, "", errSynthesis(fmt.Errorf("speech: empty body"))
	}
	return audio, "audio/mpeg", nil
}
