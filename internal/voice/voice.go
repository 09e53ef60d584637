// Package voice turns audio into text and text back into audio.
package voice

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/chris/mira/internal/model"
)

// DefaultMIME is assumed when a data URI carries no media type.
const DefaultMIME = "audio/webm"

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Synthesizer returns encoded audio and its content type.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, string, error)
}

// DecodeDataURI splits "data:audio/webm;base64,AAAA" into bytes and media
// type. Bare base64 without a prefix is accepted too.
func DecodeDataURI(uri string) ([]byte, string, error) {
	mime := DefaultMIME
	payload := uri
	if i := strings.IndexByte(uri, ','); i >= 0 {
		header := uri[:i]
		payload = uri[i+1:]
		if mt, ok := strings.CutPrefix(header, "data:"); ok {
			mt, _, _ = strings.Cut(mt, ";")
			if mt != "" {
				mime = mt
			}
		}
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", model.Invalid("audio", "empty audio payload")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", model.Invalid("audio", "not valid base64: %v", err)
	}
	return data, mime, nil
}

// Extension picks a file extension the transcription API recognises.
func Extension(mimeType string) string {
	switch mimeType {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav"
	case "audio/ogg":
		return "ogg"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "m4a"
	default:
		return "webm"
	}
}

func errSynthesis(err error) error {
	return fmt.Errorf("%w: %w", model.ErrSynthesisFailed, err)
}
