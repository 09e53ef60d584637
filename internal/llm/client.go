// Package llm adapts chat-completion providers to a single text-in, text-out
// interface.
package llm

import (
	"context"

	"github.com/chris/mira/internal/model"
)

// Client completes a conversation. Messages arrive in order with the system
// prompt, if any, first. An empty string with a nil error means the provider
// answered without usable text.
type Client interface {
	Complete(ctx context.Context, messages []model.Message) (string, error)
}
