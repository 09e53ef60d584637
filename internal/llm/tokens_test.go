package llm

import (
	"testing"

	"github.com/chris/mira/internal/model"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"short", "hi", 1},
		{"exactly four chars", "test", 1},
		{"five chars rounds up", "hello", 2},
		{"typical sentence", "The quick brown fox jumps over the lazy dog.", 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateTokens(tt.input)
			if got != tt.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestEstimateMessageTokens(t *testing.T) {
	tests := []struct {
		name string
		msg  model.Message
		want int
	}{
		{"simple user message", model.Message{Role: model.RoleUser, Content: "hello"}, 4 + 2},
		{"empty message", model.Message{Role: model.RoleAssistant}, 4},
		{"system prompt", model.Message{Role: model.RoleSystem, Content: "You are Mira."}, 4 + 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateMessageTokens(tt.msg)
			if got != tt.want {
				t.Errorf("EstimateMessageTokens() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateMessagesTokens(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: "hi there"},
	}
	got := EstimateMessagesTokens(messages)
	// msg1: 4+2=6, msg2: 4+2=6
	if got != 12 {
		t.Errorf("EstimateMessagesTokens() = %d, want 12", got)
	}
}
