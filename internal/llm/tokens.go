package llm

import "github.com/chris/mira/internal/model"

// charsPerToken is the average number of characters per token.
// Real tokenizers vary, but 4 chars/token is close enough for English text
// when budgeting context.
const charsPerToken = 4

// messageOverhead covers role tokens and delimiters.
const messageOverhead = 4

// EstimateTokens returns a rough token count for a string.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + charsPerToken - 1) / charsPerToken // round up
}

// EstimateMessageTokens returns the estimated token count for a single message.
func EstimateMessageTokens(m model.Message) int {
	return messageOverhead + EstimateTokens(m.Content)
}

// EstimateMessagesTokens returns the total estimated tokens for a slice of messages.
func EstimateMessagesTokens(messages []model.Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateMessageTokens(m)
	}
	return total
}
