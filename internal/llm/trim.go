package llm

import "github.com/chris/mira/internal/model"

// TrimMessages trims a message history to fit within a token budget.
//
// The budget should already account for the system prompt and a reserve for
// the model's output. This function only manages the history itself.
//
// Strategy:
//  1. Group messages into exchanges: a user message plus the assistant
//     replies that follow it.
//  2. Always keep the most recent exchange (the active turn).
//  3. Drop the oldest exchanges first until the total fits within budget.
//
// Leading assistant messages with no user message before them form their own
// exchange and are dropped first.
func TrimMessages(messages []model.Message, maxTokens int) []model.Message {
	if len(messages) == 0 {
		return messages
	}

	groups := groupMessages(messages)

	total := 0
	for _, g := range groups {
		total += g.tokens
	}

	if total <= maxTokens {
		return messages
	}

	kept := total
	dropUntil := 0
	for dropUntil < len(groups)-1 && kept > maxTokens {
		kept -= groups[dropUntil].tokens
		dropUntil++
	}

	var trimmed []model.Message
	for _, g := range groups[dropUntil:] {
		trimmed = append(trimmed, g.messages...)
	}
	return trimmed
}

// messageGroup is an exchange that is kept or dropped as a whole.
type messageGroup struct {
	messages []model.Message
	tokens   int
}

// groupMessages starts a new group at every user message. System messages are
// their own group.
func groupMessages(messages []model.Message) []messageGroup {
	var groups []messageGroup
	for _, msg := range messages {
		startNew := len(groups) == 0 || msg.Role != model.RoleAssistant ||
			groups[len(groups)-1].messages[0].Role == model.RoleSystem
		if startNew {
			groups = append(groups, messageGroup{})
		}
		g := &groups[len(groups)-1]
		g.messages = append(g.messages, msg)
		g.tokens += EstimateMessageTokens(msg)
	}
	return groups
}
