package llm

import (
	"strings"
	"testing"

	"github.com/chris/mira/internal/model"
)

func user(s string) model.Message      { return model.Message{Role: model.RoleUser, Content: s} }
func assistant(s string) model.Message { return model.Message{Role: model.RoleAssistant, Content: s} }

func TestTrimMessages_UnderBudget(t *testing.T) {
	msgs := []model.Message{user("hello"), assistant("hi")}
	got := TrimMessages(msgs, 100000)
	if len(got) != 2 {
		t.Errorf("expected 2 messages unchanged, got %d", len(got))
	}
}

func TestTrimMessages_Empty(t *testing.T) {
	got := TrimMessages(nil, 100)
	if len(got) != 0 {
		t.Errorf("expected 0 messages, got %d", len(got))
	}
}

func TestTrimMessages_DropsOldestFirst(t *testing.T) {
	msgs := []model.Message{
		user("first question"), assistant("first answer"),
		user("second question"), assistant("second answer"),
		user("third question"), assistant("third answer"),
	}

	budget := EstimateMessagesTokens(msgs[2:])
	got := TrimMessages(msgs, budget)

	if len(got) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(got))
	}
	if got[0].Content != "second question" {
		t.Errorf("expected history to start at 'second question', got %q", got[0].Content)
	}
	if last := got[len(got)-1]; last.Content != "third answer" {
		t.Errorf("expected last message to be 'third answer', got %q", last.Content)
	}
}

func TestTrimMessages_NeverSplitsExchange(t *testing.T) {
	msgs := []model.Message{
		user("old"), assistant("old reply"),
		user("new"), assistant("part one"), assistant("part two"),
	}

	// One token short of keeping everything: the whole first exchange goes.
	budget := EstimateMessagesTokens(msgs) - 1
	got := TrimMessages(msgs, budget)

	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for _, m := range got {
		if strings.HasPrefix(m.Content, "old") {
			t.Errorf("expected old exchange to be trimmed, found %q", m.Content)
		}
	}
}

func TestTrimMessages_AlwaysKeepsLastGroup(t *testing.T) {
	msgs := []model.Message{user(strings.Repeat("x", 10000))}
	got := TrimMessages(msgs, 1)
	if len(got) != 1 {
		t.Errorf("expected last group to be preserved even over budget, got %d messages", len(got))
	}
}

func TestGroupMessages(t *testing.T) {
	msgs := []model.Message{
		assistant("greeting"),
		user("q1"), assistant("a1"),
		user("q2"),
		user("q3"), assistant("a3a"), assistant("a3b"),
	}

	groups := groupMessages(msgs)

	// assistant "greeting" | q1+a1 | q2 | q3+a3a+a3b
	if len(groups) != 4 {
		t.Fatalf("expected 4 groups, got %d", len(groups))
	}
	if len(groups[1].messages) != 2 {
		t.Errorf("q1 group should have 2 messages, got %d", len(groups[1].messages))
	}
	if len(groups[3].messages) != 3 {
		t.Errorf("q3 group should have 3 messages, got %d", len(groups[3].messages))
	}
}
