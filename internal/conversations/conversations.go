// Package conversations keeps saved chat threads, scoped to their owner.
package conversations

import (
	"context"
	"fmt"
	"strings"

	"github.com/chris/mira/internal/model"
)

const titleRunes = 50

type Rows interface {
	CreateConversation(ctx context.Context, userID int64, title string) (int64, error)
	GetConversation(ctx context.Context, id int64) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]model.Conversation, error)
	UpdateConversationTitle(ctx context.Context, id int64, title string) error
	CreateMessage(ctx context.Context, conversationID int64, role model.Role, content, audioURL string) (int64, error)
	ListMessages(ctx context.Context, conversationID int64) ([]model.ConversationMessage, error)
}

type Service struct {
	rows Rows
}

func NewService(rows Rows) *Service {
	return &Service{rows: rows}
}

// Thread is a conversation with its messages.
type Thread struct {
	model.Conversation
	Messages []model.ConversationMessage `json:"messages"`
}

func (s *Service) List(ctx context.Context, userID int64) ([]model.Conversation, error) {
	convs, err := s.rows.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	if convs == nil {
		convs = []model.Conversation{}
	}
	return convs, nil
}

func (s *Service) Create(ctx context.Context, userID int64, title string) (*model.Conversation, error) {
	id, err := s.rows.CreateConversation(ctx, userID, strings.TrimSpace(title))
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return s.owned(ctx, userID, id)
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*Thread, error) {
	conv, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.rows.ListMessages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if msgs == nil {
		msgs = []model.ConversationMessage{}
	}
	return &Thread{Conversation: *conv, Messages: msgs}, nil
}

func (s *Service) UpdateTitle(ctx context.Context, userID, id int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Invalid("title", "must not be empty")
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.rows.UpdateConversationTitle(ctx, id, title)
}

// AddMessage appends a message. The first user message names an untitled
// conversation.
func (s *Service) AddMessage(ctx context.Context, userID, id int64, role model.Role, content, audioURL string) (int64, error) {
	if role != model.RoleUser && role != model.RoleAssistant {
		return 0, model.Invalid("role", "must be user or assistant (got %q)", role)
	}
	conv, err := s.owned(ctx, userID, id)
	if err != nil {
		return 0, err
	}
	msgID, err := s.rows.CreateMessage(ctx, id, role, content, audioURL)
	if err != nil {
		return 0, fmt.Errorf("adding message: %w", err)
	}
	if conv.Title == "" && role == model.RoleUser {
		if err := s.rows.UpdateConversationTitle(ctx, id, AutoTitle(content)); err != nil {
			return 0, fmt.Errorf("titling conversation: %w", err)
		}
	}
	return msgID, nil
}

// AppendTurn records a voice exchange in an existing conversation.
func (s *Service) AppendTurn(ctx context.Context, userID, id int64, transcript, reply, audioURL string) error {
	if _, err := s.AddMessage(ctx, userID, id, model.RoleUser, transcript, ""); err != nil {
		return err
	}
	_, err := s.AddMessage(ctx, userID, id, model.RoleAssistant, reply, audioURL)
	return err
}

// owned loads a conversation and hides other users' conversations behind the
// same error as missing ones.
func (s *Service) owned(ctx context.Context, userID, id int64) (*model.Conversation, error) {
	conv, err := s.rows.GetConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	if conv == nil || conv.UserID != userID {
		return nil, fmt.Errorf("conversation %d: %w", id, model.ErrNotFoundOrAccessDenied)
	}
	return conv, nil
}

// AutoTitle is the first 50 characters of text, with "..." when cut.
func AutoTitle(text string) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) <= titleRunes {
		return string(r)
	}
	return string(r[:titleRunes]) + "..."
}
