package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chris/mira/internal/model"
)

// CreateConversation starts a conversation and returns its ID.
func (d *DB) CreateConversation(ctx context.Context, userID int64, title string) (int64, error) {
	res, err := d.conn.ExecContext(ctx, "INSERT INTO conversations (user_id, title) VALUES (?, ?)", userID, nullStr(title))
	if err != nil {
		return 0, storageErr("creating conversation", err)
	}
	return res.LastInsertId()
}

// GetConversation returns a conversation by ID, or nil. Ownership is the caller's check.
func (d *DB) GetConversation(ctx context.Context, id int64) (*model.Conversation, error) {
	var c model.Conversation
	err := d.conn.QueryRowContext(ctx,
		"SELECT id, user_id, COALESCE(title,''), created_at, updated_at FROM conversations WHERE id = ?", id,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("getting conversation", err)
	}
	return &c, nil
}

// ListConversations returns a user's conversations, most recently active first.
func (d *DB) ListConversations(ctx context.Context, userID int64) ([]model.Conversation, error) {
	rows, err := d.conn.QueryContext(ctx,
		"SELECT id, user_id, COALESCE(title,''), created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY updated_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, storageErr("listing conversations", err)
	}
	defer rows.Close()
	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, storageErr("scanning conversation", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("reading conversations", err)
	}
	return out, nil
}

func (d *DB) UpdateConversationTitle(ctx context.Context, id int64, title string) error {
	if err := d.updateRow(ctx, "conversations", "id", id, map[string]any{"title": title}); err != nil {
		return fmt.Errorf("updating conversation title: %w", err)
	}
	return nil
}

// CreateMessage appends a message and bumps the conversation's updated_at.
func (d *DB) CreateMessage(ctx context.Context, conversationID int64, role model.Role, content, audioURL string) (int64, error) {
	res, err := d.conn.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, role, content, audio_url) VALUES (?, ?, ?, ?)",
		conversationID, string(role), content, nullStr(audioURL),
	)
	if err != nil {
		return 0, storageErr("creating message", err)
	}
	if _, err := d.conn.ExecContext(ctx, "UPDATE conversations SET updated_at = datetime('now') WHERE id = ?", conversationID); err != nil {
		return 0, storageErr("touching conversation", err)
	}
	return res.LastInsertId()
}

// ListMessages returns a conversation's messages in insertion order.
func (d *DB) ListMessages(ctx context.Context, conversationID int64) ([]model.ConversationMessage, error) {
	rows, err := d.conn.QueryContext(ctx,
		"SELECT id, conversation_id, role, content, COALESCE(audio_url,''), created_at FROM messages WHERE conversation_id = ? ORDER BY id ASC",
		conversationID,
	)
	if err != nil {
		return nil, storageErr("listing messages", err)
	}
	defer rows.Close()
	var out []model.ConversationMessage
	for rows.Next() {
		var m model.ConversationMessage
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.AudioURL, &m.CreatedAt); err != nil {
			return nil, storageErr("scanning message", err)
		}
		m.Role = model.Role(role)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("reading messages", err)
	}
	return out, nil
}
