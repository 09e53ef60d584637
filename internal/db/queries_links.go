package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chris/mira/internal/model"
)

// JoinWaitlist records a signup. A repeated email yields model.ErrAlreadyExists.
func (d *DB) JoinWaitlist(ctx context.Context, email, name string) (int64, error) {
	res, err := d.conn.ExecContext(ctx, "INSERT INTO waitlist (email, name) VALUES (?, ?)", email, nullStr(name))
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("waitlist %s: %w", email, model.ErrAlreadyExists)
	}
	if err != nil {
		return 0, storageErr("joining waitlist", err)
	}
	return res.LastInsertId()
}

// GetDiscordLink returns the Mira user linked to a Discord account.
func (d *DB) GetDiscordLink(ctx context.Context, discordID string) (int64, bool, error) {
	var userID int64
	err := d.conn.QueryRowContext(ctx, "SELECT user_id FROM discord_links WHERE discord_id = ?", discordID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageErr("getting discord link", err)
	}
	return userID, true, nil
}

// SetDiscordLink stores or updates the Discord → Mira user mapping. A Mira
// user already linked to a different Discord account yields
// model.ErrAlreadyExists.
func (d *DB) SetDiscordLink(ctx context.Context, discordID string, userID int64) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("setting discord link", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var other string
	err = tx.QueryRowContext(ctx,
		"SELECT discord_id FROM discord_links WHERE user_id = ? AND discord_id != ? LIMIT 1",
		userID, discordID,
	).Scan(&other)
	switch {
	case err == nil:
		return fmt.Errorf("mira user %d: %w", userID, model.ErrAlreadyExists)
	case !errors.Is(err, sql.ErrNoRows):
		return storageErr("checking discord link", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO discord_links (discord_id, user_id) VALUES (?, ?) ON CONFLICT(discord_id) DO UPDATE SET user_id = ?, updated_at = datetime('now')",
		discordID, userID, userID,
	); err != nil {
		return storageErr("setting discord link", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("setting discord link", err)
	}
	return nil
}

// CreateLinkCode stores a one-time code that binds a Discord account to userID
// until expiresAt.
func (d *DB) CreateLinkCode(ctx context.Context, code string, userID int64, expiresAt time.Time) error {
	_, err := d.conn.ExecContext(ctx,
		"INSERT INTO discord_link_codes (code, user_id, expires_at) VALUES (?, ?, ?)",
		code, userID, expiresAt.Unix(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("link code: %w", model.ErrAlreadyExists)
	}
	if err != nil {
		return storageErr("creating link code", err)
	}
	return nil
}

// ConsumeLinkCode deletes the code and returns its user. Unknown and expired
// codes report false; expired ones are removed too.
func (d *DB) ConsumeLinkCode(ctx context.Context, code string, now time.Time) (int64, bool, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, storageErr("consuming link code", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var userID int64
	var expires int64
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM discord_link_codes WHERE code = ?", code,
	).Scan(&userID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageErr("reading link code", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM discord_link_codes WHERE code = ? OR expires_at <= ?", code, now.Unix()); err != nil {
		return 0, false, storageErr("deleting link code", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, storageErr("consuming link code", err)
	}

	if now.Unix() >= expires {
		return 0, false, nil
	}
	return userID, true, nil
}
