package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chris/mira/internal/model"
)

const (
	// LinkCodeTTL is how long an issued link code stays valid.
	LinkCodeTTL   = 10 * time.Minute
	linkCodeLen   = 8
	issueAttempts = 3
)

// CodeStore persists link codes; *db.DB satisfies it.
type CodeStore interface {
	CreateLinkCode(ctx context.Context, code string, userID int64, expiresAt time.Time) error
}

// Linker issues the one-time codes a signed-in user sends as `!link <code>`.
type Linker struct {
	store CodeStore
	now   func() time.Time
}

func NewLinker(store CodeStore, now func() time.Time) *Linker {
	if now == nil {
		now = time.Now
	}
	return &Linker{store: store, now: now}
}

// IssueLinkCode stores a fresh code for userID and returns it with its expiry.
func (l *Linker) IssueLinkCode(ctx context.Context, userID int64) (string, time.Time, error) {
	expires := l.now().Add(LinkCodeTTL)
	for range issueAttempts {
		code := newLinkCode()
		err := l.store.CreateLinkCode(ctx, code, userID, expires)
		if errors.Is(err, model.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return "", time.Time{}, fmt.Errorf("issuing link code: %w", err)
		}
		return code, expires, nil
	}
	return "", time.Time{}, fmt.Errorf("issuing link code: %w", model.ErrAlreadyExists)
}

func newLinkCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:linkCodeLen])
}
