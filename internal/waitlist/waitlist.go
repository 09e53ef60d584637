// Package waitlist collects early-access signups.
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/chris/mira/internal/logging"
	"github.com/chris/mira/internal/model"
)

// DuplicateMessage is shown when an email signs up twice.
const DuplicateMessage = "This email is already on the waitlist."

type Rows interface {
	JoinWaitlist(ctx context.Context, email, name string) (int64, error)
}

type Notifier interface {
	Post(ctx context.Context, content string) error
}

type Service struct {
	rows     Rows
	notifier Notifier
	logger   *zap.Logger
}

func NewService(rows Rows, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{rows: rows, notifier: notifier, logger: logging.OrNop(logger).Named("waitlist")}
}

// Join adds the email and tells the owner. Notification failures are logged.
func (s *Service) Join(ctx context.Context, email, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return model.Invalid("email", "not a valid email address")
	}
	name = strings.TrimSpace(name)

	if _, err := s.rows.JoinWaitlist(ctx, email, name); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return fmt.Errorf("%s: %w", DuplicateMessage, model.ErrAlreadyExists)
		}
		return fmt.Errorf("joining waitlist: %w", err)
	}

	if s.notifier != nil {
		who := email
		if name != "" {
			who = fmt.Sprintf("%s <%s>", name, email)
		}
		if err := s.notifier.Post(ctx, "New waitlist signup: "+who); err != nil {
			s.logger.Warn("notifying owner", zap.String("email", email), zap.Error(err))
		}
	}
	return nil
}
