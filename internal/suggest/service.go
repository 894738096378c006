package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appLog "collegedecision/internal/log"
	"collegedecision/internal/model"
	"collegedecision/internal/ratelimit"
)

var (
	// ErrEmpty is returned for a blank suggestion.
	ErrEmpty = errors.New("invalid suggestion")
	// ErrDuplicate is returned when the suggestion matches a listed university.
	ErrDuplicate = errors.New("university already listed")
)

// Notifier delivers suggestion embeds.
type Notifier interface {
	Send(ctx context.Context, embeds ...Embed) error
}

// Service checks, rate-limits and relays suggestions.
type Service struct {
	limiter  ratelimit.Limiter
	notifier Notifier
	now      func() time.Time
}

// NewService wires a limiter and a notifier. A nil limiter disables limiting.
func NewService(limiter ratelimit.Limiter, notifier Notifier) *Service {
	return &Service{limiter: limiter, notifier: notifier, now: time.Now}
}

// Submit relays text on behalf of client. list is the merged university list
// the suggestion is checked against.
func (s *Service) Submit(ctx context.Context, client, text string, list []model.University) error {
	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, client); err != nil {
			return err
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmpty
	}
	if IsDuplicate(text, list) {
		return fmt.Errorf("%w: %q", ErrDuplicate, text)
	}

	embed := Embed{
		Title:       "🎓 New University Suggestion",
		Description: text,
		Color:       EmbedColor,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	}
	if err := s.notifier.Send(ctx, embed); err != nil {
		return fmt.Errorf("relay suggestion: %w", err)
	}
	appLog.Info("suggestion relayed", "client", client, "suggestion", text)
	return nil
}
