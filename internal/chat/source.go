// Package chat keeps an open conversation fresh and sends messages into it.
package chat

import (
	"context"
	"time"

	"github.com/instaflan/web/internal/models"
)

// DefaultInterval is the polling period of an open conversation.
const DefaultInterval = 2 * time.Second

// Update is one refreshed copy of a chat, or the error that prevented it.
type Update struct {
	Chat models.Chat
	Err  error
}

// Source delivers fresh copies of a chat until ctx is done, then closes the channel.
type Source interface {
	Updates(ctx context.Context, chatID string) <-chan Update
}

// FetchFunc reads one chat from the API.
type FetchFunc func(ctx context.Context, chatID string) (*models.Chat, error)

// PollingSource re-fetches the chat on a fixed interval.
type PollingSource struct {
	Fetch    FetchFunc
	Interval time.Duration
}

func NewPollingSource(fetch FetchFunc, interval time.Duration) *PollingSource {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &PollingSource{Fetch: fetch, Interval: interval}
}

func (s *PollingSource) Updates(ctx context.Context, chatID string) <-chan Update {
	out := make(chan Update)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			var u Update
			chat, err := s.Fetch(ctx, chatID)
			if err != nil {
				u.Err = err
			} else {
				u.Chat = *chat
			}

			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
