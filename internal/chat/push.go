package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/instaflan/web/internal/models"
)

// Topic is the pub/sub topic carrying snapshots of one chat.
func Topic(chatID string) string {
	return "chat." + chatID
}

// PushSource receives chat snapshots published by an Announcer instead of polling.
type PushSource struct {
	Subscriber message.Subscriber
	Logger     watermill.LoggerAdapter
}

func NewPushSource(sub message.Subscriber, logger watermill.LoggerAdapter) *PushSource {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &PushSource{Subscriber: sub, Logger: logger}
}

func (s *PushSource) Updates(ctx context.Context, chatID string) <-chan Update {
	out := make(chan Update, 1)
	msgs, err := s.Subscriber.Subscribe(ctx, Topic(chatID))
	if err != nil {
		out <- Update{Err: fmt.Errorf("subscribe to chat %s: %w", chatID, err)}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		for msg := range msgs {
			var u Update
			if err := json.Unmarshal(msg.Payload, &u.Chat); err != nil {
				s.Logger.Error("Dropping malformed chat snapshot", err, watermill.LogFields{
					"chat_id":    chatID,
					"message_id": msg.UUID,
				})
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Announcer publishes fresh chat snapshots for PushSource subscribers.
type Announcer struct {
	Publisher message.Publisher
}

func NewAnnouncer(pub message.Publisher) *Announcer {
	return &Announcer{Publisher: pub}
}

func (a *Announcer) Announce(chat models.Chat) error {
	payload, err := json.Marshal(chat)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return a.Publisher.Publish(Topic(chat.ID), msg)
}
