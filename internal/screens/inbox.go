package screens

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
)

// InboxEntry is one row of the chat list.
type InboxEntry struct {
	ChatID string               `json:"chatId"`
	Others []models.UserSummary `json:"others"`
	Unread bool                 `json:"unread"`
	Last   *models.Message      `json:"last,omitempty"`
}

type Inbox struct {
	chats    repositories.ChatRepository
	users    repositories.UserRepository
	reporter modal.Reporter

	mu    sync.RWMutex
	me    *models.User
	items []models.Chat
}

func NewInbox(chats repositories.ChatRepository, users repositories.UserRepository, reporter modal.Reporter) *Inbox {
	return &Inbox{chats: chats, users: users, reporter: reporter}
}

func (in *Inbox) Load(ctx context.Context) error {
	var (
		me    *models.User
		chats []models.Chat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		me, err = in.users.Current(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		chats, err = in.chats.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		in.reporter.Report(err)
		return err
	}

	in.mu.Lock()
	in.me, in.items = me, chats
	in.mu.Unlock()
	return nil
}

func (in *Inbox) Entries() []InboxEntry {
	in.mu.RLock()
	defer in.mu.RUnlock()
	myID := ""
	if in.me != nil {
		myID = in.me.ID
	}
	entries := make([]InboxEntry, 0, len(in.items))
	for _, c := range in.items {
		e := InboxEntry{ChatID: c.ID, Others: c.Others(myID), Unread: c.UnreadBy(myID)}
		if n := len(c.Messages); n > 0 {
			last := c.Messages[n-1]
			e.Last = &last
		}
		entries = append(entries, e)
	}
	return entries
}

// StartChat opens (or reuses) the conversation with userID.
func (in *Inbox) StartChat(ctx context.Context, userID string) (*models.Chat, error) {
	chat, err := in.chats.Create(ctx, userID)
	if err != nil {
		in.reporter.Report(err)
		return nil, err
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.items {
		if in.items[i].ID == chat.ID {
			in.items[i] = *chat
			return chat, nil
		}
	}
	in.items = append([]models.Chat{*chat}, in.items...)
	return chat, nil
}
