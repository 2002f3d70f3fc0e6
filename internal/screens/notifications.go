package screens

import (
	"context"
	"log"
	"sync"

	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
)

// AggregateRefresher re-derives the navigation counters. It reports its own
// failures to the error dialog.
type AggregateRefresher interface {
	Refresh(ctx context.Context) error
}

type Notifications struct {
	repo      repositories.NotificationRepository
	aggregate AggregateRefresher
	reporter  modal.Reporter

	mu    sync.RWMutex
	items []models.Notification
}

func NewNotifications(repo repositories.NotificationRepository, aggregate AggregateRefresher, reporter modal.Reporter) *Notifications {
	return &Notifications{repo: repo, aggregate: aggregate, reporter: reporter}
}

func (n *Notifications) Load(ctx context.Context) error {
	items, err := n.repo.List(ctx)
	if err != nil {
		n.reporter.Report(err)
		return err
	}
	n.mu.Lock()
	n.items = items
	n.mu.Unlock()
	return nil
}

func (n *Notifications) Items() []models.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]models.Notification(nil), n.items...)
}

// Delete removes one notification and then refreshes the unread counters.
// A failed refresh is reported but does not fail the delete.
func (n *Notifications) Delete(ctx context.Context, id string) error {
	if err := n.repo.Delete(ctx, id); err != nil {
		n.reporter.Report(err)
		return err
	}

	n.mu.Lock()
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i:i], n.items[i+1:]...)
			break
		}
	}
	n.mu.Unlock()

	n.refreshAggregate(ctx)
	return nil
}

func (n *Notifications) DeleteAll(ctx context.Context) error {
	if err := n.repo.DeleteAll(ctx); err != nil {
		n.reporter.Report(err)
		return err
	}
	n.mu.Lock()
	n.items = nil
	n.mu.Unlock()
	n.refreshAggregate(ctx)
	return nil
}

func (n *Notifications) refreshAggregate(ctx context.Context) {
	if err := n.aggregate.Refresh(ctx); err != nil {
		log.Printf("notifications: counters not refreshed: %v", err)
	}
}
