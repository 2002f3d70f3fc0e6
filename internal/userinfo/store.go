// Package userinfo derives the navigation aggregate (identity, avatar, unread
// counters) from the current session.
package userinfo

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
)

type Store struct {
	users         repositories.UserRepository
	chats         repositories.ChatRepository
	notifications repositories.NotificationRepository
	reporter      modal.Reporter

	cache    Cache
	cacheKey string

	mu     sync.RWMutex
	info   models.UserInfo
	loaded bool
}

type Option func(*Store)

// WithCache persists each successful refresh under key.
func WithCache(cache Cache, key string) Option {
	return func(s *Store) {
		s.cache = cache
		s.cacheKey = key
	}
}

func NewStore(
	users repositories.UserRepository,
	chats repositories.ChatRepository,
	notifications repositories.NotificationRepository,
	reporter modal.Reporter,
	opts ...Option,
) *Store {
	s := &Store{
		users:         users,
		chats:         chats,
		notifications: notifications,
		reporter:      reporter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh re-reads the user, chats and notifications together. If any read fails
// the snapshot is left untouched and the error is reported.
func (s *Store) Refresh(ctx context.Context) error {
	var (
		user          *models.User
		chats         []models.Chat
		notifications []models.Notification
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.users.Current(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		chats, err = s.chats.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		notifications, err = s.notifications.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if s.reporter != nil {
			s.reporter.Report(err)
		}
		return err
	}

	info := Derive(*user, chats, notifications)

	s.mu.Lock()
	s.info = info
	s.loaded = true
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cacheKey, info); err != nil {
			log.Printf("userinfo: cache write failed: %v", err)
		}
	}
	return nil
}

// Load fills the snapshot from the cache when it is empty, then refreshes.
func (s *Store) Load(ctx context.Context) error {
	if _, ok := s.Snapshot(); !ok && s.cache != nil {
		info, found, err := s.cache.Get(ctx, s.cacheKey)
		if err != nil {
			log.Printf("userinfo: cache read failed: %v", err)
		}
		if found {
			s.mu.Lock()
			if !s.loaded {
				s.info = info
				s.loaded = true
			}
			s.mu.Unlock()
		}
	}
	return s.Refresh(ctx)
}

// Snapshot returns the last aggregate and whether one has been loaded.
func (s *Store) Snapshot() (models.UserInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info, s.loaded
}

// Forget clears the snapshot and its cached copy.
func (s *Store) Forget(ctx context.Context) {
	s.mu.Lock()
	s.info = models.UserInfo{}
	s.loaded = false
	s.mu.Unlock()
	if s.cache != nil {
		_ = s.cache.Delete(ctx, s.cacheKey)
	}
}

// Derive computes the aggregate. A chat counts as unread when the user is in its unreadFor set.
func Derive(user models.User, chats []models.Chat, notifications []models.Notification) models.UserInfo {
	unread := 0
	for _, c := range chats {
		if c.UnreadBy(user.ID) {
			unread++
		}
	}
	return models.UserInfo{
		ID:                  user.ID,
		Name:                user.Name,
		AvatarURL:           user.Image,
		UnreadMessages:      unread,
		UnreadNotifications: len(notifications),
	}
}
