// Package screens holds the per-session state of the list screens: feed,
// explorer, profile, notifications and inbox.
package screens

import (
	"context"
	"errors"
	"sync"

	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
)

var ErrPostNotListed = errors.New("Post is not in this list.")

// PostLoader fetches the posts a list shows.
type PostLoader func(ctx context.Context) ([]models.Post, error)

// PostList is any screen that shows posts with a favorite toggle.
type PostList struct {
	load     PostLoader
	posts    repositories.PostRepository
	reporter modal.Reporter
	rollback bool

	mu    sync.RWMutex
	items []models.Post
}

// NewPostList creates a list. With rollback set, a failed favorite toggle is undone locally.
func NewPostList(load PostLoader, posts repositories.PostRepository, reporter modal.Reporter, rollback bool) *PostList {
	return &PostList{load: load, posts: posts, reporter: reporter, rollback: rollback}
}

// Refresh replaces the list with a fresh read.
func (l *PostList) Refresh(ctx context.Context) error {
	posts, err := l.load(ctx)
	if err != nil {
		return err
	}
	l.set(posts)
	return nil
}

func (l *PostList) set(posts []models.Post) {
	l.mu.Lock()
	l.items = posts
	l.mu.Unlock()
}

// Load is Refresh with the failure reported.
func (l *PostList) Load(ctx context.Context) error {
	if err := l.Refresh(ctx); err != nil {
		l.reporter.Report(err)
		return err
	}
	return nil
}

func (l *PostList) Posts() []models.Post {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Post(nil), l.items...)
}

func (l *PostList) indexLocked(postID string) int {
	for i := range l.items {
		if l.items[i].ID == postID {
			return i
		}
	}
	return -1
}

func (l *PostList) flip(postID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(postID)
	if i < 0 {
		return false
	}
	p := &l.items[i]
	if p.Fav {
		p.Likes--
	} else {
		p.Likes++
	}
	p.Fav = !p.Fav
	return true
}

// ToggleFavorite flips the post locally before asking the API to do the same.
// Toggles are not serialized per post.
func (l *PostList) ToggleFavorite(ctx context.Context, postID string) error {
	if !l.flip(postID) {
		return ErrPostNotListed
	}
	if err := l.posts.ToggleFavorite(ctx, postID); err != nil {
		if l.rollback {
			l.flip(postID)
		}
		l.reporter.Report(err)
		return err
	}
	return nil
}

// ApplyEdit patches text and image of a listed post without re-reading the list.
func (l *PostList) ApplyEdit(summary models.PostSummary) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(summary.ID)
	if i < 0 {
		return false
	}
	l.items[i].Text = summary.Text
	l.items[i].Image = summary.Image
	return true
}

func (l *PostList) Remove(postID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(postID)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	return true
}

// Replace swaps in a freshly read copy of a listed post.
func (l *PostList) Replace(post models.Post) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(post.ID)
	if i < 0 {
		return false
	}
	l.items[i] = post
	return true
}
