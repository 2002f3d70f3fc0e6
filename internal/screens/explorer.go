package screens

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
)

// Explorer suggests users not yet followed and posts from outside the feed.
type Explorer struct {
	users    repositories.UserRepository
	reporter modal.Reporter
	Posts    *PostList

	mu      sync.RWMutex
	people  []models.UserSummary
	query   string
	results []models.UserSummary
}

func NewExplorer(users repositories.UserRepository, posts repositories.PostRepository, reporter modal.Reporter, rollback bool) *Explorer {
	return &Explorer{
		users:    users,
		reporter: reporter,
		Posts:    NewPostList(posts.Explorer, posts, reporter, rollback),
	}
}

func (e *Explorer) Load(ctx context.Context) error {
	var (
		people []models.UserSummary
		posts  []models.Post
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		people, err = e.users.NotFollowed(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		posts, err = e.Posts.load(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		e.reporter.Report(err)
		return err
	}

	// Both halves are committed together or not at all.
	e.mu.Lock()
	e.people = people
	e.mu.Unlock()
	e.Posts.set(posts)
	return nil
}

func (e *Explorer) People() []models.UserSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.UserSummary(nil), e.people...)
}

// Search looks users up by name. A blank query clears the results without a request.
func (e *Explorer) Search(ctx context.Context, text string) ([]models.UserSummary, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		e.mu.Lock()
		e.query, e.results = "", nil
		e.mu.Unlock()
		return nil, nil
	}

	results, err := e.users.Search(ctx, query)
	if err != nil {
		e.reporter.Report(err)
		return nil, err
	}

	e.mu.Lock()
	e.query, e.results = query, results
	e.mu.Unlock()
	return results, nil
}

// Results returns the last query and its matches.
func (e *Explorer) Results() (string, []models.UserSummary) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.query, append([]models.UserSummary(nil), e.results...)
}
