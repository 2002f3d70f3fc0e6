package screens

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
)

var ErrProfileNotLoaded = errors.New("Profile is not loaded.")

// Profile is the state of a user's page as seen by the current user.
type Profile struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	reporter modal.Reporter
	rollback bool

	mu    sync.RWMutex
	user  *models.User
	me    *models.User
	Posts *PostList
	Favs  *PostList
}

func NewProfile(users repositories.UserRepository, posts repositories.PostRepository, reporter modal.Reporter, rollback bool) *Profile {
	return &Profile{users: users, posts: posts, reporter: reporter, rollback: rollback}
}

// Load reads the profile owner and the current user together and resets the post tabs.
func (p *Profile) Load(ctx context.Context, userID string) error {
	var user, me *models.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = p.users.ByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		me, err = p.users.Current(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		p.reporter.Report(err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.user, p.me = user, me
	p.Posts = NewPostList(func(ctx context.Context) ([]models.Post, error) {
		return p.users.Posts(ctx, userID)
	}, p.posts, p.reporter, p.rollback)
	p.Favs = NewPostList(func(ctx context.Context) ([]models.Post, error) {
		return p.users.FavPosts(ctx, userID)
	}, p.posts, p.reporter, p.rollback)
	return nil
}

// User returns the profile owner.
func (p *Profile) User() (models.User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return models.User{}, false
	}
	return *p.user, true
}

// Own reports whether the profile belongs to the current user.
func (p *Profile) Own() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user != nil && p.me != nil && p.user.ID == p.me.ID
}

// Tab returns the posts or favorite-posts list of the loaded profile.
func (p *Profile) Tab(fav bool) (*PostList, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return nil, ErrProfileNotLoaded
	}
	if fav {
		return p.Favs, nil
	}
	return p.Posts, nil
}

func (p *Profile) flipFollow() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.user == nil || p.me == nil {
		return "", false
	}
	u := *p.user
	u.Follow = !u.Follow
	if u.Follow {
		u.Followed = append(append([]string(nil), u.Followed...), p.me.ID)
	} else {
		kept := make([]string, 0, len(u.Followed))
		for _, id := range u.Followed {
			if id != p.me.ID {
				kept = append(kept, id)
			}
		}
		u.Followed = kept
	}
	p.user = &u
	return u.ID, true
}

// ToggleFollow flips the follow state locally, then asks the API to do the same.
func (p *Profile) ToggleFollow(ctx context.Context) error {
	id, ok := p.flipFollow()
	if !ok {
		return ErrProfileNotLoaded
	}
	if err := p.users.ToggleFollow(ctx, id); err != nil {
		if p.rollback {
			p.flipFollow()
		}
		p.reporter.Report(err)
		return err
	}
	return nil
}

// EditSummary is what the edit-user dialog starts from.
func (p *Profile) EditSummary() (models.ProfileSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return models.ProfileSummary{}, false
	}
	return models.ProfileSummary{Name: p.user.Name, Image: p.user.Image, Description: p.user.Description}, true
}

// ApplyEdit patches the loaded profile after the edit-user dialog succeeded.
func (p *Profile) ApplyEdit(summary models.ProfileSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.user == nil {
		return
	}
	u := *p.user
	u.Name, u.Image, u.Description = summary.Name, summary.Image, summary.Description
	p.user = &u
}
