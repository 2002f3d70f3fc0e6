// Package workspace groups the UI state of one signed-in session: the active
// modal, the navigation aggregate, the list screens and the open chats.
package workspace

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/chat"
	"github.com/instaflan/web/internal/dialogs"
	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
	"github.com/instaflan/web/internal/screens"
	"github.com/instaflan/web/internal/userinfo"
)

// Deps are shared by every workspace. The repositories read the session token
// from the context, so one set serves all sessions.
type Deps struct {
	Users         repositories.UserRepository
	Posts         repositories.PostRepository
	Chats         repositories.ChatRepository
	Notifications repositories.NotificationRepository

	// ChatSource feeds open chat views. Defaults to polling every two seconds.
	ChatSource chat.Source
	// Publisher, when set, is told about chats changed through this service.
	Publisher chat.Publisher
	// Cache, when set, keeps the navigation aggregate between workspaces.
	Cache userinfo.Cache

	FavoriteRollback bool
}

type openChat struct {
	view   *chat.View
	handle *chat.Handle
	// watchers counts the listeners attached through Watch.
	watchers int
}

type Workspace struct {
	ID string

	Modals        *modal.Orchestrator
	UserInfo      *userinfo.Store
	Home          *screens.PostList
	Explorer      *screens.Explorer
	Profile       *screens.Profile
	Notifications *screens.Notifications
	Inbox         *screens.Inbox
	Dialogs       *dialogs.Dialogs

	deps Deps
	// ctx carries the session token for work that outlives a request.
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	chats map[string]*openChat
}

// KeyFor derives a stable, non-reversible key from a session token.
func KeyFor(token string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(token)).String()
}

func New(token string, deps Deps) *Workspace {
	if deps.ChatSource == nil {
		deps.ChatSource = chat.NewPollingSource(deps.Chats.ByID, chat.DefaultInterval)
	}

	ctx, cancel := context.WithCancel(apiclient.WithToken(context.Background(), token))
	id := KeyFor(token)
	modals := modal.NewOrchestrator()

	var opts []userinfo.Option
	if deps.Cache != nil {
		opts = append(opts, userinfo.WithCache(deps.Cache, id))
	}
	info := userinfo.NewStore(deps.Users, deps.Chats, deps.Notifications, modals, opts...)

	var publisher dialogs.Publisher
	if deps.Publisher != nil {
		publisher = deps.Publisher
	}

	return &Workspace{
		ID:            id,
		Modals:        modals,
		UserInfo:      info,
		Home:          screens.NewPostList(deps.Posts.Feed, deps.Posts, modals, deps.FavoriteRollback),
		Explorer:      screens.NewExplorer(deps.Users, deps.Posts, modals, deps.FavoriteRollback),
		Profile:       screens.NewProfile(deps.Users, deps.Posts, modals, deps.FavoriteRollback),
		Notifications: screens.NewNotifications(deps.Notifications, info, modals),
		Inbox:         screens.NewInbox(deps.Chats, deps.Users, modals),
		Dialogs:       dialogs.New(deps.Users, deps.Posts, deps.Chats, modals, publisher),
		deps:          deps,
		ctx:           ctx,
		cancel:        cancel,
		chats:         map[string]*openChat{},
	}
}

// Context carries the session token and ends when the workspace is closed.
func (w *Workspace) Context() context.Context { return w.ctx }

// Lists returns every loaded list that may show a given post.
func (w *Workspace) Lists() []*screens.PostList {
	lists := []*screens.PostList{w.Home, w.Explorer.Posts}
	for _, fav := range []bool{false, true} {
		if l, err := w.Profile.Tab(fav); err == nil {
			lists = append(lists, l)
		}
	}
	return lists
}

// ListFor picks the list a favorite toggle targets.
func (w *Workspace) ListFor(screen string) (*screens.PostList, bool) {
	switch screen {
	case "home":
		return w.Home, true
	case "explorer":
		return w.Explorer.Posts, true
	case "profile":
		l, err := w.Profile.Tab(false)
		return l, err == nil
	case "fav-posts":
		l, err := w.Profile.Tab(true)
		return l, err == nil
	}
	return nil, false
}

func (w *Workspace) OpenCreatePost() {
	w.Modals.Open(modal.CreatePost{OnDone: func(close modal.CloseFunc) {
		close()
		_ = w.Home.Load(w.ctx)
	}})
}

func (w *Workspace) OpenCreateComment(postID string) {
	w.Modals.Open(modal.CreateComment{PostID: postID, OnDone: func(close modal.CloseFunc) {
		close()
		post, err := w.deps.Posts.ByID(w.ctx, postID)
		if err != nil {
			w.Modals.Report(err)
			return
		}
		for _, l := range w.Lists() {
			l.Replace(*post)
		}
	}})
}

func (w *Workspace) OpenDeletePost(postID string) {
	w.Modals.Open(modal.DeletePost{PostID: postID, OnDone: func(close modal.CloseFunc) {
		for _, l := range w.Lists() {
			l.Remove(postID)
		}
		close()
	}})
}

func (w *Workspace) OpenEditPost(postID string) {
	w.Modals.Open(modal.EditPost{PostID: postID, OnDone: func(close modal.CloseFunc, post models.PostSummary) {
		for _, l := range w.Lists() {
			l.ApplyEdit(post)
		}
		close()
	}})
}

// OpenEditUser starts from the loaded profile, or from the current user when none is loaded.
func (w *Workspace) OpenEditUser(ctx context.Context) error {
	summary, ok := w.Profile.EditSummary()
	if !ok || !w.Profile.Own() {
		me, err := w.deps.Users.Current(ctx)
		if err != nil {
			w.Modals.Report(err)
			return err
		}
		summary = models.ProfileSummary{Name: me.Name, Image: me.Image, Description: me.Description}
	}
	w.Modals.Open(modal.EditUser{User: summary, OnDone: func(close modal.CloseFunc, user models.ProfileSummary) {
		if w.Profile.Own() {
			w.Profile.ApplyEdit(user)
		}
		close()
		_ = w.UserInfo.Refresh(w.ctx)
	}})
	return nil
}

func (w *Workspace) OpenFollowers(userID string) {
	w.Modals.Open(modal.ShowFollowers{UserID: userID})
}

func (w *Workspace) OpenFollowing(userID string) {
	w.Modals.Open(modal.ShowFollowing{UserID: userID})
}

// Chat returns the view of chatID, starting it on first use. Views of other
// chats that nobody watches are stopped: only one conversation is on screen.
func (w *Workspace) Chat(chatID string) *chat.View {
	w.mu.Lock()
	oc, stale := w.openLocked(chatID)
	w.mu.Unlock()
	stopAll(stale)
	return oc.view
}

// Watch is Chat for a long-lived listener. The returned release stops the view
// once its last watcher is gone.
func (w *Workspace) Watch(chatID string) (*chat.View, func()) {
	w.mu.Lock()
	oc, stale := w.openLocked(chatID)
	oc.watchers++
	w.mu.Unlock()
	stopAll(stale)

	var once sync.Once
	return oc.view, func() {
		once.Do(func() {
			w.mu.Lock()
			oc.watchers--
			last := oc.watchers == 0 && w.chats[chatID] == oc
			if last {
				delete(w.chats, chatID)
			}
			w.mu.Unlock()
			if last {
				oc.view.Stop()
			}
		})
	}
}

func (w *Workspace) openLocked(chatID string) (*openChat, []*openChat) {
	if oc, ok := w.chats[chatID]; ok && oc.handle.Alive() {
		return oc, nil
	}

	var stale []*openChat
	for id, oc := range w.chats {
		if id != chatID && oc.watchers == 0 {
			delete(w.chats, id)
			stale = append(stale, oc)
		}
	}

	opts := []chat.ViewOption{chat.WithOnReady(func() {
		// Reading a chat clears its unread flag on the API.
		_ = w.UserInfo.Refresh(w.ctx)
	})}
	if w.deps.Publisher != nil {
		opts = append(opts, chat.WithPublisher(w.deps.Publisher))
	}
	view := chat.NewView(chatID, w.deps.Chats, w.deps.Users, w.deps.ChatSource, w.Modals, opts...)
	oc := &openChat{view: view, handle: view.Start(w.ctx)}
	w.chats[chatID] = oc
	return oc, stale
}

func stopAll(chats []*openChat) {
	for _, oc := range chats {
		oc.view.Stop()
	}
}

// LeaveChat stops refreshing chatID.
func (w *Workspace) LeaveChat(chatID string) {
	w.mu.Lock()
	oc, ok := w.chats[chatID]
	delete(w.chats, chatID)
	w.mu.Unlock()
	if ok {
		oc.view.Stop()
	}
}

// OpenChats counts the running chat views.
func (w *Workspace) OpenChats() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.chats)
}

// Watched reports whether any chat view has a watcher attached.
func (w *Workspace) Watched() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, oc := range w.chats {
		if oc.watchers > 0 {
			return true
		}
	}
	return false
}

// Close stops every open chat and cancels background work.
func (w *Workspace) Close() {
	w.mu.Lock()
	chats := w.chats
	w.chats = map[string]*openChat{}
	w.mu.Unlock()

	for id, oc := range chats {
		oc.view.Stop()
		log.Printf("workspace %s: closed chat %s", w.ID, id)
	}
	w.cancel()
}
