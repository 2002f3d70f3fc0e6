package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
	"github.com/instaflan/web/validators"
)

type State int

const (
	Loading State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "loading"
}

// Publisher is notified with the refreshed chat after this view changes it.
type Publisher interface {
	Announce(chat models.Chat) error
}

// Handle is the cancellation token of a started view. Once cancelled, nothing
// fetched on its behalf is committed.
type Handle struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *Handle) Cancel() { h.cancel() }

func (h *Handle) Alive() bool { return h.ctx.Err() == nil }

// Done is closed once the update loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Snapshot is what a client draws for an open conversation.
type Snapshot struct {
	State    string               `json:"state"`
	Revision uint64               `json:"revision"`
	User     *models.User         `json:"user,omitempty"`
	Chat     *models.Chat         `json:"chat,omitempty"`
	Others   []models.UserSummary `json:"others,omitempty"`
	Draft    string               `json:"draft"`
}

type View struct {
	chatID    string
	chats     repositories.ChatRepository
	users     repositories.UserRepository
	source    Source
	modals    *modal.Orchestrator
	publisher Publisher
	onReady   func()

	mu       sync.RWMutex
	handle   *Handle
	user     *models.User
	chat     *models.Chat
	encoded  []byte
	revision uint64
	draft    string
	changed  chan struct{}
	// failing is set by a failed refresh and cleared by the next good one.
	failing bool
	ready   bool
}

type ViewOption func(*View)

// WithPublisher announces the chat after every send.
func WithPublisher(p Publisher) ViewOption {
	return func(v *View) { v.publisher = p }
}

// WithOnReady runs fn once, when the view first holds both the user and the chat.
func WithOnReady(fn func()) ViewOption {
	return func(v *View) { v.onReady = fn }
}

func NewView(
	chatID string,
	chats repositories.ChatRepository,
	users repositories.UserRepository,
	source Source,
	modals *modal.Orchestrator,
	opts ...ViewOption,
) *View {
	v := &View{
		chatID:  chatID,
		chats:   chats,
		users:   users,
		source:  source,
		modals:  modals,
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *View) ChatID() string { return v.chatID }

// Start loads the conversation and follows the source until ctx is done or the
// returned handle is cancelled. Starting again cancels the previous run.
func (v *View) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{ctx: ctx, cancel: cancel, done: make(chan struct{})}

	v.mu.Lock()
	prev := v.handle
	v.handle = h
	v.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	go v.run(h)
	return h
}

// Stop cancels the current run, if any.
func (v *View) Stop() {
	v.mu.RLock()
	h := v.handle
	v.mu.RUnlock()
	if h != nil {
		h.Cancel()
	}
}

func (v *View) run(h *Handle) {
	defer close(h.done)

	updates := v.source.Updates(h.ctx, v.chatID)
	if err := v.load(h); err != nil {
		v.modals.Report(err)
	}

	for u := range updates {
		if u.Err != nil {
			v.refreshFailed(h, u.Err)
			continue
		}
		if !v.hasUser() {
			if err := v.loadUser(h); err != nil {
				log.Printf("chat %s: loading user failed: %v", v.chatID, err)
			}
		}
		v.commit(h, u.Chat)
		v.recovered(h)
	}
}

// refreshFailed opens the error dialog while loading and on the first failure
// after a good refresh. Repeated failures are only logged.
func (v *View) refreshFailed(h *Handle, err error) {
	v.mu.Lock()
	if !h.Alive() {
		v.mu.Unlock()
		return
	}
	report := v.user == nil || v.chat == nil || !v.failing
	v.failing = true
	v.mu.Unlock()

	if report {
		v.modals.Report(err)
		return
	}
	log.Printf("chat %s: refresh failed: %v", v.chatID, err)
}

// recovered clears the failure flag and fires onReady the first time the view is Ready.
func (v *View) recovered(h *Handle) {
	v.mu.Lock()
	if !h.Alive() {
		v.mu.Unlock()
		return
	}
	v.failing = false
	fire := !v.ready && v.user != nil && v.chat != nil
	if fire {
		v.ready = true
	}
	v.mu.Unlock()

	if fire && v.onReady != nil {
		v.onReady()
	}
}

func (v *View) load(h *Handle) error {
	var (
		user *models.User
		chat *models.Chat
	)
	g, ctx := errgroup.WithContext(h.ctx)
	g.Go(func() error {
		var err error
		user, err = v.users.Current(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		chat, err = v.chats.ByID(ctx, v.chatID)
		return err
	})
	if err := g.Wait(); err != nil {
		if !h.Alive() {
			return nil
		}
		return err
	}

	v.mu.Lock()
	if h.Alive() {
		v.user = user
	}
	v.mu.Unlock()
	v.commit(h, *chat)
	v.recovered(h)
	return nil
}

func (v *View) loadUser(h *Handle) error {
	user, err := v.users.Current(h.ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if h.Alive() {
		v.user = user
	}
	return nil
}

func (v *View) hasUser() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.user != nil
}

// commit replaces the held chat when its serialization differs. It reports
// whether the chat was replaced.
func (v *View) commit(h *Handle, chat models.Chat) bool {
	encoded, err := json.Marshal(chat)
	if err != nil {
		log.Printf("chat %s: encode failed: %v", v.chatID, err)
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if h != nil && !h.Alive() {
		return false
	}
	if v.chat != nil && bytes.Equal(encoded, v.encoded) {
		return false
	}
	v.chat = &chat
	v.encoded = encoded
	v.bumpLocked()
	return true
}

func (v *View) bumpLocked() {
	v.revision++
	close(v.changed)
	v.changed = make(chan struct{})
}

func (v *View) current() *Handle {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.handle
}

// State is Ready once both the user and the chat have been loaded.
func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.user != nil && v.chat != nil {
		return Ready
	}
	return Loading
}

// Revision increases only when the held chat or draft is replaced.
func (v *View) Revision() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.revision
}

// Changed returns a channel closed at the next revision.
func (v *View) Changed() <-chan struct{} {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.changed
}

// Chat returns the held chat. The pointer stays the same until a differing copy arrives.
func (v *View) Chat() *models.Chat {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.chat
}

func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s := Snapshot{
		State:    Loading.String(),
		Revision: v.revision,
		User:     v.user,
		Chat:     v.chat,
		Draft:    v.draft,
	}
	if v.user != nil && v.chat != nil {
		s.State = Ready.String()
		s.Others = v.chat.Others(v.user.ID)
	}
	return s
}

func (v *View) SetDraft(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.draft == text {
		return
	}
	v.draft = text
	v.bumpLocked()
}

func (v *View) Draft() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.draft
}

// Send posts the trimmed draft, re-fetches the chat once and clears the draft.
// A blank draft is rejected without touching the network. On failure the draft
// is kept and the error is reported.
func (v *View) Send(ctx context.Context) error {
	text := strings.TrimSpace(v.Draft())
	if err := validators.ValidateText(text); err != nil {
		return err
	}

	if err := v.chats.Send(ctx, v.chatID, text); err != nil {
		v.modals.Report(err)
		return err
	}

	chat, err := v.chats.ByID(ctx, v.chatID)
	if err != nil {
		v.modals.Report(err)
		return err
	}

	v.mu.Lock()
	if v.draft != "" {
		v.draft = ""
		v.bumpLocked()
	}
	v.mu.Unlock()
	v.commit(v.current(), *chat)

	if v.publisher != nil {
		if err := v.publisher.Announce(*chat); err != nil {
			log.Printf("chat %s: announce failed: %v", v.chatID, err)
		}
	}
	return nil
}

// EditMessage opens the edit-or-delete dialog for msg. Completing it only closes
// the dialog; the next refresh shows the change.
func (v *View) EditMessage(msg models.Message) {
	v.modals.Open(modal.EditDeleteMessage{ChatID: v.chatID, Message: msg})
}
