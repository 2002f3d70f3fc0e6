// Package dialogs runs the action behind whichever modal is open.
package dialogs

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
	"github.com/instaflan/web/validators"
)

// Form carries the fields a dialog submits. Each kind reads only what it needs.
type Form struct {
	Text        string `json:"text" form:"text"`
	Image       string `json:"image" form:"image"`
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`

	// Action selects between "edit" and "delete" for the message dialog.
	Action string `json:"action" form:"action"`
}

const (
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

var ErrNotListing = errors.New("The open dialog does not list users.")

// Publisher is told about a chat after one of its messages changed.
type Publisher interface {
	Announce(chat models.Chat) error
}

type Dialogs struct {
	users     repositories.UserRepository
	posts     repositories.PostRepository
	chats     repositories.ChatRepository
	modals    *modal.Orchestrator
	publisher Publisher
}

func New(
	users repositories.UserRepository,
	posts repositories.PostRepository,
	chats repositories.ChatRepository,
	modals *modal.Orchestrator,
	publisher Publisher,
) *Dialogs {
	return &Dialogs{users: users, posts: posts, chats: chats, modals: modals, publisher: publisher}
}

// Submit performs the active dialog's action. Validation failures are returned
// and leave the dialog open; API failures replace it with the error dialog.
func (d *Dialogs) Submit(ctx context.Context, form Form) error {
	m, closeFn, ok := d.modals.Current()
	if !ok {
		return modal.ErrNoActiveModal
	}

	switch m := m.(type) {
	case modal.CreatePost:
		if err := d.apiCall(d.posts.Create(ctx, strings.TrimSpace(form.Image), form.Text)); err != nil {
			return err
		}
		m.Done(closeFn)

	case modal.CreateComment:
		if err := d.apiCall(d.posts.Comment(ctx, m.PostID, form.Text)); err != nil {
			return err
		}
		m.Done(closeFn)

	case modal.DeletePost:
		if err := d.apiCall(d.posts.Delete(ctx, m.PostID)); err != nil {
			return err
		}
		m.Done(closeFn)

	case modal.EditPost:
		summary := models.PostSummary{ID: m.PostID, Image: strings.TrimSpace(form.Image), Text: form.Text}
		if err := d.apiCall(d.posts.Edit(ctx, summary)); err != nil {
			return err
		}
		m.Done(closeFn, summary)

	case modal.EditUser:
		profile := models.ProfileSummary{
			Name:        strings.TrimSpace(form.Name),
			Image:       strings.TrimSpace(form.Image),
			Description: form.Description,
		}
		if err := d.apiCall(d.users.Edit(ctx, profile)); err != nil {
			return err
		}
		m.Done(closeFn, profile)

	case modal.EditDeleteMessage:
		if err := validators.ValidateAction(form.Action, ActionEdit, ActionDelete); err != nil {
			return err
		}
		var err error
		if form.Action == ActionDelete {
			err = d.chats.DeleteMessage(ctx, m.Message.ID)
		} else {
			err = d.chats.EditMessage(ctx, m.Message.ID, form.Text)
		}
		if err := d.apiCall(err); err != nil {
			return err
		}
		d.announce(ctx, m.ChatID)
		m.Done(closeFn)

	case modal.ShowFollowers:
		m.Done(closeFn)
	case modal.ShowFollowing:
		m.Done(closeFn)
	case modal.ShowError:
		m.Done(closeFn)
	}
	return nil
}

// Listing returns the users shown by an open followers or following dialog.
func (d *Dialogs) Listing(ctx context.Context) ([]models.User, error) {
	m, ok := d.modals.Active()
	if !ok {
		return nil, modal.ErrNoActiveModal
	}

	var (
		users []models.User
		err   error
	)
	switch m := m.(type) {
	case modal.ShowFollowers:
		users, err = d.users.Followed(ctx, m.UserID)
	case modal.ShowFollowing:
		users, err = d.users.Following(ctx, m.UserID)
	default:
		return nil, ErrNotListing
	}
	if err := d.apiCall(err); err != nil {
		return nil, err
	}
	return users, nil
}

func (d *Dialogs) apiCall(err error) error {
	if err != nil && !validators.IsValidationError(err) {
		d.modals.Report(err)
	}
	return err
}

func (d *Dialogs) announce(ctx context.Context, chatID string) {
	if d.publisher == nil || chatID == "" {
		return
	}
	chat, err := d.chats.ByID(ctx, chatID)
	if err != nil {
		log.Printf("dialogs: re-reading chat %s failed: %v", chatID, err)
		return
	}
	if err := d.publisher.Announce(*chat); err != nil {
		log.Printf("dialogs: announce chat %s failed: %v", chatID, err)
	}
}
