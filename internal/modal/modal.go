// Package modal holds the single active dialog of a workspace and the closed set
// of dialog kinds it can show.
package modal

import "github.com/instaflan/web/internal/models"

// Kind names a modal in views and requests.
type Kind string

const (
	KindCreatePost        Kind = "create-post"
	KindCreateComment     Kind = "create-comment"
	KindDeletePost        Kind = "delete-post"
	KindEditPost          Kind = "edit-post"
	KindEditUser          Kind = "edit-user"
	KindEditDeleteMessage Kind = "edit-or-delete-message"
	KindShowFollowers     Kind = "show-followers"
	KindShowFollowing     Kind = "show-following"
	KindShowError         Kind = "show-error"
)

// CloseFunc dismisses the modal that was active when the continuation ran.
type CloseFunc func()

// Continuation runs after a modal's action succeeds.
type Continuation func(close CloseFunc)

// Modal is implemented only by the kinds in this package.
type Modal interface {
	Kind() Kind
	sealed()
}

func finish(next Continuation, close CloseFunc) {
	if next == nil {
		close()
		return
	}
	next(close)
}

type CreatePost struct {
	OnDone Continuation
}

type CreateComment struct {
	PostID string
	OnDone Continuation
}

type DeletePost struct {
	PostID string
	OnDone Continuation
}

// EditPost hands the edited post back so the caller can patch its list in place.
type EditPost struct {
	PostID string
	OnDone func(close CloseFunc, post models.PostSummary)
}

// EditUser hands the saved fields back so the caller can patch the profile.
type EditUser struct {
	User   models.ProfileSummary
	OnDone func(close CloseFunc, user models.ProfileSummary)
}

type EditDeleteMessage struct {
	ChatID  string
	Message models.Message
	OnDone  Continuation
}

type ShowFollowers struct {
	UserID string
	OnDone Continuation
}

type ShowFollowing struct {
	UserID string
	OnDone Continuation
}

type ShowError struct {
	Message string
}

func (CreatePost) Kind() Kind        { return KindCreatePost }
func (CreateComment) Kind() Kind     { return KindCreateComment }
func (DeletePost) Kind() Kind        { return KindDeletePost }
func (EditPost) Kind() Kind          { return KindEditPost }
func (EditUser) Kind() Kind          { return KindEditUser }
func (EditDeleteMessage) Kind() Kind { return KindEditDeleteMessage }
func (ShowFollowers) Kind() Kind     { return KindShowFollowers }
func (ShowFollowing) Kind() Kind     { return KindShowFollowing }
func (ShowError) Kind() Kind         { return KindShowError }

func (CreatePost) sealed()        {}
func (CreateComment) sealed()     {}
func (DeletePost) sealed()        {}
func (EditPost) sealed()          {}
func (EditUser) sealed()          {}
func (EditDeleteMessage) sealed() {}
func (ShowFollowers) sealed()     {}
func (ShowFollowing) sealed()     {}
func (ShowError) sealed()         {}

func (m CreatePost) Done(close CloseFunc)        { finish(m.OnDone, close) }
func (m CreateComment) Done(close CloseFunc)     { finish(m.OnDone, close) }
func (m DeletePost) Done(close CloseFunc)        { finish(m.OnDone, close) }
func (m EditDeleteMessage) Done(close CloseFunc) { finish(m.OnDone, close) }
func (m ShowFollowers) Done(close CloseFunc)     { finish(m.OnDone, close) }
func (m ShowFollowing) Done(close CloseFunc)     { finish(m.OnDone, close) }
func (m ShowError) Done(close CloseFunc)         { close() }

func (m EditPost) Done(close CloseFunc, post models.PostSummary) {
	if m.OnDone == nil {
		close()
		return
	}
	m.OnDone(close, post)
}

func (m EditUser) Done(close CloseFunc, user models.ProfileSummary) {
	if m.OnDone == nil {
		close()
		return
	}
	m.OnDone(close, user)
}

// View is the serializable shape of a modal. Continuations never leave the process.
type View struct {
	Kind  Kind           `json:"kind"`
	Props map[string]any `json:"props,omitempty"`
}

// Describe renders m for clients.
func Describe(m Modal) View {
	v := View{Kind: m.Kind()}
	switch m := m.(type) {
	case CreateComment:
		v.Props = map[string]any{"postId": m.PostID}
	case DeletePost:
		v.Props = map[string]any{"postId": m.PostID}
	case EditPost:
		v.Props = map[string]any{"postId": m.PostID}
	case EditUser:
		v.Props = map[string]any{"user": m.User}
	case EditDeleteMessage:
		v.Props = map[string]any{"chatId": m.ChatID, "message": m.Message}
	case ShowFollowers:
		v.Props = map[string]any{"userId": m.UserID}
	case ShowFollowing:
		v.Props = map[string]any{"userId": m.UserID}
	case ShowError:
		v.Props = map[string]any{"message": m.Message}
	}
	return v
}
