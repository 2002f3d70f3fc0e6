package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/chat"
	"github.com/instaflan/web/internal/middleware"
	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/workspace"
)

const serviceName = "instaflan-web"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChatHandler serves the inbox and open conversations
type ChatHandler struct {
	registry *workspace.Registry
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(registry *workspace.Registry) *ChatHandler {
	return &ChatHandler{registry: registry}
}

type draftRequest struct {
	Text string `json:"text" form:"text"`
}

// RegisterChatRoutes registers messaging routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.GET("/messages", h.GetInbox)
	g.POST("/messages", h.StartChat)
	g.GET("/messages/:chat", h.GetChat)
	g.POST("/messages/:chat", h.SendMessage)
	g.PUT("/messages/:chat/draft", h.SetDraft)
	g.POST("/messages/:chat/messages/:id/edit", h.EditMessage)
	g.DELETE("/messages/:chat", h.LeaveChat)
	g.GET("/messages/:chat/ws", h.Watch)
}

// GetInbox lists the chats of the current user
func (h *ChatHandler) GetInbox(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	if err := ws.Inbox.Load(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return success(c, echo.Map{"chats": ws.Inbox.Entries()})
}

// StartChat opens (or reuses) a conversation with another user
func (h *ChatHandler) StartChat(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	var req models.CreateChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}

	created, err := ws.Inbox.StartChat(c.Request().Context(), req.OtherUser)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"data":     created,
		"redirect": "/messages/" + created.ID,
	})
}

func (h *ChatHandler) view(c echo.Context) (*chat.View, error) {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return nil, err
	}
	chatID, err := validID(c, "chat")
	if err != nil {
		return nil, err
	}
	return ws.Chat(chatID), nil
}

// GetChat returns what the conversation screen currently shows
func (h *ChatHandler) GetChat(c echo.Context) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}
	return success(c, view.Snapshot())
}

// SetDraft stores the text being typed without sending it
func (h *ChatHandler) SetDraft(c echo.Context) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}
	var req draftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	view.SetDraft(req.Text)
	return success(c, echo.Map{"draft": view.Draft()})
}

// SendMessage sends the submitted text, or the stored draft when none is given
func (h *ChatHandler) SendMessage(c echo.Context) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}
	var req draftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Text != "" {
		view.SetDraft(req.Text)
	}

	start := time.Now()
	err = view.Send(c.Request().Context())
	middleware.RecordChatOperation("send", serviceName, time.Since(start), err)
	if err != nil {
		return httpError(err)
	}
	return success(c, view.Snapshot())
}

// EditMessage opens the edit-or-delete dialog for one of the user's messages
func (h *ChatHandler) EditMessage(c echo.Context) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}
	msgID, err := validID(c, "id")
	if err != nil {
		return err
	}

	current := view.Chat()
	if current == nil {
		return echo.NewHTTPError(http.StatusConflict, "Chat is still loading.")
	}
	var found *models.Message
	for i := range current.Messages {
		if current.Messages[i].ID == msgID {
			found = &current.Messages[i]
			break
		}
	}
	if found == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Message not found.")
	}
	if userID := middleware.UserID(c); userID != "" && found.Author != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only edit your own messages.")
	}

	view.EditMessage(*found)
	return success(c, echo.Map{"chatId": view.ChatID(), "messageId": found.ID})
}

// LeaveChat stops refreshing the conversation
func (h *ChatHandler) LeaveChat(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	chatID, err := validID(c, "chat")
	if err != nil {
		return err
	}
	ws.LeaveChat(chatID)
	return c.NoContent(http.StatusNoContent)
}

// Watch streams a snapshot of the conversation every time it changes. The
// view stops once the last socket watching it is gone.
func (h *ChatHandler) Watch(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	chatID, err := validID(c, "chat")
	if err != nil {
		return err
	}
	view, release := ws.Watch(chatID)
	defer release()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return nil
	}
	defer conn.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request().Context()
	for {
		changed := view.Changed()
		if err := conn.WriteJSON(view.Snapshot()); err != nil {
			log.Println("WebSocket write error:", err)
			return nil
		}
		select {
		case <-changed:
		case <-gone:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
