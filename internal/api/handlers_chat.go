// handlers_chat.go - Conversational endpoints.
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/insightflow/backend/internal/models"
)

// ChatRequest is the inbound chat message body.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the recorded user turn and the assistant reply.
type ChatResponse struct {
	UserMessage      models.ChatMessage `json:"userMessage"`
	AssistantMessage models.ChatMessage `json:"assistantMessage"`
}

// HandleChatMessage records the user turn, asks the advisor for a reply and
// records that too. The history snapshot is taken before the user turn is
// appended so the excerpt window is judged on prior turns only.
func (h *Handler) HandleChatMessage(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if strings.TrimSpace(req.Message) == "" {
		return NewValidationError("message")
	}

	history := h.Sessions.Messages()
	files := h.Sessions.Files()
	result := h.Sessions.Result()

	userMsg := h.Sessions.AppendMessage(models.RoleUser, req.Message)

	reply := h.Chat.Reply(c.Request().Context(), history, req.Message, files, result)
	assistantMsg := h.Sessions.AppendMessage(models.RoleAssistant, reply)

	return c.JSON(http.StatusOK, ChatResponse{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	})
}

// HandleChatHistory returns the full conversation in send order.
func (h *Handler) HandleChatHistory(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": h.Sessions.Messages(),
	})
}
