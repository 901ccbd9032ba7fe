// handlers.go - Handler wiring and the health endpoint.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/insightflow/backend/internal/chat"
	"github.com/insightflow/backend/internal/export"
	"github.com/insightflow/backend/internal/extract"
	"github.com/insightflow/backend/internal/session"
)

// Handler bundles the services the HTTP layer depends on.
type Handler struct {
	Sessions  *session.Manager
	Extractor *extract.Extractor
	Chat      *chat.Orchestrator
	Feed      *StatusFeed

	started time.Time
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(sessions *session.Manager, extractor *extract.Extractor, chatSvc *chat.Orchestrator, feed *StatusFeed) *Handler {
	return &Handler{
		Sessions:  sessions,
		Extractor: extractor,
		Chat:      chatSvc,
		Feed:      feed,
		started:   time.Now(),
	}
}

// HandleHealth reports liveness and a few session counters.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"uptime":   time.Since(h.started).Round(time.Second).String(),
		"files":    len(h.Sessions.Files()),
		"messages": len(h.Sessions.Messages()),
	})
}

// HandleExport returns the composed session report as JSON.
func (h *Handler) HandleExport(c echo.Context) error {
	report := export.Compose(h.Sessions.Result(), h.Sessions.Messages())
	return c.JSON(http.StatusOK, report)
}

// HandleExportMsgpack returns the composed session report as msgpack.
func (h *Handler) HandleExportMsgpack(c echo.Context) error {
	report := export.Compose(h.Sessions.Result(), h.Sessions.Messages())
	data, err := report.Msgpack()
	if err != nil {
		return &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "ENCODE_ERROR",
			Message: "failed to encode report",
			Details: err.Error(),
		}
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}

// HandleReset clears all session state.
func (h *Handler) HandleReset(c echo.Context) error {
	h.Sessions.Reset()
	return c.JSON(http.StatusOK, map[string]string{"status": "reset"})
}
