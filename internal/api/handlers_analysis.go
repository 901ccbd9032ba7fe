// handlers_analysis.go - Analysis run lifecycle and progress streaming.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/insightflow/backend/internal/models"
)

// HandleStartAnalysis launches a background analysis over the current file
// set and returns the run handle immediately.
func (h *Handler) HandleStartAnalysis(c echo.Context) error {
	run, err := h.Sessions.StartAnalysis()
	if err != nil {
		return FromAnalysisError(err)
	}
	return c.JSON(http.StatusAccepted, run)
}

// HandleAnalysisStatus returns the current run snapshot.
func (h *Handler) HandleAnalysisStatus(c echo.Context) error {
	run, ok := h.Sessions.Run()
	if !ok {
		return NewNotFoundError("analysis run")
	}
	return c.JSON(http.StatusOK, run)
}

// HandleAnalysisResult returns the last completed dashboard. While a run is
// in flight the prior result (if any) stays visible.
func (h *Handler) HandleAnalysisResult(c echo.Context) error {
	result := h.Sessions.Result()
	if result == nil {
		return NewNotFoundError("analysis result")
	}
	return c.JSON(http.StatusOK, result)
}

// HandleAnalysisProgressStream streams run progress via SSE until the run
// finishes or the stream times out.
func (h *Handler) HandleAnalysisProgressStream(c echo.Context) error {
	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	run, ok := h.Sessions.Run()
	if !ok {
		h.sendSSEError(c, "no analysis run")
		return nil
	}
	h.sendSSEData(c, run)
	if run.Finished() {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()

	for {
		select {
		case <-ticker.C:
			run, ok := h.Sessions.Run()
			if !ok {
				h.sendSSEError(c, "run cleared")
				return nil
			}
			h.sendSSEData(c, run)
			if run.Finished() {
				return nil
			}

		case <-timeout.C:
			h.sendSSEError(c, "stream timeout")
			return nil

		case <-c.Request().Context().Done():
			return nil
		}
	}
}

func (h *Handler) sendSSEData(c echo.Context, run *models.AnalysisRun) {
	data, err := json.Marshal(run)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Response(), "data: %s\n\n", data)
	c.Response().Flush()
}

func (h *Handler) sendSSEError(c echo.Context, message string) {
	fmt.Fprintf(c.Response(), "event: error\ndata: {\"error\":%q}\n\n", message)
	c.Response().Flush()
}
