// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers all API routes with the Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	// Health check
	e.GET("/health", h.HandleHealth)
	e.GET("/api/health", h.HandleHealth)

	// File routes
	filesGroup := e.Group("/api/files")
	filesGroup.POST("/upload", h.HandleUploadFiles)
	filesGroup.GET("", h.HandleListFiles)
	filesGroup.DELETE("/:id", h.HandleDeleteFile)

	// Analysis run routes
	analysisGroup := e.Group("/api/analysis")
	analysisGroup.POST("", h.HandleStartAnalysis)
	analysisGroup.GET("/status", h.HandleAnalysisStatus)
	analysisGroup.GET("/progress", h.HandleAnalysisProgressStream)
	analysisGroup.GET("/result", h.HandleAnalysisResult)

	// Chat routes
	chatGroup := e.Group("/api/chat")
	chatGroup.POST("", h.HandleChatMessage)
	chatGroup.GET("/messages", h.HandleChatHistory)

	// Report export routes
	exportGroup := e.Group("/api/export")
	exportGroup.GET("", h.HandleExport)
	exportGroup.GET("/msgpack", h.HandleExportMsgpack)

	// Session reset
	e.POST("/api/session/reset", h.HandleReset)

	// Live status feed
	if h.Feed != nil {
		e.GET("/api/ws/status", h.Feed.HandleStatusFeed)
	}
}

// SetupMiddleware configures the custom error handler.
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
