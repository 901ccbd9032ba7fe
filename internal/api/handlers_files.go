// handlers_files.go - File upload, listing and removal.
package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/insightflow/backend/internal/models"
	"github.com/insightflow/backend/internal/session"
)

// FileUploadError reports one file that could not be processed.
type FileUploadError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// UploadResponse is the batch upload result. Accepted and rejected files are
// reported side by side so one bad file never sinks the batch.
type UploadResponse struct {
	Files  []*models.UploadedFile `json:"files"`
	Errors []FileUploadError      `json:"errors,omitempty"`
}

// HandleUploadFiles accepts a multipart batch under the "files" field,
// extracts each file and adds the successes to the session.
func (h *Handler) HandleUploadFiles(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return NewValidationError("files")
	}

	ctx := c.Request().Context()
	resp := UploadResponse{Files: []*models.UploadedFile{}}

	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			resp.Errors = append(resp.Errors, FileUploadError{Name: fh.Filename, Error: "failed to open file"})
			continue
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			resp.Errors = append(resp.Errors, FileUploadError{Name: fh.Filename, Error: "failed to read file"})
			continue
		}

		file, err := h.Extractor.Extract(ctx, fh.Filename, fh.Header.Get("Content-Type"), data)
		if err != nil {
			fmt.Printf("[Upload] Skipping %s: %v\n", fh.Filename, err)
			resp.Errors = append(resp.Errors, FileUploadError{Name: fh.Filename, Error: err.Error()})
			continue
		}

		if err := h.Sessions.AddFile(file); err != nil {
			if err == session.ErrTooManyFiles {
				resp.Errors = append(resp.Errors, FileUploadError{Name: fh.Filename, Error: err.Error()})
				continue
			}
			return NewBadRequestError("failed to add file", err)
		}

		fmt.Printf("[Upload] Added %s (%d bytes)\n", fh.Filename, file.Size)
		resp.Files = append(resp.Files, file)
	}

	if len(resp.Files) == 0 {
		return c.JSON(http.StatusBadRequest, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleListFiles returns the session file set in upload order.
func (h *Handler) HandleListFiles(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"files": h.Sessions.Files(),
	})
}

// HandleDeleteFile removes one file by id.
func (h *Handler) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if !h.Sessions.RemoveFile(id) {
		return NewNotFoundError("file")
	}
	return c.NoContent(http.StatusNoContent)
}
