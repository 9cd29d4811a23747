package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"skillsync/internal/errors"
	"skillsync/internal/upload"
)

// FileHandler serves stored uploads read-only.
type FileHandler struct {
	store upload.Store
}

// NewFileHandler creates a file handler reading from store.
func NewFileHandler(store upload.Store) *FileHandler {
	return &FileHandler{store: store}
}

// Serve streams the stored file named by the :name path parameter. It is
// mounted outside the API base path, so it has no swagger annotations.
func (h *FileHandler) Serve(c echo.Context) error {
	name := c.Param("name")
	rc, err := h.store.Open(c.Request().Context(), name)
	if err != nil {
		if stderrors.Is(err, upload.ErrNotFound) || stderrors.Is(err, upload.ErrInvalidName) {
			return echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
				Error: "file not found",
				Code:  "FILE_NOT_FOUND",
			})
		}
		return toHTTPError(errors.Upstream(err, "open upload"))
	}
	defer rc.Close()

	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.Stream(http.StatusOK, upload.ContentType(name), rc)
}
