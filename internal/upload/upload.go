// Package upload validates and stores profile files sent as multipart fields.
package upload

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "skillsync/internal/errors"
	"skillsync/internal/metrics"
)

// PathPrefix is prepended to stored names in returned paths. Files are
// served back under "/" + PathPrefix.
const PathPrefix = "uploads/"

// Field names accepted by the handler.
const (
	FieldAvatar = "avatar"
	FieldResume = "resume"
)

type fieldRule struct {
	extensions []string
	message    string
}

var rules = map[string]fieldRule{
	FieldAvatar: {extensions: []string{".jpg", ".jpeg", ".png", ".gif"}, message: "only image files are allowed for avatar"},
	FieldResume: {extensions: []string{".pdf"}, message: "only PDF files are allowed for resume"},
}

// fieldOrder keeps processing deterministic.
var fieldOrder = []string{FieldAvatar, FieldResume}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// maxBaseLen bounds the client part of a stored name so the full name stays
// well under filesystem and object key limits.
const maxBaseLen = 100

// Handler accepts the avatar and resume fields of a multipart form.
type Handler struct {
	store    Store
	maxBytes int64
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

// NewHandler creates an upload handler writing to store.
func NewHandler(store Store, maxBytes int64, m *metrics.Metrics, log *zap.Logger) *Handler {
	return &Handler{store: store, maxBytes: maxBytes, metrics: m, log: log, now: time.Now}
}

// Accept validates every file field first and only then stores them. Files
// under any field other than avatar and resume are rejected. It returns the
// stored path per field; fields without a file are absent.
func (h *Handler) Accept(ctx context.Context, files map[string][]*multipart.FileHeader) (map[string]string, error) {
	if err := checkFields(files); err != nil {
		return nil, err
	}
	for _, field := range fieldOrder {
		headers := files[field]
		if len(headers) == 0 {
			continue
		}
		if err := h.validate(field, headers); err != nil {
			h.metrics.ObserveUpload(field, err)
			return nil, err
		}
	}

	stored := map[string]string{}
	for _, field := range fieldOrder {
		headers := files[field]
		if len(headers) == 0 {
			continue
		}
		path, err := h.save(ctx, headers[0])
		h.metrics.ObserveUpload(field, err)
		if err != nil {
			h.Discard(ctx, stored)
			return nil, apperrors.Upstream(err, "store "+field)
		}
		stored[field] = path
	}
	return stored, nil
}

func checkFields(files map[string][]*multipart.FileHeader) error {
	var unexpected []string
	for field, headers := range files {
		if _, ok := rules[field]; !ok && len(headers) > 0 {
			unexpected = append(unexpected, field)
		}
	}
	if len(unexpected) == 0 {
		return nil
	}
	sort.Strings(unexpected)
	return apperrors.Validation("INVALID_UPLOAD", fmt.Sprintf("unexpected file field %s", unexpected[0]))
}

func (h *Handler) validate(field string, headers []*multipart.FileHeader) error {
	if len(headers) > 1 {
		return apperrors.Validation("INVALID_UPLOAD", fmt.Sprintf("only one file is allowed for %s", field))
	}
	fh := headers[0]
	rule := rules[field]
	if !hasExtension(fh.Filename, rule.extensions) {
		return apperrors.Validation("INVALID_FILE_TYPE", rule.message)
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return apperrors.Validation("FILE_TOO_LARGE", fmt.Sprintf("%s exceeds the %d byte limit", field, h.maxBytes))
	}
	return nil
}

func (h *Handler) save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	name := h.storedName(fh.Filename)
	if err := h.store.Save(ctx, name, f, fh.Size, ContentType(name)); err != nil {
		return "", err
	}
	return PathPrefix + name, nil
}

// Discard removes files stored by Accept, used when the write that should
// reference them fails.
func (h *Handler) Discard(ctx context.Context, stored map[string]string) {
	for field, path := range stored {
		name := strings.TrimPrefix(path, PathPrefix)
		if err := h.store.Remove(ctx, name); err != nil {
			h.log.Warn("discard upload", zap.String("field", field), zap.String("path", path), zap.Error(err))
		}
	}
}

// storedName builds "<unix-millis>-<random>-<sanitized base name>".
func (h *Handler) storedName(original string) string {
	base := unsafeChars.ReplaceAllString(filepath.Base(original), "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "file"
	}
	base = truncateBase(base)
	return fmt.Sprintf("%d-%s-%s", h.now().UnixMilli(), uuid.NewString()[:8], base)
}

// truncateBase shortens name to maxBaseLen bytes, keeping its extension.
// name is already restricted to ASCII by unsafeChars.
func truncateBase(name string) string {
	if len(name) <= maxBaseLen {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= maxBaseLen/2 {
		ext = ""
	}
	return name[:maxBaseLen-len(ext)] + ext
}

func hasExtension(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// ContentType guesses the MIME type of a stored file from its extension.
func ContentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
