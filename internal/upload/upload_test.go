package upload

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "skillsync/internal/errors"
)

type testFile struct {
	field, name, body string
}

// multipartFiles builds file headers the way echo exposes them after parsing a form.
func multipartFiles(t *testing.T, files ...testFile) map[string][]*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	t.Cleanup(func() { _ = req.MultipartForm.RemoveAll() })
	return req.MultipartForm.File
}

func newTestHandler(t *testing.T, maxBytes int64) (*Handler, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	h := NewHandler(store, maxBytes, nil, zap.NewNop())
	h.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return h, dir
}

func TestHandler_AcceptStoresFiles(t *testing.T) {
	h, dir := newTestHandler(t, 1<<20)

	stored, err := h.Accept(context.Background(), multipartFiles(t,
		testFile{FieldAvatar, "Me Photo.PNG", "png-bytes"},
		testFile{FieldResume, "cv.pdf", "%PDF-1.4"},
	))
	require.NoError(t, err)
	require.Len(t, stored, 2)

	assert.True(t, strings.HasPrefix(stored[FieldAvatar], "uploads/1700000000000-"))
	assert.True(t, strings.HasSuffix(stored[FieldAvatar], "-Me_Photo.PNG"))
	assert.True(t, strings.HasSuffix(stored[FieldResume], "-cv.pdf"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(stored[FieldResume], PathPrefix)))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestHandler_AcceptNoFiles(t *testing.T) {
	h, _ := newTestHandler(t, 1<<20)

	stored, err := h.Accept(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestHandler_AcceptRejects(t *testing.T) {
	tests := []struct {
		name    string
		files   []testFile
		message string
	}{
		{"text avatar", []testFile{{FieldAvatar, "notes.txt", "x"}}, "only image files are allowed for avatar"},
		{"no extension", []testFile{{FieldAvatar, "photo", "x"}}, "only image files are allowed for avatar"},
		{"image resume", []testFile{{FieldResume, "cv.png", "x"}}, "only PDF files are allowed for resume"},
		{"too large", []testFile{{FieldAvatar, "a.gif", strings.Repeat("x", 64)}}, "avatar exceeds the 32 byte limit"},
		{"two avatars", []testFile{{FieldAvatar, "a.jpg", "x"}, {FieldAvatar, "b.jpg", "y"}}, "only one file is allowed for avatar"},
		{"unexpected field", []testFile{{FieldAvatar, "a.jpg", "x"}, {"photo", "b.jpg", "y"}}, "unexpected file field photo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, dir := newTestHandler(t, 32)

			_, err := h.Accept(context.Background(), multipartFiles(t, tt.files...))
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
			assert.Equal(t, tt.message, apperrors.MapErrorToHTTP(err).Message)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestHandler_InvalidResumeStoresNothing(t *testing.T) {
	h, dir := newTestHandler(t, 1<<20)

	_, err := h.Accept(context.Background(), multipartFiles(t,
		testFile{FieldAvatar, "ok.jpeg", "x"},
		testFile{FieldResume, "cv.docx", "y"},
	))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandler_Discard(t *testing.T) {
	h, dir := newTestHandler(t, 1<<20)

	stored, err := h.Accept(context.Background(), multipartFiles(t, testFile{FieldAvatar, "a.gif", "x"}))
	require.NoError(t, err)

	h.Discard(context.Background(), stored)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandler_StoredNameSanitized(t *testing.T) {
	h, _ := newTestHandler(t, 1<<20)

	name := h.storedName("../../etc/pa ss.png")
	assert.True(t, ValidName(name))
	assert.True(t, strings.HasSuffix(name, "-pa_ss.png"))
	assert.NotContains(t, name, "/")

	assert.True(t, strings.HasSuffix(h.storedName("..."), "-file"))

	long := h.storedName(strings.Repeat("a", 250) + ".png")
	assert.True(t, ValidName(long))
	assert.True(t, strings.HasSuffix(long, ".png"))
	assert.LessOrEqual(t, len(long), 13+1+8+1+maxBaseLen)
	assert.Equal(t, maxBaseLen, len(truncateBase(strings.Repeat("b", 300)+".pdf")))
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "a.pdf", strings.NewReader("data"), 4, "application/pdf"))
	assert.Error(t, store.Save(ctx, "a.pdf", strings.NewReader("again"), 5, "application/pdf"))

	rc, err := store.Open(ctx, "a.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "data", string(body))

	require.NoError(t, store.Remove(ctx, "a.pdf"))
	require.NoError(t, store.Remove(ctx, "a.pdf"))

	_, err = store.Open(ctx, "a.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../secret", "a/b.png", "", ".", ".."} {
		_, err := store.Open(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
		assert.ErrorIs(t, store.Save(ctx, name, strings.NewReader("x"), 1, ""), ErrInvalidName, name)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType("1-ab-cv.pdf"))
	assert.Equal(t, "image/png", ContentType("1-ab-a.PNG"))
	assert.Equal(t, "application/octet-stream", ContentType("noext"))
}
