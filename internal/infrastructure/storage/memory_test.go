package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAttachmentStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAttachmentStorage("")
	assert.Equal(t, "http://localhost/attachments", m.BaseURL)

	data := []byte("receipt")
	ref, err := m.Upload(ctx, "purchase-orders/1/receipt.txt", data, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "purchase-orders/1/receipt.txt", ref)

	data[0] = 'X'
	obj, ok := m.Get(ref)
	require.True(t, ok)
	assert.Equal(t, "receipt", string(obj.Data), "upload keeps its own copy")
	assert.Equal(t, "text/plain", obj.ContentType)

	link, expiresAt, err := m.GenerateDownloadURL(ctx, ref, time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://localhost/attachments/purchase-orders/1/receipt.txt?expires="))
	assert.True(t, expiresAt.After(time.Now()))

	require.NoError(t, m.Delete(ctx, ref))
	assert.Equal(t, 0, m.Len())
}

func TestMemoryAttachmentStorage_EmptyKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAttachmentStorage("https://files.test")

	_, err := m.Upload(ctx, "", []byte("x"), "")
	assert.ErrorIs(t, err, ErrStorageKeyRequired)
	_, _, err = m.GenerateDownloadURL(ctx, "", time.Minute)
	assert.ErrorIs(t, err, ErrStorageKeyRequired)
	assert.ErrorIs(t, m.Delete(ctx, ""), ErrStorageKeyRequired)
}

func TestMemoryAttachmentStorage_Handler(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryAttachmentStorage("http://localhost:8080/attachments")
	assert.Equal(t, "/attachments", m.BasePath())
	handler := m.Handler()

	ref, err := m.Upload(ctx, "purchase-orders/7/1700000000000-quote.pdf", []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)

	get := func(link string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(link, "http://localhost:8080"), nil))
		return w
	}

	t.Run("serves a valid link", func(t *testing.T) {
		link, _, err := m.GenerateDownloadURL(ctx, ref, time.Minute)
		require.NoError(t, err)

		w := get(link)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4", w.Body.String())
	})

	t.Run("expired link is refused", func(t *testing.T) {
		link, _, err := m.GenerateDownloadURL(ctx, ref, -time.Minute)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, get(link).Code)
	})

	t.Run("link without expiry is refused", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, get("/attachments/"+ref).Code)
	})

	t.Run("unknown key is not found", func(t *testing.T) {
		link, _, err := m.GenerateDownloadURL(ctx, "purchase-orders/7/missing.pdf", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, get(link).Code)
	})

	t.Run("path outside the base is not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/files/"+ref).Code)
	})
}
