package storage

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	purchasingapp "github.com/erp/procurement/internal/application/purchasing"
)

var _ purchasingapp.AttachmentStorage = (*MemoryAttachmentStorage)(nil)

// MemoryAttachmentStorage keeps attachments in process memory. It backs
// local development when no object store is configured, and tests.
type MemoryAttachmentStorage struct {
	// BaseURL prefixes generated download links
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
}

// StoredObject is an attachment held by MemoryAttachmentStorage
type StoredObject struct {
	Data        []byte
	ContentType string
}

// NewMemoryAttachmentStorage creates an empty in-memory store
func NewMemoryAttachmentStorage(baseURL string) *MemoryAttachmentStorage {
	if baseURL == "" {
		baseURL = "http://localhost/attachments"
	}
	return &MemoryAttachmentStorage{
		BaseURL: baseURL,
		objects: make(map[string]StoredObject),
	}
}

// Upload stores a copy of data and returns storageKey
func (m *MemoryAttachmentStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) (string, error) {
	if storageKey == "" {
		return "", ErrStorageKeyRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = StoredObject{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
	}
	return storageKey, nil
}

// GenerateDownloadURL returns a link under BaseURL carrying the expiry
func (m *MemoryAttachmentStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrStorageKeyRequired
	}
	expiresAt := time.Now().Add(expiresIn)
	link := m.BaseURL + "/" + storageKey + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}

// Delete removes an object if present
func (m *MemoryAttachmentStorage) Delete(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return ErrStorageKeyRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, storageKey)
	return nil
}

// Get returns a stored object
func (m *MemoryAttachmentStorage) Get(storageKey string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[storageKey]
	return obj, ok
}

// Len returns the number of stored objects
func (m *MemoryAttachmentStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// BasePath is the path component of BaseURL that download links live under
func (m *MemoryAttachmentStorage) BasePath() string {
	u, err := url.Parse(m.BaseURL)
	if err != nil {
		return "/"
	}
	return "/" + strings.Trim(u.Path, "/")
}

// Handler serves the links produced by GenerateDownloadURL. Expired or
// unsigned links are refused with 403.
func (m *MemoryAttachmentStorage) Handler() http.Handler {
	prefix := strings.TrimSuffix(m.BasePath(), "/") + "/"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		key := strings.TrimPrefix(r.URL.Path, prefix)
		if key == "" || key == r.URL.Path {
			http.NotFound(w, r)
			return
		}
		expiresAt, err := time.Parse(time.RFC3339, r.URL.Query().Get("expires"))
		if err != nil || time.Now().After(expiresAt) {
			http.Error(w, "download link expired", http.StatusForbidden)
			return
		}
		obj, ok := m.Get(key)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if obj.ContentType != "" {
			w.Header().Set("Content-Type", obj.ContentType)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
		w.Header().Set("Cache-Control", "private, no-store")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.Data)
		}
	})
}
