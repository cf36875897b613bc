package provider

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/codesense-dev/codesense/internal/database"
)

// cacheEntry is the GORM model for cached HTTP responses.
type cacheEntry struct {
	Key        string `gorm:"primaryKey;column:key"`
	StatusCode int    `gorm:"column:status_code"`
	Header     []byte `gorm:"column:header"`
	Body       []byte `gorm:"column:body"`
}

func (cacheEntry) TableName() string { return "provider_http_cache" }

// CachingTransport is an http.RoundTripper that caches request/response
// pairs of any method in a SQLite database, keyed by the SHA-256 of
// method + URL + request body. Only 2xx responses are cached. Cache read/write errors are
// non-fatal — they silently fall through to the inner transport.
type CachingTransport struct {
	inner http.RoundTripper
	db    database.Database
}

// NewCachingTransport creates a CachingTransport backed by a SQLite
// database at path. If inner is nil, http.DefaultTransport is used.
func NewCachingTransport(path string, inner http.RoundTripper) (*CachingTransport, error) {
	if inner == nil {
		inner = http.DefaultTransport
	}

	db, err := database.New("sqlite:///" + path)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&cacheEntry{}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &CachingTransport{inner: inner, db: db}, nil
}

// Close closes the underlying SQLite database.
func (t *CachingTransport) Close() error {
	return t.db.Close()
}

// RoundTrip implements http.RoundTripper.
func (t *CachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = b
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	key := cacheKey(req.Method, req.URL.String(), body)

	if resp, ok := t.readCache(key, req); ok {
		return resp, nil
	}

	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	_ = resp.Body.Close()

	t.writeCache(key, resp.StatusCode, resp.Header, respBody)

	resp.Body = io.NopCloser(bytes.NewReader(respBody))
	return resp, nil
}

func cacheKey(method, url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte("\n"))
	h.Write([]byte(url))
	h.Write([]byte("\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (t *CachingTransport) readCache(key string, req *http.Request) (*http.Response, bool) {
	var entry cacheEntry
	if err := t.db.GORM().Where("`key` = ?", key).First(&entry).Error; err != nil {
		return nil, false
	}

	var header http.Header
	if err := json.Unmarshal(entry.Header, &header); err != nil {
		return nil, false
	}

	return &http.Response{
		StatusCode: entry.StatusCode,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(entry.Body)),
		Request:    req,
	}, true
}

func (t *CachingTransport) writeCache(key string, statusCode int, header http.Header, body []byte) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return
	}

	entry := cacheEntry{Key: key, StatusCode: statusCode, Header: headerJSON, Body: body}
	_ = t.db.GORM().Save(&entry).Error
}

var _ http.RoundTripper = (*CachingTransport)(nil)
