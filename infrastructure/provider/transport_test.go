package provider

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachingTransport_CachesGETResponse(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dbPath := filepath.Join(t.TempDir(), "cache.db")
	transport, err := NewCachingTransport(dbPath, nil)
	require.NoError(t, err)
	defer transport.Close()

	client := &http.Client{Transport: transport}

	for range 2 {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, int64(1), hits.Load())
}

func TestCachingTransport_DoesNotCacheNon2xx(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dbPath := filepath.Join(t.TempDir(), "cache.db")
	transport, err := NewCachingTransport(dbPath, nil)
	require.NoError(t, err)
	defer transport.Close()

	client := &http.Client{Transport: transport}
	for range 2 {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, int64(2), hits.Load())
}
