package downloader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	payload := []byte("zip bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "dl", "en.zip")
	written, err := Fetch(srv.URL, dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), written)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Fetch(srv.URL, filepath.Join(t.TempDir(), "en.zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchBadUrl(t *testing.T) {
	_, err := Fetch("http://127.0.0.1:0/en.zip", filepath.Join(t.TempDir(), "en.zip"))
	assert.Error(t, err)
}
