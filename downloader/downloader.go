// Package downloader fetches the reference-locale archive over HTTP.
package downloader

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

var client = &http.Client{Timeout: 60 * time.Second}

// Fetch downloads the given URL to the destination file, creating parent
// directories as necessary, and returns the number of bytes written.
func Fetch(url, dest string) (written int64, err error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return 0, err
	}
	// Some mirrors reject requests without a browser user agent
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, errors.New(fmt.Sprintf("downloader: GET %v returned %v", url, resp.Status))
	}

	if err = os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, err
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}

	written, err = io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		return written, err
	}

	return written, out.Close()
}
