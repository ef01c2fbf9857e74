package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// maxDownloadSize caps remote images at 50 MiB.
const maxDownloadSize = 50 << 20

var httpClient = &http.Client{Timeout: 30 * time.Second}

// DownloadImage fetches a remote image into a temporary file.
// The caller owns the returned file and is responsible for closing and removing it.
func DownloadImage(ctx context.Context, uri string) (*os.File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid image URL %q: %w", uri, err)
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to download image from %s: %w", uri, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to download image from %s: status %s", uri, res.Status)
	}

	tmpfile, err := os.CreateTemp("", "picperfect-*")
	if err != nil {
		return nil, fmt.Errorf("unable to create temporary file: %w", err)
	}
	cleanup := func() {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
	}

	if _, err := io.Copy(tmpfile, io.LimitReader(res.Body, maxDownloadSize)); err != nil {
		cleanup()
		return nil, fmt.Errorf("unable to store downloaded image: %w", err)
	}

	ctype, err := DetectContentType(tmpfile)
	if err != nil {
		cleanup()
		return nil, err
	}
	if !strings.HasPrefix(ctype, "image/") {
		cleanup()
		return nil, fmt.Errorf("the downloaded file is not an image (%s)", ctype)
	}

	return tmpfile, nil
}

// IsValidUrl reports whether uri is an absolute URL with a scheme and a host.
func IsValidUrl(uri string) bool {
	if _, err := url.ParseRequestURI(uri); err != nil {
		return false
	}
	u, err := url.Parse(uri)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// DetectContentType sniffs the MIME type from the first 512 bytes of f
// and rewinds f to the beginning afterwards.
func DetectContentType(f io.ReadSeeker) (string, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	buffer := make([]byte, 512)
	n, err := f.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buffer[:n]), nil
}
