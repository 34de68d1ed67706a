// Package loader decodes source images from files, URLs, or raw bytes,
// with WebP support beyond the stdlib decoders.
package loader

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const httpTimeout = 30 * time.Second

// FromFile loads an image from a file path.
func FromFile(path string) (image.Image, error) {
	// imaging.Open covers all registered decoders, webp included via
	// the x/image import above.
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.Contains(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
	}
	if img, _, err := image.Decode(f); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("loader: unknown image format for %s", path)
}

// FromURL downloads and decodes an image over http(s).
func FromURL(imageURL string) (image.Image, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("loader: invalid URL: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("loader: unsupported URL scheme: %s", parsed.Scheme)
	}

	client := &http.Client{Timeout: httpTimeout}
	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("loader: failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", "Grid-Splitter/1.0 (+https://github.com/menta2k/grid-splitter)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loader: failed to download image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loader: failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("loader: URL does not point to an image (Content-Type: %s)", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("loader: failed to read image data: %v", err)
	}
	return FromBytes(data)
}

// FromBytes decodes an image from raw bytes, trying the registered
// decoders first and chai2010 webp as a fallback.
func FromBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("loader: unknown or unsupported image format")
}

// IsURL reports whether source will be treated as a download rather
// than a file path.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load resolves source as either a URL or a file path.
func Load(source string) (image.Image, error) {
	if IsURL(source) {
		return FromURL(source)
	}
	return FromFile(source)
}
