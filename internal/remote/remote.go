// Package remote renders PlantUML diagrams to images through a PlantUML server.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

// alphabet is the PlantUML flavour of base64
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

var encoding = base64.NewEncoding(alphabet).WithPadding(base64.NoPadding)

// ImageExtensions are the output extensions served by the PlantUML server
var ImageExtensions = []string{"svg", "png", "txt"}

// IsImageExtension reports whether ext (with or without the leading dot)
// must be rendered remotely instead of written as diagram text
func IsImageExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range ImageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Encode compresses diagram text with raw DEFLATE and encodes it with the
// PlantUML alphabet, producing the path segment the server expects
func Encode(text string) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := w.Write([]byte(text)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return encoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode
func Decode(encoded string) (string, error) {
	raw, err := encoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid diagram encoding: %w", err)
	}
	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()
	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("invalid diagram data: %w", err)
	}
	return string(text), nil
}

// Client talks to a PlantUML server
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: time.Minute,
		},
	}
}

// URL returns the address of the rendered diagram
func (c *Client) URL(format, text string) (string, error) {
	encoded, err := Encode(text)
	if err != nil {
		return "", err
	}
	return c.BaseURL + "/" + format + "/" + encoded, nil
}

// Fetch renders text as format (svg, png or txt) and returns the image bytes
func (c *Client) Fetch(ctx context.Context, format, text string) ([]byte, error) {
	if !IsImageExtension(format) {
		return nil, fmt.Errorf("unsupported image format %q (expected %s)", format, strings.Join(ImageExtensions, ", "))
	}
	url, err := c.URL(strings.ToLower(strings.TrimPrefix(format, ".")), text)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach PlantUML server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server error: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
