//go:build ocr

// Package ocr recognizes text in page images from scanned or
// image-based documents. It wraps the Tesseract engine via gosseract
// and requires Tesseract to be installed on the system. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	// Registered so RecognizePage can normalize the image formats
	// found embedded in documents.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "image/jpeg"
)

// Client wraps a Tesseract session. Close it when done to release
// engine resources.
type Client struct {
	client *gosseract.Client
}

// New creates an OCR client with the engine defaults (English).
func New() (*Client, error) {
	return &Client{client: gosseract.NewClient()}, nil
}

// Close releases the engine resources. Safe on a nil client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// SetLanguage sets the recognition language. Multiple languages join
// with "+", for example "eng+fra".
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

// RecognizeImage runs recognition on raw image bytes in any format
// Tesseract accepts directly (PNG, JPEG, TIFF). The result is trimmed
// of surrounding whitespace.
func (c *Client) RecognizeImage(data []byte) (string, error) {
	if err := c.client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// RecognizePage recognizes one extracted page image, re-encoding it
// as PNG first. Page images surface in whatever format the document
// embedded (JPEG, TIFF, BMP), not all of which every Tesseract build
// accepts.
func (c *Client) RecognizePage(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode page image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page image: %w", err)
	}
	return c.RecognizeImage(buf.Bytes())
}
