//go:build !ocr

// Package ocr recognizes text in page images from scanned or
// image-based documents.
//
// This is the stub used when the "ocr" build tag is not set: every
// operation returns ErrOCRNotEnabled. To enable recognition, rebuild
// with the tag:
//
//	go build -tags ocr
//
// which requires Tesseract to be installed on the system.
package ocr

import "errors"

// ErrOCRNotEnabled is returned when recognition is requested but OCR
// support was not compiled in.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client is the stub client. Every operation fails with
// ErrOCRNotEnabled.
type Client struct{}

// New returns ErrOCRNotEnabled.
func New() (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op, safe on a nil client.
func (c *Client) Close() error {
	return nil
}

// SetLanguage returns ErrOCRNotEnabled.
func (c *Client) SetLanguage(lang string) error {
	return ErrOCRNotEnabled
}

// RecognizeImage returns ErrOCRNotEnabled.
func (c *Client) RecognizeImage(data []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

// RecognizePage returns ErrOCRNotEnabled.
func (c *Client) RecognizePage(data []byte) (string, error) {
	return "", ErrOCRNotEnabled
}
