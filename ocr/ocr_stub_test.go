//go:build !ocr

package ocr

import (
	"errors"
	"testing"
)

func TestNewReturnsNotEnabled(t *testing.T) {
	client, err := New()
	if !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("New() err = %v, want ErrOCRNotEnabled", err)
	}
	if client != nil {
		t.Error("New() returned a client with OCR disabled")
	}
}

func TestCloseOnNilClient(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client: %v", err)
	}
}

func TestRecognizePageNotEnabled(t *testing.T) {
	var client *Client
	if _, err := client.RecognizePage([]byte{0xFF, 0xD8}); !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("RecognizePage err = %v, want ErrOCRNotEnabled", err)
	}
}
