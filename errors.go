package pdfmark

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/tsawler/pdfmark/reader"
)

// ErrorKind classifies a document-level failure.
type ErrorKind int

const (
	// KindIO covers filesystem and read failures.
	KindIO ErrorKind = iota

	// KindParse covers malformed documents the backend cannot read.
	KindParse

	// KindEncrypted marks encrypted documents. Decryption is not
	// attempted.
	KindEncrypted

	// KindInvalidStructure marks documents that parse but violate a
	// structural invariant, such as reporting zero pages.
	KindInvalidStructure
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindEncrypted:
		return "encrypted"
	case KindInvalidStructure:
		return "invalid structure"
	default:
		return "unknown"
	}
}

// Error is a classified document-level failure. It wraps the
// underlying error, so errors.Is still matches the reader sentinels.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pdfmark: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError classifies a backend failure into a typed Error. Nil stays
// nil.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	kind := KindParse
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, reader.ErrEncrypted):
		kind = KindEncrypted
	case errors.Is(err, reader.ErrInvalidStructure):
		kind = KindInvalidStructure
	case errors.As(err, &pathErr):
		kind = KindIO
	}
	return &Error{Kind: kind, Err: err}
}
