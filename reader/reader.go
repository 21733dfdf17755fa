// Package reader provides read-only access to a PDF document through
// pdfcpu. It is the "document backend" for the rest of the library:
// page enumeration, raw content-stream bytes, per-font metadata, and
// document metadata. Everything above this package works on those
// primitives and never touches the PDF container directly.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrEncrypted is returned when the document is encrypted. No
// decryption is attempted.
var ErrEncrypted = errors.New("pdf is encrypted")

// ErrInvalidStructure is returned when the document violates a
// structural invariant the library depends on (e.g. zero pages).
var ErrInvalidStructure = errors.New("invalid pdf structure")

// Document is an open PDF document. It is read-only and safe to share
// across sequential consumers; concurrent page access must be
// serialized by the caller because pdfcpu dereferences objects lazily.
type Document struct {
	ctx    *model.Context
	closer io.Closer
}

// Open opens a PDF file from disk.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	doc, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	doc.closer = f
	return doc, nil
}

// New reads a PDF document from a seekable stream.
func New(rs io.ReadSeeker) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, wrapReadError(err)
	}

	if ctx.PageCount < 1 {
		return nil, fmt.Errorf("%w: document has no pages", ErrInvalidStructure)
	}

	return &Document{ctx: ctx}, nil
}

// FromBytes reads a PDF document from an in-memory buffer.
func FromBytes(data []byte) (*Document, error) {
	return New(bytes.NewReader(data))
}

// Close releases the underlying file, if the document was opened from
// a path. It is safe to call on buffer-backed documents.
func (d *Document) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

// wrapReadError classifies pdfcpu read failures. Encryption is
// reported as ErrEncrypted; anything else is a parse failure.
func wrapReadError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
		return fmt.Errorf("%w: %v", ErrEncrypted, err)
	}
	return fmt.Errorf("parse pdf: %w", err)
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// IsEncrypted reports whether the document carries an encryption
// dictionary. Documents that fail to open because of encryption are
// reported through ErrEncrypted instead.
func (d *Document) IsEncrypted() bool {
	return d.ctx.Encrypt != nil
}

// PageContent returns the raw, decompressed content stream bytes for a
// page (1-based). A page without content yields an empty slice.
func (d *Document) PageContent(pageNr int) ([]byte, error) {
	if pageNr < 1 || pageNr > d.ctx.PageCount {
		return nil, fmt.Errorf("%w: page %d out of range 1..%d", ErrInvalidStructure, pageNr, d.ctx.PageCount)
	}

	r, err := pdfcpu.ExtractPageContent(d.ctx, pageNr)
	if err != nil {
		return nil, fmt.Errorf("page %d content: %w", pageNr, err)
	}
	if r == nil {
		return nil, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("page %d content: %w", pageNr, err)
	}
	return data, nil
}

// PageSize returns the media box dimensions of a page in points.
// Falls back to US Letter when the media box cannot be resolved.
func (d *Document) PageSize(pageNr int) (width, height float64) {
	width, height = 612, 792

	_, _, inh, err := d.ctx.PageDict(pageNr, false)
	if err != nil || inh == nil || inh.MediaBox == nil {
		return width, height
	}
	return inh.MediaBox.Width(), inh.MediaBox.Height()
}

// Title returns the document title from the Info dictionary, or the
// empty string when absent or undecodable.
func (d *Document) Title() string {
	if d.ctx.Info == nil {
		return ""
	}

	info, err := d.ctx.DereferenceDict(*d.ctx.Info)
	if err != nil || info == nil {
		return ""
	}

	obj, found := info.Find("Title")
	if !found {
		return ""
	}
	return decodeTextObject(d.ctx, obj)
}

// decodeTextObject resolves a PDF text string object to a Go string.
// pdfcpu's helpers handle both PDFDocEncoding and UTF-16BE (BOM).
func decodeTextObject(ctx *model.Context, obj types.Object) string {
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return ""
	}

	switch v := obj.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	}
	return ""
}

// ImageStats summarizes the image XObjects referenced by a page.
type ImageStats struct {
	// Count is the number of image XObjects on the page.
	Count int

	// MaxArea is the pixel area (Width×Height) of the largest image.
	MaxArea int64
}

// PageImageStats inspects the image XObjects referenced by a page
// without decoding any image data. Used by the classifier's template
// image heuristic.
func (d *Document) PageImageStats(pageNr int) ImageStats {
	var stats ImageStats

	for _, objNr := range pdfcpu.ImageObjNrs(d.ctx, pageNr) {
		entry, ok := d.ctx.Table[objNr]
		if !ok || entry == nil || entry.Free {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}

		stats.Count++

		w := sd.IntEntry("Width")
		h := sd.IntEntry("Height")
		if w != nil && h != nil {
			area := int64(*w) * int64(*h)
			if area > stats.MaxArea {
				stats.MaxArea = area
			}
		}
	}

	return stats
}

// PageImageJPEGs returns the raw bytes of DCT-encoded (JPEG) images on
// a page. JPEG streams can be handed to consumers (OCR, thumbnailing)
// without rasterization; images in other encodings are skipped because
// reassembling them would amount to rendering, which this library does
// not do.
func (d *Document) PageImageJPEGs(pageNr int) [][]byte {
	var images [][]byte

	for _, objNr := range pdfcpu.ImageObjNrs(d.ctx, pageNr) {
		// DereferenceStreamDict loads the raw stream content, which
		// plain xref table access does not guarantee.
		sd, _, err := d.ctx.DereferenceStreamDict(*types.NewIndirectRef(objNr, 0))
		if err != nil || sd == nil {
			continue
		}

		for _, f := range sd.FilterPipeline {
			if f.Name == "DCTDecode" {
				images = append(images, sd.Raw)
				break
			}
		}
	}

	return images
}
