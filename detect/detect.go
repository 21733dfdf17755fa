// Package detect implements the fast heuristic PDF type classifier.
// It samples a bounded number of pages, counts marker operators with
// the byte-level scanner, and derives a document type with a
// confidence score. No page is ever fully interpreted; classification
// of a multi-hundred-page document touches only the sampled streams.
package detect

import (
	"fmt"
	"time"

	"github.com/tsawler/pdfmark/reader"
	"github.com/tsawler/pdfmark/scan"
)

// PdfType is the classification of a document's content.
type PdfType int

const (
	// TextBased documents carry extractable text on most pages.
	TextBased PdfType = iota

	// Scanned documents show neither text nor image operators in their
	// content streams, typical of pages rendered outside the content
	// stream model.
	Scanned

	// ImageBased documents draw images but no extractable text.
	ImageBased

	// Mixed documents carry text on some pages but not enough to
	// trust text extraction alone.
	Mixed
)

// String returns the canonical name of the type.
func (t PdfType) String() string {
	switch t {
	case TextBased:
		return "text-based"
	case Scanned:
		return "scanned"
	case ImageBased:
		return "image-based"
	case Mixed:
		return "mixed"
	}
	return fmt.Sprintf("PdfType(%d)", int(t))
}

// Config controls sampling and the text-page decision.
type Config struct {
	// MaxPagesToSample bounds how many pages are scanned.
	MaxPagesToSample int

	// MinTextOpsPerPage is the operator count at which a page counts
	// as a text page.
	MinTextOpsPerPage int

	// TextPageRatioThreshold is the text-page ratio at or above which
	// the document is text based.
	TextPageRatioThreshold float64

	// TemplateImageMinPixels is the pixel area above which a page
	// image is considered a full-page template. Text-based documents
	// where every sampled page carries such an image are reclassified
	// as mixed, since the text may be a partial overlay on scans.
	TemplateImageMinPixels int64
}

// DefaultConfig returns the default detection configuration.
func DefaultConfig() Config {
	return Config{
		MaxPagesToSample:       5,
		MinTextOpsPerPage:      3,
		TextPageRatioThreshold: 0.6,
		TemplateImageMinPixels: 500_000,
	}
}

// Result is the outcome of a classification.
type Result struct {
	// Type is the derived document type.
	Type PdfType

	// Confidence is in [0,1]: the distance of the observed text ratio
	// from the decision boundary, raised slightly when the sample
	// covered most of the document.
	Confidence float64

	// PageCount is the backend-reported page count.
	PageCount int

	// Title is the document title, when the backend knows one.
	Title string

	// OCRRecommended indicates the document likely needs OCR to
	// recover all content, even when some text was found.
	OCRRecommended bool

	// SampledPages lists the 1-based pages that were scanned.
	SampledPages []int

	// Elapsed is the wall time the classification took.
	Elapsed time.Duration
}

// Source is the document access the classifier needs. *reader.Document
// satisfies it.
type Source interface {
	PageCount() int
	PageContent(pageNr int) ([]byte, error)
	PageImageStats(pageNr int) reader.ImageStats
	Title() string
}

// Detect classifies a document using the default configuration.
func Detect(src Source) (*Result, error) {
	return DetectWithConfig(src, DefaultConfig())
}

// DetectWithConfig classifies a document. Scan failures on individual
// pages degrade to zero counts; the call itself fails only on invalid
// configuration.
func DetectWithConfig(src Source, cfg Config) (*Result, error) {
	if cfg.MaxPagesToSample < 1 {
		return nil, fmt.Errorf("detect: MaxPagesToSample must be positive, got %d", cfg.MaxPagesToSample)
	}
	if cfg.TextPageRatioThreshold < 0 || cfg.TextPageRatioThreshold > 1 {
		return nil, fmt.Errorf("detect: TextPageRatioThreshold must be in [0,1], got %g", cfg.TextPageRatioThreshold)
	}

	start := time.Now()

	res := &Result{
		PageCount: src.PageCount(),
		Title:     src.Title(),
	}

	res.SampledPages = samplePages(res.PageCount, cfg.MaxPagesToSample)
	if len(res.SampledPages) == 0 {
		res.Type = ImageBased
		res.Elapsed = time.Since(start)
		return res, nil
	}

	textPages := 0
	imageOps := 0
	templatePages := 0

	for _, pageNr := range res.SampledPages {
		content, err := src.PageContent(pageNr)
		if err != nil {
			// A page the backend cannot surface contributes zero
			// counts, the same as an empty stream.
			content = nil
		}

		counts := scan.Count(content)
		if counts.TextOps >= cfg.MinTextOpsPerPage {
			textPages++
		}
		imageOps += counts.ImageOps

		if stats := src.PageImageStats(pageNr); stats.MaxArea >= cfg.TemplateImageMinPixels {
			templatePages++
		}
	}

	sampled := len(res.SampledPages)
	ratio := float64(textPages) / float64(sampled)

	switch {
	case ratio >= cfg.TextPageRatioThreshold:
		res.Type = TextBased
	case ratio == 0 && imageOps > 0:
		res.Type = ImageBased
		res.OCRRecommended = true
	case ratio == 0:
		res.Type = Scanned
		res.OCRRecommended = true
	default:
		res.Type = Mixed
		res.OCRRecommended = true
	}

	// Full-page images behind the text on every sampled page suggest
	// scanned pages with a partial text overlay.
	if res.Type == TextBased && templatePages == sampled {
		res.Type = Mixed
		res.OCRRecommended = true
	}

	res.Confidence = confidence(ratio, cfg.TextPageRatioThreshold, sampled, res.PageCount)
	res.Elapsed = time.Since(start)
	return res, nil
}

// samplePages picks up to max pages: the first, the last, and pages
// evenly distributed between them. Returns 1-based page numbers in
// ascending order.
func samplePages(pageCount, max int) []int {
	if pageCount < 1 {
		return nil
	}
	if pageCount <= max {
		pages := make([]int, pageCount)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	// With a cap of one there is no room for the last page.
	if max == 1 {
		return []int{1}
	}

	pages := make([]int, 0, max)
	pages = append(pages, 1)

	// Interior pages at even intervals.
	interior := max - 2
	for i := 1; i <= interior; i++ {
		p := 1 + i*(pageCount-1)/(interior+1)
		if p > pages[len(pages)-1] && p < pageCount {
			pages = append(pages, p)
		}
	}

	pages = append(pages, pageCount)
	return pages
}

// confidence scales the distance between the observed ratio and the
// decision boundary into [0,1], with a bonus for sample completeness.
func confidence(ratio, threshold float64, sampled, pageCount int) float64 {
	var dist float64
	if ratio >= threshold {
		if threshold >= 1 {
			dist = 1
		} else {
			dist = (ratio - threshold) / (1 - threshold)
		}
	} else {
		if threshold <= 0 {
			dist = 1
		} else {
			dist = (threshold - ratio) / threshold
		}
	}

	// Base confidence never drops below 0.5: the boundary case is a
	// coin flip, not a zero-information result.
	conf := 0.5 + 0.4*dist

	if pageCount > 0 {
		completeness := float64(sampled) / float64(pageCount)
		if completeness > 1 {
			completeness = 1
		}
		conf += 0.1 * completeness
	}

	if conf > 1 {
		conf = 1
	}
	return conf
}
