// Package pdfmark converts PDF documents to structured Markdown. It
// classifies a document as text-based, scanned, image-based, or mixed
// without fully parsing it, then reconstructs reading order and
// document structure (headers, lists, code, tables, footnotes) from
// positioned text runs and serializes the result as Markdown.
//
// Basic usage:
//
//	result, err := pdfmark.Process("document.pdf")
//	if err != nil {
//	    // handle error
//	}
//	fmt.Print(result.Markdown)
//
// To check whether a document has extractable text before committing
// to a full conversion:
//
//	info, err := pdfmark.DetectType("document.pdf")
//	if err == nil && info.Type == detect.TextBased {
//	    // cheap to convert
//	}
//
// The lower-level packages (reader, detect, text, layout, markdown)
// are available for callers that need the individual pipeline stages.
package pdfmark

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/pdfmark/detect"
	"github.com/tsawler/pdfmark/font"
	"github.com/tsawler/pdfmark/layout"
	"github.com/tsawler/pdfmark/markdown"
	"github.com/tsawler/pdfmark/reader"
	"github.com/tsawler/pdfmark/text"
)

// Metadata carries the document-level facts that survive conversion.
type Metadata struct {
	Title     string
	PageCount int
}

// ProcessResult is the outcome of a full conversion.
type ProcessResult struct {
	// Type is the detected document type.
	Type detect.PdfType

	// Confidence of the type classification, in [0,1].
	Confidence float64

	// OCRRecommended indicates the document likely needs OCR to
	// recover all of its content.
	OCRRecommended bool

	// Markdown is the converted document. Empty unless the document is
	// text-based or mixed.
	Markdown string

	// RawText is the reading-order plain text. Empty for documents
	// without extractable text.
	RawText string

	Metadata Metadata

	// Warnings records page-level degradations that did not abort the
	// conversion.
	Warnings []string
}

// DetectType classifies the document at path using the default
// configuration.
func DetectType(path string) (*detect.Result, error) {
	return DetectTypeWithConfig(path, detect.DefaultConfig())
}

// DetectTypeWithConfig classifies the document at path.
func DetectTypeWithConfig(path string, cfg detect.Config) (*detect.Result, error) {
	doc, err := reader.Open(path)
	if err != nil {
		return nil, wrapError(err)
	}
	defer doc.Close()
	return detect.DetectWithConfig(doc, cfg)
}

// DetectTypeBytes classifies an in-memory document using the default
// configuration.
func DetectTypeBytes(buf []byte) (*detect.Result, error) {
	return DetectTypeBytesWithConfig(buf, detect.DefaultConfig())
}

// DetectTypeBytesWithConfig classifies an in-memory document.
func DetectTypeBytesWithConfig(buf []byte, cfg detect.Config) (*detect.Result, error) {
	doc, err := reader.FromBytes(buf)
	if err != nil {
		return nil, wrapError(err)
	}
	return detect.DetectWithConfig(doc, cfg)
}

// ExtractText returns the document's plain text in reading order.
func ExtractText(path string) (string, error) {
	doc, err := reader.Open(path)
	if err != nil {
		return "", wrapError(err)
	}
	defer doc.Close()
	return extractText(doc)
}

// ExtractTextBytes is ExtractText for an in-memory document.
func ExtractTextBytes(buf []byte) (string, error) {
	doc, err := reader.FromBytes(buf)
	if err != nil {
		return "", wrapError(err)
	}
	return extractText(doc)
}

// ExtractTextWithPositions returns the document's positioned text
// runs in page order, extraction order within each page.
func ExtractTextWithPositions(path string) ([]text.Item, error) {
	doc, err := reader.Open(path)
	if err != nil {
		return nil, wrapError(err)
	}
	defer doc.Close()

	pages, _ := extractPages(doc, markdown.DefaultOptions())
	var items []text.Item
	for _, p := range pages {
		items = append(items, p.items...)
	}
	return items, nil
}

// ExtractTextWithPositionsBytes is ExtractTextWithPositions for an
// in-memory document.
func ExtractTextWithPositionsBytes(buf []byte) ([]text.Item, error) {
	doc, err := reader.FromBytes(buf)
	if err != nil {
		return nil, wrapError(err)
	}

	pages, _ := extractPages(doc, markdown.DefaultOptions())
	var items []text.Item
	for _, p := range pages {
		items = append(items, p.items...)
	}
	return items, nil
}

// ToMarkdown converts already-extracted plain text to Markdown using
// textual structure only.
func ToMarkdown(plain string, opts markdown.Options) string {
	return markdown.ToMarkdown(plain, opts)
}

// Process classifies and converts the document at path.
func Process(path string) (*ProcessResult, error) {
	return ProcessWithOptions(path, markdown.DefaultOptions())
}

// ProcessWithOptions classifies and converts the document at path.
func ProcessWithOptions(path string, opts markdown.Options) (*ProcessResult, error) {
	doc, err := reader.Open(path)
	if err != nil {
		return nil, wrapError(err)
	}
	defer doc.Close()
	return process(doc, opts)
}

// ProcessBytes classifies and converts an in-memory document.
func ProcessBytes(buf []byte) (*ProcessResult, error) {
	return ProcessBytesWithOptions(buf, markdown.DefaultOptions())
}

// ProcessBytesWithOptions classifies and converts an in-memory
// document.
func ProcessBytesWithOptions(buf []byte, opts markdown.Options) (*ProcessResult, error) {
	doc, err := reader.FromBytes(buf)
	if err != nil {
		return nil, wrapError(err)
	}
	return process(doc, opts)
}

func process(doc *reader.Document, opts markdown.Options) (*ProcessResult, error) {
	det, err := detect.Detect(doc)
	if err != nil {
		return nil, err
	}

	res := &ProcessResult{
		Type:           det.Type,
		Confidence:     det.Confidence,
		OCRRecommended: det.OCRRecommended,
		Metadata: Metadata{
			Title:     det.Title,
			PageCount: det.PageCount,
		},
	}

	if det.Type == detect.Scanned || det.Type == detect.ImageBased {
		res.Warnings = append(res.Warnings, "no extractable text; OCR is required to recover content")
		return res, nil
	}

	pages, warnings := extractPages(doc, opts)
	res.Warnings = append(res.Warnings, warnings...)
	res.RawText = joinPlainText(pages)
	res.Markdown = markdown.Render(joinBlocks(pages), opts)
	return res, nil
}

// pageOutput is the per-page result of the parallel extraction phase.
type pageOutput struct {
	number int
	items  []text.Item
	lines  []*layout.Line
	blocks []layout.Block
}

// pageInput is everything a page worker needs, prefetched up front.
// The backend dereferences objects lazily and is not safe for
// concurrent access, so all reads happen before the workers start.
type pageInput struct {
	number        int
	width, height float64
	content       []byte
	fonts         font.Map
	warning       string
}

// extractPages runs the CPU side of the pipeline (parse, decode,
// reconstruct, analyze) across pages in parallel and returns the
// results in ascending page order. Page-level failures degrade to
// warnings.
func extractPages(doc *reader.Document, opts markdown.Options) ([]pageOutput, []string) {
	inputs := loadPages(doc)

	analyzeCfg := layout.DefaultAnalyzeConfig()
	analyzeCfg.DetectHeaders = opts.DetectHeaders
	analyzeCfg.DetectLists = opts.DetectLists
	analyzeCfg.DetectCode = opts.DetectCode
	analyzeCfg.BaseFontSize = opts.BaseFontSize

	outputs := make([]pageOutput, len(inputs))
	warnings := make([]string, len(inputs))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range inputs {
		in := &inputs[i]
		out := &outputs[i]
		warn := &warnings[i]

		g.Go(func() error {
			out.number = in.number
			*warn = in.warning
			if in.content == nil {
				return nil
			}

			items := text.NewExtractor(in.fonts).Extract(in.content)
			if len(items) == 0 {
				if items = text.ExtractRaw(in.content); len(items) > 0 {
					*warn = fmt.Sprintf("page %d: structured extraction failed, used raw text scan", in.number)
				}
			}
			for j := range items {
				items[j].Page = in.number
			}
			out.items = items

			out.lines = layout.Reconstruct(layout.Page{
				Number: in.number,
				Width:  in.width,
				Items:  items,
			}, layout.DefaultConfig())

			out.blocks = layout.Analyze(out.lines, in.height, analyzeCfg)
			return nil
		})
	}
	g.Wait()

	var flat []string
	for _, w := range warnings {
		if w != "" {
			flat = append(flat, w)
		}
	}
	return outputs, flat
}

// loadPages reads content, fonts, and geometry for every page. All
// backend access is sequential; read failures become warnings carried
// on the page.
func loadPages(doc *reader.Document) []pageInput {
	count := doc.PageCount()
	inputs := make([]pageInput, count)

	for i := range inputs {
		nr := i + 1
		in := &inputs[i]
		in.number = nr
		in.width, in.height = doc.PageSize(nr)

		content, err := doc.PageContent(nr)
		if err != nil {
			in.warning = fmt.Sprintf("page %d: unreadable content stream, page skipped", nr)
			continue
		}
		in.content = content

		infos, err := doc.PageFonts(nr)
		if err != nil {
			in.warning = fmt.Sprintf("page %d: font resources unavailable, text decoded approximately", nr)
			infos = nil
		}
		in.fonts = font.NewMap(infos)
	}

	return inputs
}

// extractText runs the pipeline up to reading-order lines and joins
// their text.
func extractText(doc *reader.Document) (string, error) {
	pages, _ := extractPages(doc, markdown.DefaultOptions())
	return joinPlainText(pages), nil
}

// joinPlainText joins page line texts, pages separated by a blank
// line.
func joinPlainText(pages []pageOutput) string {
	var parts []string
	for _, p := range pages {
		var lines []string
		for _, l := range p.lines {
			if t := strings.TrimSpace(l.Text()); t != "" {
				lines = append(lines, t)
			}
		}
		if len(lines) > 0 {
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(parts, "\n\n")
}

// joinBlocks concatenates page blocks with a page break between
// non-empty pages.
func joinBlocks(pages []pageOutput) []layout.Block {
	var blocks []layout.Block
	for _, p := range pages {
		if len(p.blocks) == 0 {
			continue
		}
		if len(blocks) > 0 {
			blocks = append(blocks, layout.Block{Kind: layout.PageBreak})
		}
		blocks = append(blocks, p.blocks...)
	}
	return blocks
}
