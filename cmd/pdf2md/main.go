// Command pdf2md converts a text-based PDF to Markdown.
//
// Usage:
//
//	pdf2md [-o out.md] [--json] <pdf>
//
// Without -o the Markdown goes to stdout. With --json the full
// processing result (type, markdown, warnings) is emitted instead.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tsawler/pdfmark"
	"github.com/tsawler/pdfmark/detect"
	"github.com/tsawler/pdfmark/markdown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pdf2md: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: pdf2md [flags] <pdf>\n")
		flag.PrintDefaults()
	}
	outPath := flag.String("o", "", "Write Markdown to this file instead of stdout")
	asJSON := flag.Bool("json", false, "Emit the full processing result as JSON")
	noHeaders := flag.Bool("no-headers", false, "Disable header detection")
	noLists := flag.Bool("no-lists", false, "Disable list detection")
	noCode := flag.Bool("no-code", false, "Disable code block detection")
	baseSize := flag.Float64("base-font-size", 0, "Body font size override for header detection (0 = automatic)")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	opts := markdown.DefaultOptions()
	opts.DetectHeaders = !*noHeaders
	opts.DetectLists = !*noLists
	opts.DetectCode = !*noCode
	opts.BaseFontSize = *baseSize

	res, err := pdfmark.ProcessWithOptions(flag.Arg(0), opts)
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "pdf2md: warning: %s\n", w)
	}

	if *asJSON {
		return writeJSON(os.Stdout, res)
	}

	if res.Type == detect.Scanned || res.Type == detect.ImageBased {
		return fmt.Errorf("document is %s; no extractable text (OCR required)", res.Type)
	}

	if *outPath != "" {
		return os.WriteFile(*outPath, []byte(res.Markdown), 0o644)
	}
	_, err = fmt.Print(res.Markdown)
	return err
}

func writeJSON(w *os.File, res *pdfmark.ProcessResult) error {
	out := struct {
		Type           string   `json:"type"`
		Confidence     float64  `json:"confidence"`
		OCRRecommended bool     `json:"ocr_recommended"`
		Markdown       string   `json:"markdown,omitempty"`
		RawText        string   `json:"raw_text,omitempty"`
		Title          string   `json:"title,omitempty"`
		PageCount      int      `json:"page_count"`
		Warnings       []string `json:"warnings,omitempty"`
	}{
		Type:           res.Type.String(),
		Confidence:     res.Confidence,
		OCRRecommended: res.OCRRecommended,
		Markdown:       res.Markdown,
		RawText:        res.RawText,
		Title:          res.Metadata.Title,
		PageCount:      res.Metadata.PageCount,
		Warnings:       res.Warnings,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
