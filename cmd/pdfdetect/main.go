// Command pdfdetect classifies a PDF as text-based, scanned,
// image-based, or mixed without fully parsing it.
//
// Usage:
//
//	pdfdetect [--json] <pdf>
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tsawler/pdfmark"
	"github.com/tsawler/pdfmark/detect"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pdfdetect: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: pdfdetect [flags] <pdf>\n")
		flag.PrintDefaults()
	}
	asJSON := flag.Bool("json", false, "Emit the result as JSON")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	res, err := pdfmark.DetectType(flag.Arg(0))
	if err != nil {
		return err
	}

	if *asJSON {
		return writeJSON(os.Stdout, res)
	}

	fmt.Printf("type:       %s\n", res.Type)
	fmt.Printf("confidence: %.2f\n", res.Confidence)
	fmt.Printf("pages:      %d\n", res.PageCount)
	if res.Title != "" {
		fmt.Printf("title:      %s\n", res.Title)
	}
	if res.OCRRecommended {
		fmt.Println("note:       OCR recommended to recover content")
	}
	return nil
}

func writeJSON(w *os.File, res *detect.Result) error {
	out := struct {
		Type           string  `json:"type"`
		Confidence     float64 `json:"confidence"`
		PageCount      int     `json:"page_count"`
		Title          string  `json:"title,omitempty"`
		OCRRecommended bool    `json:"ocr_recommended"`
		ElapsedMillis  int64   `json:"elapsed_ms"`
	}{
		Type:           res.Type.String(),
		Confidence:     res.Confidence,
		PageCount:      res.PageCount,
		Title:          res.Title,
		OCRRecommended: res.OCRRecommended,
		ElapsedMillis:  res.Elapsed.Milliseconds(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
