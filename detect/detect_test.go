package detect

import (
	"errors"
	"strings"
	"testing"

	"github.com/tsawler/pdfmark/reader"
)

// fakeSource serves synthetic page content for classifier tests.
type fakeSource struct {
	pages  []string
	images []reader.ImageStats
	title  string
	fail   map[int]bool
}

func (f *fakeSource) PageCount() int { return len(f.pages) }

func (f *fakeSource) PageContent(pageNr int) ([]byte, error) {
	if f.fail[pageNr] {
		return nil, errors.New("unreadable page")
	}
	return []byte(f.pages[pageNr-1]), nil
}

func (f *fakeSource) PageImageStats(pageNr int) reader.ImageStats {
	if f.images == nil {
		return reader.ImageStats{}
	}
	return f.images[pageNr-1]
}

func (f *fakeSource) Title() string { return f.title }

// textPage builds a content stream with n text-showing operators.
func textPage(n int) string {
	var sb strings.Builder
	sb.WriteString("BT /F1 12 Tf 72 720 Td ")
	for i := 0; i < n; i++ {
		sb.WriteString("(word) Tj ")
	}
	sb.WriteString("ET")
	return sb.String()
}

const imagePage = "q 612 0 0 792 0 0 cm /Img1 Do Q"

func TestDetect_TextBased(t *testing.T) {
	src := &fakeSource{
		pages: []string{textPage(10), textPage(8), textPage(12)},
		title: "Annual Report",
	}

	res, err := Detect(src)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Type != TextBased {
		t.Errorf("Type = %v, want TextBased", res.Type)
	}
	if res.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", res.PageCount)
	}
	if res.Title != "Annual Report" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.Confidence <= 0.5 {
		t.Errorf("Confidence = %g, want > 0.5", res.Confidence)
	}
	if res.OCRRecommended {
		t.Error("text-based documents do not need OCR")
	}
}

func TestDetect_ImageBased(t *testing.T) {
	src := &fakeSource{pages: []string{imagePage, imagePage}}

	res, err := Detect(src)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Type != ImageBased {
		t.Errorf("Type = %v, want ImageBased", res.Type)
	}
	if !res.OCRRecommended {
		t.Error("image-based documents should recommend OCR")
	}
}

func TestDetect_Scanned(t *testing.T) {
	// Neither text nor image operators in any sampled stream.
	src := &fakeSource{pages: []string{"", "0 0 612 792 re f", ""}}

	res, err := Detect(src)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Type != Scanned {
		t.Errorf("Type = %v, want Scanned", res.Type)
	}
}

func TestDetect_Mixed(t *testing.T) {
	// One text page out of three: ratio 1/3 is below the 0.6 default.
	src := &fakeSource{pages: []string{textPage(10), imagePage, imagePage}}

	res, err := Detect(src)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Type != Mixed {
		t.Errorf("Type = %v, want Mixed", res.Type)
	}
	if !res.OCRRecommended {
		t.Error("mixed documents should recommend OCR")
	}
}

func TestDetect_ZeroPages(t *testing.T) {
	res, err := Detect(&fakeSource{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Type != ImageBased {
		t.Errorf("Type = %v, want ImageBased", res.Type)
	}
	if res.Confidence != 0 {
		t.Errorf("Confidence = %g, want 0", res.Confidence)
	}
}

func TestDetect_MinTextOpsBoundary(t *testing.T) {
	cfg := DefaultConfig()

	// Two operators: below the default threshold of three.
	below := &fakeSource{pages: []string{textPage(2)}}
	res, err := DetectWithConfig(below, cfg)
	if err != nil {
		t.Fatalf("DetectWithConfig: %v", err)
	}
	if res.Type == TextBased {
		t.Errorf("2 text ops classified TextBased, want below threshold")
	}

	at := &fakeSource{pages: []string{textPage(3)}}
	res, err = DetectWithConfig(at, cfg)
	if err != nil {
		t.Fatalf("DetectWithConfig: %v", err)
	}
	if res.Type != TextBased {
		t.Errorf("3 text ops = %v, want TextBased", res.Type)
	}
}

func TestDetect_Monotonic(t *testing.T) {
	// Adding text operators to pages never decreases the class.
	prevTextBased := false
	for n := 0; n <= 12; n += 3 {
		src := &fakeSource{pages: []string{textPage(n), textPage(n), imagePage}}
		res, err := Detect(src)
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		isText := res.Type == TextBased
		if prevTextBased && !isText {
			t.Errorf("n=%d: classification regressed from TextBased", n)
		}
		prevTextBased = prevTextBased || isText
	}
}

func TestDetect_TemplateImages(t *testing.T) {
	// Text on every page, but every page also carries a full-page
	// image: likely scans with a text overlay.
	big := reader.ImageStats{Count: 1, MaxArea: 1_000_000}
	src := &fakeSource{
		pages:  []string{textPage(10), textPage(10)},
		images: []reader.ImageStats{big, big},
	}

	res, err := Detect(src)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Type != Mixed {
		t.Errorf("Type = %v, want Mixed", res.Type)
	}
	if !res.OCRRecommended {
		t.Error("template-image documents should recommend OCR")
	}
}

func TestDetect_TemplateImagesNotAllPages(t *testing.T) {
	big := reader.ImageStats{Count: 1, MaxArea: 1_000_000}
	src := &fakeSource{
		pages:  []string{textPage(10), textPage(10)},
		images: []reader.ImageStats{big, {}},
	}

	res, err := Detect(src)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Type != TextBased {
		t.Errorf("Type = %v, want TextBased when only some pages have template images", res.Type)
	}
}

func TestDetect_UnreadablePageDegrades(t *testing.T) {
	src := &fakeSource{
		pages: []string{textPage(10), textPage(10), textPage(10)},
		fail:  map[int]bool{2: true},
	}

	res, err := Detect(src)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	// 2 of 3 sampled pages are text: still above the 0.6 threshold.
	if res.Type != TextBased {
		t.Errorf("Type = %v, want TextBased despite one unreadable page", res.Type)
	}
}

func TestDetect_InvalidConfig(t *testing.T) {
	src := &fakeSource{pages: []string{textPage(5)}}

	if _, err := DetectWithConfig(src, Config{MaxPagesToSample: 0}); err == nil {
		t.Error("zero MaxPagesToSample should fail")
	}
	cfg := DefaultConfig()
	cfg.TextPageRatioThreshold = 1.5
	if _, err := DetectWithConfig(src, cfg); err == nil {
		t.Error("out-of-range threshold should fail")
	}
}

func TestSamplePages(t *testing.T) {
	tests := []struct {
		name      string
		pageCount int
		max       int
		want      []int
	}{
		{"fewer pages than cap", 3, 5, []int{1, 2, 3}},
		{"single page", 1, 5, []int{1}},
		{"zero pages", 0, 5, nil},
		{"exact cap", 5, 5, []int{1, 2, 3, 4, 5}},
		{"large document", 100, 5, []int{1, 25, 50, 75, 100}},
		{"two samples", 10, 2, []int{1, 10}},
		{"single sample", 10, 1, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := samplePages(tt.pageCount, tt.max)
			if len(got) > tt.max && tt.max > 0 {
				t.Fatalf("sampled %d pages, cap is %d", len(got), tt.max)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestConfidence_BoundaryIsLowest(t *testing.T) {
	atBoundary := confidence(0.6, 0.6, 5, 100)
	clear := confidence(1.0, 0.6, 5, 100)
	if atBoundary >= clear {
		t.Errorf("boundary confidence %g not below clear-case %g", atBoundary, clear)
	}
	if atBoundary < 0.5 {
		t.Errorf("confidence %g below floor", atBoundary)
	}
	if clear > 1 {
		t.Errorf("confidence %g above 1", clear)
	}
}

func TestPdfType_String(t *testing.T) {
	tests := map[PdfType]string{
		TextBased:  "text-based",
		Scanned:    "scanned",
		ImageBased: "image-based",
		Mixed:      "mixed",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", typ, got, want)
		}
	}
}
