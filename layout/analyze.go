package layout

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/tsawler/pdfmark/tables"
	"github.com/tsawler/pdfmark/text"
)

// BlockKind identifies the structural role of a block.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Header
	ListItem
	Code
	TableRow
	Footnote
	PageBreak
)

// ListKind identifies the marker family of a list item.
type ListKind int

const (
	Bullet ListKind = iota
	Numbered
	Lettered
)

// Block is one classified unit of document structure, in final
// reading order. It carries text only; positions do not survive
// analysis.
type Block struct {
	Kind BlockKind

	// Text is the block's content. For Code blocks it may span
	// multiple lines separated by newlines.
	Text string

	// Level is the header level, 1 to 4.
	Level int

	// List is the list marker family and Depth the nesting level,
	// starting at 0.
	List  ListKind
	Depth int

	// Cells and Aligns are set on TableRow blocks. TableStart marks
	// the first row of each table.
	Cells      []string
	Aligns     []tables.Alignment
	TableStart bool
}

// AnalyzeConfig holds the classification options and thresholds.
type AnalyzeConfig struct {
	DetectHeaders bool
	DetectLists   bool
	DetectCode    bool
	DetectTables  bool

	// BaseFontSize overrides the modal body size when positive.
	BaseFontSize float64

	// Header ratio thresholds, largest first.
	H1Ratio float64
	H2Ratio float64
	H3Ratio float64
	H4Ratio float64

	// ListIndentStep is the x distance per list nesting level.
	ListIndentStep float64

	// FootnoteMarginFraction of the page height forms the bottom
	// margin searched for footnotes.
	FootnoteMarginFraction float64

	// NoiseMarginFraction of the page height forms the top and bottom
	// margins where bare numbers are treated as page numbers.
	NoiseMarginFraction float64

	// Tables configures table region detection.
	Tables tables.Config
}

// DefaultAnalyzeConfig returns the default analyzer settings.
func DefaultAnalyzeConfig() AnalyzeConfig {
	return AnalyzeConfig{
		DetectHeaders:          true,
		DetectLists:            true,
		DetectCode:             true,
		DetectTables:           true,
		H1Ratio:                1.8,
		H2Ratio:                1.5,
		H3Ratio:                1.3,
		H4Ratio:                1.15,
		ListIndentStep:         18,
		FootnoteMarginFraction: 0.08,
		NoiseMarginFraction:    0.07,
		Tables:                 tables.DefaultConfig(),
	}
}

// Analyze classifies one page's reading-ordered lines into blocks.
// Noise lines are dropped and footnotes diverted first; the remaining
// lines classify in place, so block order equals reading order with
// footnotes appended at the end of the page.
func Analyze(lines []*Line, pageHeight float64, cfg AnalyzeConfig) []Block {
	if len(lines) == 0 {
		return nil
	}

	lines = dropNoise(lines, pageHeight, cfg)
	lines, footnoteLines := divertFootnotes(lines, pageHeight, cfg)

	base := cfg.BaseFontSize
	if base <= 0 {
		base = modalFontSize(lines)
	}
	if base <= 0 {
		base = 12
	}

	var blocks []Block

	tableAt := map[int]*tables.Table{}
	inTable := map[int]bool{}
	if cfg.DetectTables {
		rows := make([][]text.Item, len(lines))
		for i, line := range lines {
			rows[i] = line.Items
		}
		for _, t := range tables.Detect(rows, cfg.Tables) {
			t := t
			tableAt[t.FirstLine] = &t
			for i := t.FirstLine; i <= t.LastLine; i++ {
				inTable[i] = true
			}
		}
	}

	listBase := -1.0

	for i := 0; i < len(lines); i++ {
		if t := tableAt[i]; t != nil {
			for r, cells := range t.Cells {
				blocks = append(blocks, Block{
					Kind:       TableRow,
					Cells:      linkURLsAll(cells),
					Aligns:     t.Aligns,
					TableStart: r == 0,
				})
			}
			i = t.LastLine
			listBase = -1
			continue
		}
		if inTable[i] {
			continue
		}

		line := lines[i]
		txt := strings.TrimSpace(line.Text())
		if txt == "" {
			continue
		}

		if cfg.DetectHeaders && len(txt) > 3 {
			if level := headerLevel(line.FontSize()/base, cfg); level > 0 {
				blocks = append(blocks, Block{Kind: Header, Level: level, Text: linkURLs(txt)})
				listBase = -1
				continue
			}
		}

		if cfg.DetectLists {
			if kind, body, ok := listMarker(txt); ok {
				if listBase < 0 {
					listBase = line.X
				}
				depth := 0
				if cfg.ListIndentStep > 0 && line.X > listBase {
					depth = int((line.X - listBase) / cfg.ListIndentStep)
				}
				blocks = append(blocks, Block{
					Kind:  ListItem,
					List:  kind,
					Depth: depth,
					Text:  linkURLs(body),
				})
				continue
			}
			listBase = -1
		}

		if cfg.DetectCode && isCodeLine(lines, i, txt) {
			// Merge the whole run of qualifying lines into one block.
			var codeLines []string
			for i < len(lines) && !inTable[i] {
				t := strings.TrimSpace(lines[i].Text())
				if t == "" || !qualifiesAsCode(lines[i], t) {
					break
				}
				codeLines = append(codeLines, t)
				i++
			}
			i--
			blocks = append(blocks, Block{Kind: Code, Text: strings.Join(codeLines, "\n")})
			continue
		}

		blocks = append(blocks, Block{Kind: Paragraph, Text: linkURLs(txt)})
	}

	for _, line := range footnoteLines {
		txt := strings.TrimSpace(line.Text())
		if txt != "" {
			blocks = append(blocks, Block{Kind: Footnote, Text: linkURLs(txt)})
		}
	}

	return blocks
}

// dropNoise removes page-number lines: bare short numbers isolated in
// the top or bottom margin.
func dropNoise(lines []*Line, pageHeight float64, cfg AnalyzeConfig) []*Line {
	if pageHeight <= 0 || cfg.NoiseMarginFraction <= 0 {
		return lines
	}
	margin := pageHeight * cfg.NoiseMarginFraction

	out := make([]*Line, 0, len(lines))
	for _, line := range lines {
		txt := strings.TrimSpace(line.Text())
		inMargin := line.Y < margin || line.Y > pageHeight-margin
		if inMargin && isBareNumber(txt) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// isBareNumber reports whether a line is nothing but a plausible page
// number.
func isBareNumber(s string) bool {
	if s == "" || len(s) > 4 {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0
}

// divertFootnotes separates bottom-margin footnote lines from the
// body. A footnote line sits in the bottom margin and starts with a
// reference marker, or follows another footnote line down there.
func divertFootnotes(lines []*Line, pageHeight float64, cfg AnalyzeConfig) (body, footnotes []*Line) {
	if pageHeight <= 0 || cfg.FootnoteMarginFraction <= 0 {
		return lines, nil
	}
	margin := pageHeight * cfg.FootnoteMarginFraction

	for _, line := range lines {
		txt := strings.TrimSpace(line.Text())
		if line.Y < margin && (footnoteMarker(txt) || len(footnotes) > 0) {
			footnotes = append(footnotes, line)
			continue
		}
		body = append(body, line)
	}
	return body, footnotes
}

var footnoteRe = regexp.MustCompile(`^(\[\d{1,2}\]|\(\d{1,2}\)|\d{1,2}[.)\s])`)

// footnoteMarker matches leading reference markers: "1 ", "1.", "[1]",
// "(1)", "*", "†", or a caret marker produced by script merging.
func footnoteMarker(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '*' || strings.HasPrefix(s, "†") || s[0] == '^' {
		return true
	}
	return footnoteRe.MatchString(s)
}

// headerLevel maps a font size ratio to a header level, 0 for body.
func headerLevel(ratio float64, cfg AnalyzeConfig) int {
	switch {
	case ratio >= cfg.H1Ratio:
		return 1
	case ratio >= cfg.H2Ratio:
		return 2
	case ratio >= cfg.H3Ratio:
		return 3
	case ratio >= cfg.H4Ratio:
		return 4
	}
	return 0
}

// bulletGlyphs are the markers recognized as unordered list bullets.
var bulletGlyphs = []string{"•", "-", "*", "○", "●", "◦"}

var (
	numberedRe = regexp.MustCompile(`^(?:(\d{1,3})[.)]|\((\d{1,3})\))\s+(.*)$`)
	letteredRe = regexp.MustCompile(`^(?:([a-z])[.)]|\(([a-z])\))\s+(.*)$`)
)

// listMarker recognizes a list marker at the start of a line,
// returning the marker family and the text after the marker.
func listMarker(s string) (ListKind, string, bool) {
	for _, glyph := range bulletGlyphs {
		if rest, ok := strings.CutPrefix(s, glyph+" "); ok {
			return Bullet, strings.TrimSpace(rest), true
		}
	}

	if m := numberedRe.FindStringSubmatch(s); m != nil {
		num := m[1]
		if num == "" {
			num = m[2]
		}
		return Numbered, num + ". " + m[3], true
	}

	if m := letteredRe.FindStringSubmatch(s); m != nil {
		letter := m[1]
		if letter == "" {
			letter = m[2]
		}
		return Lettered, letter + ". " + m[3], true
	}

	return 0, "", false
}

// codeKeywords are line prefixes that identify source code.
var codeKeywords = []string{
	"import ", "export ", "from ", "const ", "let ", "var ",
	"function ", "class ", "def ", "fn ", "pub fn ", "async fn ",
	"impl ", "func ", "package ", "return ", "if (", "for (",
	"#include", "using ", "public ", "private ",
}

// isCodeLike matches keyword and punctuation heuristics for code.
func isCodeLike(s string) bool {
	for _, kw := range codeKeywords {
		if strings.HasPrefix(s, kw) {
			return true
		}
	}

	if strings.Contains(s, " => ") || strings.Contains(s, " -> ") ||
		strings.Contains(s, "::") || strings.Contains(s, ":=") {
		return true
	}

	special := 0
	for _, r := range s {
		switch r {
		case '{', '}', '(', ')', '[', ']', ';', '=', '<', '>':
			special++
		}
	}
	if special >= 3 && len(s) < 200 {
		return true
	}

	return strings.HasSuffix(s, ";") || strings.HasSuffix(s, "{") || strings.HasSuffix(s, "}")
}

// qualifiesAsCode reports whether a line can extend a code run.
func qualifiesAsCode(line *Line, txt string) bool {
	return line.Monospace() || isCodeLike(txt)
}

// isCodeLine decides whether a code block starts at line i. A
// monospace run of two or more lines qualifies on font alone; an
// isolated monospace line needs keyword corroboration to avoid
// swallowing stray labels set in a fixed-pitch face.
func isCodeLine(lines []*Line, i int, txt string) bool {
	line := lines[i]

	if isCodeLike(txt) {
		return true
	}
	if !line.Monospace() {
		return false
	}

	if i+1 < len(lines) {
		next := lines[i+1]
		if next.Monospace() && strings.TrimSpace(next.Text()) != "" {
			return true
		}
	}
	if i > 0 && lines[i-1].Monospace() {
		return true
	}
	return false
}

// urlRe matches http(s) URLs embedded in text.
var urlRe = regexp.MustCompile(`https?://[^\s<>()\[\]]+`)

// linkURLs wraps bare URLs as markdown autolinks.
func linkURLs(s string) string {
	return urlRe.ReplaceAllStringFunc(s, func(u string) string {
		trimmed := strings.TrimRightFunc(u, func(r rune) bool {
			return r == '.' || r == ',' || r == ';' || unicode.IsSpace(r)
		})
		return "<" + trimmed + ">" + u[len(trimmed):]
	})
}

// linkURLsAll applies linkURLs to each cell.
func linkURLsAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = linkURLs(c)
	}
	return out
}
