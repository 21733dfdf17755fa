// Package markdown serializes classified layout blocks into Markdown
// text. It is a pure formatting pass: blocks arrive in final reading
// order and nothing here reclassifies or reorders them.
package markdown

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/tsawler/pdfmark/layout"
	"github.com/tsawler/pdfmark/tables"
)

// Options controls which structures the conversion emits or, for the
// plain-text path, detects.
type Options struct {
	// DetectHeaders enables header markup.
	DetectHeaders bool

	// DetectLists enables list markup.
	DetectLists bool

	// DetectCode enables fenced code blocks.
	DetectCode bool

	// BaseFontSize overrides the modal body font size used for header
	// classification upstream. Zero means automatic.
	BaseFontSize float64
}

// DefaultOptions returns the default conversion options: everything
// on, base size automatic.
func DefaultOptions() Options {
	return Options{
		DetectHeaders: true,
		DetectLists:   true,
		DetectCode:    true,
	}
}

// minColumnWidth keeps the table separator row legal markdown even
// for very short cells.
const minColumnWidth = 3

// Render serializes blocks to Markdown. Headers become `#` runs,
// list items keep their markers and indent by depth, code blocks are
// fenced, table rows become padded pipe rows with an alignment row
// after the first row of each table, footnote runs form a trailing
// reference section, and page breaks become a horizontal rule.
func Render(blocks []layout.Block, opts Options) string {
	var b strings.Builder

	for i := 0; i < len(blocks); i++ {
		block := blocks[i]

		switch block.Kind {
		case layout.Header:
			if !opts.DetectHeaders {
				b.WriteString(block.Text + "\n\n")
				continue
			}
			b.WriteString(strings.Repeat("#", block.Level) + " " + block.Text + "\n\n")

		case layout.ListItem:
			if !opts.DetectLists {
				b.WriteString(block.Text + "\n\n")
				continue
			}
			// Consecutive items form one list with no blank lines
			// between them.
			for ; i < len(blocks) && blocks[i].Kind == layout.ListItem; i++ {
				b.WriteString(renderListItem(blocks[i]))
			}
			i--
			b.WriteString("\n")

		case layout.Code:
			if !opts.DetectCode {
				b.WriteString(block.Text + "\n\n")
				continue
			}
			b.WriteString("```\n" + block.Text + "\n```\n\n")

		case layout.TableRow:
			end := i
			for end+1 < len(blocks) && blocks[end+1].Kind == layout.TableRow && !blocks[end+1].TableStart {
				end++
			}
			b.WriteString(renderTable(blocks[i : end+1]))
			i = end

		case layout.Footnote:
			b.WriteString("---\n\n")
			for ; i < len(blocks) && blocks[i].Kind == layout.Footnote; i++ {
				b.WriteString(blocks[i].Text + "\n\n")
			}
			i--

		case layout.PageBreak:
			b.WriteString("\n---\n\n")

		default:
			b.WriteString(block.Text + "\n\n")
		}
	}

	return cleanMarkdown(b.String())
}

// renderListItem emits one list line. Numbered and lettered markers
// are already part of the text; bullets get a dash.
func renderListItem(block layout.Block) string {
	indent := strings.Repeat("  ", block.Depth)
	if block.List == layout.Bullet {
		return indent + "- " + block.Text + "\n"
	}
	return indent + block.Text + "\n"
}

// renderTable emits one table's rows as padded pipe rows, with the
// alignment row after the first.
func renderTable(rows []layout.Block) string {
	cols := 0
	for _, row := range rows {
		if len(row.Cells) > cols {
			cols = len(row.Cells)
		}
	}
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	for i := range widths {
		widths[i] = minColumnWidth
	}
	for _, row := range rows {
		for c, cell := range row.Cells {
			if w := runewidth.StringWidth(cell); w > widths[c] {
				widths[c] = w
			}
		}
	}

	aligns := rows[0].Aligns

	var b strings.Builder
	for r, row := range rows {
		b.WriteString("|")
		for c := 0; c < cols; c++ {
			cell := ""
			if c < len(row.Cells) {
				cell = row.Cells[c]
			}
			b.WriteString(" " + pad(cell, widths[c]) + " |")
		}
		b.WriteString("\n")

		if r == 0 {
			b.WriteString("|")
			for c := 0; c < cols; c++ {
				b.WriteString(" " + separator(align(aligns, c), widths[c]) + " |")
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func align(aligns []tables.Alignment, c int) tables.Alignment {
	if c < len(aligns) {
		return aligns[c]
	}
	return tables.AlignLeft
}

// separator builds one alignment-row cell of the given width.
func separator(a tables.Alignment, width int) string {
	dashes := strings.Repeat("-", width)
	switch a {
	case tables.AlignRight:
		return dashes[:width-1] + ":"
	case tables.AlignCenter:
		return ":" + dashes[2:width] + ":"
	default:
		return dashes
	}
}

// pad right-pads a cell to the given display width. Widths are
// terminal columns, not bytes, so multibyte and wide runes line up.
func pad(s string, width int) string {
	n := width - runewidth.StringWidth(s)
	if n <= 0 {
		return s
	}
	return s + strings.Repeat(" ", n)
}

var (
	bulletLineRe   = regexp.MustCompile(`^[•\-*○●◦]\s+(.*)$`)
	numberedLineRe = regexp.MustCompile(`^(?:(\d{1,3})[.)]|\((\d{1,3})\))\s+.+$`)
	letteredLineRe = regexp.MustCompile(`^(?:[a-z][.)]|\([a-z]\))\s+.+$`)
)

// ToMarkdown converts already-extracted plain text to Markdown using
// purely textual structure: all-caps lines become headers, marker
// lines become list items, code-looking runs are fenced, everything
// else is a paragraph.
func ToMarkdown(text string, opts Options) string {
	var b strings.Builder
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			b.WriteString("\n")
			continue
		}

		if opts.DetectHeaders && looksLikeHeading(line) {
			b.WriteString("## " + line + "\n\n")
			continue
		}

		if opts.DetectLists {
			if m := bulletLineRe.FindStringSubmatch(line); m != nil {
				b.WriteString("- " + m[1] + "\n")
				continue
			}
			if numberedLineRe.MatchString(line) || letteredLineRe.MatchString(line) {
				b.WriteString(line + "\n")
				continue
			}
		}

		if opts.DetectCode && looksLikeCode(line) {
			b.WriteString("```\n")
			for ; i < len(lines); i++ {
				t := strings.TrimSpace(lines[i])
				if t == "" || !looksLikeCode(t) {
					i--
					break
				}
				b.WriteString(t + "\n")
			}
			b.WriteString("```\n\n")
			continue
		}

		b.WriteString(line + "\n\n")
	}

	return cleanMarkdown(b.String())
}

// looksLikeHeading matches short all-caps lines with at least two
// letters and no sentence punctuation.
func looksLikeHeading(s string) bool {
	if len(s) > 80 || strings.ContainsAny(s, ".!?,;") {
		return false
	}
	letters := 0
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			letters++
		}
	}
	return letters >= 2
}

var codePrefixes = []string{
	"import ", "from ", "const ", "let ", "var ", "function ",
	"class ", "def ", "fn ", "impl ", "func ", "package ", "return ",
	"#include", "using ",
}

func looksLikeCode(s string) bool {
	for _, p := range codePrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return strings.HasSuffix(s, ";") || strings.HasSuffix(s, "{") || strings.HasSuffix(s, "}") ||
		strings.Contains(s, " => ") || strings.Contains(s, " -> ") || strings.Contains(s, ":=")
}

// cleanMarkdown collapses runs of blank lines and normalizes the
// document to end with exactly one newline.
func cleanMarkdown(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return s + "\n"
}
