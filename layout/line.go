// Package layout reconstructs reading order from positioned text runs
// and classifies the resulting lines into structural blocks. The two
// stages are separate: the reconstructor (lines, columns, reading
// order, hyphenation, drop caps) knows nothing about semantics, and
// the analyzer (headers, lists, code, tables, footnotes) never moves
// lines around.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/pdfmark/text"
)

// Line is an ordered group of text items sharing a baseline band.
type Line struct {
	// Items are the runs of the line, sorted by ascending X.
	Items []text.Item

	// Page is the 1-based page number.
	Page int

	// Y is the baseline position of the first item grouped in.
	Y float64

	// X is the starting position of the leftmost item.
	X float64

	// override replaces the concatenated item text when hyphenation
	// or script merging rewrote the line.
	override   string
	overridden bool
}

// Text returns the line's text: items joined left to right, with
// spaces inferred from horizontal gaps.
func (l *Line) Text() string {
	if l.overridden {
		return l.override
	}
	if len(l.Items) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, item := range l.Items {
		if i > 0 {
			prev := l.Items[i-1]
			if needsSpace(prev, item) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(item.Text)
	}
	return sb.String()
}

// SetText replaces the line's text without touching its items.
func (l *Line) SetText(s string) {
	l.override = s
	l.overridden = true
}

// needsSpace reports whether a space should separate two adjacent
// items, based on the horizontal gap between them.
func needsSpace(prev, next text.Item) bool {
	if strings.HasSuffix(prev.Text, " ") || strings.HasPrefix(next.Text, " ") {
		return false
	}

	size := prev.FontSize
	if size <= 0 {
		size = 12
	}
	// Advance approximation: half an em per glyph.
	prevEnd := prev.X + float64(len([]rune(prev.Text)))*size*0.5
	gap := next.X - prevEnd

	return gap > size*0.2
}

// FontSize returns the dominant (largest-run) font size of the line.
func (l *Line) FontSize() float64 {
	var best float64
	bestLen := -1
	for _, item := range l.Items {
		if n := len(item.Text); n > bestLen {
			best = item.FontSize
			bestLen = n
		}
	}
	return best
}

// Monospace reports whether the line's text is dominantly in a
// fixed-pitch font, weighted by run length.
func (l *Line) Monospace() bool {
	mono, total := 0, 0
	for _, item := range l.Items {
		n := len(item.Text)
		total += n
		if item.Monospace {
			mono += n
		}
	}
	return total > 0 && mono*2 > total
}

// groupLines clusters items of one page into baseline bands. Items
// arrive in stream order and leave as lines sorted top-down, each
// line's items sorted by ascending X.
func groupLines(items []text.Item, page int, cfg Config) []*Line {
	if len(items) == 0 {
		return nil
	}

	sorted := make([]text.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []*Line
	var cur *Line

	for _, item := range sorted {
		if cur != nil && math.Abs(cur.Y-item.Y) < yTolerance(cur, item, cfg) {
			cur.Items = append(cur.Items, item)
			continue
		}
		cur = &Line{
			Items: []text.Item{item},
			Page:  page,
			Y:     item.Y,
		}
		lines = append(lines, cur)
	}

	for _, line := range lines {
		sort.SliceStable(line.Items, func(i, j int) bool {
			return line.Items[i].X < line.Items[j].X
		})
		line.X = line.Items[0].X
	}

	return lines
}

// yTolerance derives the same-line band from the smaller font size of
// the two candidates, with a floor for degenerate sizes.
func yTolerance(line *Line, item text.Item, cfg Config) float64 {
	size := line.Items[0].FontSize
	if item.FontSize > 0 && (size <= 0 || item.FontSize < size) {
		size = item.FontSize
	}

	tol := size * cfg.YToleranceFactor
	if tol < cfg.MinYTolerance {
		tol = cfg.MinYTolerance
	}
	return tol
}

// mergeScripts absorbs subscript and superscript lines into their
// neighbors. A script line is much smaller than the adjacent body
// line, vertically close to it, and short; its text joins the body
// line with a marker instead of standing alone.
func mergeScripts(lines []*Line, cfg Config) []*Line {
	if len(lines) < 2 {
		return lines
	}

	out := make([]*Line, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		body := scriptHost(lines, i, cfg)
		if body == nil {
			out = append(out, line)
			continue
		}

		marker := line.Text()
		if line.Y > body.Y {
			body.SetText(body.Text() + "^" + marker)
		} else {
			body.SetText(body.Text() + "~" + marker)
		}
	}

	return out
}

// scriptHost returns the adjacent body line a script line should merge
// into, or nil when the line is not a script.
func scriptHost(lines []*Line, i int, cfg Config) *Line {
	line := lines[i]

	txt := strings.TrimSpace(line.Text())
	if txt == "" || len([]rune(txt)) > cfg.ScriptMaxRunes {
		return nil
	}

	size := line.FontSize()
	if size <= 0 {
		return nil
	}

	check := func(neighbor *Line) bool {
		if neighbor == nil || neighbor.Page != line.Page {
			return false
		}
		ns := neighbor.FontSize()
		if ns <= 0 || size >= ns*cfg.ScriptSizeRatio {
			return false
		}
		return math.Abs(neighbor.Y-line.Y) < ns
	}

	var prev, next *Line
	if i > 0 {
		prev = lines[i-1]
	}
	if i+1 < len(lines) {
		next = lines[i+1]
	}

	// Prefer the vertically closer qualifying neighbor.
	prevOK := check(prev)
	nextOK := check(next)
	switch {
	case prevOK && nextOK:
		if math.Abs(prev.Y-line.Y) <= math.Abs(next.Y-line.Y) {
			return prev
		}
		return next
	case prevOK:
		return prev
	case nextOK:
		return next
	}
	return nil
}
