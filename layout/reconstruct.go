package layout

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/tsawler/pdfmark/text"
)

// Config holds the reconstruction thresholds. All values are exposed
// so boundary behavior can be pinned down by tests; zero values are
// replaced by the defaults.
type Config struct {
	// YToleranceFactor scales the smaller font size into the same-line
	// baseline band.
	YToleranceFactor float64

	// MinYTolerance is the floor of the baseline band in points.
	MinYTolerance float64

	// ColumnGapFraction of the page width separates column bands when
	// clustering line x-starts.
	ColumnGapFraction float64

	// MinColumnLines is the minimum number of lines per band for a
	// page to count as multi-column.
	MinColumnLines int

	// ScriptSizeRatio is the size ratio below which a short line next
	// to a body line is treated as a sub/superscript.
	ScriptSizeRatio float64

	// ScriptMaxRunes bounds the length of a script line.
	ScriptMaxRunes int

	// DropCapRatio is the size ratio above which a short uppercase
	// line is treated as a drop cap.
	DropCapRatio float64
}

// DefaultConfig returns the default reconstruction thresholds.
func DefaultConfig() Config {
	return Config{
		YToleranceFactor:  0.25,
		MinYTolerance:     3.0,
		ColumnGapFraction: 0.12,
		MinColumnLines:    3,
		ScriptSizeRatio:   0.7,
		ScriptMaxRunes:    4,
		DropCapRatio:      2.5,
	}
}

// withDefaults fills zero fields from the defaults.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.YToleranceFactor == 0 {
		c.YToleranceFactor = d.YToleranceFactor
	}
	if c.MinYTolerance == 0 {
		c.MinYTolerance = d.MinYTolerance
	}
	if c.ColumnGapFraction == 0 {
		c.ColumnGapFraction = d.ColumnGapFraction
	}
	if c.MinColumnLines == 0 {
		c.MinColumnLines = d.MinColumnLines
	}
	if c.ScriptSizeRatio == 0 {
		c.ScriptSizeRatio = d.ScriptSizeRatio
	}
	if c.ScriptMaxRunes == 0 {
		c.ScriptMaxRunes = d.ScriptMaxRunes
	}
	if c.DropCapRatio == 0 {
		c.DropCapRatio = d.DropCapRatio
	}
	return c
}

// Page is the input to reconstruction for one page.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Width is the page width in points, used for column thresholds.
	Width float64

	// Items are the page's text runs in stream order.
	Items []text.Item
}

// Reconstruct turns one page's text runs into lines in reading order:
// baseline grouping, script absorption, column banding with
// left-band-first emission, hyphenation joining, and drop-cap merging.
func Reconstruct(page Page, cfg Config) []*Line {
	cfg = cfg.withDefaults()

	exact, approx := splitApprox(page.Items)

	lines := groupLines(exact, page.Number, cfg)
	lines = mergeScripts(lines, cfg)
	lines = orderByColumns(lines, page.Width, cfg)
	lines = joinHyphenated(lines)
	lines = mergeDropCaps(lines, cfg)

	// Approximate items carry no usable positions: each becomes its
	// own line, appended in stream order after the positioned content.
	for _, item := range approx {
		lines = append(lines, &Line{
			Items: []text.Item{item},
			Page:  page.Number,
			Y:     item.Y,
			X:     item.X,
		})
	}

	return lines
}

// splitApprox separates exactly positioned items from raw-scan items,
// whose positions are synthetic.
func splitApprox(items []text.Item) (exact, approx []text.Item) {
	for _, item := range items {
		if item.Approx {
			approx = append(approx, item)
		} else {
			exact = append(exact, item)
		}
	}
	return exact, approx
}

// orderByColumns detects a vertical gutter splitting the page into
// column bands and emits the left band top-down, then the right band.
// Column pairs frequently share baselines, so the provisional lines
// are themselves split at the gutter. Pages without a clean gutter
// come back unchanged.
func orderByColumns(lines []*Line, pageWidth float64, cfg Config) []*Line {
	// Columns sharing baselines arrive as single provisional lines, so
	// the per-side minimum is checked after splitting.
	if len(lines) < cfg.MinColumnLines {
		return lines
	}

	minGutter := pageWidth * cfg.ColumnGapFraction
	if minGutter <= 0 {
		return lines
	}

	gapLo, gapHi, ok := findGutter(lines, minGutter)
	if !ok {
		return lines
	}

	var left, right []*Line
	for _, line := range lines {
		l, r, clean := splitAtGutter(line, gapLo, gapHi)
		if !clean {
			return lines
		}
		if l != nil {
			left = append(left, l)
		}
		if r != nil {
			right = append(right, r)
		}
	}

	if len(left) < cfg.MinColumnLines || len(right) < cfg.MinColumnLines {
		return lines
	}

	sortTopDown := func(band []*Line) {
		sort.SliceStable(band, func(i, j int) bool {
			return band[i].Y > band[j].Y
		})
	}
	sortTopDown(left)
	sortTopDown(right)

	// Each side may itself be multi-column.
	left = orderByColumns(left, pageWidth, cfg)
	right = orderByColumns(right, pageWidth, cfg)

	return append(left, right...)
}

// findGutter locates a vertical strip of the content area, containing
// the content midline, that no item touches. Returns its x extent.
func findGutter(lines []*Line, minWidth float64) (lo, hi float64, ok bool) {
	type interval struct{ lo, hi float64 }
	var spans []interval

	minStart, maxEnd := math.Inf(1), math.Inf(-1)
	for _, line := range lines {
		for _, item := range line.Items {
			s, e := item.X, itemEnd(item)
			spans = append(spans, interval{s, e})
			if s < minStart {
				minStart = s
			}
			if e > maxEnd {
				maxEnd = e
			}
		}
	}
	if len(spans) == 0 || maxEnd-minStart < 2*minWidth {
		return 0, 0, false
	}

	mid := (minStart + maxEnd) / 2

	// The gutter is the free strip around the midline: push its edges
	// out to the nearest covering spans.
	lo, hi = minStart, maxEnd
	for _, sp := range spans {
		if sp.lo <= mid && mid <= sp.hi {
			return 0, 0, false
		}
		if sp.hi < mid && sp.hi > lo {
			lo = sp.hi
		}
		if sp.lo > mid && sp.lo < hi {
			hi = sp.lo
		}
	}

	if hi-lo < minWidth {
		return 0, 0, false
	}
	return lo, hi, true
}

func itemEnd(item text.Item) float64 {
	return item.Bounds().Right()
}

// splitAtGutter partitions a line's items into the bands left and
// right of the gutter. An item crossing the gutter makes the split
// unclean, which vetoes column detection for the page.
func splitAtGutter(line *Line, gapLo, gapHi float64) (left, right *Line, clean bool) {
	var leftItems, rightItems []text.Item
	mid := (gapLo + gapHi) / 2

	for _, item := range line.Items {
		s, e := item.X, itemEnd(item)
		switch {
		case e <= mid && s < mid:
			leftItems = append(leftItems, item)
		case s >= mid:
			rightItems = append(rightItems, item)
		default:
			return nil, nil, false
		}
	}

	if len(leftItems) > 0 {
		left = &Line{Items: leftItems, Page: line.Page, Y: line.Y, X: leftItems[0].X}
	}
	if len(rightItems) > 0 {
		right = &Line{Items: rightItems, Page: line.Page, Y: line.Y, X: rightItems[0].X}
	}
	return left, right, true
}

// joinHyphenated repairs words split by end-of-line hyphenation: a
// line ending in a hyphen whose successor starts with a lowercase
// letter loses the hyphen, and the successor's first word moves up.
// Already-joined text is left unchanged, so the pass is idempotent.
func joinHyphenated(lines []*Line) []*Line {
	for i := 0; i+1 < len(lines); i++ {
		cur, next := lines[i], lines[i+1]

		curText := cur.Text()
		if !strings.HasSuffix(curText, "-") || len(curText) < 2 {
			continue
		}
		// The character before the hyphen must be a letter: "12-"
		// or "- " are not hyphenation.
		runes := []rune(curText)
		if !unicode.IsLetter(runes[len(runes)-2]) {
			continue
		}

		nextText := next.Text()
		trimmed := strings.TrimLeft(nextText, " ")
		if trimmed == "" {
			continue
		}
		first, _ := firstRune(trimmed)
		if !unicode.IsLower(first) {
			continue
		}

		word, rest := splitFirstWord(trimmed)
		cur.SetText(strings.TrimSuffix(curText, "-") + word)
		next.SetText(rest)
	}

	// Drop lines emptied by the join.
	out := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line.Text()) != "" {
			out = append(out, line)
		}
	}
	return out
}

func firstRune(s string) (rune, int) {
	for _, r := range s {
		return r, len(string(r))
	}
	return 0, 0
}

// splitFirstWord splits off the leading word of a string.
func splitFirstWord(s string) (word, rest string) {
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		return s[:idx], strings.TrimLeft(s[idx:], " ")
	}
	return s, ""
}

// mergeDropCaps folds oversized single-letter lines into the start of
// the paragraph they decorate. Rendered drop caps surface as separate
// runs whose height spans several body lines.
func mergeDropCaps(lines []*Line, cfg Config) []*Line {
	if len(lines) < 2 {
		return lines
	}

	base := modalFontSize(lines)
	if base <= 0 {
		return lines
	}

	out := make([]*Line, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		txt := strings.TrimSpace(line.Text())

		isDropCap := len([]rune(txt)) == 1 &&
			line.FontSize() >= base*cfg.DropCapRatio &&
			unicode.IsUpper([]rune(txt)[0])
		if !isDropCap {
			out = append(out, line)
			continue
		}

		// Merge into the nearest following line on the same page that
		// starts with a lowercase letter: the decapitated paragraph.
		merged := false
		for j := i + 1; j < len(lines) && lines[j].Page == line.Page; j++ {
			target := strings.TrimSpace(lines[j].Text())
			if target == "" {
				continue
			}
			if r, _ := firstRune(target); unicode.IsLower(r) {
				lines[j].SetText(txt + target)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, line)
		}
	}

	return out
}

// modalFontSize returns the most common font size across lines,
// rounded to a tenth of a point.
func modalFontSize(lines []*Line) float64 {
	counts := map[int]int{}
	for _, line := range lines {
		for _, item := range line.Items {
			key := int(item.FontSize * 10)
			counts[key] += len(item.Text)
		}
	}

	bestKey, bestCount := 0, 0
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key > bestKey) {
			bestKey, bestCount = key, count
		}
	}
	return float64(bestKey) / 10
}
