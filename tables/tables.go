// Package tables detects tabular regions in reconstructed lines and
// extracts their cell grid. Candidate regions are runs of consecutive
// lines whose item x-starts repeat at shared offsets; a battery of
// validations then rejects the layouts that merely look tabular, such
// as key-value forms and sparse label columns.
package tables

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/pdfmark/text"
)

// Alignment is the inferred alignment of a table column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Config holds the detection thresholds.
type Config struct {
	// CellGap is the x distance separating column clusters.
	CellGap float64

	// MinRows is the minimum number of consecutive aligned lines.
	MinRows int

	// MaxRows rejects oversized regions, which are usually running
	// text that happens to align.
	MaxRows int

	// MinCols and MaxCols bound the column count.
	MinCols int
	MaxCols int

	// MinSharedOffsets is how many x-starts two consecutive lines
	// must share to extend a candidate region.
	MinSharedOffsets int

	// NumericColumnRatio is the fraction of numeric cells at which a
	// column is right aligned.
	NumericColumnRatio float64
}

// DefaultConfig returns the default table detection thresholds.
func DefaultConfig() Config {
	return Config{
		CellGap:            25.0,
		MinRows:            3,
		MaxRows:            30,
		MinCols:            2,
		MaxCols:            15,
		MinSharedOffsets:   2,
		NumericColumnRatio: 0.6,
	}
}

// Table is one detected table.
type Table struct {
	// Columns are the x positions of the column clusters.
	Columns []float64

	// Cells is the row-major cell grid.
	Cells [][]string

	// Aligns is the per-column alignment.
	Aligns []Alignment

	// FirstLine and LastLine are the indices (into the input lines)
	// of the table's extent, inclusive.
	FirstLine, LastLine int
}

// Detect finds tables in a page's lines. Each input line is given as
// its x-sorted items; line order must be reading order. Returned
// tables are disjoint and ordered by position.
func Detect(lines [][]text.Item, cfg Config) []Table {
	var out []Table

	for start := 0; start < len(lines); {
		end := regionEnd(lines, start, cfg)
		if end-start < cfg.MinRows {
			start++
			continue
		}

		if t, ok := buildTable(lines, start, end, cfg); ok {
			out = append(out, t)
		}
		start = end
	}

	return out
}

// regionEnd extends a candidate region from start while consecutive
// lines keep sharing x-offsets. Returns the exclusive end index.
func regionEnd(lines [][]text.Item, start int, cfg Config) int {
	if len(lines[start]) < cfg.MinSharedOffsets {
		return start
	}

	end := start + 1
	for end < len(lines) {
		if len(lines[end]) < cfg.MinSharedOffsets {
			break
		}
		if sharedOffsets(lines[end-1], lines[end], cfg.CellGap) < cfg.MinSharedOffsets {
			break
		}
		end++
	}
	return end
}

// sharedOffsets counts how many of a's item x-starts reappear in b.
func sharedOffsets(a, b []text.Item, tol float64) int {
	shared := 0
	for _, ia := range a {
		for _, ib := range b {
			if math.Abs(ia.X-ib.X) <= tol {
				shared++
				break
			}
		}
	}
	return shared
}

// buildTable clusters the region's x-starts into columns, assigns
// cells and runs the validation battery.
func buildTable(lines [][]text.Item, start, end int, cfg Config) (Table, bool) {
	region := lines[start:end]

	columns := clusterColumns(region, cfg.CellGap)
	if len(columns) < cfg.MinCols || len(columns) > cfg.MaxCols {
		return Table{}, false
	}
	if end-start > cfg.MaxRows {
		return Table{}, false
	}

	cells := assignCells(region, columns, cfg)
	if !validate(cells, cfg) {
		return Table{}, false
	}

	return Table{
		Columns:   columns,
		Cells:     cells,
		Aligns:    inferAlignments(cells, cfg),
		FirstLine: start,
		LastLine:  end - 1,
	}, true
}

// clusterColumns gap-clusters all x-starts of the region into column
// centers, left to right.
func clusterColumns(region [][]text.Item, gap float64) []float64 {
	var xs []float64
	for _, line := range region {
		for _, item := range line {
			xs = append(xs, item.X)
		}
	}
	if len(xs) == 0 {
		return nil
	}
	sort.Float64s(xs)

	var columns []float64
	clusterSum, clusterN := xs[0], 1.0

	for _, x := range xs[1:] {
		center := clusterSum / clusterN
		if x-center > gap {
			columns = append(columns, center)
			clusterSum, clusterN = x, 1
			continue
		}
		clusterSum += x
		clusterN++
	}
	columns = append(columns, clusterSum/clusterN)

	return columns
}

// assignCells places each item into the nearest column of its row.
func assignCells(region [][]text.Item, columns []float64, cfg Config) [][]string {
	threshold := columnThreshold(columns, cfg)

	cells := make([][]string, len(region))
	for r, line := range region {
		rowItems := make([][]text.Item, len(columns))
		for _, item := range line {
			if c, ok := nearestColumn(columns, item.X, threshold); ok {
				rowItems[c] = append(rowItems[c], item)
			}
		}

		row := make([]string, len(columns))
		for c, items := range rowItems {
			sort.SliceStable(items, func(i, j int) bool { return items[i].X < items[j].X })
			row[c] = joinCell(items)
		}
		cells[r] = row
	}
	return cells
}

// columnThreshold derives the cell assignment radius from the closest
// pair of columns.
func columnThreshold(columns []float64, cfg Config) float64 {
	if len(columns) < 2 {
		return 2 * cfg.CellGap
	}
	minGap := math.Inf(1)
	for i := 1; i < len(columns); i++ {
		if g := columns[i] - columns[i-1]; g < minGap {
			minGap = g
		}
	}
	t := minGap / 2
	if t < cfg.CellGap {
		t = cfg.CellGap
	}
	if t > 2*cfg.CellGap {
		t = 2 * cfg.CellGap
	}
	return t
}

// nearestColumn finds the closest column within the threshold.
func nearestColumn(columns []float64, x, threshold float64) (int, bool) {
	best, bestDist := -1, math.Inf(1)
	for i, col := range columns {
		if d := math.Abs(x - col); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist >= threshold {
		return 0, false
	}
	return best, true
}

// joinCell concatenates a cell's items with spaces.
func joinCell(items []text.Item) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if t := strings.TrimSpace(item.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// validate runs the battery that rejects non-table layouts.
func validate(cells [][]string, cfg Config) bool {
	rows := len(cells)
	if rows == 0 {
		return false
	}

	// Most rows need content in the first column.
	firstCol := 0
	for _, row := range cells {
		if row[0] != "" {
			firstCol++
		}
	}
	if firstCol < rows/2 {
		return false
	}

	// A table has content in multiple columns, not just the first.
	multiCol := 0
	totalFilled := 0
	for _, row := range cells {
		filled := filledCount(row)
		totalFilled += filled
		if filled >= 2 {
			multiCol++
		}
	}
	if multiCol*3 < rows {
		return false
	}

	// Sparse grids are label lists, not tables.
	if float64(totalFilled)/float64(rows) < 1.5 {
		return false
	}

	if isKeyValueLayout(cells) {
		return false
	}
	if !hasConsistentColumns(cells) {
		return false
	}
	return hasTabularContent(cells)
}

func filledCount(row []string) int {
	n := 0
	for _, c := range row {
		if c != "" {
			n++
		}
	}
	return n
}

// isKeyValueLayout recognizes two-column label/value forms: mostly two
// filled cells per row with label-like first cells.
func isKeyValueLayout(cells [][]string) bool {
	if len(cells) == 0 || len(cells[0]) > 6 {
		return false
	}

	labelLike, twoOrLess := 0, 0
	for _, row := range cells {
		if filledCount(row) <= 2 {
			twoOrLess++
		}
		first := strings.TrimSpace(row[0])
		if strings.HasSuffix(first, ":") || (len(first) > 3 && isAllCaps(first)) {
			labelLike++
		}
	}

	n := float64(len(cells))
	return float64(twoOrLess)/n > 0.7 && float64(labelLike)/n > 0.5
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r == ' ' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return hasLetter
}

// hasConsistentColumns checks that the filled-column count is similar
// across rows.
func hasConsistentColumns(cells [][]string) bool {
	if len(cells) < 3 {
		return true
	}

	freq := map[int]int{}
	counts := make([]int, len(cells))
	for i, row := range cells {
		counts[i] = filledCount(row)
		freq[counts[i]]++
	}

	modal, modalFreq := 0, 0
	for count, f := range freq {
		if f > modalFreq {
			modal, modalFreq = count, f
		}
	}

	consistent := 0
	for _, c := range counts {
		if c >= modal-2 && c <= modal+2 {
			consistent++
		}
	}
	return float64(consistent)/float64(len(cells)) > 0.4
}

// hasTabularContent requires some numeric cells (or a wide grid):
// tables carry data, label blocks carry prose.
func hasTabularContent(cells [][]string) bool {
	numeric, total := 0, 0
	for _, row := range cells[1:] {
		for _, cell := range row {
			if cell == "" {
				continue
			}
			total++
			if looksNumeric(cell) {
				numeric++
			}
		}
	}
	if total == 0 {
		return false
	}
	return float64(numeric)/float64(total) > 0.2 || len(cells[0]) >= 5
}

// looksNumeric reports whether a cell holds a number-like value.
func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	hasDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '.' || r == ',' || r == '-' || r == '+' || r == '%' || r == '$':
		default:
			return false
		}
	}
	return hasDigit
}

// inferAlignments marks numeric-dominant columns right aligned.
func inferAlignments(cells [][]string, cfg Config) []Alignment {
	if len(cells) == 0 {
		return nil
	}

	aligns := make([]Alignment, len(cells[0]))
	for c := range aligns {
		numeric, total := 0, 0
		for _, row := range cells[1:] {
			if row[c] == "" {
				continue
			}
			total++
			if looksNumeric(row[c]) {
				numeric++
			}
		}
		if total > 0 && float64(numeric)/float64(total) >= cfg.NumericColumnRatio {
			aligns[c] = AlignRight
		}
	}
	return aligns
}
