package tables

import (
	"testing"

	"github.com/tsawler/pdfmark/text"
)

// row builds one line of items at the given y with cells at fixed
// x-starts.
func row(y float64, cells map[float64]string) []text.Item {
	var items []text.Item
	for x, s := range cells {
		items = append(items, text.Item{Text: s, X: x, Y: y, FontSize: 10})
	}
	return items
}

func gradeTable() [][]text.Item {
	return [][]text.Item{
		row(500, map[float64]string{0: "Subject", 100: "Q1", 200: "Q2"}),
		row(480, map[float64]string{0: "Math", 100: "9.0", 200: "8.5"}),
		row(460, map[float64]string{0: "Science", 100: "8.0", 200: "9.0"}),
	}
}

func TestDetect_SimpleTable(t *testing.T) {
	tabs := Detect(gradeTable(), DefaultConfig())
	if len(tabs) != 1 {
		t.Fatalf("got %d tables, want 1", len(tabs))
	}

	tab := tabs[0]
	if len(tab.Columns) != 3 {
		t.Fatalf("columns = %v, want 3", tab.Columns)
	}
	if len(tab.Cells) != 3 {
		t.Fatalf("rows = %d, want 3", len(tab.Cells))
	}
	if tab.FirstLine != 0 || tab.LastLine != 2 {
		t.Errorf("extent = [%d,%d], want [0,2]", tab.FirstLine, tab.LastLine)
	}

	if tab.Cells[0][0] != "Subject" || tab.Cells[1][1] != "9.0" || tab.Cells[2][2] != "9.0" {
		t.Errorf("cells = %v", tab.Cells)
	}
}

func TestDetect_AlignmentInference(t *testing.T) {
	tabs := Detect(gradeTable(), DefaultConfig())
	if len(tabs) != 1 {
		t.Fatalf("got %d tables, want 1", len(tabs))
	}

	aligns := tabs[0].Aligns
	if len(aligns) != 3 {
		t.Fatalf("aligns = %v", aligns)
	}
	if aligns[0] != AlignLeft {
		t.Errorf("text column align = %v, want left", aligns[0])
	}
	if aligns[1] != AlignRight || aligns[2] != AlignRight {
		t.Errorf("numeric columns = %v %v, want right", aligns[1], aligns[2])
	}
}

func TestDetect_ProseRejected(t *testing.T) {
	// Paragraph lines: one run each, all starting at the same x.
	lines := [][]text.Item{
		{{Text: "This is the first sentence of a paragraph.", X: 72, Y: 500, FontSize: 12}},
		{{Text: "It continues on the next line as prose.", X: 72, Y: 486, FontSize: 12}},
		{{Text: "And a third line of ordinary text.", X: 72, Y: 472, FontSize: 12}},
	}

	if tabs := Detect(lines, DefaultConfig()); len(tabs) != 0 {
		t.Errorf("prose detected as table: %+v", tabs)
	}
}

func TestDetect_KeyValueFormRejected(t *testing.T) {
	lines := [][]text.Item{
		row(500, map[float64]string{0: "Name:", 150: "Jordan Smith"}),
		row(480, map[float64]string{0: "Date:", 150: "2024-03-01"}),
		row(460, map[float64]string{0: "Grade:", 150: "7"}),
		row(440, map[float64]string{0: "School:", 150: "Riverside"}),
	}

	if tabs := Detect(lines, DefaultConfig()); len(tabs) != 0 {
		t.Errorf("key-value form detected as table: %+v", tabs)
	}
}

func TestDetect_TextOnlyGridRejected(t *testing.T) {
	// Aligned but entirely prose cells and few columns: the content
	// check requires numbers or a wide grid.
	lines := [][]text.Item{
		row(500, map[float64]string{0: "alpha", 100: "beta"}),
		row(480, map[float64]string{0: "gamma", 100: "delta"}),
		row(460, map[float64]string{0: "epsilon", 100: "zeta"}),
	}

	if tabs := Detect(lines, DefaultConfig()); len(tabs) != 0 {
		t.Errorf("wordlist detected as table: %+v", tabs)
	}
}

func TestDetect_TooFewRows(t *testing.T) {
	lines := gradeTable()[:2]
	if tabs := Detect(lines, DefaultConfig()); len(tabs) != 0 {
		t.Errorf("two lines detected as table: %+v", tabs)
	}
}

func TestDetect_RegionEndsAtMisalignedLine(t *testing.T) {
	lines := gradeTable()
	lines = append(lines, []text.Item{
		{Text: "A closing paragraph after the table.", X: 40, Y: 430, FontSize: 12},
	})

	tabs := Detect(lines, DefaultConfig())
	if len(tabs) != 1 {
		t.Fatalf("got %d tables, want 1", len(tabs))
	}
	if tabs[0].LastLine != 2 {
		t.Errorf("LastLine = %d, want 2", tabs[0].LastLine)
	}
}

func TestDetect_JitteredXStarts(t *testing.T) {
	// Column starts wobble by a few points, as real extractions do.
	lines := [][]text.Item{
		row(500, map[float64]string{0: "Item", 101: "Count", 199: "Price"}),
		row(480, map[float64]string{2: "Bolt", 99: "12", 202: "0.40"}),
		row(460, map[float64]string{1: "Nut", 100: "30", 198: "0.15"}),
	}

	tabs := Detect(lines, DefaultConfig())
	if len(tabs) != 1 {
		t.Fatalf("got %d tables, want 1", len(tabs))
	}
	if len(tabs[0].Columns) != 3 {
		t.Errorf("columns = %v, want 3", tabs[0].Columns)
	}
	if tabs[0].Cells[1][0] != "Bolt" || tabs[0].Cells[2][2] != "0.15" {
		t.Errorf("cells = %v", tabs[0].Cells)
	}
}

func TestDetect_Empty(t *testing.T) {
	if tabs := Detect(nil, DefaultConfig()); len(tabs) != 0 {
		t.Errorf("tables from no lines: %+v", tabs)
	}
}

func TestLooksNumeric(t *testing.T) {
	positives := []string{"9.0", "12", "-3", "1,200", "95%", "$40"}
	for _, s := range positives {
		if !looksNumeric(s) {
			t.Errorf("looksNumeric(%q) = false", s)
		}
	}
	negatives := []string{"", "abc", "9a", "N/A", "-"}
	for _, s := range negatives {
		if looksNumeric(s) {
			t.Errorf("looksNumeric(%q) = true", s)
		}
	}
}
