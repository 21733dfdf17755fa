package layout

import (
	"testing"

	"github.com/tsawler/pdfmark/text"
)

func item(s string, x, y, size float64) text.Item {
	return text.Item{Text: s, X: x, Y: y, FontSize: size}
}

func TestGroupLines_BaselineBands(t *testing.T) {
	items := []text.Item{
		item("world", 140, 700, 12),
		item("Hello", 100, 701, 12), // 1pt jitter, same band
		item("below", 100, 680, 12),
	}

	lines := groupLines(items, 1, DefaultConfig())
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if got := lines[0].Text(); got != "Hello world" {
		t.Errorf("first line = %q, want Hello world", got)
	}
	if got := lines[1].Text(); got != "below" {
		t.Errorf("second line = %q", got)
	}
}

func TestGroupLines_ItemsSortedByX(t *testing.T) {
	items := []text.Item{
		item("two", 200, 500, 12),
		item("one", 100, 500, 12),
		item("three", 300, 500, 12),
	}

	lines := groupLines(items, 1, DefaultConfig())
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if got := lines[0].Text(); got != "one two three" {
		t.Errorf("line = %q", got)
	}
	if lines[0].X != 100 {
		t.Errorf("X = %g, want 100", lines[0].X)
	}
}

func TestGroupLines_ToleranceScalesWithFont(t *testing.T) {
	// At 40pt the band is 10pt wide, so a 6pt offset stays in line.
	items := []text.Item{
		item("BIG", 100, 700, 40),
		item("TITLE", 200, 694, 40),
	}

	lines := groupLines(items, 1, DefaultConfig())
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: 6pt offset within a 40pt line", len(lines))
	}

	// The same offset at 8pt font is two separate lines.
	items = []text.Item{
		item("small", 100, 700, 8),
		item("print", 200, 694, 8),
	}
	lines = groupLines(items, 1, DefaultConfig())
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 at 8pt", len(lines))
	}
}

func TestLineText_SpacingInference(t *testing.T) {
	// "ab" at x=100, size 12: approximate end 112. An item right at
	// the end joins without a space; a gapped item gets one.
	tight := &Line{Items: []text.Item{
		item("ab", 100, 500, 12),
		item("cd", 112.5, 500, 12),
	}}
	if got := tight.Text(); got != "abcd" {
		t.Errorf("tight join = %q, want abcd", got)
	}

	gapped := &Line{Items: []text.Item{
		item("ab", 100, 500, 12),
		item("cd", 125, 500, 12),
	}}
	if got := gapped.Text(); got != "ab cd" {
		t.Errorf("gapped join = %q, want ab cd", got)
	}
}

func TestLine_SetTextOverrides(t *testing.T) {
	l := &Line{Items: []text.Item{item("original", 0, 0, 12)}}
	l.SetText("rewritten")
	if got := l.Text(); got != "rewritten" {
		t.Errorf("Text = %q", got)
	}
}

func TestLine_FontSizeDominant(t *testing.T) {
	l := &Line{Items: []text.Item{
		item("a long body run", 0, 0, 12),
		item("¹", 200, 2, 8),
	}}
	if got := l.FontSize(); got != 12 {
		t.Errorf("FontSize = %g, want 12", got)
	}
}

func TestLine_Monospace(t *testing.T) {
	mono := &Line{Items: []text.Item{
		{Text: "x := compute(y)", Monospace: true, FontSize: 10},
		{Text: "!", Monospace: false, FontSize: 10},
	}}
	if !mono.Monospace() {
		t.Error("dominantly monospace line not detected")
	}

	mixed := &Line{Items: []text.Item{
		{Text: "see the function", Monospace: false, FontSize: 10},
		{Text: "main", Monospace: true, FontSize: 10},
	}}
	if mixed.Monospace() {
		t.Error("mostly proportional line flagged monospace")
	}
}

func TestMergeScripts_Superscript(t *testing.T) {
	lines := []*Line{
		{Items: []text.Item{item("melting point of ice", 100, 500, 12)}, Page: 1, Y: 500},
		{Items: []text.Item{item("3", 260, 505, 7)}, Page: 1, Y: 505},
	}

	merged := mergeScripts(lines, DefaultConfig())
	if len(merged) != 1 {
		t.Fatalf("got %d lines, want 1", len(merged))
	}
	if got := merged[0].Text(); got != "melting point of ice^3" {
		t.Errorf("merged text = %q", got)
	}
}

func TestMergeScripts_Subscript(t *testing.T) {
	lines := []*Line{
		{Items: []text.Item{item("H", 100, 500, 12)}, Page: 1, Y: 500},
		{Items: []text.Item{item("2", 110, 496, 7)}, Page: 1, Y: 496},
	}

	merged := mergeScripts(lines, DefaultConfig())
	if len(merged) != 1 {
		t.Fatalf("got %d lines, want 1", len(merged))
	}
	if got := merged[0].Text(); got != "H~2" {
		t.Errorf("merged text = %q", got)
	}
}

func TestMergeScripts_BodyLinesUntouched(t *testing.T) {
	lines := []*Line{
		{Items: []text.Item{item("first paragraph line", 100, 500, 12)}, Page: 1, Y: 500},
		{Items: []text.Item{item("second paragraph line", 100, 486, 12)}, Page: 1, Y: 486},
	}

	merged := mergeScripts(lines, DefaultConfig())
	if len(merged) != 2 {
		t.Fatalf("got %d lines, want 2: equal-size neighbors are not scripts", len(merged))
	}
}

func TestMergeScripts_FarAwaySmallLineKept(t *testing.T) {
	// A small line far below the body is a caption, not a script.
	lines := []*Line{
		{Items: []text.Item{item("body text", 100, 500, 12)}, Page: 1, Y: 500},
		{Items: []text.Item{item("(c)", 100, 300, 7)}, Page: 1, Y: 300},
	}

	merged := mergeScripts(lines, DefaultConfig())
	if len(merged) != 2 {
		t.Fatalf("got %d lines, want 2", len(merged))
	}
}
