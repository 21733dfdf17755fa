// Package text turns parsed content stream operations into positioned
// text items. Each text-showing operator yields one item carrying the
// decoded text, its device-space position, the effective font size and
// the font style, which is everything layout reconstruction needs.
package text

import (
	"strings"

	"github.com/tsawler/pdfmark/contentstream"
	"github.com/tsawler/pdfmark/font"
	"github.com/tsawler/pdfmark/graphicsstate"
	"github.com/tsawler/pdfmark/model"
)

// Item is one positioned run of text from a content stream.
type Item struct {
	// Text is the decoded text of the run.
	Text string

	// X, Y is the device-space position of the run's start, PDF
	// convention: origin bottom-left, Y grows upward.
	X, Y float64

	// FontSize is the effective rendered size in points, after text
	// matrix and CTM scaling.
	FontSize float64

	// FontName is the base font name, empty when unknown.
	FontName string

	Bold      bool
	Italic    bool
	Monospace bool

	// Page is the 1-based page number, assigned by the document
	// pipeline. Zero within a single-stream extraction.
	Page int

	// Approx marks items produced by the raw stream scan. Their
	// positions are synthetic; items from the structured walk always
	// carry exact positions, whatever decoding strategy was used.
	Approx bool
}

// glyphWidthEm approximates glyph advance as half an em. Exact widths
// would require the font's width arrays; for layout reconstruction
// only the relative ordering of positions matters.
const glyphWidthEm = 0.5

// Bounds approximates the area the item covers: half an em per glyph
// wide, one font size tall.
func (it Item) Bounds() model.BBox {
	size := it.FontSize
	if size <= 0 {
		size = 12
	}
	return model.BBox{
		X:      it.X,
		Y:      it.Y,
		Width:  float64(len([]rune(it.Text))) * size * glyphWidthEm,
		Height: size,
	}
}

// Extractor replays content stream operations and collects text items.
type Extractor struct {
	fonts font.Map
}

// NewExtractor creates an extractor using the given page fonts.
func NewExtractor(fonts font.Map) *Extractor {
	return &Extractor{fonts: fonts}
}

// Extract parses the content stream and returns its text items in
// stream order. Parse problems degrade to fewer items, never to an
// error; a stream with no text yields an empty slice.
func (e *Extractor) Extract(content []byte) []Item {
	ops, err := contentstream.NewParser(content).Parse()
	if err != nil {
		return nil
	}
	return e.run(ops)
}

// run walks the operations with a live graphics state.
func (e *Extractor) run(ops []contentstream.Operation) []Item {
	gs := graphicsstate.New()
	var items []Item
	var cur *font.Font

	for _, op := range ops {
		switch op.Operator {
		case "q":
			gs.Save()
		case "Q":
			// Underflow from unbalanced streams is ignored.
			_ = gs.Restore()
		case "cm":
			if m, ok := matrixOperands(op.Operands); ok {
				gs.Transform(m)
			}
		case "BT":
			gs.BeginText()
		case "ET":
			gs.EndText()
		case "Tf":
			if len(op.Operands) == 2 {
				name, okName := op.Operands[0].(contentstream.Name)
				size, okSize := contentstream.Number(op.Operands[1])
				if okName && okSize {
					gs.SetFont(string(name), size)
					cur = e.fonts.Get(string(name))
				}
			}
		case "Td":
			if tx, ty, ok := pairOperands(op.Operands); ok {
				gs.TranslateText(tx, ty)
			}
		case "TD":
			if tx, ty, ok := pairOperands(op.Operands); ok {
				gs.TranslateTextSetLeading(tx, ty)
			}
		case "Tm":
			if m, ok := matrixOperands(op.Operands); ok {
				gs.SetTextMatrix(m)
			}
		case "T*":
			gs.NextLine()
		case "TL":
			if v, ok := singleOperand(op.Operands); ok {
				gs.SetLeading(v)
			}
		case "Tc":
			if v, ok := singleOperand(op.Operands); ok {
				gs.SetCharSpacing(v)
			}
		case "Tw":
			if v, ok := singleOperand(op.Operands); ok {
				gs.SetWordSpacing(v)
			}
		case "Tz":
			if v, ok := singleOperand(op.Operands); ok {
				gs.SetHorizontalScaling(v)
			}
		case "Ts":
			if v, ok := singleOperand(op.Operands); ok {
				gs.SetTextRise(v)
			}
		case "Tr":
			if v, ok := singleOperand(op.Operands); ok {
				gs.SetRenderingMode(int(v))
			}
		case "Tj":
			if len(op.Operands) == 1 {
				if s, ok := op.Operands[0].(contentstream.String); ok {
					items = e.show(items, gs, cur, []byte(s))
				}
			}
		case "'":
			if len(op.Operands) == 1 {
				if s, ok := op.Operands[0].(contentstream.String); ok {
					gs.NextLine()
					items = e.show(items, gs, cur, []byte(s))
				}
			}
		case "\"":
			if len(op.Operands) == 3 {
				aw, okW := contentstream.Number(op.Operands[0])
				ac, okC := contentstream.Number(op.Operands[1])
				s, okS := op.Operands[2].(contentstream.String)
				if okW && okC && okS {
					gs.SetWordSpacing(aw)
					gs.SetCharSpacing(ac)
					gs.NextLine()
					items = e.show(items, gs, cur, []byte(s))
				}
			}
		case "TJ":
			if len(op.Operands) == 1 {
				if arr, ok := op.Operands[0].(contentstream.Array); ok {
					items = e.showArray(items, gs, cur, arr)
				}
			}
		}
	}

	return items
}

// show decodes one shown string, emits an item and advances the text
// position.
func (e *Extractor) show(items []Item, gs *graphicsstate.GraphicsState, f *font.Font, raw []byte) []Item {
	if len(raw) == 0 {
		return items
	}

	text, _ := f.Decode(raw)
	glyphs, spaces := countGlyphs(text)

	if text != "" && !gs.Invisible() {
		pos := gs.TextPosition()
		item := Item{
			Text:     text,
			X:        pos.X,
			Y:        pos.Y,
			FontSize: gs.EffectiveFontSize(),
		}
		if f != nil {
			item.FontName = f.BaseFont
			item.Bold = f.IsBold()
			item.Italic = f.IsItalic()
			item.Monospace = f.IsMonospace()
		}
		items = append(items, item)
	}

	gs.AdvanceGlyphs(glyphs, spaces, glyphWidthEm)
	return items
}

// showArray handles the TJ operator: strings interleaved with
// positioning adjustments in thousandths of an em.
func (e *Extractor) showArray(items []Item, gs *graphicsstate.GraphicsState, f *font.Font, arr contentstream.Array) []Item {
	for _, obj := range arr {
		if s, ok := obj.(contentstream.String); ok {
			items = e.show(items, gs, f, []byte(s))
			continue
		}
		if n, ok := contentstream.Number(obj); ok {
			gs.AdjustTJ(n)
		}
	}
	return items
}

// countGlyphs returns the rune and space counts used for advance
// approximation.
func countGlyphs(s string) (glyphs, spaces int) {
	for _, r := range s {
		glyphs++
		if r == ' ' {
			spaces++
		}
	}
	return glyphs, spaces
}

// singleOperand extracts a lone numeric operand.
func singleOperand(operands []contentstream.Object) (float64, bool) {
	if len(operands) != 1 {
		return 0, false
	}
	return contentstream.Number(operands[0])
}

// pairOperands extracts two numeric operands.
func pairOperands(operands []contentstream.Object) (float64, float64, bool) {
	if len(operands) != 2 {
		return 0, 0, false
	}
	a, okA := contentstream.Number(operands[0])
	b, okB := contentstream.Number(operands[1])
	return a, b, okA && okB
}

// matrixOperands extracts six numeric operands as a matrix.
func matrixOperands(operands []contentstream.Object) (model.Matrix, bool) {
	if len(operands) != 6 {
		return model.Matrix{}, false
	}
	var m model.Matrix
	for i, obj := range operands {
		v, ok := contentstream.Number(obj)
		if !ok {
			return model.Matrix{}, false
		}
		m[i] = v
	}
	return m, true
}

// ExtractRaw scans raw stream bytes for parenthesized string literals
// without replaying the graphics state. It is the fallback when the
// structured walk produced nothing even though marker operators say
// the stream shows text. Items carry no usable positions and are
// marked approximate.
func ExtractRaw(content []byte) []Item {
	var items []Item
	var line float64

	for i := 0; i < len(content); i++ {
		if content[i] != '(' {
			continue
		}

		end, s := scanLiteral(content, i)
		i = end
		if strings.TrimSpace(s) == "" {
			continue
		}

		items = append(items, Item{
			Text:   s,
			Y:      -line,
			Approx: true,
		})
		line++
	}

	return items
}

// scanLiteral reads a (...) literal starting at open, returning the
// index of the closing paren and the unescaped contents.
func scanLiteral(data []byte, open int) (int, string) {
	var sb strings.Builder
	depth := 1

	i := open + 1
	for ; i < len(data) && depth > 0; i++ {
		c := data[i]
		switch {
		case c == '\\' && i+1 < len(data):
			i++
			switch data[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(data[i])
			}
		case c == '(':
			depth++
			sb.WriteByte(c)
		case c == ')':
			depth--
			if depth > 0 {
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte(c)
		}
	}

	return i - 1, sb.String()
}
