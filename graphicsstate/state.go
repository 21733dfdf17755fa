// Package graphicsstate tracks the PDF graphics and text state while a
// content stream is replayed: the current transformation matrix, the
// q/Q save stack, and the text matrices positioned by the Td/TD/Tm/T*
// family of operators.
package graphicsstate

import (
	"fmt"

	"github.com/tsawler/pdfmark/model"
)

// GraphicsState represents the PDF graphics state.
type GraphicsState struct {
	// CTM is the current transformation matrix.
	CTM model.Matrix

	// Text is the text-specific state.
	Text TextState

	// stack holds saved states for the q/Q operators.
	stack []*GraphicsState
}

// TextState represents text-specific state.
type TextState struct {
	FontName string
	FontSize float64

	CharSpacing float64
	WordSpacing float64

	// HorizontalScaling is a percentage, 100 by default.
	HorizontalScaling float64

	// Leading is the line spacing used by TD, T* and '.
	Leading float64

	RenderingMode int
	Rise          float64

	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

// New creates a graphics state with PDF default values.
func New() *GraphicsState {
	return &GraphicsState{
		CTM: model.Identity(),
		Text: TextState{
			FontSize:          12.0,
			HorizontalScaling: 100.0,
			TextMatrix:        model.Identity(),
			TextLineMatrix:    model.Identity(),
		},
	}
}

// Clone creates a copy of the graphics state without its save stack.
func (gs *GraphicsState) Clone() *GraphicsState {
	return &GraphicsState{
		CTM:  gs.CTM,
		Text: gs.Text,
	}
}

// Save pushes the current graphics state onto the stack (q operator).
func (gs *GraphicsState) Save() {
	gs.stack = append(gs.stack, gs.Clone())
}

// Restore pops a graphics state from the stack (Q operator).
func (gs *GraphicsState) Restore() error {
	if len(gs.stack) == 0 {
		return fmt.Errorf("graphics state stack underflow")
	}

	saved := gs.stack[len(gs.stack)-1]
	gs.stack = gs.stack[:len(gs.stack)-1]

	gs.CTM = saved.CTM
	gs.Text = saved.Text

	return nil
}

// Transform applies a transformation matrix to the CTM (cm operator).
func (gs *GraphicsState) Transform(m model.Matrix) {
	gs.CTM = gs.CTM.Multiply(m)
}

// SetFont sets the current font (Tf operator).
func (gs *GraphicsState) SetFont(name string, size float64) {
	gs.Text.FontName = name
	gs.Text.FontSize = size
}

// SetCharSpacing sets character spacing (Tc operator).
func (gs *GraphicsState) SetCharSpacing(spacing float64) {
	gs.Text.CharSpacing = spacing
}

// SetWordSpacing sets word spacing (Tw operator).
func (gs *GraphicsState) SetWordSpacing(spacing float64) {
	gs.Text.WordSpacing = spacing
}

// SetHorizontalScaling sets horizontal scaling (Tz operator).
func (gs *GraphicsState) SetHorizontalScaling(scale float64) {
	gs.Text.HorizontalScaling = scale
}

// SetLeading sets text leading (TL operator).
func (gs *GraphicsState) SetLeading(leading float64) {
	gs.Text.Leading = leading
}

// SetRenderingMode sets the text rendering mode (Tr operator).
func (gs *GraphicsState) SetRenderingMode(mode int) {
	gs.Text.RenderingMode = mode
}

// SetTextRise sets the text rise (Ts operator).
func (gs *GraphicsState) SetTextRise(rise float64) {
	gs.Text.Rise = rise
}

// BeginText resets the text matrices (BT operator).
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// EndText ends a text object (ET operator).
func (gs *GraphicsState) EndText() {}

// SetTextMatrix sets both text matrices (Tm operator).
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText starts a new line offset from the current one
// (Td operator): Tlm = T(tx, ty) × Tlm, Tm = Tlm.
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	gs.Text.TextLineMatrix = gs.Text.TextLineMatrix.Multiply(model.Translate(tx, ty))
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading moves to the next line and sets the leading
// to -ty (TD operator).
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.SetLeading(-ty)
	gs.TranslateText(tx, ty)
}

// NextLine moves to the start of the next line (T* operator).
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

// Advance moves the text matrix horizontally by the given displacement
// in unscaled text space units, applied after showing text.
func (gs *GraphicsState) Advance(tx float64) {
	gs.Text.TextMatrix = gs.Text.TextMatrix.Multiply(model.Translate(tx, 0))
}

// AdvanceGlyphs advances past shown text, approximating glyph widths
// at half an em. widthEm is the per-glyph width in em units; character
// and word spacing apply per glyph and per space.
func (gs *GraphicsState) AdvanceGlyphs(glyphs, spaces int, widthEm float64) {
	scale := gs.Text.HorizontalScaling / 100.0
	tx := float64(glyphs) * widthEm * gs.Text.FontSize
	tx += float64(glyphs) * gs.Text.CharSpacing
	tx += float64(spaces) * gs.Text.WordSpacing
	gs.Advance(tx * scale)
}

// AdjustTJ applies a TJ positioning adjustment given in thousandths of
// an em. Positive values move the position left.
func (gs *GraphicsState) AdjustTJ(amount float64) {
	scale := gs.Text.HorizontalScaling / 100.0
	gs.Advance(-amount / 1000.0 * gs.Text.FontSize * scale)
}

// TextRenderingMatrix returns the composition of the text matrix and
// the CTM, which maps unscaled text space to device space.
func (gs *GraphicsState) TextRenderingMatrix() model.Matrix {
	return gs.CTM.Multiply(gs.Text.TextMatrix)
}

// TextPosition returns the current text position in device space,
// including the text rise.
func (gs *GraphicsState) TextPosition() model.Point {
	return gs.TextRenderingMatrix().Transform(model.Point{X: 0, Y: gs.Text.Rise})
}

// EffectiveFontSize returns the font size as rendered: the nominal Tf
// size scaled by the vertical component of the combined text and
// transformation matrices. A Tf size of 1 with a Tm of [12 0 0 12 x y]
// renders at 12 points.
func (gs *GraphicsState) EffectiveFontSize() float64 {
	return gs.Text.FontSize * gs.TextRenderingMatrix().ScaleY()
}

// Invisible reports whether the current rendering mode draws nothing
// (mode 3). Such text is typically an OCR underlay.
func (gs *GraphicsState) Invisible() bool {
	return gs.Text.RenderingMode == 3
}
