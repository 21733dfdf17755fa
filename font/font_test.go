package font

import (
	"strings"
	"testing"

	"github.com/tsawler/pdfmark/reader"
)

// makeCMap wraps body in the boilerplate a real ToUnicode stream has.
func makeCMap(body string) []byte {
	return []byte(`/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
` + body + `
endcmap
CMapName currentdict /CMap defineresource pop
end
end`)
}

const twoByteCodespace = `1 begincodespacerange
<0000> <FFFF>
endcodespacerange
`

func TestParseCMap_BFChar(t *testing.T) {
	cm := ParseCMap(makeCMap(twoByteCodespace + `2 beginbfchar
<0048> <0048>
<0065> <0065>
endbfchar`))
	if cm == nil {
		t.Fatal("ParseCMap returned nil")
	}

	if s, ok := cm.Lookup(0x0048); !ok || s != "H" {
		t.Errorf("Lookup(0x48) = %q %v, want H", s, ok)
	}
	if _, ok := cm.Lookup(0x0049); ok {
		t.Error("unmapped code reported as mapped")
	}
}

func TestParseCMap_BFRange(t *testing.T) {
	cm := ParseCMap(makeCMap(twoByteCodespace + `1 beginbfrange
<0041> <005A> <0041>
endbfrange`))
	if cm == nil {
		t.Fatal("ParseCMap returned nil")
	}

	for code, want := range map[uint32]string{0x41: "A", 0x4D: "M", 0x5A: "Z"} {
		if s, ok := cm.Lookup(code); !ok || s != want {
			t.Errorf("Lookup(%#x) = %q %v, want %q", code, s, ok, want)
		}
	}
	if _, ok := cm.Lookup(0x5B); ok {
		t.Error("code past range end reported as mapped")
	}
}

func TestParseCMap_BFRangeArray(t *testing.T) {
	cm := ParseCMap(makeCMap(twoByteCodespace + `1 beginbfrange
<0001> <0003> [<00660066> <00660069> <0066006C>]
endbfrange`))
	if cm == nil {
		t.Fatal("ParseCMap returned nil")
	}

	want := map[uint32]string{1: "ff", 2: "fi", 3: "fl"}
	for code, s := range want {
		if got, ok := cm.Lookup(code); !ok || got != s {
			t.Errorf("Lookup(%d) = %q %v, want %q", code, got, ok, s)
		}
	}
}

func TestParseCMap_SurrogatePair(t *testing.T) {
	// U+1D11E musical symbol encoded as a surrogate pair.
	cm := ParseCMap(makeCMap(twoByteCodespace + `1 beginbfchar
<0001> <D834DD1E>
endbfchar`))
	if cm == nil {
		t.Fatal("ParseCMap returned nil")
	}
	if s, _ := cm.Lookup(1); s != "\U0001D11E" {
		t.Errorf("Lookup(1) = %q, want U+1D11E", s)
	}
}

func TestParseCMap_Empty(t *testing.T) {
	if cm := ParseCMap(nil); cm != nil {
		t.Error("nil input should yield nil CMap")
	}
	if cm := ParseCMap(makeCMap("")); cm != nil {
		t.Error("CMap without mappings should yield nil")
	}
}

func TestDecode_CMapTwoByte(t *testing.T) {
	f := New(reader.FontInfo{
		Name:    "F1",
		Subtype: "Type0",
		ToUnicode: makeCMap(twoByteCodespace + `1 beginbfrange
<0000> <00FF> <0000>
endbfrange`),
	})
	if !f.HasToUnicode() {
		t.Fatal("expected ToUnicode CMap")
	}

	got, exact := f.Decode([]byte{0x00, 'H', 0x00, 'i'})
	if got != "Hi" || !exact {
		t.Errorf("Decode = %q exact=%v, want Hi exact", got, exact)
	}
}

func TestDecode_CMapUnmappedCode(t *testing.T) {
	f := New(reader.FontInfo{
		Name:    "F1",
		Subtype: "Type0",
		ToUnicode: makeCMap(twoByteCodespace + `1 beginbfchar
<0001> <0041>
endbfchar`),
	})

	got, _ := f.Decode([]byte{0x00, 0x01, 0x00, 0x99})
	if got != "A�" {
		t.Errorf("Decode = %q, want A followed by U+FFFD", got)
	}
}

func TestDecode_OneByteCodespace(t *testing.T) {
	f := New(reader.FontInfo{
		Name: "F2",
		ToUnicode: makeCMap(`1 begincodespacerange
<00> <FF>
endcodespacerange
1 beginbfrange
<20> <7E> <0020>
endbfrange`),
	})

	got, exact := f.Decode([]byte("Hello"))
	if got != "Hello" || !exact {
		t.Errorf("Decode = %q exact=%v, want Hello exact", got, exact)
	}
}

func TestDecode_NoCodespaceUsesSourceWidth(t *testing.T) {
	// Some producers emit ToUnicode CMaps without a codespacerange.
	// The two-byte bfchar source codes still set the code width.
	f := New(reader.FontInfo{
		Name:    "F1",
		Subtype: "Type0",
		ToUnicode: makeCMap(`2 beginbfchar
<0041> <0048>
<0042> <0069>
endbfchar`),
	})
	if !f.HasToUnicode() {
		t.Fatal("expected ToUnicode CMap")
	}

	got, exact := f.Decode([]byte{0x00, 0x41, 0x00, 0x42})
	if got != "Hi" || !exact {
		t.Errorf("Decode = %q exact=%v, want Hi exact", got, exact)
	}
}

func TestDecode_IdentityUTF16(t *testing.T) {
	f := New(reader.FontInfo{Name: "F1", Subtype: "Type0", Encoding: "Identity-H"})

	got, exact := f.Decode([]byte{0x00, 'A', 0x00, 'B'})
	if got != "AB" || !exact {
		t.Errorf("Decode = %q exact=%v, want AB exact", got, exact)
	}
}

func TestDecode_Latin1Fallback(t *testing.T) {
	f := New(reader.FontInfo{Name: "F1", Subtype: "TrueType"})

	got, exact := f.Decode([]byte{'c', 'a', 'f', 0xE9})
	if got != "café" {
		t.Errorf("Decode = %q, want café", got)
	}
	if exact {
		t.Error("Latin-1 fallback must be reported as approximate")
	}
}

func TestDecode_NilFont(t *testing.T) {
	var f *Font
	got, exact := f.Decode([]byte("plain"))
	if got != "plain" || exact {
		t.Errorf("Decode on nil font = %q exact=%v, want plain approximate", got, exact)
	}
}

func TestStripSubsetTag(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ABCDEF+TimesNewRoman", "TimesNewRoman"},
		{"Helvetica-Bold", "Helvetica-Bold"},
		{"abcdef+NotASubset", "abcdef+NotASubset"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripSubsetTag(tt.in); got != tt.want {
			t.Errorf("stripSubsetTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStyleClassification(t *testing.T) {
	tests := []struct {
		name                  string
		fi                    reader.FontInfo
		bold, italic, monospc bool
	}{
		{"helvetica", reader.FontInfo{BaseFont: "Helvetica"}, false, false, false},
		{"bold by name", reader.FontInfo{BaseFont: "Helvetica-Bold"}, true, false, false},
		{"italic by name", reader.FontInfo{BaseFont: "Times-Italic"}, false, true, false},
		{"oblique", reader.FontInfo{BaseFont: "Courier-Oblique"}, false, true, true},
		{"bold by flag", reader.FontInfo{BaseFont: "Mystery", Flags: FlagForceBold}, true, false, false},
		{"italic by flag", reader.FontInfo{BaseFont: "Mystery", Flags: FlagItalic}, false, true, false},
		{"fixed pitch flag", reader.FontInfo{BaseFont: "Mystery", Flags: FlagFixedPitch}, false, false, true},
		{"consolas", reader.FontInfo{BaseFont: "Consolas"}, false, false, true},
		{"subset courier", reader.FontInfo{BaseFont: "XYZABC+CourierNew"}, false, false, true},
		{"dejavu mono", reader.FontInfo{BaseFont: "DejaVuSansMono"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.fi)
			if f.IsBold() != tt.bold {
				t.Errorf("IsBold = %v, want %v", f.IsBold(), tt.bold)
			}
			if f.IsItalic() != tt.italic {
				t.Errorf("IsItalic = %v, want %v", f.IsItalic(), tt.italic)
			}
			if f.IsMonospace() != tt.monospc {
				t.Errorf("IsMonospace = %v, want %v", f.IsMonospace(), tt.monospc)
			}
		})
	}
}

func TestMap_Get(t *testing.T) {
	m := NewMap(map[string]reader.FontInfo{
		"F1": {Name: "F1", BaseFont: "Helvetica"},
	})

	if f := m.Get("F1"); f == nil || f.BaseFont != "Helvetica" {
		t.Errorf("Get(F1) = %+v", f)
	}
	if f := m.Get("F9"); f != nil {
		t.Errorf("Get(F9) = %+v, want nil", f)
	}

	// Decoding through the nil result must still work.
	if s, _ := m.Get("F9").Decode([]byte("x")); s != "x" {
		t.Errorf("nil font Decode = %q", s)
	}
}

func TestDecode_EmptyInput(t *testing.T) {
	f := New(reader.FontInfo{BaseFont: "Helvetica"})
	if s, exact := f.Decode(nil); s != "" || !exact {
		t.Errorf("Decode(nil) = %q %v", s, exact)
	}
}

func TestMonospaceNameList(t *testing.T) {
	// Guard against fragments accidentally matching common
	// proportional faces.
	for _, base := range []string{"Helvetica", "Times-Roman", "Arial", "Georgia"} {
		f := New(reader.FontInfo{BaseFont: base})
		if f.IsMonospace() {
			t.Errorf("%s misclassified as monospace", base)
		}
	}
	if !strings.Contains(strings.Join(monospaceNames, ","), "courier") {
		t.Error("courier missing from monospace names")
	}
}
