// Package font models the font resources of a page and decodes raw
// show-string bytes into Unicode text. Decoding picks the best
// available strategy per font: an embedded ToUnicode CMap when
// present, UTF-16BE for identity-encoded composite fonts, and a
// Latin-1 byte mapping as the last resort.
package font

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/tsawler/pdfmark/reader"
)

// Font descriptor flag bits (PDF 32000-1, table 123).
const (
	FlagFixedPitch = 1 << 0
	FlagSerif      = 1 << 1
	FlagItalic     = 1 << 6
	FlagForceBold  = 1 << 18
)

// Font is a page font resource prepared for decoding.
type Font struct {
	// Name is the resource name the content stream selects by.
	Name string

	// BaseFont is the PostScript name with any subset tag removed.
	BaseFont string

	// Subtype is the font dictionary subtype.
	Subtype string

	// Encoding is the declared encoding name, possibly empty.
	Encoding string

	flags int
	cmap  *CMap
}

// New prepares a font for decoding from its page resource info.
func New(fi reader.FontInfo) *Font {
	f := &Font{
		Name:     fi.Name,
		BaseFont: stripSubsetTag(fi.BaseFont),
		Subtype:  fi.Subtype,
		Encoding: fi.Encoding,
		flags:    fi.Flags,
	}
	if len(fi.ToUnicode) > 0 {
		f.cmap = ParseCMap(fi.ToUnicode)
	}
	return f
}

// stripSubsetTag removes the "ABCDEF+" prefix of subset fonts.
func stripSubsetTag(name string) string {
	if len(name) > 7 && name[6] == '+' {
		tag := name[:6]
		for _, c := range tag {
			if c < 'A' || c > 'Z' {
				return name
			}
		}
		return name[7:]
	}
	return name
}

// HasToUnicode reports whether a usable ToUnicode CMap was parsed.
func (f *Font) HasToUnicode() bool {
	return f != nil && f.cmap != nil
}

var latin1 = charmap.ISO8859_1

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// Decode converts raw show-string bytes to text. The boolean result
// reports whether the decoding is exact: false means the Latin-1 byte
// mapping was a guess rather than a declared encoding.
func (f *Font) Decode(raw []byte) (string, bool) {
	if len(raw) == 0 {
		return "", true
	}

	if f != nil && f.cmap != nil {
		return f.decodeWithCMap(raw), true
	}

	if f != nil && f.identityEncoded() {
		return decodeUTF16BE(raw), true
	}

	return decodeLatin1(raw), false
}

// decodeWithCMap walks the bytes code by code, consulting the CMap
// codespaces for code width. Unmapped codes become U+FFFD.
func (f *Font) decodeWithCMap(raw []byte) string {
	var sb strings.Builder

	for i := 0; i < len(raw); {
		w := f.cmap.CodeWidth(raw[i:])
		if i+w > len(raw) {
			w = len(raw) - i
		}
		code := codeValue(raw[i : i+w])
		i += w

		if s, ok := f.cmap.Lookup(code); ok {
			sb.WriteString(s)
		} else {
			sb.WriteRune(utf8.RuneError)
		}
	}

	return sb.String()
}

// identityEncoded reports whether show strings carry two-byte
// big-endian code units directly.
func (f *Font) identityEncoded() bool {
	return strings.HasPrefix(f.Encoding, "Identity-") ||
		(f.Subtype == "Type0" && f.Encoding == "")
}

// decodeUTF16BE decodes big-endian UTF-16 bytes via x/text, which
// handles surrogate pairs and replaces broken units with U+FFFD.
func decodeUTF16BE(raw []byte) string {
	decoded, err := utf16be.NewDecoder().Bytes(raw)
	if err != nil {
		return utf16beToString(raw)
	}
	return string(decoded)
}

// decodeLatin1 maps each byte through ISO 8859-1. The mapping is
// total, so decoding cannot fail, only mislabel.
func decodeLatin1(raw []byte) string {
	decoded, err := latin1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// IsBold reports whether the font renders bold, from the descriptor
// flags or the face name.
func (f *Font) IsBold() bool {
	if f == nil {
		return false
	}
	if f.flags&FlagForceBold != 0 {
		return true
	}
	name := strings.ToLower(f.BaseFont)
	return strings.Contains(name, "bold") || strings.Contains(name, "black") ||
		strings.Contains(name, "heavy")
}

// IsItalic reports whether the font renders italic or oblique.
func (f *Font) IsItalic() bool {
	if f == nil {
		return false
	}
	if f.flags&FlagItalic != 0 {
		return true
	}
	name := strings.ToLower(f.BaseFont)
	return strings.Contains(name, "italic") || strings.Contains(name, "oblique")
}

// monospaceNames are face name fragments that identify fixed-pitch
// families even when the descriptor flags are absent.
var monospaceNames = []string{
	"courier", "consolas", "monaco", "menlo", "inconsolata",
	"source code", "sourcecode", "dejavu sans mono", "dejavusansmono",
	"liberation mono", "liberationmono", "lucida console", "mono",
}

// IsMonospace reports whether the font is fixed pitch, from the
// descriptor flags or well-known face names.
func (f *Font) IsMonospace() bool {
	if f == nil {
		return false
	}
	if f.flags&FlagFixedPitch != 0 {
		return true
	}
	name := strings.ToLower(f.BaseFont)
	for _, frag := range monospaceNames {
		if strings.Contains(name, frag) {
			return true
		}
	}
	return false
}

// Map holds the prepared fonts of one page keyed by resource name.
type Map map[string]*Font

// NewMap prepares all fonts of a page.
func NewMap(infos map[string]reader.FontInfo) Map {
	m := make(Map, len(infos))
	for name, fi := range infos {
		m[name] = New(fi)
	}
	return m
}

// Get returns the font for a resource name, or nil when unknown.
// Decoding through a nil *Font falls back to Latin-1.
func (m Map) Get(name string) *Font {
	return m[name]
}
