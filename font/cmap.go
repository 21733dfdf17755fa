package font

import (
	"unicode/utf16"

	"github.com/tsawler/pdfmark/contentstream"
)

// CMap maps character codes to Unicode strings, built from a ToUnicode
// CMap stream. Codes are 1 or 2 bytes wide; the width of each range is
// taken from the codespace declarations.
type CMap struct {
	// single maps an individual code to its replacement text.
	single map[uint32]string

	// ranges holds bfrange mappings not expanded into single entries.
	ranges []cmapRange

	// codespaces drives multi-byte code segmentation.
	codespaces []codespace

	// srcWidths counts the source code byte lengths seen in the bfchar
	// and bfrange sections, indexed by length. They stand in for the
	// codespace declarations when a CMap omits them.
	srcWidths [5]int
}

type cmapRange struct {
	lo, hi uint32
	// dst is the Unicode value of lo; codes inside the range map to
	// dst + (code - lo) on the final UTF-16 code unit.
	dst []uint16
}

type codespace struct {
	lo, hi   uint32
	numBytes int
}

// ParseCMap parses a ToUnicode CMap stream. The PostScript wrapping is
// ignored; only codespacerange, bfchar and bfrange sections matter.
// Returns nil when the stream contains no usable mappings.
func ParseCMap(data []byte) *CMap {
	if len(data) == 0 {
		return nil
	}

	cm := &CMap{single: map[uint32]string{}}

	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return nil
	}

	// The parser yields PostScript operators with their preceding
	// operands. Section contents appear as operands of the end*
	// operator, preceded by the begin* marker operand-wise; we walk
	// the operand runs between begin/end pairs.
	var pending []contentstream.Object
	section := ""

	flush := func(endOp string) {
		switch endOp {
		case "endcodespacerange":
			cm.addCodespaces(pending)
		case "endbfchar":
			cm.addBFChars(pending)
		case "endbfrange":
			cm.addBFRanges(pending)
		}
		pending = nil
		section = ""
	}

	for _, op := range ops {
		switch op.Operator {
		case "begincodespacerange", "beginbfchar", "beginbfrange":
			section = op.Operator
			pending = nil
		case "endcodespacerange", "endbfchar", "endbfrange":
			pending = append(pending, op.Operands...)
			flush(op.Operator)
		default:
			if section != "" {
				pending = append(pending, op.Operands...)
			}
		}
	}

	if len(cm.single) == 0 && len(cm.ranges) == 0 {
		return nil
	}
	return cm
}

// addCodespaces records <lo> <hi> codespace pairs.
func (cm *CMap) addCodespaces(objs []contentstream.Object) {
	for i := 0; i+1 < len(objs); i += 2 {
		lo, okLo := objs[i].(contentstream.String)
		hi, okHi := objs[i+1].(contentstream.String)
		if !okLo || !okHi || len(lo) == 0 || len(lo) > 4 || len(lo) != len(hi) {
			continue
		}
		cm.codespaces = append(cm.codespaces, codespace{
			lo:       codeValue([]byte(lo)),
			hi:       codeValue([]byte(hi)),
			numBytes: len(lo),
		})
	}
}

// addBFChars records <src> <dst> pairs.
func (cm *CMap) addBFChars(objs []contentstream.Object) {
	for i := 0; i+1 < len(objs); i += 2 {
		src, okSrc := objs[i].(contentstream.String)
		dst, okDst := objs[i+1].(contentstream.String)
		if !okSrc || !okDst || len(src) == 0 || len(src) > 4 {
			continue
		}
		cm.srcWidths[len(src)]++
		cm.single[codeValue([]byte(src))] = utf16beToString([]byte(dst))
	}
}

// addBFRanges records <lo> <hi> dst triples, where dst is either a
// base value string or an array of per-code strings.
func (cm *CMap) addBFRanges(objs []contentstream.Object) {
	for i := 0; i+2 < len(objs); i += 3 {
		lo, okLo := objs[i].(contentstream.String)
		hi, okHi := objs[i+1].(contentstream.String)
		if !okLo || !okHi || len(lo) == 0 || len(lo) > 4 {
			continue
		}
		loVal := codeValue([]byte(lo))
		hiVal := codeValue([]byte(hi))
		if hiVal < loVal {
			continue
		}
		cm.srcWidths[len(lo)]++

		switch dst := objs[i+2].(type) {
		case contentstream.String:
			units := utf16beUnits([]byte(dst))
			if len(units) == 0 {
				continue
			}
			cm.ranges = append(cm.ranges, cmapRange{lo: loVal, hi: hiVal, dst: units})
		case contentstream.Array:
			for j, item := range dst {
				s, ok := item.(contentstream.String)
				if !ok || loVal+uint32(j) > hiVal {
					continue
				}
				cm.single[loVal+uint32(j)] = utf16beToString([]byte(s))
			}
		}
	}
}

// Lookup resolves a character code, reporting whether a mapping exists.
func (cm *CMap) Lookup(code uint32) (string, bool) {
	if s, ok := cm.single[code]; ok {
		return s, true
	}
	for _, r := range cm.ranges {
		if code >= r.lo && code <= r.hi {
			units := make([]uint16, len(r.dst))
			copy(units, r.dst)
			units[len(units)-1] += uint16(code - r.lo)
			return string(utf16.Decode(units)), true
		}
	}
	return "", false
}

// CodeWidth returns the byte width of the code starting the given
// bytes, per the codespace declarations. Without a matching codespace
// it falls back to the dominant declared width, then to the dominant
// bfchar/bfrange source width for CMaps that omit codespacerange, and
// finally to one byte.
func (cm *CMap) CodeWidth(data []byte) int {
	for _, cs := range cm.codespaces {
		if cs.numBytes > len(data) {
			continue
		}
		v := codeValue(data[:cs.numBytes])
		if v >= cs.lo && v <= cs.hi {
			return cs.numBytes
		}
	}
	if w := cm.defaultWidth(); w <= len(data) {
		return w
	}
	return 1
}

// defaultWidth picks the most common declared code width, consulting
// the bfchar/bfrange source widths when no codespace was declared.
func (cm *CMap) defaultWidth() int {
	counts := map[int]int{}
	for _, cs := range cm.codespaces {
		counts[cs.numBytes]++
	}
	if len(counts) == 0 {
		for w, c := range cm.srcWidths {
			counts[w] = c
		}
	}

	best, bestCount := 1, 0
	for w, c := range counts {
		if w > 0 && c > bestCount {
			best, bestCount = w, c
		}
	}
	return best
}

// codeValue interprets up to four big-endian bytes as a code.
func codeValue(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// utf16beUnits converts big-endian byte pairs to UTF-16 code units.
func utf16beUnits(b []byte) []uint16 {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return units
}

// utf16beToString decodes big-endian UTF-16 bytes, surrogates included.
func utf16beToString(b []byte) string {
	return string(utf16.Decode(utf16beUnits(b)))
}
