// Package scan provides a fast byte-level scan of PDF content streams
// for marker operators. It does not tokenize operands or build any
// syntax tree; it only answers "how many text-showing operators and
// image placements does this stream contain", which is all the
// classifier needs.
package scan

// Counts holds the operator counts found in a content stream.
type Counts struct {
	// TextOps is the number of text-showing operators (Tj, TJ, ', ").
	TextOps int

	// ImageOps is the number of XObject placements (Do). Not every Do
	// is an image, but for classification purposes the distinction
	// rarely matters and resolving the XObject would defeat the point
	// of a byte-level scan.
	ImageOps int
}

// HasText reports whether any text-showing operator was found.
func (c Counts) HasText() bool { return c.TextOps > 0 }

// HasImages reports whether any XObject placement was found.
func (c Counts) HasImages() bool { return c.ImageOps > 0 }

// Count scans raw content stream bytes for text and image operators.
// It is a pure function of the input and never fails: malformed or
// truncated streams simply yield lower counts.
func Count(data []byte) Counts {
	var c Counts

	for i := 0; i < len(data); i++ {
		switch data[i] {
		case 'T':
			// Tj or TJ followed by a token boundary.
			if i+1 < len(data) && (data[i+1] == 'j' || data[i+1] == 'J') && boundary(data, i+2) && operatorStart(data, i) {
				c.TextOps++
				i++
			}
		case '\'':
			// ' shows text after moving to the next line. Only count it
			// when it terminates a token on its own.
			if boundary(data, i+1) && operatorStart(data, i) {
				c.TextOps++
			}
		case '"':
			if boundary(data, i+1) && operatorStart(data, i) {
				c.TextOps++
			}
		case 'D':
			if i+1 < len(data) && data[i+1] == 'o' && boundary(data, i+2) && operatorStart(data, i) {
				c.ImageOps++
				i++
			}
		}
	}

	return c
}

// boundary reports whether position i is past the end of data or holds
// a PDF whitespace/delimiter byte, i.e. whether a token ends at i.
func boundary(data []byte, i int) bool {
	if i >= len(data) {
		return true
	}
	switch data[i] {
	case ' ', '\t', '\r', '\n', '\f', 0,
		'(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// operatorStart reports whether the byte before position i is a token
// boundary, so that e.g. the "TJ" in "BTJunk" is not counted.
func operatorStart(data []byte, i int) bool {
	if i == 0 {
		return true
	}
	return boundary(data, i-1)
}
