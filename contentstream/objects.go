// Package contentstream parses PDF content streams into a flat
// sequence of operations. The parser is intentionally forgiving:
// content streams in the wild are frequently truncated or carry junk
// bytes, and a best-effort operation list is more useful than an error.
package contentstream

import "strconv"

// Object is a PDF object appearing as an operand in a content stream.
type Object interface {
	isObject()
}

// Null represents the PDF null object.
type Null struct{}

// Bool represents a PDF boolean.
type Bool bool

// Int represents a PDF integer.
type Int int64

// Real represents a PDF real number.
type Real float64

// String represents a PDF string. The bytes are the decoded string
// contents (escapes and hex digits resolved) but NOT text-decoded;
// interpreting them requires the active font's encoding.
type String string

// Name represents a PDF name object without the leading slash.
type Name string

// Array represents a PDF array.
type Array []Object

// Dict represents a PDF dictionary keyed by name.
type Dict map[string]Object

func (Null) isObject()   {}
func (Bool) isObject()   {}
func (Int) isObject()    {}
func (Real) isObject()   {}
func (String) isObject() {}
func (Name) isObject()   {}
func (Array) isObject()  {}
func (Dict) isObject()   {}

// Number returns the numeric value of an Int or Real operand.
func Number(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// String returns a readable representation, mainly for tests and logs.
func (o Operation) String() string {
	s := o.Operator
	if n := len(o.Operands); n > 0 {
		s += " (" + strconv.Itoa(n) + " operands)"
	}
	return s
}
