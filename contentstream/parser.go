package contentstream

import (
	"bytes"
	"fmt"
	"strconv"
)

// Operation is a single content stream operation: an operator and the
// operands that preceded it.
type Operation struct {
	Operator string   // e.g. "Tj", "Tm", "q"
	Operands []Object // operands in stream order
}

// Parser parses PDF content streams into a sequence of operations.
type Parser struct {
	data     []byte
	pos      int
	ops      []Operation
	operands []Object
}

// NewParser creates a content stream parser for the given data.
func NewParser(data []byte) *Parser {
	return &Parser{
		data: data,
		ops:  make([]Operation, 0, 64),
	}
}

// Parse parses the content stream and returns all operations in order.
// Unparseable trailing bytes terminate the scan without an error; the
// operations recovered up to that point are returned.
func (p *Parser) Parse() ([]Operation, error) {
	for p.pos < len(p.data) {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			break
		}

		if p.data[p.pos] == '%' {
			p.skipComment()
			continue
		}

		if err := p.parseNext(); err != nil {
			// Malformed operand. Drop the pending operands and resync
			// at the next whitespace boundary.
			p.operands = p.operands[:0]
			p.resync()
		}
	}

	return p.ops, nil
}

// parseNext parses the next token: an operand is pushed onto the
// pending stack, an operator consumes the stack into an Operation.
func (p *Parser) parseNext() error {
	c := p.data[p.pos]

	if isLetter(c) || c == '\'' || c == '"' {
		return p.parseOperator()
	}

	operand, err := p.parseOperand()
	if err != nil {
		return err
	}

	p.operands = append(p.operands, operand)
	return nil
}

// parseOperator reads an operator token and emits an operation with
// the pending operands.
func (p *Parser) parseOperator() error {
	start := p.pos

	var op bytes.Buffer
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isLetter(c) || c == '\'' || c == '"' || c == '*' || (c >= '0' && c <= '9') {
			op.WriteByte(c)
			p.pos++
		} else {
			break
		}
	}

	operator := op.String()
	if operator == "" {
		return fmt.Errorf("empty operator at position %d", start)
	}

	// true/false/null are operands despite starting with a letter.
	switch operator {
	case "true":
		p.operands = append(p.operands, Bool(true))
		return nil
	case "false":
		p.operands = append(p.operands, Bool(false))
		return nil
	case "null":
		p.operands = append(p.operands, Null{})
		return nil
	}

	operation := Operation{Operator: operator}
	if len(p.operands) > 0 {
		operation.Operands = make([]Object, len(p.operands))
		copy(operation.Operands, p.operands)
	}

	p.ops = append(p.ops, operation)
	p.operands = p.operands[:0]

	// BI ... ID <binary> EI inline images embed raw binary data that
	// would derail the tokenizer. Skip to EI.
	if operator == "BI" {
		p.skipInlineImage()
	}

	return nil
}

// parseOperand parses a number, string, name, array, or dictionary.
func (p *Parser) parseOperand() (Object, error) {
	p.skipWhitespace()

	if p.pos >= len(p.data) {
		return nil, fmt.Errorf("unexpected end of stream")
	}

	c := p.data[p.pos]

	switch {
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case c == '(':
		return p.parseString()
	case c == '<' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '<':
		return p.parseDict()
	case c == '<':
		return p.parseHexString()
	case c == '/':
		return p.parseName()
	case c == '[':
		return p.parseArray()
	}

	return nil, fmt.Errorf("unexpected character at position %d: %c", p.pos, c)
}

// parseNumber parses an integer or real number operand.
func (p *Parser) parseNumber() (Object, error) {
	start := p.pos
	hasDecimal := false

	if p.data[p.pos] == '+' || p.data[p.pos] == '-' {
		p.pos++
	}

	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
		} else if c == '.' && !hasDecimal {
			hasDecimal = true
			p.pos++
		} else {
			break
		}
	}

	numStr := string(p.data[start:p.pos])

	if hasDecimal {
		val, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number %q: %w", numStr, err)
		}
		return Real(val), nil
	}

	val, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q: %w", numStr, err)
	}
	return Int(val), nil
}

// parseString parses a literal string (...) with escape handling.
func (p *Parser) parseString() (Object, error) {
	p.pos++ // skip '('

	var result bytes.Buffer
	depth := 1

	for p.pos < len(p.data) && depth > 0 {
		c := p.data[p.pos]

		switch {
		case c == '\\' && p.pos+1 < len(p.data):
			p.pos++
			p.parseEscape(&result)
		case c == '(':
			depth++
			result.WriteByte(c)
			p.pos++
		case c == ')':
			depth--
			if depth > 0 {
				result.WriteByte(c)
			}
			p.pos++
		default:
			result.WriteByte(c)
			p.pos++
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("unclosed string")
	}

	return String(result.String()), nil
}

// parseEscape consumes one escape sequence after the backslash.
func (p *Parser) parseEscape(result *bytes.Buffer) {
	next := p.data[p.pos]
	switch next {
	case 'n':
		result.WriteByte('\n')
		p.pos++
	case 'r':
		result.WriteByte('\r')
		p.pos++
	case 't':
		result.WriteByte('\t')
		p.pos++
	case 'b':
		result.WriteByte('\b')
		p.pos++
	case 'f':
		result.WriteByte('\f')
		p.pos++
	case '(', ')', '\\':
		result.WriteByte(next)
		p.pos++
	case '\r':
		// Line continuation.
		p.pos++
		if p.pos < len(p.data) && p.data[p.pos] == '\n' {
			p.pos++
		}
	case '\n':
		p.pos++
	case '0', '1', '2', '3', '4', '5', '6', '7':
		// Octal escape \ddd, one to three digits.
		octalVal := int(next - '0')
		p.pos++
		for i := 0; i < 2 && p.pos < len(p.data); i++ {
			digit := p.data[p.pos]
			if digit < '0' || digit > '7' {
				break
			}
			octalVal = octalVal*8 + int(digit-'0')
			p.pos++
		}
		result.WriteByte(byte(octalVal & 0xFF))
	default:
		// Unknown escape: the backslash is ignored.
		result.WriteByte(next)
		p.pos++
	}
}

// parseHexString parses a hexadecimal string <...>. Non-hex bytes
// inside the brackets are skipped; an odd digit count implies a
// trailing zero.
func (p *Parser) parseHexString() (Object, error) {
	p.pos++ // skip '<'

	var result bytes.Buffer
	var hi byte
	haveHi := false

	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++

		if c == '>' {
			if haveHi {
				result.WriteByte(hi << 4)
			}
			return String(result.String()), nil
		}
		if !isHexDigit(c) {
			continue
		}
		if !haveHi {
			hi = hexValue(c)
			haveHi = true
		} else {
			result.WriteByte((hi << 4) | hexValue(c))
			haveHi = false
		}
	}

	return nil, fmt.Errorf("unclosed hex string")
}

// parseName parses a name object /Name with # escape handling.
func (p *Parser) parseName() (Object, error) {
	p.pos++ // skip '/'

	var result bytes.Buffer

	for p.pos < len(p.data) {
		c := p.data[p.pos]

		if isWhitespace(c) || isDelimiter(c) {
			break
		}

		if c == '#' && p.pos+2 < len(p.data) &&
			isHexDigit(p.data[p.pos+1]) && isHexDigit(p.data[p.pos+2]) {
			result.WriteByte((hexValue(p.data[p.pos+1]) << 4) | hexValue(p.data[p.pos+2]))
			p.pos += 3
			continue
		}

		result.WriteByte(c)
		p.pos++
	}

	return Name(result.String()), nil
}

// parseArray parses an array [...] of operands.
func (p *Parser) parseArray() (Object, error) {
	p.pos++ // skip '['

	var arr Array

	for p.pos < len(p.data) {
		p.skipWhitespace()

		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("unclosed array")
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}

		obj, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}

	return nil, fmt.Errorf("unclosed array")
}

// parseDict parses a dictionary <<...>>. Rare in content streams
// outside inline images and marked-content properties.
func (p *Parser) parseDict() (Object, error) {
	p.pos += 2 // skip '<<'

	dict := make(Dict)

	for p.pos < len(p.data) {
		p.skipWhitespace()

		if p.pos+1 < len(p.data) && p.data[p.pos] == '>' && p.data[p.pos+1] == '>' {
			p.pos += 2
			return dict, nil
		}

		if p.pos >= len(p.data) || p.data[p.pos] != '/' {
			return nil, fmt.Errorf("dictionary key must be a name")
		}

		key, err := p.parseName()
		if err != nil {
			return nil, err
		}

		value, err := p.parseOperand()
		if err != nil {
			return nil, err
		}

		dict[string(key.(Name))] = value
	}

	return nil, fmt.Errorf("unclosed dictionary")
}

// skipInlineImage advances past the binary payload of an inline image
// up to and including the EI operator.
func (p *Parser) skipInlineImage() {
	for p.pos+1 < len(p.data) {
		if p.data[p.pos] == 'E' && p.data[p.pos+1] == 'I' &&
			(p.pos == 0 || isWhitespace(p.data[p.pos-1])) &&
			(p.pos+2 >= len(p.data) || isWhitespace(p.data[p.pos+2]) || isDelimiter(p.data[p.pos+2])) {
			p.pos += 2
			return
		}
		p.pos++
	}
	p.pos = len(p.data)
}

// resync skips to the next whitespace boundary after a parse error.
func (p *Parser) resync() {
	for p.pos < len(p.data) && !isWhitespace(p.data[p.pos]) {
		p.pos++
	}
}

// skipWhitespace advances past PDF whitespace characters.
func (p *Parser) skipWhitespace() {
	for p.pos < len(p.data) && isWhitespace(p.data[p.pos]) {
		p.pos++
	}
}

// skipComment advances past a % comment to the end of the line.
func (p *Parser) skipComment() {
	for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
		p.pos++
	}
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

// isLetter reports whether c is an ASCII letter.
func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isDelimiter reports whether c is a PDF delimiter character.
func isDelimiter(c byte) bool {
	return c == '(' || c == ')' || c == '<' || c == '>' ||
		c == '[' || c == ']' || c == '{' || c == '}' ||
		c == '/' || c == '%'
}

// isHexDigit reports whether c is a hexadecimal digit.
func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// hexValue returns the numeric value of a hexadecimal digit.
func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
