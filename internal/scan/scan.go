// Package scan holds the lexical primitives shared by the assembler engine and
// the syntax prototype, plus the positioned error type both report.
//
// Every scanner takes the full source and a byte offset into it. On failure it
// returns ok == false and the caller's offset is left untouched, meaning "this
// construct is not present here". On success it returns the matched text and
// the offset just past it. Offsets always index the full source so that
// diagnostics can locate them without pointer arithmetic.
package scan

import "errors"

// wordStart and wordChar are indexed by byte. Non-ASCII bytes are never part
// of a word.
var wordStart, wordChar = buildWordChars()

func buildWordChars() (start, char [256]bool) {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_', ch == '.':
			start[i], char[i] = true, true
		case ch >= '0' && ch <= '9':
			char[i] = true
		}
	}
	return
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// SkipSpace consumes one or more horizontal whitespace characters. A newline is
// not horizontal whitespace.
func SkipSpace(src string, pos int) (next int, ok bool) {
	next = pos
	for next < len(src) && isSpace(src[next]) {
		next++
	}
	if next == pos {
		return pos, false
	}
	return next, true
}

// IsComment reports whether a line comment starts at pos. The caller skips the
// rest of the line.
func IsComment(src string, pos int) bool {
	return pos < len(src) && src[pos] == ';'
}

// ScanWord matches the longest identifier at pos: a letter, '_' or '.',
// followed by any run of letters, digits, '_' or '.'.
func ScanWord(src string, pos int) (word string, next int, ok bool) {
	if pos >= len(src) || !wordStart[src[pos]] {
		return "", pos, false
	}
	next = pos + 1
	for next < len(src) && wordChar[src[next]] {
		next++
	}
	return src[pos:next], next, true
}

// ScanFigure matches one or more decimal digits. The value is not checked for
// range here, see ParseFigure.
func ScanFigure(src string, pos int) (figure string, next int, ok bool) {
	next = pos
	for next < len(src) && isDigit(src[next]) {
		next++
	}
	if next == pos {
		return "", pos, false
	}
	return src[pos:next], next, true
}

// ErrFigureOverflow is returned by ParseFigure when a figure exceeds uint64.
var ErrFigureOverflow = errors.New("number too large to fit in u64")

// ParseFigure decodes a figure matched by ScanFigure.
func ParseFigure(figure string) (uint64, error) {
	if figure == "" {
		return 0, errors.New("expect figure")
	}
	// The max ASCII length of a uint64 is 20 (length of 18446744073709551615).
	// Leading zeros don't count towards that.
	for len(figure) > 1 && figure[0] == '0' {
		figure = figure[1:]
	}
	switch {
	case len(figure) < 20:
		return decodeUint64(figure)
	case len(figure) == 20:
		first19, err := decodeUint64(figure[:19])
		if err != nil {
			return 0, err
		}
		last := uint64(figure[19] - '0')
		// The largest uint64 is "1844674407370955161" followed by "5".
		if first19 > 1844674407370955161 || (first19 == 1844674407370955161 && last > 5) {
			return 0, ErrFigureOverflow
		}
		return first19*10 + last, nil
	default:
		return 0, ErrFigureOverflow
	}
}

// decodeUint64 decodes at most 19 digits, which cannot overflow.
func decodeUint64(digits string) (uint64, error) {
	var n uint64
	for i := 0; i < len(digits); i++ {
		ch := digits[i]
		if !isDigit(ch) {
			return 0, errors.New("expect figure")
		}
		n = n*10 + uint64(ch-'0')
	}
	return n, nil
}

// ScanString matches a string opened by ' or " and closed by the same quote on
// the same line. The content is returned verbatim: there are no escapes. A
// string that is opened but never closed is a syntax error located at the
// opening quote.
func ScanString(src string, pos int) (content string, next int, ok bool, err error) {
	if pos >= len(src) {
		return "", pos, false, nil
	}
	quote := src[pos]
	if quote != '\'' && quote != '"' {
		return "", pos, false, nil
	}
	for i := pos + 1; i < len(src); i++ {
		switch src[i] {
		case quote:
			return src[pos+1 : i], i + 1, true, nil
		case '\n':
			i = len(src)
		}
	}
	return "", pos, false, Errorf(ErrorKindSyntax, pos, "unterminated string")
}

// ScanPunct matches exactly one of , : ( ) [ ]
func ScanPunct(src string, pos int) (punct byte, next int, ok bool) {
	if pos >= len(src) {
		return 0, pos, false
	}
	switch ch := src[pos]; ch {
	case ',', ':', '(', ')', '[', ']':
		return ch, pos + 1, true
	}
	return 0, pos, false
}
