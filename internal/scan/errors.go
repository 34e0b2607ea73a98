package scan

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrorKind classifies an Error by the stage that detected it.
type ErrorKind byte

const (
	// ErrorKindLexical means no valid token exists at the offset.
	ErrorKindLexical ErrorKind = iota
	// ErrorKindSyntax means a construct is structurally malformed, e.g. a
	// missing comma or operand.
	ErrorKindSyntax
	// ErrorKindEncoding means operands are well-formed but no supported
	// instruction form can encode them.
	ErrorKindEncoding
	// ErrorKindFormat means the program cannot be represented in the object
	// format, e.g. an unknown section name.
	ErrorKindFormat
	// ErrorKindInternal is an invariant violation, such as emitting bytes
	// before any section is open.
	ErrorKindInternal
)

// errorKindNames is index-coordinated with ErrorKind.
var errorKindNames = [...]string{
	"lexical",
	"syntax",
	"encoding",
	"format",
	"internal",
}

// String returns the lower-case name of this kind.
func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is a failure positioned at a byte offset of the source being
// assembled. Use Diagnostic to render it against that source.
type Error struct {
	Kind ErrorKind
	// Offset is the zero-based byte offset into the source.
	Offset int
	cause  error
}

// NewError returns an Error wrapping cause.
func NewError(kind ErrorKind, offset int, cause error) *Error {
	return &Error{Kind: kind, Offset: offset, cause: cause}
}

// Errorf is like NewError, but formats the cause.
func Errorf(kind ErrorKind, offset int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Offset: offset, cause: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error at offset %d: %v", e.Kind, e.Offset, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Position is the human readable location of an offset.
type Position struct {
	// Line is the 1-based line number determined by '\n' characters.
	Line int
	// Col is the 1-based UTF-8 column number.
	Col int
	// Text is the whole line containing the offset, without its newline.
	Text string
}

// Locate finds the line and column of offset in source. An offset at the end
// of a line, or at the end of source, belongs to that line. Offsets out of
// range are clamped.
func Locate(source string, offset int) Position {
	if offset < 0 {
		offset = 0
	} else if offset > len(source) {
		offset = len(source)
	}
	start := strings.LastIndexByte(source[:offset], '\n') + 1
	end := strings.IndexByte(source[offset:], '\n')
	if end < 0 {
		end = len(source)
	} else {
		end += offset
	}
	text := strings.TrimSuffix(source[start:end], "\r")
	return Position{
		Line: strings.Count(source[:start], "\n") + 1,
		Col:  utf8.RuneCountInString(source[start:offset]) + 1,
		Text: text,
	}
}

// Diagnostic renders err against the source it was produced from as three
// lines: the source line, a caret under the column, and the message. Errors
// other than *Error are rendered as their message alone.
func Diagnostic(source string, err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	pos := Locate(source, e.Offset)

	var caret strings.Builder
	col := 1
	for _, r := range pos.Text {
		if col >= pos.Col {
			break
		}
		if r == '\t' {
			caret.WriteByte('\t')
		} else {
			caret.WriteByte(' ')
		}
		col++
	}
	// The column may be past the visible text when it points at a stripped '\r'.
	for ; col < pos.Col; col++ {
		caret.WriteByte(' ')
	}
	caret.WriteByte('^')

	return fmt.Sprintf("%s\n%s\n%d:%d: %s error: %v", pos.Text, caret.String(), pos.Line, pos.Col, e.Kind, e.cause)
}
