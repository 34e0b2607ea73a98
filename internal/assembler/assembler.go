// Package assembler turns x86-64 assembly source into sections and labels, and
// from those into a COFF object.
//
// The grammar is line oriented:
//
//	section <name>
//	<label>:
//	ret
//	mov|add|sub <reg-or-imm>, <reg-or-imm>
//	d{b|w|d|q|t|o|y|z} <string-or-number>[, ...]
//	res{b|w|d|q|t|o|y|z} <count>
//	; comment to end of line
//
// A label may share a line with one instruction. Assembly stops at the first
// error, which is always a *scan.Error positioned in the source.
package assembler

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/coffasm/coffasm/internal/asm"
	"github.com/coffasm/coffasm/internal/scan"
)

// Section is a named output region. Bytes are appended to the last opened
// section only.
type Section struct {
	Name string
	// NameOffset is the source offset of the name in its section directive.
	NameOffset int
	// NumberOfRelocations is the count of reserved relocation slots. No source
	// construct populates them yet.
	NumberOfRelocations int

	buf asm.Buffer
}

// Bytes returns the encoded content of the section.
func (s *Section) Bytes() []byte {
	return s.buf.Bytes()
}

// Len returns the number of bytes encoded so far.
func (s *Section) Len() int {
	return s.buf.Len()
}

// Label marks a position in a section.
type Label struct {
	Name string
	// Position is the byte offset in the owning section when the label was defined.
	Position int
	// Section is the 1-based index of the owning section.
	Section int
}

// Assembler holds the state of a single assembly run. It is not safe for
// concurrent use.
type Assembler struct {
	filename string
	source   string
	sections []*Section
	labels   []Label
	logger   logrus.FieldLogger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger. Every scanned line is logged at debug level.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// New returns an Assembler for source. filename is recorded in the object's
// .file symbol.
func New(filename, source string, opts ...Option) *Assembler {
	a := &Assembler{
		filename: filename,
		source:   source,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Filename returns the name given to New.
func (a *Assembler) Filename() string {
	return a.filename
}

// Sections returns the sections in declaration order.
func (a *Assembler) Sections() []*Section {
	return a.sections
}

// Labels returns the labels in definition order. Duplicate names are kept.
func (a *Assembler) Labels() []Label {
	return a.labels
}

// Assemble scans the whole source. Calling it again starts over.
func (a *Assembler) Assemble() error {
	a.sections, a.labels = nil, nil

	for start, line := 0, 1; start <= len(a.source); line++ {
		end := strings.IndexByte(a.source[start:], '\n')
		if end < 0 {
			end = len(a.source)
		} else {
			end += start
		}
		// Scanning a prefix of the source keeps every offset absolute.
		src := strings.TrimSuffix(a.source[:end], "\r")
		a.logger.WithFields(logrus.Fields{"line": line, "text": src[start:]}).Debug("scan")

		if err := a.assembleLine(src, start); err != nil {
			return err
		}
		start = end + 1
	}
	return nil
}

// assembleLine handles any number of labels followed by at most one
// instruction or directive.
func (a *Assembler) assembleLine(src string, pos int) error {
	for {
		pos = skipSpace(src, pos)
		if atEndOfLine(src, pos) {
			return nil
		}

		word, next, ok := scan.ScanWord(src, pos)
		if !ok {
			return scan.Errorf(scan.ErrorKindLexical, pos, "expect label or instruction")
		}

		if punct, after, ok := scan.ScanPunct(src, next); ok && punct == ':' {
			if err := a.defineLabel(word, pos); err != nil {
				return err
			}
			pos = after
			continue
		}

		next, err := a.instruction(src, word, pos, next)
		if err != nil {
			return err
		}
		return expectEndOfLine(src, next)
	}
}

func (a *Assembler) defineLabel(name string, offset int) error {
	s, err := a.current(offset)
	if err != nil {
		return err
	}
	a.labels = append(a.labels, Label{Name: name, Position: s.Len(), Section: len(a.sections)})
	a.logger.WithFields(logrus.Fields{"label": name, "section": s.Name, "position": s.Len()}).Debug("define label")
	return nil
}

// current returns the active section. offset locates the statement that needs it.
func (a *Assembler) current(offset int) (*Section, error) {
	if len(a.sections) == 0 {
		return nil, scan.Errorf(scan.ErrorKindInternal, offset, "no section: define section first")
	}
	return a.sections[len(a.sections)-1], nil
}

func skipSpace(src string, pos int) int {
	next, _ := scan.SkipSpace(src, pos)
	return next
}

func atEndOfLine(src string, pos int) bool {
	return pos >= len(src) || scan.IsComment(src, pos)
}

func expectEndOfLine(src string, pos int) error {
	pos = skipSpace(src, pos)
	if atEndOfLine(src, pos) {
		return nil
	}
	return scan.Errorf(scan.ErrorKindSyntax, pos, "unexpected %q after instruction", src[pos:])
}
