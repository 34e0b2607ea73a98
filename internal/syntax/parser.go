package syntax

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/coffasm/coffasm/internal/asm/amd64"
	"github.com/coffasm/coffasm/internal/scan"
)

// Statement is one parsed source construct.
type Statement interface {
	fmt.Stringer
	// Pos is the source offset of the statement's first token.
	Pos() int
}

// Section is a "section <name>" directive.
type Section struct {
	Offset int
	Name   string
}

func (s *Section) Pos() int       { return s.Offset }
func (s *Section) String() string { return "section " + s.Name }

// Label is a "<name>:" definition.
type Label struct {
	Offset int
	Name   string
	// Section is the name of the enclosing section.
	Section string
}

func (l *Label) Pos() int       { return l.Offset }
func (l *Label) String() string { return fmt.Sprintf("%s: ; in %s", l.Name, l.Section) }

// Instruction is a mnemonic and its comma-separated operands, including the
// dN and resN directives.
type Instruction struct {
	Offset   int
	Mnemonic string
	Operands []Operand
}

func (i *Instruction) Pos() int { return i.Offset }
func (i *Instruction) String() string {
	if len(i.Operands) == 0 {
		return i.Mnemonic
	}
	ops := lo.Map(i.Operands, func(o Operand, _ int) string { return o.String() })
	return i.Mnemonic + " " + strings.Join(ops, ", ")
}

// Global is a "global <name>" declaration.
type Global struct {
	Offset int
	Name   string
}

func (g *Global) Pos() int       { return g.Offset }
func (g *Global) String() string { return "global " + g.Name }

// Bits is a "bits <figure>" declaration.
type Bits struct {
	Offset int
	Value  uint64
}

func (b *Bits) Pos() int       { return b.Offset }
func (b *Bits) String() string { return fmt.Sprintf("bits %d", b.Value) }

// Default is a "default <word>" declaration, e.g. "default rel".
type Default struct {
	Offset int
	Value  string
}

func (d *Default) Pos() int       { return d.Offset }
func (d *Default) String() string { return "default " + d.Value }

// OperandKind is the variant of an Operand.
type OperandKind byte

const (
	OperandImmediate OperandKind = iota
	OperandRegister
	// OperandName is a word that is not a register, such as a label reference.
	OperandName
	OperandString
)

// Operand is one instruction argument.
type Operand struct {
	Kind   OperandKind
	Offset int
	Text   string
}

func (o Operand) String() string {
	if o.Kind == OperandString {
		return fmt.Sprintf("%q", o.Text)
	}
	return o.Text
}

// GlobalRef is the resolution state of a global declaration. Label is nil
// until a label of the same name is defined.
type GlobalRef struct {
	Name string
	// Offset is where the global was declared.
	Offset int
	Label  *Label
}

// Resolved reports whether a label was found for the global.
func (g *GlobalRef) Resolved() bool {
	return g.Label != nil
}

// Result is the output of Parse.
type Result struct {
	Statements []Statement
	Labels     []*Label
	Globals    []*GlobalRef
}

// Unresolved returns the globals that never matched a label definition.
func (r *Result) Unresolved() []*GlobalRef {
	return lo.Filter(r.Globals, func(g *GlobalRef, _ int) bool { return !g.Resolved() })
}

// Parse lexes and parses source.
func Parse(source string) (*Result, error) {
	tokens, err := Lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{source: source, tokens: tokens, result: &Result{}}
	if err = p.parse(); err != nil {
		return nil, err
	}
	return p.result, nil
}

// parser is a single pass recursive descent parser over a token slice.
type parser struct {
	source  string
	tokens  []Token
	idx     int
	section string
	result  *Result
}

func (p *parser) hasNext() bool {
	return p.idx < len(p.tokens)
}

func (p *parser) peek() (Token, bool) {
	if !p.hasNext() {
		return Token{}, false
	}
	return p.tokens[p.idx], true
}

// peekOnLine returns the next token only if it is on line.
func (p *parser) peekOnLine(line int) (Token, bool) {
	tok, ok := p.peek()
	if !ok || tok.Line != line {
		return Token{}, false
	}
	return tok, true
}

func (p *parser) skipLine(line int) {
	for p.hasNext() && p.tokens[p.idx].Line == line {
		p.idx++
	}
}

// expect consumes the next token if it is of kind and on line.
//
// Ex. "section .text" expects a word on the same line as "section".
func (p *parser) expect(kind TokenKind, line int, what string) (Token, error) {
	tok, ok := p.peekOnLine(line)
	if !ok {
		return Token{}, scan.Errorf(scan.ErrorKindSyntax, p.endOfLine(line), "expect %s", what)
	}
	if tok.Kind != kind {
		return Token{}, scan.Errorf(scan.ErrorKindSyntax, tok.Offset, "expect %s, got %s %q", what, tok.Kind, tok.Text)
	}
	p.idx++
	return tok, nil
}

// endOfLine returns the offset just past the last non-comment content of line,
// for errors about something missing.
func (p *parser) endOfLine(line int) int {
	last := p.tokens[p.idx-1]
	if last.Line != line {
		return last.Offset
	}
	end := last.Offset + len(last.Text)
	if last.Kind == TokenString {
		end += 2
	}
	return end
}

func (p *parser) parse() error {
	for p.hasNext() {
		tok := p.tokens[p.idx]
		p.idx++
		if tok.Kind != TokenWord {
			return scan.Errorf(scan.ErrorKindSyntax, tok.Offset, "expect label or instruction, got %s %q", tok.Kind, tok.Text)
		}

		var err error
		switch strings.ToLower(tok.Text) {
		case "section":
			err = p.parseSection(tok)
		case "bits":
			err = p.parseBits(tok)
		case "default":
			err = p.parseDefault(tok)
		case "global":
			err = p.parseGlobal(tok)
		default:
			err = p.parseLabelOrInstruction(tok)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseSection(tok Token) error {
	name, err := p.expect(TokenWord, tok.Line, "section name")
	if err != nil {
		return err
	}
	p.section = name.Text
	p.result.Statements = append(p.result.Statements, &Section{Offset: tok.Offset, Name: name.Text})
	return nil
}

func (p *parser) parseBits(tok Token) error {
	figure, err := p.expect(TokenFigure, tok.Line, "figure")
	if err != nil {
		return err
	}
	v, err := scan.ParseFigure(figure.Text)
	if err != nil {
		return scan.NewError(scan.ErrorKindSyntax, figure.Offset, err)
	}
	if v != 64 {
		return scan.Errorf(scan.ErrorKindEncoding, figure.Offset, "unsupported bits %d, only 64 is supported", v)
	}
	p.result.Statements = append(p.result.Statements, &Bits{Offset: tok.Offset, Value: v})
	return nil
}

func (p *parser) parseDefault(tok Token) error {
	word, err := p.expect(TokenWord, tok.Line, "word")
	if err != nil {
		return err
	}
	p.result.Statements = append(p.result.Statements, &Default{Offset: tok.Offset, Value: word.Text})
	return nil
}

// parseGlobal records an unresolved placeholder, or resolves it right away if
// the label is already defined.
func (p *parser) parseGlobal(tok Token) error {
	name, err := p.expect(TokenWord, tok.Line, "global name")
	if err != nil {
		return err
	}
	ref := &GlobalRef{Name: name.Text, Offset: name.Offset}
	if l, ok := lo.Find(p.result.Labels, func(l *Label) bool { return l.Name == name.Text }); ok {
		ref.Label = l
	}
	p.result.Globals = append(p.result.Globals, ref)
	p.result.Statements = append(p.result.Statements, &Global{Offset: tok.Offset, Name: name.Text})
	return nil
}

func (p *parser) parseLabelOrInstruction(tok Token) error {
	if p.section == "" {
		return scan.Errorf(scan.ErrorKindSyntax, tok.Offset, "define section first")
	}

	if next, ok := p.peekOnLine(tok.Line); ok && next.Kind == TokenPunct && next.Text == ":" {
		p.idx++
		p.defineLabel(tok)
		return nil
	}

	mnemonic := strings.ToLower(tok.Text)
	arity, err := mnemonicArity(mnemonic, tok.Offset)
	if err != nil {
		return err
	}

	inst := &Instruction{Offset: tok.Offset, Mnemonic: mnemonic}
	if arity == arityDiscard {
		// ret ignores anything that follows it.
		p.skipLine(tok.Line)
	} else {
		if inst.Operands, err = p.parseOperands(tok.Line); err != nil {
			return err
		}
		if arity == arityOneOrMore {
			if len(inst.Operands) == 0 {
				return scan.Errorf(scan.ErrorKindSyntax, p.endOfLine(tok.Line), "expect operand")
			}
		} else if len(inst.Operands) != arity {
			return scan.Errorf(scan.ErrorKindSyntax, tok.Offset, "%s expects %d operands, got %d", mnemonic, arity, len(inst.Operands))
		}
	}
	p.result.Statements = append(p.result.Statements, inst)
	return nil
}

func (p *parser) defineLabel(tok Token) {
	l := &Label{Offset: tok.Offset, Name: tok.Text, Section: p.section}
	p.result.Labels = append(p.result.Labels, l)
	p.result.Statements = append(p.result.Statements, l)
	for _, g := range p.result.Globals {
		if !g.Resolved() && g.Name == l.Name {
			g.Label = l
		}
	}
}

const (
	arityDiscard   = -1
	arityOneOrMore = -2
)

// mnemonicArity returns the operand count of a lower-case mnemonic.
func mnemonicArity(mnemonic string, offset int) (int, error) {
	switch mnemonic {
	case "mov", "add", "sub":
		return 2, nil
	case "ret":
		return arityDiscard, nil
	}
	if len(mnemonic) == 2 && mnemonic[0] == 'd' && strings.IndexByte("bwdqtoyz", mnemonic[1]) >= 0 {
		return arityOneOrMore, nil
	}
	if len(mnemonic) == 4 && strings.HasPrefix(mnemonic, "res") && strings.IndexByte("bwdqtoyz", mnemonic[3]) >= 0 {
		return 1, nil
	}
	return 0, scan.Errorf(scan.ErrorKindSyntax, offset, "unknown instruction %q", mnemonic)
}

// parseOperands reads comma-separated operands up to the end of line.
//
// Ex. "mov rax, 1" yields a register and an immediate.
func (p *parser) parseOperands(line int) ([]Operand, error) {
	var ops []Operand
	if _, ok := p.peekOnLine(line); !ok {
		return nil, nil
	}
	for {
		tok, ok := p.peekOnLine(line)
		if !ok {
			return nil, scan.Errorf(scan.ErrorKindSyntax, p.endOfLine(line), "expect operand")
		}
		p.idx++

		op := Operand{Offset: tok.Offset, Text: tok.Text}
		switch tok.Kind {
		case TokenFigure:
			op.Kind = OperandImmediate
		case TokenString:
			op.Kind = OperandString
		case TokenWord:
			if _, _, isReg := amd64.LookupRegister(tok.Text); isReg {
				op.Kind = OperandRegister
			} else {
				op.Kind = OperandName
			}
		default:
			return nil, scan.Errorf(scan.ErrorKindSyntax, tok.Offset, "expect operand, got %s %q", tok.Kind, tok.Text)
		}
		ops = append(ops, op)

		next, ok := p.peekOnLine(line)
		if !ok {
			return ops, nil
		}
		if next.Kind != TokenPunct || next.Text != "," {
			return nil, scan.Errorf(scan.ErrorKindSyntax, next.Offset, "expect comma")
		}
		p.idx++
	}
}
