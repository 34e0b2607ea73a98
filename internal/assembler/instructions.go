package assembler

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/coffasm/coffasm/internal/asm"
	"github.com/coffasm/coffasm/internal/asm/amd64"
	"github.com/coffasm/coffasm/internal/scan"
)

var twoOperandInstructions = map[string]asm.Instruction{
	"mov": amd64.MOVQ,
	"add": amd64.ADDQ,
	"sub": amd64.SUBQ,
}

// instruction dispatches the mnemonic at offset. pos is just past the
// mnemonic. It returns the offset after the consumed operands.
func (a *Assembler) instruction(src, mnemonic string, offset, pos int) (int, error) {
	lower := strings.ToLower(mnemonic)

	switch {
	case len(lower) == 2 && lower[0] == 'd':
		width, err := selectorWidth(lower[1], offset+1)
		if err != nil {
			return pos, err
		}
		return a.declareData(src, offset, pos, width)
	case len(lower) == 4 && strings.HasPrefix(lower, "res"):
		width, err := selectorWidth(lower[3], offset+3)
		if err != nil {
			return pos, err
		}
		return a.reserve(src, offset, pos, width)
	}

	if inst, ok := twoOperandInstructions[lower]; ok {
		return a.twoOperands(src, inst, offset, pos)
	}

	switch lower {
	case "section":
		return a.section(src, pos)
	case "ret":
		s, err := a.current(offset)
		if err != nil {
			return pos, err
		}
		if err = amd64.EncodeStandAlone(&s.buf, amd64.RET); err != nil {
			return pos, scan.NewError(scan.ErrorKindInternal, offset, err)
		}
		// ret ignores anything that follows it.
		return len(src), nil
	}
	return pos, scan.Errorf(scan.ErrorKindSyntax, offset, "unknown instruction %q", mnemonic)
}

// operandKind is the variant of an operand.
type operandKind byte

const (
	operandKindImmediate operandKind = iota
	operandKindRegister
)

// operand is a parsed instruction argument. Immediates keep their text so that
// range errors are reported by the encoder that chooses the width.
type operand struct {
	kind   operandKind
	offset int
	text   string
	reg    asm.Register
	width  int
}

func (o operand) String() string {
	if o.kind == operandKindRegister {
		return amd64.RegisterName(o.reg)
	}
	return o.text
}

// readOperand reads a register, tried first, or an unsigned decimal figure.
func readOperand(src string, pos int) (operand, int, error) {
	pos = skipSpace(src, pos)
	if word, next, ok := scan.ScanWord(src, pos); ok {
		reg, width, ok := amd64.LookupRegister(word)
		if !ok {
			return operand{}, pos, scan.Errorf(scan.ErrorKindSyntax, pos, "expect register or figure, got %q", word)
		}
		return operand{kind: operandKindRegister, offset: pos, text: word, reg: reg, width: width}, next, nil
	}
	if figure, next, ok := scan.ScanFigure(src, pos); ok {
		return operand{kind: operandKindImmediate, offset: pos, text: figure}, next, nil
	}
	return operand{}, pos, scan.Errorf(scan.ErrorKindSyntax, pos, "expect register or figure")
}

// readOperands reads "op1, op2".
func readOperands(src string, pos int) (op1, op2 operand, next int, err error) {
	if op1, pos, err = readOperand(src, pos); err != nil {
		return
	}
	pos = skipSpace(src, pos)
	punct, after, ok := scan.ScanPunct(src, pos)
	if !ok || punct != ',' {
		err = scan.Errorf(scan.ErrorKindSyntax, pos, "expect comma")
		return
	}
	op2, next, err = readOperand(src, after)
	return
}

// twoOperands encodes mov, add and sub in Intel operand order: destination first.
func (a *Assembler) twoOperands(src string, inst asm.Instruction, offset, pos int) (int, error) {
	s, err := a.current(offset)
	if err != nil {
		return pos, err
	}

	dst, source, next, err := readOperands(src, pos)
	if err != nil {
		return pos, err
	}
	if dst.kind != operandKindRegister || dst.width != amd64.RegisterWidth {
		return pos, scan.Errorf(scan.ErrorKindEncoding, dst.offset, "operand type mismatch: destination must be a 64-bit register, got %s", dst)
	}

	switch source.kind {
	case operandKindRegister:
		err = amd64.EncodeRegisterToRegister(&s.buf, inst, source.reg, dst.reg)
	case operandKindImmediate:
		var v uint64
		if v, err = scan.ParseFigure(source.text); err != nil {
			return pos, scan.NewError(scan.ErrorKindSyntax, source.offset, err)
		}
		err = amd64.EncodeConstToRegister(&s.buf, inst, v, dst.reg)
	}

	if errors.Is(err, amd64.ErrImmediateTooWide) {
		return pos, scan.NewError(scan.ErrorKindEncoding, source.offset, err)
	} else if err != nil {
		return pos, scan.NewError(scan.ErrorKindInternal, offset, err)
	}

	a.logger.WithFields(logrus.Fields{
		"instruction": amd64.InstructionName(inst),
		"dst":         dst,
		"src":         source,
	}).Debug("encode")
	return next, nil
}
