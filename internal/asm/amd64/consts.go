package amd64

import (
	"strings"

	"github.com/coffasm/coffasm/internal/asm"
)

// AMD64-specific instructions.
// https://www.felixcloutier.com/x86/index.html
//
// Note: only the subset accepted by the source grammar is defined here.
// Note: naming convention is the same as Go assembler: https://go.dev/doc/asm
const (
	NONE asm.Instruction = iota
	ADDQ
	MOVQ
	RET
	SUBQ
)

// InstructionName returns the name for an instruction
func InstructionName(instruction asm.Instruction) string {
	switch instruction {
	case ADDQ:
		return "ADDQ"
	case MOVQ:
		return "MOVQ"
	case RET:
		return "RET"
	case SUBQ:
		return "SUBQ"
	}
	return "Unknown"
}

// AMD64 64-bit general purpose registers. The value of each constant is the
// 4-bit hardware register number: the low three bits go into ModRM or the
// opcode, the fourth bit into the REX prefix.
// https://wiki.osdev.org/X86-64_Instruction_Encoding#Registers
const (
	RegAX asm.Register = iota
	RegCX
	RegDX
	RegBX
	RegSP
	RegBP
	RegSI
	RegDI
	RegR8
	RegR9
	RegR10
	RegR11
	RegR12
	RegR13
	RegR14
	RegR15
)

// RegisterWidth is the operand width in bytes of every register in the table.
const RegisterWidth = 8

// registerNames is index-coordinated with the register constants.
var registerNames = [...]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

var registersByName = func() map[string]asm.Register {
	m := make(map[string]asm.Register, len(registerNames))
	for i, name := range registerNames {
		m[name] = asm.Register(i)
	}
	return m
}()

// LookupRegister resolves a case-insensitive register mnemonic. ok is false if
// the name is not one of the sixteen 64-bit general purpose registers, in which
// case callers should try other operand interpretations.
func LookupRegister(name string) (reg asm.Register, width int, ok bool) {
	reg, ok = registersByName[strings.ToLower(name)]
	if !ok {
		return 0, 0, false
	}
	return reg, RegisterWidth, true
}

// RegisterName returns the lower-case mnemonic of reg, or "nil" when reg is
// out of range.
func RegisterName(reg asm.Register) string {
	if int(reg) < len(registerNames) {
		return registerNames[reg]
	}
	return "nil"
}
