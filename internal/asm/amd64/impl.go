package amd64

import (
	"errors"
	"fmt"

	"github.com/coffasm/coffasm/internal/asm"
)

// ErrImmediateTooWide is returned when an ADDQ or SUBQ immediate is not
// representable as a sign-extended 32-bit value.
var ErrImmediateTooWide = errors.New("expect signed 32-bit")

type rexPrefix = byte

// REX prefixes are independent of each other and can be combined with OR.
const (
	rexPrefixNone    rexPrefix = 0x0000_0000 // Indicates that the instruction doesn't need rexPrefix.
	rexPrefixDefault rexPrefix = 0b0100_0000
	rexPrefixW       rexPrefix = 0b0000_1000 | rexPrefixDefault
	rexPrefixR       rexPrefix = 0b0000_0100 | rexPrefixDefault
	rexPrefixB       rexPrefix = 0b0000_0001 | rexPrefixDefault
)

// registerSpecifierPosition represents the position in the instruction bytes where an operand register is placed.
type registerSpecifierPosition byte

const (
	registerSpecifierPositionModRMFieldReg registerSpecifierPosition = iota
	registerSpecifierPositionModRMFieldRM
)

func register3bits(reg asm.Register, registerSpecifierPosition registerSpecifierPosition) (bits byte, prefix rexPrefix, err error) {
	if reg > RegR15 {
		return 0, rexPrefixNone, fmt.Errorf("invalid register %d", reg)
	}
	prefix = rexPrefixNone
	if reg&0b1000 != 0 {
		// https://wiki.osdev.org/X86-64_Instruction_Encoding#REX_prefix
		switch registerSpecifierPosition {
		case registerSpecifierPositionModRMFieldReg:
			prefix = rexPrefixR
		case registerSpecifierPositionModRMFieldRM:
			prefix = rexPrefixB
		}
	}
	bits = byte(reg) & 0b111
	return
}

// getRegisterToRegisterModRM places src on ModRM:reg and dst on ModRM:r/m, the
// operand order of the "MR" forms (0x89, 0x01, 0x29).
func getRegisterToRegisterModRM(src, dst asm.Register) (rexPrefix, modRM byte, err error) {
	reg3bits, rexPrefix, err := register3bits(src, registerSpecifierPositionModRMFieldReg)
	if err != nil {
		return
	}

	rm3bits, dstRexPrefix, err := register3bits(dst, registerSpecifierPositionModRMFieldRM)
	if err != nil {
		return
	}
	rexPrefix |= dstRexPrefix

	// https://wiki.osdev.org/X86-64_Instruction_Encoding#ModR.2FM
	modRM = 0b11_000_000 | // Specifying that operand is register.
		(reg3bits << 3) |
		rm3bits
	return
}

type registerToRegisterOpcode struct {
	opcode  byte
	rPrefix rexPrefix
}

var registerToRegisterOpcodes = map[asm.Instruction]registerToRegisterOpcode{
	// https://www.felixcloutier.com/x86/add
	ADDQ: {opcode: 0x01, rPrefix: rexPrefixW},
	// https://www.felixcloutier.com/x86/mov
	MOVQ: {opcode: 0x89, rPrefix: rexPrefixW},
	// https://www.felixcloutier.com/x86/sub
	SUBQ: {opcode: 0x29, rPrefix: rexPrefixW},
}

// EncodeRegisterToRegister appends "inst src, dst" where dst is also the left
// hand side of the Intel syntax, e.g. "mov dst, src".
func EncodeRegisterToRegister(buf *asm.Buffer, inst asm.Instruction, src, dst asm.Register) error {
	op, ok := registerToRegisterOpcodes[inst]
	if !ok {
		return errorEncodingUnsupported(inst, "register to register")
	}

	rexPrefix, modRM, err := getRegisterToRegisterModRM(src, dst)
	if err != nil {
		return err
	}
	rexPrefix |= op.rPrefix

	if rexPrefix != rexPrefixNone {
		buf.WriteByte(rexPrefix)
	}
	buf.Write([]byte{op.opcode, modRM})
	return nil
}

type constToRegisterOpcode struct {
	// axOpcode is the short form used for 32-bit immediates when the destination is RAX.
	axOpcode byte
	// modRMExtension is the "/digit" opcode extension placed in ModRM:reg.
	modRMExtension byte
}

var arithmeticConstToRegisterOpcodes = map[asm.Instruction]constToRegisterOpcode{
	ADDQ: {axOpcode: 0x05, modRMExtension: 0b00_000_000},
	SUBQ: {axOpcode: 0x2d, modRMExtension: 0b00_101_000},
}

// ImmediateSize returns the number of bytes needed to hold v as a sign-extended
// immediate: 1, 4 or 8.
func ImmediateSize(v uint64) int {
	if fitInSigned8bit(v) {
		return 1
	} else if fitInSigned32bit(v) {
		return 4
	}
	return 8
}

// EncodeConstToRegister appends "inst $value, dst". value is the raw 64-bit
// pattern of the immediate as written in source.
func EncodeConstToRegister(buf *asm.Buffer, inst asm.Instruction, value uint64, dst asm.Register) error {
	regBits, rexPrefix, err := register3bits(dst, registerSpecifierPositionModRMFieldRM)
	if err != nil {
		return err
	}

	if inst == MOVQ {
		encodeMOVQConst(buf, value, regBits, rexPrefix)
		return nil
	}

	op, ok := arithmeticConstToRegisterOpcodes[inst]
	if !ok {
		return errorEncodingUnsupported(inst, "constant to register")
	}

	size := ImmediateSize(value)
	if size == 8 {
		return ErrImmediateTooWide
	}

	rexPrefix |= rexPrefixW
	if size == 1 {
		modRM := 0b11_000_000 | // Specifying that operand is register.
			op.modRMExtension |
			regBits
		buf.Write([]byte{rexPrefix, 0x83, modRM})
	} else if dst == RegAX {
		buf.Write([]byte{rexPrefix, op.axOpcode})
	} else {
		modRM := 0b11_000_000 | // Specifying that operand is register.
			op.modRMExtension |
			regBits
		buf.Write([]byte{rexPrefix, 0x81, modRM})
	}
	buf.WriteLittleEndian(value, size)
	return nil
}

// https://www.felixcloutier.com/x86/mov
func encodeMOVQConst(buf *asm.Buffer, value uint64, regBits byte, rexPrefix rexPrefix) {
	switch {
	case value <= 0xffff_ffff:
		// B8+rd id, the upper half of the destination is zeroed by the CPU.
		if rexPrefix != rexPrefixNone {
			buf.WriteByte(rexPrefix)
		}
		buf.WriteByte(0xb8 | regBits)
		buf.WriteUint32(uint32(value))
	case value >= 0xffff_ffff_8000_0000:
		// REX.W C7 /0 id, sign-extended.
		modRM := 0b11_000_000 | // Specifying that operand is register.
			regBits
		buf.Write([]byte{rexPrefix | rexPrefixW, 0xc7, modRM})
		buf.WriteUint32(uint32(value))
	default:
		// REX.W B8+rd io
		buf.Write([]byte{rexPrefix | rexPrefixW, 0xb8 | regBits})
		buf.WriteUint64(value)
	}
}

// EncodeStandAlone appends an instruction without operands.
func EncodeStandAlone(buf *asm.Buffer, inst asm.Instruction) error {
	switch inst {
	case RET:
		// https://www.felixcloutier.com/x86/ret
		buf.WriteByte(0xc3)
		return nil
	}
	return errorEncodingUnsupported(inst, "stand alone")
}

func errorEncodingUnsupported(inst asm.Instruction, form string) error {
	return fmt.Errorf("%s is unsupported for %s form", InstructionName(inst), form)
}

func fitInSigned8bit(v uint64) bool {
	return v < 0x80 || v >= 0xffff_ffff_ffff_ff80
}

func fitInSigned32bit(v uint64) bool {
	return v < 0x8000_0000 || v >= 0xffff_ffff_8000_0000
}
