package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/coffasm/coffasm/internal/asm"
	"github.com/coffasm/coffasm/internal/asm/golang_asm"
)

// golangAsmRegister maps our register numbering onto golang-asm's, which
// follows the same hardware order starting at REG_AX.
func golangAsmRegister(reg asm.Register) int16 {
	return x86.REG_AX + int16(reg)
}

var golangAsmInstructions = map[asm.Instruction]obj.As{
	ADDQ: x86.AADDQ,
	MOVQ: x86.AMOVQ,
	SUBQ: x86.ASUBQ,
}

func TestEncodeRegisterToRegister_golangAsm(t *testing.T) {
	for _, inst := range []asm.Instruction{ADDQ, MOVQ, SUBQ} {
		inst := inst
		t.Run(InstructionName(inst), func(t *testing.T) {
			for _, src := range allRegisters {
				for _, dst := range allRegisters {
					if inst == MOVQ && src == dst {
						// golang-asm may treat this as a no-op.
						continue
					}
					ref, err := golang_asm.NewReference("amd64")
					require.NoError(t, err)
					ref.RegisterToRegister(golangAsmInstructions[inst], golangAsmRegister(src), golangAsmRegister(dst))
					expected := ref.Assemble()

					var buf asm.Buffer
					require.NoError(t, EncodeRegisterToRegister(&buf, inst, src, dst))
					require.Equal(t, expected, buf.Bytes(), "%s %s, %s", InstructionName(inst), RegisterName(dst), RegisterName(src))
				}
			}
		})
	}
}

func TestEncodeConstToRegister_golangAsm(t *testing.T) {
	for _, inst := range []asm.Instruction{ADDQ, SUBQ} {
		inst := inst
		t.Run(InstructionName(inst), func(t *testing.T) {
			for _, value := range []int64{0, 1, 100, 127, 128, 1000000, 0x7fffffff} {
				for _, dst := range allRegisters {
					ref, err := golang_asm.NewReference("amd64")
					require.NoError(t, err)
					ref.ConstToRegister(golangAsmInstructions[inst], value, golangAsmRegister(dst))
					expected := ref.Assemble()

					var buf asm.Buffer
					require.NoError(t, EncodeConstToRegister(&buf, inst, uint64(value), dst))
					require.Equal(t, expected, buf.Bytes(), "%s %s, %d", InstructionName(inst), RegisterName(dst), value)
				}
			}
		})
	}
}
