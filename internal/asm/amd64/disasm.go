package amd64

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Line is one decoded instruction of a Disassemble listing.
type Line struct {
	Offset int
	Bytes  []byte
	Text   string
}

func (l Line) String() string {
	return fmt.Sprintf("%08x  % -24x %s", l.Offset, l.Bytes, l.Text)
}

// Disassemble decodes code in 64-bit mode and renders each instruction in
// Intel syntax. Bytes that do not decode, such as data declared inside a code
// section, are listed one at a time as ".byte".
func Disassemble(code []byte) []Line {
	var lines []Line
	for off := 0; off < len(code); {
		inst, err := x86asm.Decode(code[off:], 64)
		if err != nil || inst.Len == 0 {
			lines = append(lines, Line{
				Offset: off,
				Bytes:  code[off : off+1],
				Text:   fmt.Sprintf(".byte %#02x", code[off]),
			})
			off++
			continue
		}
		lines = append(lines, Line{
			Offset: off,
			Bytes:  code[off : off+inst.Len],
			Text:   x86asm.IntelSyntax(inst, uint64(off), nil),
		})
		off += inst.Len
	}
	return lines
}
