// Package golang_asm drives the Go toolchain's assembler backend as a
// reference encoder. Tests assemble the same instruction with both the
// amd64 package and this package and require identical bytes.
//
// Note: Go's assembler rewrites some forms (e.g. MOVQ $imm) into shorter
// equivalents, so only forms that it emits literally should be compared.
package golang_asm

import (
	"fmt"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
)

// Reference accumulates golang-asm programs for a single architecture.
type Reference struct {
	b *goasm.Builder
}

// NewReference returns a Reference for arch, e.g. "amd64".
func NewReference(arch string) (*Reference, error) {
	b, err := goasm.NewBuilder(arch, 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: %w", err)
	}
	return &Reference{b: b}, nil
}

// RegisterToRegister adds "as src, dst" in Go operand order.
func (r *Reference) RegisterToRegister(as obj.As, src, dst int16) {
	p := r.b.NewProg()
	p.As = as
	p.From.Type = obj.TYPE_REG
	p.From.Reg = src
	p.To.Type = obj.TYPE_REG
	p.To.Reg = dst
	r.b.AddInstruction(p)
}

// ConstToRegister adds "as $value, dst".
func (r *Reference) ConstToRegister(as obj.As, value int64, dst int16) {
	p := r.b.NewProg()
	p.As = as
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = value
	p.To.Type = obj.TYPE_REG
	p.To.Reg = dst
	r.b.AddInstruction(p)
}

// Assemble returns the machine code of every instruction added so far.
func (r *Reference) Assemble() []byte {
	return r.b.Assemble()
}
