// Package asm holds the architecture independent pieces of the encoder: the
// section buffer and the register/instruction identifiers shared by the
// architecture packages.
package asm

// Register represents an architecture-specific register.
type Register byte

// Instruction represents an architecture-specific instruction.
type Instruction byte
