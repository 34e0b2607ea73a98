package syntax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coffasm/coffasm/internal/scan"
)

func statementStrings(r *Result) []string {
	var ret []string
	for _, s := range r.Statements {
		ret = append(ret, s.String())
	}
	return ret
}

func TestParse(t *testing.T) {
	r, err := Parse(`bits 64
default rel
global main
global missing
section .data
msg: db "hi", 0
section .text
main:
	MOV rax, 1
	add rax, rbx
	sub r8, 40
	mov rax, msg
	resq 2
	ret anything here
`)
	require.NoError(t, err)
	require.Equal(t, []string{
		"bits 64",
		"default rel",
		"global main",
		"global missing",
		"section .data",
		"msg: ; in .data",
		`db "hi", 0`,
		"section .text",
		"main: ; in .text",
		"mov rax, 1",
		"add rax, rbx",
		"sub r8, 40",
		"mov rax, msg",
		"resq 2",
		"ret",
	}, statementStrings(r))

	require.Equal(t, 2, len(r.Labels))
	require.Equal(t, "msg", r.Labels[0].Name)
	require.Equal(t, ".text", r.Labels[1].Section)

	require.Equal(t, 2, len(r.Globals))
	require.True(t, r.Globals[0].Resolved())
	require.Same(t, r.Labels[1], r.Globals[0].Label)

	unresolved := r.Unresolved()
	require.Equal(t, 1, len(unresolved))
	require.Equal(t, "missing", unresolved[0].Name)
	require.Equal(t, 39, unresolved[0].Offset)
}

func TestParse_operands(t *testing.T) {
	r, err := Parse("section .text\nmov r15, 5\nmov rax, msg\ndb 'a', 1")
	require.NoError(t, err)

	mov := r.Statements[1].(*Instruction)
	require.Equal(t, []Operand{
		{Kind: OperandRegister, Offset: 18, Text: "r15"},
		{Kind: OperandImmediate, Offset: 23, Text: "5"},
	}, mov.Operands)
	require.Equal(t, 14, mov.Pos())

	require.Equal(t, OperandName, r.Statements[2].(*Instruction).Operands[1].Kind)

	db := r.Statements[3].(*Instruction)
	require.Equal(t, OperandString, db.Operands[0].Kind)
	require.Equal(t, "a", db.Operands[0].Text)
}

func TestParse_globalAfterLabel(t *testing.T) {
	r, err := Parse("section .text\nstart: ret\nglobal start")
	require.NoError(t, err)
	require.Equal(t, 0, len(r.Unresolved()))
	require.Same(t, r.Labels[0], r.Globals[0].Label)
}

func TestParse_duplicateLabels(t *testing.T) {
	r, err := Parse("global a\nsection .text\na:\na:")
	require.NoError(t, err)
	require.Equal(t, 2, len(r.Labels))
	// The first definition wins.
	require.Same(t, r.Labels[0], r.Globals[0].Label)
}

func TestParse_statementPositions(t *testing.T) {
	r, err := Parse("section .text\nl: ret\nglobal l\nbits 64\ndefault rel")
	require.NoError(t, err)
	var positions []int
	for _, s := range r.Statements {
		positions = append(positions, s.Pos())
	}
	require.Equal(t, []int{0, 14, 17, 21, 30, 38}, positions)
}

func TestParse_errors(t *testing.T) {
	const text = "section .text\n" // 14 bytes

	tests := []struct {
		name, source string
		kind         scan.ErrorKind
		offset       int
		expected     string
	}{
		{
			name: "instruction before section", source: "mov rax, 1",
			kind: scan.ErrorKindSyntax, offset: 0, expected: "define section first",
		},
		{
			name: "label before section", source: "global a\na:",
			kind: scan.ErrorKindSyntax, offset: 9, expected: "define section first",
		},
		{
			name: "lexical", source: text + "mov rax, $1",
			kind: scan.ErrorKindLexical, offset: 23, expected: `unexpected '$'`,
		},
		{
			name: "not a word", source: text + "1",
			kind: scan.ErrorKindSyntax, offset: 14, expected: `expect label or instruction, got figure "1"`,
		},
		{
			name: "missing section name", source: "section\nret",
			kind: scan.ErrorKindSyntax, offset: 7, expected: "expect section name",
		},
		{
			name: "section name not a word", source: "section 1",
			kind: scan.ErrorKindSyntax, offset: 8, expected: `expect section name, got figure "1"`,
		},
		{
			name: "bits not a figure", source: "bits x",
			kind: scan.ErrorKindSyntax, offset: 5, expected: `expect figure, got word "x"`,
		},
		{
			name: "bits 32", source: "bits 32",
			kind: scan.ErrorKindEncoding, offset: 5, expected: "unsupported bits 32, only 64 is supported",
		},
		{
			name: "missing global name", source: "global",
			kind: scan.ErrorKindSyntax, offset: 6, expected: "expect global name",
		},
		{
			name: "missing default", source: "default ; rel",
			kind: scan.ErrorKindSyntax, offset: 7, expected: "expect word",
		},
		{
			name: "unknown instruction", source: text + "jmp main",
			kind: scan.ErrorKindSyntax, offset: 14, expected: `unknown instruction "jmp"`,
		},
		{
			name: "missing comma", source: text + "mov rax 1",
			kind: scan.ErrorKindSyntax, offset: 22, expected: "expect comma",
		},
		{
			name: "trailing comma", source: text + "mov rax,\nret",
			kind: scan.ErrorKindSyntax, offset: 22, expected: "expect operand",
		},
		{
			name: "too few operands", source: text + "add rax",
			kind: scan.ErrorKindSyntax, offset: 14, expected: "add expects 2 operands, got 1",
		},
		{
			name: "too many operands", source: text + "resb 1, 2",
			kind: scan.ErrorKindSyntax, offset: 14, expected: "resb expects 1 operands, got 2",
		},
		{
			name: "empty data", source: text + "dd",
			kind: scan.ErrorKindSyntax, offset: 16, expected: "expect operand",
		},
		{
			name: "bracket operand", source: text + "mov [rax], 1",
			kind: scan.ErrorKindSyntax, offset: 18, expected: `expect operand, got punct "["`,
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.source)
			var e *scan.Error
			require.True(t, errors.As(err, &e), "%v", err)
			require.Equal(t, tc.kind, e.Kind, "%v", err)
			require.Equal(t, tc.offset, e.Offset, "%v", err)
			require.EqualError(t, e.Unwrap(), tc.expected)
		})
	}
}
