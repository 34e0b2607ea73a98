package scan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkipSpace(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		pos      int
		expected int
		ok       bool
	}{
		{name: "none", src: "mov", pos: 0, expected: 0, ok: false},
		{name: "eof", src: "mov", pos: 3, expected: 3, ok: false},
		{name: "spaces", src: "  mov", pos: 0, expected: 2, ok: true},
		{name: "mixed", src: "mov \t\r rax", pos: 3, expected: 7, ok: true},
		{name: "newline is not space", src: "\nmov", pos: 0, expected: 0, ok: false},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			next, ok := SkipSpace(tc.src, tc.pos)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.expected, next)
		})
	}
}

func TestIsComment(t *testing.T) {
	require.True(t, IsComment("; comment", 0))
	require.True(t, IsComment("ret ; comment", 4))
	require.False(t, IsComment("ret ; comment", 0))
	require.False(t, IsComment("", 0))
}

func TestScanWord(t *testing.T) {
	tests := []struct {
		name, src string
		pos       int
		expected  string
		next      int
		ok        bool
	}{
		{name: "mnemonic", src: "mov rax, 1", expected: "mov", next: 3, ok: true},
		{name: "dotted", src: ".text:", expected: ".text", next: 5, ok: true},
		{name: "underscore", src: "_start_1: ret", expected: "_start_1", next: 8, ok: true},
		{name: "register", src: "mov r15, 5", pos: 4, expected: "r15", next: 7, ok: true},
		{name: "digit start", src: "1abc", ok: false},
		{name: "punct", src: ", rax", ok: false},
		{name: "non-ascii", src: "ümlaut", ok: false},
		{name: "eof", src: "", ok: false},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			word, next, ok := ScanWord(tc.src, tc.pos)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.expected, word)
			if ok {
				require.Equal(t, tc.next, next)
			} else {
				require.Equal(t, tc.pos, next)
			}
		})
	}
}

func TestScanFigure(t *testing.T) {
	figure, next, ok := ScanFigure("add rax, 1000000 ; one million", 9)
	require.True(t, ok)
	require.Equal(t, "1000000", figure)
	require.Equal(t, 16, next)

	_, next, ok = ScanFigure("rax", 0)
	require.False(t, ok)
	require.Equal(t, 0, next)

	// Range is checked by ParseFigure, not the scanner.
	figure, _, ok = ScanFigure("99999999999999999999999", 0)
	require.True(t, ok)
	require.Equal(t, "99999999999999999999999", figure)
}

func TestParseFigure(t *testing.T) {
	tests := []struct {
		input    string
		expected uint64
		err      error
	}{
		{input: "0", expected: 0},
		{input: "100", expected: 100},
		{input: "000042", expected: 42},
		{input: "4294967295", expected: 0xffff_ffff},
		{input: "9999999999999999999", expected: 9999999999999999999},
		{input: "18446744073709551488", expected: 0xffff_ffff_ffff_ff80},
		{input: "18446744073709551615", expected: 0xffff_ffff_ffff_ffff},
		{input: "018446744073709551615", expected: 0xffff_ffff_ffff_ffff},
		{input: "18446744073709551616", err: ErrFigureOverflow},
		{input: "18446744073709551620", err: ErrFigureOverflow},
		{input: "28446744073709551615", err: ErrFigureOverflow},
		{input: "100000000000000000000", err: ErrFigureOverflow},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.input, func(t *testing.T) {
			v, err := ParseFigure(tc.input)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, v)
		})
	}

	t.Run("not a figure", func(t *testing.T) {
		_, err := ParseFigure("")
		require.EqualError(t, err, "expect figure")
		_, err = ParseFigure("12a")
		require.EqualError(t, err, "expect figure")
	})
}

func TestScanString(t *testing.T) {
	tests := []struct {
		name, src string
		pos       int
		expected  string
		next      int
	}{
		{name: "single", src: "db 'AB', 'C'", pos: 3, expected: "AB", next: 7},
		{name: "double", src: `db "hello"`, pos: 3, expected: "hello", next: 10},
		{name: "other quote inside", src: `"it's"`, expected: "it's", next: 6},
		{name: "no escapes", src: `'a\'`, expected: `a\`, next: 4},
		{name: "empty", src: `''`, expected: "", next: 2},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			content, next, ok, err := ScanString(tc.src, tc.pos)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, tc.expected, content)
			require.Equal(t, tc.next, next)
		})
	}

	t.Run("not a string", func(t *testing.T) {
		_, next, ok, err := ScanString("db 1", 3)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, 3, next)
	})

	t.Run("unterminated", func(t *testing.T) {
		for _, src := range []string{"db 'abc", "db \"abc'", "db 'abc\n'"} {
			_, next, ok, err := ScanString(src, 3)
			require.False(t, ok)
			require.Equal(t, 3, next)

			var e *Error
			require.True(t, errors.As(err, &e))
			require.Equal(t, ErrorKindSyntax, e.Kind)
			require.Equal(t, 3, e.Offset)
			require.EqualError(t, e.Unwrap(), "unterminated string")
		}
	})
}

func TestScanPunct(t *testing.T) {
	for _, ch := range []byte(",:()[]") {
		punct, next, ok := ScanPunct(string([]byte{' ', ch}), 1)
		require.True(t, ok)
		require.Equal(t, ch, punct)
		require.Equal(t, 2, next)
	}

	for _, src := range []string{";", "a", "{", "+", ""} {
		_, next, ok := ScanPunct(src, 0)
		require.False(t, ok, src)
		require.Equal(t, 0, next)
	}
}
