package coff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSectionCharacteristics(t *testing.T) {
	tests := []struct {
		name     string
		expected uint32
		ok       bool
	}{
		{name: ".data", expected: 0xC0300040, ok: true},
		{name: ".text", expected: 0x60500020, ok: true},
		{name: ".bss", expected: 0xC0300080, ok: true},
		{name: ".rdata"},
		{name: "text"},
		{name: ".TEXT"},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			actual, ok := SectionCharacteristics(tc.name)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.expected, actual)
		})
	}
}

func TestFileHeader_AppendTo(t *testing.T) {
	h := &FileHeader{
		Machine:              MachineAMD64,
		NumberOfSections:     2,
		TimeDateStamp:        0x04030201,
		PointerToSymbolTable: 0x1234,
		NumberOfSymbols:      7,
	}
	b := h.AppendTo([]byte{0xff})
	require.Equal(t, []byte{
		0xff,
		0x64, 0x86,
		0x02, 0x00,
		0x01, 0x02, 0x03, 0x04,
		0x34, 0x12, 0x00, 0x00,
		0x07, 0x00, 0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
	}, b)
	require.Equal(t, FileHeaderSize, len(b)-1)
}

func TestSectionHeader_AppendTo(t *testing.T) {
	h := &SectionHeader{
		Name:                 shortName(".text"),
		SizeOfRawData:        3,
		PointerToRawData:     100,
		PointerToRelocations: 103,
		NumberOfRelocations:  1,
		Characteristics:      CharacteristicsText,
	}
	b := h.AppendTo(nil)
	require.Equal(t, SectionHeaderSize, len(b))
	require.Equal(t, []byte{'.', 't', 'e', 'x', 't', 0, 0, 0}, b[0:8])
	require.Equal(t, []byte{3, 0, 0, 0}, b[16:20])
	require.Equal(t, []byte{100, 0, 0, 0}, b[20:24])
	require.Equal(t, []byte{103, 0, 0, 0}, b[24:28])
	require.Equal(t, []byte{1, 0}, b[32:34])
	require.Equal(t, []byte{0x20, 0x00, 0x50, 0x60}, b[36:40])
}

func TestRelocation_AppendTo(t *testing.T) {
	r := &Relocation{VirtualAddress: 4, SymbolTableIndex: 9, Type: 0x0004}
	require.Equal(t, []byte{4, 0, 0, 0, 9, 0, 0, 0, 4, 0}, r.AppendTo(nil))
}

func TestSymbol_AppendTo(t *testing.T) {
	s := &Symbol{
		Name:               shortName(".file"),
		SectionNumber:      SectionNumberDebug,
		StorageClass:       StorageClassFile,
		NumberOfAuxSymbols: 1,
	}
	require.Equal(t, []byte{
		'.', 'f', 'i', 'l', 'e', 0, 0, 0,
		0, 0, 0, 0,
		0xfe, 0xff,
		0, 0,
		0x67,
		1,
	}, s.AppendTo(nil))
}

func TestAuxSectionDefinition_AppendTo(t *testing.T) {
	a := &AuxSectionDefinition{Length: 0x0102, NumberOfRelocations: 3}
	b := a.AppendTo(nil)
	require.Equal(t, SymbolSize, len(b))
	// Relocation count reads the same as a u32 at offset 4 as long as there are
	// no line numbers.
	require.Equal(t, []byte{0x02, 0x01, 0, 0, 3, 0, 0, 0}, b[:8])
	require.Equal(t, make([]byte, 10), b[8:])
}

func TestAppendAuxFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		records  int
	}{
		{name: "empty", filename: "", records: 1},
		{name: "short", filename: "test.asm", records: 1},
		{name: "exactly one record", filename: "abcdefghijklmnopqr", records: 1},
		{name: "spills", filename: "abcdefghijklmnopqrs", records: 2},
		{name: "path", filename: "testdata/nested/dir/hello.asm", records: 2},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			b, n := appendAuxFile(nil, tc.filename)
			require.Equal(t, tc.records, n)
			require.Equal(t, n*SymbolSize, len(b))
			require.Equal(t, tc.filename, string(b[:len(tc.filename)]))
			require.Equal(t, make([]byte, len(b)-len(tc.filename)), b[len(tc.filename):])
		})
	}
}

func TestShortName(t *testing.T) {
	require.Equal(t, [8]byte{'.', 'b', 's', 's'}, shortName(".bss"))
	require.Equal(t, [8]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h'}, shortName("abcdefghij"))
}
