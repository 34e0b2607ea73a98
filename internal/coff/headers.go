// Package coff encodes Microsoft COFF object files for x86-64.
//
// See https://learn.microsoft.com/en-us/windows/win32/debug/pe-format
package coff

import "encoding/binary"

// MachineAMD64 is IMAGE_FILE_MACHINE_AMD64.
const MachineAMD64 uint16 = 0x8664

// Sizes in bytes of the fixed records.
const (
	FileHeaderSize    = 20
	SectionHeaderSize = 40
	RelocationSize    = 10
	SymbolSize        = 18
)

// Section characteristics of the recognized section names.
const (
	// CharacteristicsData is CNT_INITIALIZED_DATA | ALIGN_4BYTES | MEM_READ | MEM_WRITE.
	CharacteristicsData uint32 = 0xC0300040
	// CharacteristicsText is CNT_CODE | ALIGN_16BYTES | MEM_EXECUTE | MEM_READ.
	CharacteristicsText uint32 = 0x60500020
	// CharacteristicsBSS is CNT_UNINITIALIZED_DATA | ALIGN_4BYTES | MEM_READ | MEM_WRITE.
	CharacteristicsBSS uint32 = 0xC0300080
)

// SectionCharacteristics returns the characteristics for a section name, or
// false if the name is not one of .text, .data or .bss.
func SectionCharacteristics(name string) (uint32, bool) {
	switch name {
	case ".data":
		return CharacteristicsData, true
	case ".text":
		return CharacteristicsText, true
	case ".bss":
		return CharacteristicsBSS, true
	}
	return 0, false
}

// Symbol storage classes.
const (
	StorageClassExternal uint8 = 2
	StorageClassStatic   uint8 = 3
	StorageClassFile     uint8 = 0x67
)

// SectionNumberDebug is IMAGE_SYM_DEBUG, used by the .file symbol.
const SectionNumberDebug uint16 = 0xFFFE

// FileHeader is the COFF file header.
type FileHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

// AppendTo appends the FileHeaderSize bytes of h to b.
func (h *FileHeader) AppendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, h.Machine)
	b = binary.LittleEndian.AppendUint16(b, h.NumberOfSections)
	b = binary.LittleEndian.AppendUint32(b, h.TimeDateStamp)
	b = binary.LittleEndian.AppendUint32(b, h.PointerToSymbolTable)
	b = binary.LittleEndian.AppendUint32(b, h.NumberOfSymbols)
	b = binary.LittleEndian.AppendUint16(b, h.SizeOfOptionalHeader)
	return binary.LittleEndian.AppendUint16(b, h.Characteristics)
}

// SectionHeader is one entry of the section table.
type SectionHeader struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLinenumbers uint32
	NumberOfRelocations  uint16
	NumberOfLinenumbers  uint16
	Characteristics      uint32
}

// AppendTo appends the SectionHeaderSize bytes of h to b.
func (h *SectionHeader) AppendTo(b []byte) []byte {
	b = append(b, h.Name[:]...)
	b = binary.LittleEndian.AppendUint32(b, h.VirtualSize)
	b = binary.LittleEndian.AppendUint32(b, h.VirtualAddress)
	b = binary.LittleEndian.AppendUint32(b, h.SizeOfRawData)
	b = binary.LittleEndian.AppendUint32(b, h.PointerToRawData)
	b = binary.LittleEndian.AppendUint32(b, h.PointerToRelocations)
	b = binary.LittleEndian.AppendUint32(b, h.PointerToLinenumbers)
	b = binary.LittleEndian.AppendUint16(b, h.NumberOfRelocations)
	b = binary.LittleEndian.AppendUint16(b, h.NumberOfLinenumbers)
	return binary.LittleEndian.AppendUint32(b, h.Characteristics)
}

// Relocation is one relocation table entry.
type Relocation struct {
	VirtualAddress   uint32
	SymbolTableIndex uint32
	Type             uint16
}

// AppendTo appends the RelocationSize bytes of r to b.
func (r *Relocation) AppendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, r.VirtualAddress)
	b = binary.LittleEndian.AppendUint32(b, r.SymbolTableIndex)
	return binary.LittleEndian.AppendUint16(b, r.Type)
}

// Symbol is one standard symbol table record. Auxiliary records follow it.
type Symbol struct {
	// Name is either the zero-padded short name, or four zero bytes followed
	// by the little-endian string table offset of the long name.
	Name               [8]byte
	Value              uint32
	SectionNumber      uint16
	Type               uint16
	StorageClass       uint8
	NumberOfAuxSymbols uint8
}

// AppendTo appends the SymbolSize bytes of s to b.
func (s *Symbol) AppendTo(b []byte) []byte {
	b = append(b, s.Name[:]...)
	b = binary.LittleEndian.AppendUint32(b, s.Value)
	b = binary.LittleEndian.AppendUint16(b, s.SectionNumber)
	b = binary.LittleEndian.AppendUint16(b, s.Type)
	return append(b, s.StorageClass, s.NumberOfAuxSymbols)
}

// AuxSectionDefinition is the auxiliary record of a STATIC section symbol.
type AuxSectionDefinition struct {
	Length              uint32
	NumberOfRelocations uint16
	NumberOfLinenumbers uint16
	CheckSum            uint32
	Number              uint16
	Selection           uint8
}

// AppendTo appends the SymbolSize bytes of a to b.
func (a *AuxSectionDefinition) AppendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, a.Length)
	b = binary.LittleEndian.AppendUint16(b, a.NumberOfRelocations)
	b = binary.LittleEndian.AppendUint16(b, a.NumberOfLinenumbers)
	b = binary.LittleEndian.AppendUint32(b, a.CheckSum)
	b = binary.LittleEndian.AppendUint16(b, a.Number)
	return append(b, a.Selection, 0, 0, 0)
}

// appendAuxFile appends the auxiliary records of a .file symbol: the name,
// zero-padded to a multiple of SymbolSize. It returns the record count.
func appendAuxFile(b []byte, filename string) ([]byte, int) {
	n := (len(filename) + SymbolSize - 1) / SymbolSize
	if n == 0 {
		n = 1
	}
	b = append(b, filename...)
	b = append(b, make([]byte, n*SymbolSize-len(filename))...)
	return b, n
}

// shortName copies name into a fixed 8 byte field, truncating if longer.
func shortName(name string) (field [8]byte) {
	copy(field[:], name)
	return
}
