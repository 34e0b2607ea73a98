package coff

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/samber/lo"
)

// File is the serializer input: the sections and labels of one assembled
// source, in declaration order.
type File struct {
	// Filename is recorded in the .file symbol.
	Filename      string
	TimeDateStamp uint32
	Sections      []*Section
	Labels        []*Label
}

// Section is a named region of raw data.
type Section struct {
	// Name must be one of .text, .data or .bss.
	Name string
	Data []byte
	// Relocations are written after Data. Nothing currently populates them, but
	// their slots are accounted for in every offset.
	Relocations []Relocation
}

// Label becomes an EXTERNAL symbol.
type Label struct {
	Name string
	// Value is the byte offset into the owning section.
	Value uint32
	// SectionNumber is the 1-based index into File.Sections.
	SectionNumber uint16
}

// UnknownSectionError is returned by Encode when a section name has no known
// characteristics.
type UnknownSectionError struct {
	// Index is the 0-based index into File.Sections.
	Index int
	Name  string
}

func (e *UnknownSectionError) Error() string {
	return fmt.Sprintf("unknown section name %q", e.Name)
}

// Encode returns the object file bytes of f: the file header, the section
// table, each section's data followed by its relocations, the symbol table and
// finally the string table.
func Encode(f *File) ([]byte, error) {
	headers := make([]SectionHeader, len(f.Sections))
	offset := FileHeaderSize + len(f.Sections)*SectionHeaderSize
	for i, s := range f.Sections {
		characteristics, ok := SectionCharacteristics(s.Name)
		if !ok {
			return nil, &UnknownSectionError{Index: i, Name: s.Name}
		}
		h := &headers[i]
		h.Name = shortName(s.Name)
		h.SizeOfRawData = uint32(len(s.Data))
		h.PointerToRawData = uint32(offset)
		offset += len(s.Data)
		h.PointerToRelocations = uint32(offset)
		h.NumberOfRelocations = uint16(len(s.Relocations))
		offset += len(s.Relocations) * RelocationSize
		h.Characteristics = characteristics
	}
	pointerToSymbolTable := offset

	symbols, strtab, count := encodeSymbols(f)

	header := FileHeader{
		Machine:              MachineAMD64,
		NumberOfSections:     uint16(len(f.Sections)),
		TimeDateStamp:        f.TimeDateStamp,
		PointerToSymbolTable: uint32(pointerToSymbolTable),
		NumberOfSymbols:      uint32(count),
	}

	out := make([]byte, 0, f.Size()+len(symbols)+len(strtab))
	out = header.AppendTo(out)
	for i := range headers {
		out = headers[i].AppendTo(out)
	}
	for _, s := range f.Sections {
		out = append(out, s.Data...)
		for i := range s.Relocations {
			out = s.Relocations[i].AppendTo(out)
		}
	}
	out = append(out, symbols...)
	return append(out, strtab...), nil
}

// WriteTo implements io.WriterTo.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	b, err := Encode(f)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Size returns the number of bytes Encode would produce before the symbol
// table, i.e. the value of PointerToSymbolTable.
func (f *File) Size() int {
	return FileHeaderSize + lo.SumBy(f.Sections, func(s *Section) int {
		return SectionHeaderSize + len(s.Data) + len(s.Relocations)*RelocationSize
	})
}

// encodeSymbols returns the symbol table, the string table and the number of
// symbol table records, auxiliary ones included.
func encodeSymbols(f *File) (symbols, strtab []byte, count int) {
	// The string table starts with its own size, which is 4 when empty.
	strtab = make([]byte, 4)

	file := Symbol{
		Name:          shortName(".file"),
		SectionNumber: SectionNumberDebug,
		StorageClass:  StorageClassFile,
	}
	aux, n := appendAuxFile(nil, f.Filename)
	file.NumberOfAuxSymbols = uint8(n)
	symbols = file.AppendTo(symbols)
	symbols = append(symbols, aux...)
	count += 1 + n

	for i, s := range f.Sections {
		sym := Symbol{
			Name:               shortName(s.Name),
			SectionNumber:      uint16(i + 1),
			StorageClass:       StorageClassStatic,
			NumberOfAuxSymbols: 1,
		}
		def := AuxSectionDefinition{
			Length:              uint32(len(s.Data)),
			NumberOfRelocations: uint16(len(s.Relocations)),
		}
		symbols = sym.AppendTo(symbols)
		symbols = def.AppendTo(symbols)
		count += 2
	}

	for _, l := range f.Labels {
		sym := Symbol{
			Value:         l.Value,
			SectionNumber: l.SectionNumber,
			StorageClass:  StorageClassExternal,
		}
		if len(l.Name) > len(sym.Name) {
			binary.LittleEndian.PutUint32(sym.Name[4:], uint32(len(strtab)))
			strtab = append(strtab, l.Name...)
			strtab = append(strtab, 0)
		} else {
			sym.Name = shortName(l.Name)
		}
		symbols = sym.AppendTo(symbols)
		count++
	}

	binary.LittleEndian.PutUint32(strtab, uint32(len(strtab)))
	return
}
