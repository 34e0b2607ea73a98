package assembler

import (
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/coffasm/coffasm/internal/coff"
	"github.com/coffasm/coffasm/internal/scan"
)

// Object converts the assembled sections and labels into the serializer
// input. A section name without known characteristics is a format error
// located at its section directive.
func (a *Assembler) Object(timestamp uint32) (*coff.File, error) {
	for i, s := range a.sections {
		if _, ok := coff.SectionCharacteristics(s.Name); !ok {
			return nil, scan.NewError(scan.ErrorKindFormat, s.NameOffset, &coff.UnknownSectionError{Index: i, Name: s.Name})
		}
	}

	return &coff.File{
		Filename:      a.filename,
		TimeDateStamp: timestamp,
		Sections: lo.Map(a.sections, func(s *Section, _ int) *coff.Section {
			return &coff.Section{
				Name:        s.Name,
				Data:        s.Bytes(),
				Relocations: make([]coff.Relocation, s.NumberOfRelocations),
			}
		}),
		Labels: lo.Map(a.labels, func(l Label, _ int) *coff.Label {
			return &coff.Label{Name: l.Name, Value: uint32(l.Position), SectionNumber: uint16(l.Section)}
		}),
	}, nil
}

// WriteObject writes the COFF object to w.
func (a *Assembler) WriteObject(w io.Writer, timestamp uint32) error {
	f, err := a.Object(timestamp)
	if err != nil {
		return err
	}
	if _, err = f.WriteTo(w); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}
