package assembler

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/coffasm/coffasm/internal/scan"
)

// maxSectionSize is the largest SizeOfRawData a section header can hold.
const maxSectionSize = math.MaxUint32

// selectorWidth maps the width selector of dN and resN to bytes.
func selectorWidth(selector byte, offset int) (int, error) {
	switch selector {
	case 'b':
		return 1, nil
	case 'w':
		return 2, nil
	case 'd':
		return 4, nil
	case 'q':
		return 8, nil
	case 't':
		return 16, nil
	case 'o':
		return 32, nil
	case 'y':
		return 64, nil
	case 'z':
		return 128, nil
	}
	return 0, scan.Errorf(scan.ErrorKindSyntax, offset, "unknown width selector %q", selector)
}

// section opens a new section which becomes the target of all following
// emission.
func (a *Assembler) section(src string, pos int) (int, error) {
	pos = skipSpace(src, pos)
	name, next, ok := scan.ScanWord(src, pos)
	if !ok {
		return pos, scan.Errorf(scan.ErrorKindSyntax, pos, "expect section name")
	}
	a.sections = append(a.sections, &Section{Name: name, NameOffset: pos})
	a.logger.WithFields(logrus.Fields{"section": name, "index": len(a.sections)}).Debug("open section")
	return next, nil
}

// declareData appends comma-separated strings and figures. A string is
// followed by len%width zero bytes. A figure is written as exactly width
// little-endian bytes, truncated or zero-extended.
func (a *Assembler) declareData(src string, offset, pos, width int) (int, error) {
	s, err := a.current(offset)
	if err != nil {
		return pos, err
	}

	for {
		pos = skipSpace(src, pos)
		content, next, ok, err := scan.ScanString(src, pos)
		if err != nil {
			return pos, err
		}

		if ok {
			if err = checkSectionSize(s, len(content)+len(content)%width, pos); err != nil {
				return pos, err
			}
			s.buf.Write([]byte(content))
			s.buf.WriteZeros(len(content) % width)
		} else if figure, after, ok := scan.ScanFigure(src, pos); ok {
			v, err := scan.ParseFigure(figure)
			if err != nil {
				return pos, scan.NewError(scan.ErrorKindSyntax, pos, err)
			}
			if err = checkSectionSize(s, width, pos); err != nil {
				return pos, err
			}
			s.buf.WriteLittleEndian(v, width)
			next = after
		} else {
			return pos, scan.Errorf(scan.ErrorKindSyntax, pos, "expect string or figure")
		}

		pos = skipSpace(src, next)
		punct, after, ok := scan.ScanPunct(src, pos)
		if !ok || punct != ',' {
			return pos, nil
		}
		pos = after
	}
}

// reserve appends width*count zero bytes.
func (a *Assembler) reserve(src string, offset, pos, width int) (int, error) {
	s, err := a.current(offset)
	if err != nil {
		return pos, err
	}

	pos = skipSpace(src, pos)
	figure, next, ok := scan.ScanFigure(src, pos)
	if !ok {
		return pos, scan.Errorf(scan.ErrorKindSyntax, pos, "expect figure")
	}
	count, err := scan.ParseFigure(figure)
	if err != nil {
		return pos, scan.NewError(scan.ErrorKindSyntax, pos, err)
	}
	if count > maxSectionSize/uint64(width) {
		return pos, scan.Errorf(scan.ErrorKindFormat, pos, "section %s exceeds %d bytes", s.Name, uint64(maxSectionSize))
	}
	size := int(count) * width
	if err = checkSectionSize(s, size, pos); err != nil {
		return pos, err
	}
	s.buf.WriteZeros(size)
	return next, nil
}

func checkSectionSize(s *Section, n, offset int) error {
	if uint64(s.Len())+uint64(n) > maxSectionSize {
		return scan.Errorf(scan.ErrorKindFormat, offset, "section %s exceeds %d bytes", s.Name, uint64(maxSectionSize))
	}
	return nil
}
