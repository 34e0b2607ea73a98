package asm

import "encoding/binary"

var zero [16]byte

// Buffer is an append-only byte sequence holding the encoded content of one
// output section.
//
// The zero value is a valid, empty buffer. Bytes written to a Buffer are never
// moved or rewritten: the length of the buffer at any point in time is a stable
// offset that labels can refer to.
type Buffer struct {
	data []byte
}

// NewBuffer constructs a Buffer whose content starts with a copy of b.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{data: append([]byte(nil), b...)}
}

// Len returns the number of bytes written so far.
func (buf *Buffer) Len() int {
	return len(buf.data)
}

// Bytes returns the content of the buffer.
//
// The returned slice remains valid until more bytes are written to the buffer.
func (buf *Buffer) Bytes() []byte {
	return buf.data
}

// Append grows the buffer by n bytes and returns the newly appended region so
// that callers can fill it in place.
func (buf *Buffer) Append(n int) []byte {
	i := len(buf.data)
	j := i + n
	if j > cap(buf.data) {
		buf.grow(n)
	}
	buf.data = buf.data[:j]
	return buf.data[i:j:j]
}

func (buf *Buffer) grow(n int) {
	size := cap(buf.data)
	want := len(buf.data) + n
	if size == 0 {
		size = 64
	}
	for size < want {
		size *= 2
	}
	b := make([]byte, len(buf.data), size)
	copy(b, buf.data)
	buf.data = b
}

// WriteByte appends a single byte. The error is always nil, it is only
// returned to satisfy io.ByteWriter.
func (buf *Buffer) WriteByte(b byte) error {
	buf.Append(1)[0] = b
	return nil
}

// Write implements io.Writer.
func (buf *Buffer) Write(b []byte) (int, error) {
	copy(buf.Append(len(b)), b)
	return len(b), nil
}

func (buf *Buffer) WriteUint32(u uint32) {
	binary.LittleEndian.PutUint32(buf.Append(4), u)
}

func (buf *Buffer) WriteUint64(u uint64) {
	binary.LittleEndian.PutUint64(buf.Append(8), u)
}

// WriteZeros appends n zero bytes.
func (buf *Buffer) WriteZeros(n int) {
	b := buf.Append(n)
	for len(b) > 0 {
		b = b[copy(b, zero[:]):]
	}
}

// WriteLittleEndian appends the width least significant bytes of v in
// little-endian order. Widths above 8 are zero-extended.
func (buf *Buffer) WriteLittleEndian(v uint64, width int) {
	b := buf.Append(width)
	for i := range b {
		if i < 8 {
			b[i] = byte(v >> (8 * i))
		} else {
			b[i] = 0
		}
	}
}
