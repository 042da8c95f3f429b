package packet

import (
	"encoding/binary"

	"github.com/l1jgo/playerbot/internal/core/ident"
)

// Reader reads fields from a serialized server packet.
// Bytes 0-1 are always the little-endian opcode. Reads past the end return
// zero values and mark the reader short.
type Reader struct {
	data  []byte
	off   int
	short bool
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, off: 2} // skip opcode
}

func (r *Reader) Opcode() uint16 {
	if len(r.data) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(r.data)
}

// Short reports whether any read ran past the end of the payload.
func (r *Reader) Short() bool { return r.short || len(r.data) < 2 }

func (r *Reader) take(n int) []byte {
	if r.off+n > len(r.data) {
		r.off = len(r.data)
		r.short = true
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// ReadU8 reads 1 unsigned byte.
func (r *Reader) ReadU8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadU16 reads 2 bytes little-endian.
func (r *Reader) ReadU16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// ReadU32 reads 4 bytes little-endian.
func (r *Reader) ReadU32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadU64 reads 8 bytes little-endian.
func (r *Reader) ReadU64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// ReadGUID reads a 16-byte entity id.
func (r *Reader) ReadGUID() ident.EntityID {
	var id ident.EntityID
	if b := r.take(16); b != nil {
		copy(id[:], b)
	}
	return id
}

// ReadCString reads a null-terminated UTF-8 string.
func (r *Reader) ReadCString() string {
	start := r.off
	for r.off < len(r.data) {
		if r.data[r.off] == 0 {
			s := string(r.data[start:r.off])
			r.off++ // skip null terminator
			return s
		}
		r.off++
	}
	r.short = true
	return string(r.data[start:r.off])
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
