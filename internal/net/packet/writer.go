package packet

import (
	"encoding/binary"

	"github.com/l1jgo/playerbot/internal/core/ident"
)

// Writer builds a serialized server packet in the layout Reader expects.
// All multi-byte writes are little-endian.
type Writer struct {
	buf []byte
}

func NewWriter(opcode uint16) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.WriteU16(opcode)
	return w
}

func (w *Writer) WriteU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteU16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) WriteU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) WriteU64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) WriteGUID(id ident.EntityID) {
	w.buf = append(w.buf, id[:]...)
}

// WriteCString writes s followed by a null terminator.
func (w *Writer) WriteCString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

// Encode serializes a typed packet for the statistics path. Variants without
// a layout here encode as the bare opcode; the host's own encoder produces
// the real wire form.
func Encode(p Packet) []byte {
	w := NewWriter(p.Opcode())
	switch v := p.(type) {
	case *Raw:
		w.buf = append(w.buf, v.Data...)
	case *GroupList:
		w.WriteGUID(v.Group)
		w.WriteU8(uint8(len(v.Members)))
		for _, m := range v.Members {
			w.WriteGUID(m.ID)
			w.WriteU8(m.Subgroup)
		}
	case *AuctionBidderNotify:
		w.WriteU32(v.Auction)
		w.WriteU32(v.Item)
		w.WriteU64(v.Bid)
		w.WriteCString(v.Party)
	case *MessageChat:
		w.WriteGUID(v.Sender)
		w.WriteU8(uint8(v.Kind))
		w.WriteCString(v.Text)
	}
	return w.Bytes()
}
