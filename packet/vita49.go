package packet

import (
	"bytes"
	"fmt"
)

// VITA-49 frames arrive VRL-encapsulated: a fixed 8 byte header carrying the
// "VRLP" identifier, a 12 bit frame sequence number and a 20 bit frame size in
// 32 bit words. The frame size covers the whole frame, so size*4 must equal
// the datagram length.

const VRL_HEADER_LEN = 8

var vrlpIdentifier = []byte("VRLP")

type Vita49Header struct {
	FrameSeq  uint16 // 12 bit, wraps at 0xFFF
	FrameSize uint32 // 20 bit, in 32 bit words including the VRL framing
}

// ParseVita49Header validates the VRL framing of data and returns the decoded
// header. It fails with ErrTooShort below the minimum header length,
// ErrBadFrame on a missing VRLP identifier, and ErrSizeMismatch when the
// declared frame size disagrees with the datagram length.
func ParseVita49Header(data []byte) (*Vita49Header, error) {
	if len(data) < VRL_HEADER_LEN {
		return nil, ErrTooShort
	}
	if !bytes.Equal(data[0:4], vrlpIdentifier) {
		return nil, ErrBadFrame
	}

	h := &Vita49Header{
		FrameSeq:  uint16(data[4])<<4 | uint16(data[5])>>4,
		FrameSize: uint32(data[5]&0x0F)<<16 | uint32(data[6])<<8 | uint32(data[7]),
	}
	if int(h.FrameSize)*4 != len(data) {
		return nil, ErrSizeMismatch
	}
	return h, nil
}

// SeqGap returns the number of frames missing between prev and h, honoring the
// 12 bit wraparound (0xFFF is followed by 0x000).
func (h *Vita49Header) SeqGap(prev uint16) uint64 {
	expected := (prev + 1) & 0xFFF
	if h.FrameSeq == expected {
		return 0
	}
	if h.FrameSeq > expected {
		return uint64(h.FrameSeq - expected)
	}
	return 0x1000 - uint64(expected) + uint64(h.FrameSeq)
}

func (h *Vita49Header) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "VITA49 Header:\n")
	fmt.Fprintf(&b, "  %-24s:  VRLP\n", "Identifier")
	fmt.Fprintf(&b, "  %-24s: %-25d %012b\n", "Frame Sequence (12)", h.FrameSeq, h.FrameSeq)
	fmt.Fprintf(&b, "  %-24s: %-25d %020b\n", "Frame Size (20)", h.FrameSize, h.FrameSize)
	return b.String()
}
