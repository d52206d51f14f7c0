package packet

import (
	gots "github.com/Comcast/gots/v2/packet"
)

// MPEG-TS datagrams are 1..7 whole 188 byte transport packets (1316 bytes for
// the usual 7). Every cell is checked for sync byte and header consistency;
// the datagram is forwarded whole, so the view's payload is the full buffer.

const TS_PACKET_LEN = 188

type TsHeader struct {
	PID        uint16 // PID of the first cell
	Continuity uint8  // continuity counter of the first cell
	Cells      int
}

// ParseTsHeader validates that data is a whole number of valid TS packets and
// returns the first cell's identity. ErrTooShort below one cell,
// ErrSizeMismatch on a ragged length, ErrBadFrame when any cell fails the
// transport packet checks.
func ParseTsHeader(data []byte) (*TsHeader, error) {
	if len(data) < TS_PACKET_LEN {
		return nil, ErrTooShort
	}
	if len(data)%TS_PACKET_LEN != 0 {
		return nil, ErrSizeMismatch
	}

	var pkt gots.Packet
	for offset := 0; offset < len(data); offset += TS_PACKET_LEN {
		copy(pkt[:], data[offset:offset+TS_PACKET_LEN])
		if err := pkt.CheckErrors(); err != nil {
			return nil, ErrBadFrame
		}
	}

	copy(pkt[:], data[:TS_PACKET_LEN])
	return &TsHeader{
		PID:        uint16(pkt.PID()),
		Continuity: uint8(pkt.ContinuityCounter()),
		Cells:      len(data) / TS_PACKET_LEN,
	}, nil
}
