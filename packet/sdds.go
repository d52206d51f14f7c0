package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// SDDS datagrams carry a fixed 56 byte header followed by the sample data
// (canonically 1024 bytes on the wire, but only the header length is
// enforced). All multi-byte fields are big-endian. The 64 bit time tag counts
// 250 picosecond ticks since the start of the year, day-of-year starting at 1.

const SDDS_HEADER_LEN = 56

// ticksPerSecond is the SDDS time tag resolution: 4e9 ticks of 250 ps each.
const ticksPerSecond = 4_000_000_000

type SddsHeader struct {
	// Format identifier, first header byte.
	SF       bool  // standard format
	SoS      bool  // start of sequence
	PP       bool  // parity packet
	OF       bool  // original format
	SS       bool  // spectral sense
	DataMode uint8 // 3 bit

	// Second header byte.
	CX            bool  // complex data
	SNP           bool  // synchronous non-uniform pulse
	VW            bool  // valid window
	BitsPerSample uint8 // 5 bit

	FrameSeq   uint16
	TimeTag    uint64 // 250 ps ticks
	TimeTagExt uint32
}

// ParseSddsHeader decodes the fixed header prefix of data. The only failure
// mode is ErrTooShort; SDDS carries no identifier or length field to cross
// check.
func ParseSddsHeader(data []byte) (*SddsHeader, error) {
	if len(data) < SDDS_HEADER_LEN {
		return nil, ErrTooShort
	}

	b0, b1 := data[0], data[1]
	return &SddsHeader{
		SF:            b0&0x80 != 0,
		SoS:           b0&0x40 != 0,
		PP:            b0&0x20 != 0,
		OF:            b0&0x10 != 0,
		SS:            b0&0x08 != 0,
		DataMode:      b0 & 0x07,
		CX:            b1&0x80 != 0,
		SNP:           b1&0x40 != 0,
		VW:            b1&0x20 != 0,
		BitsPerSample: b1 & 0x1F,
		FrameSeq:      binary.BigEndian.Uint16(data[2:4]),
		TimeTag:       binary.BigEndian.Uint64(data[8:16]),
		TimeTagExt:    binary.BigEndian.Uint32(data[16:20]),
	}, nil
}

// Encode renders h as a 56 byte header, reserved bytes zeroed. Inverse of
// ParseSddsHeader for every decoded field.
func (h *SddsHeader) Encode() []byte {
	data := make([]byte, SDDS_HEADER_LEN)

	var b0, b1 byte
	b0 |= boolBit(h.SF) << 7
	b0 |= boolBit(h.SoS) << 6
	b0 |= boolBit(h.PP) << 5
	b0 |= boolBit(h.OF) << 4
	b0 |= boolBit(h.SS) << 3
	b0 |= h.DataMode & 0x07
	b1 |= boolBit(h.CX) << 7
	b1 |= boolBit(h.SNP) << 6
	b1 |= boolBit(h.VW) << 5
	b1 |= h.BitsPerSample & 0x1F

	data[0] = b0
	data[1] = b1
	binary.BigEndian.PutUint16(data[2:4], h.FrameSeq)
	binary.BigEndian.PutUint64(data[8:16], h.TimeTag)
	binary.BigEndian.PutUint32(data[16:20], h.TimeTagExt)
	return data
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// SddsTime breaks a time tag into day-of-year (starting at 1), hours, minutes,
// seconds and nanoseconds.
func SddsTime(timetag uint64) (days, hours, mins, secs uint32, nsecs uint64) {
	tt := timetag

	nsecs = (tt % ticksPerSecond) / 4
	tt /= ticksPerSecond

	secs = uint32(tt % 60)
	tt /= 60

	mins = uint32(tt % 60)
	tt /= 60

	hours = uint32(tt % 24)
	tt /= 24

	days = 1 + uint32(tt)
	return days, hours, mins, secs, nsecs
}

// FormatSddsTime renders a time tag as DDD:HH:MM:SS:nnnnnnnnn.
func FormatSddsTime(timetag uint64) string {
	days, hours, mins, secs, nsecs := SddsTime(timetag)
	return fmt.Sprintf("%03d:%02d:%02d:%02d:%09d", days, hours, mins, secs, nsecs)
}

// Time renders the header's time tag.
func (h *SddsHeader) Time() string {
	return FormatSddsTime(h.TimeTag)
}

func (h *SddsHeader) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "SDDS Header:\n")
	fmt.Fprintf(&b, "  %-24s: %-25d %016b\n", "Frame Sequence (16)", h.FrameSeq, h.FrameSeq)
	fmt.Fprintf(&b, "  %-24s: %-25s %064b\n", "Time Tag (64)", h.Time(), h.TimeTag)
	fmt.Fprintf(&b, "  %-24s: %-25s %032b\n", "Time Tag Ext (32)", " ", h.TimeTagExt)
	fmt.Fprintf(&b, "    %-22s: %-25d %b\n", "SF (1)", boolBit(h.SF), boolBit(h.SF))
	fmt.Fprintf(&b, "    %-22s: %-26d %b\n", "SoS(1)", boolBit(h.SoS), boolBit(h.SoS))
	fmt.Fprintf(&b, "    %-22s: %-27d %b\n", "PP (1)", boolBit(h.PP), boolBit(h.PP))
	fmt.Fprintf(&b, "    %-22s: %-28d %b\n", "OF (1)", boolBit(h.OF), boolBit(h.OF))
	fmt.Fprintf(&b, "    %-22s: %-29d %b\n", "SS (1)", boolBit(h.SS), boolBit(h.SS))
	fmt.Fprintf(&b, "    %-22s: %-30d %03b\n", "Data Mode (3)", h.DataMode, h.DataMode)
	fmt.Fprintf(&b, "    %-22s: %-33d %b\n", "CX (1)", boolBit(h.CX), boolBit(h.CX))
	fmt.Fprintf(&b, "    %-22s: %-34d %b\n", "SNP (1)", boolBit(h.SNP), boolBit(h.SNP))
	fmt.Fprintf(&b, "    %-22s: %-35d %b\n", "VW (1)", boolBit(h.VW), boolBit(h.VW))
	fmt.Fprintf(&b, "    %-22s: %-36d %05b\n", "Bits per Sample (5)", h.BitsPerSample, h.BitsPerSample)
	return b.String()
}
