package packet

import (
	"errors"
	"fmt"
	"time"
)

// Packet framing definitions for the datagram relay. A Packet is one datagram;
// Recognize validates its framing for the configured Type without interpreting
// the payload.

// MAX_PACKET_LEN is the largest datagram the relay accepts, network or file.
const MAX_PACKET_LEN = 65536

type Type byte

const (
	TypeUnknown Type = iota
	TypeText
	TypeBinary
	TypeVita49
	TypeSdds
	TypeMpegTs
)

var ErrUnknownType = fmt.Errorf("unknown packet type")

// Framing failures are deliberately bare sentinels: they are produced per
// malformed datagram on the receive path and only ever counted, not unwound.
var (
	ErrTooShort     = errors.New("packet too short for header")
	ErrSizeMismatch = errors.New("declared size does not match packet length")
	ErrBadFrame     = errors.New("unrecognized frame")
)

// IsFraming reports whether err is a per-packet framing failure, as opposed to
// a transport or configuration error.
func IsFraming(err error) bool {
	return errors.Is(err, ErrTooShort) || errors.Is(err, ErrSizeMismatch) || errors.Is(err, ErrBadFrame)
}

func (t Type) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeBinary:
		return "binary"
	case TypeVita49:
		return "vita49"
	case TypeSdds:
		return "sdds"
	case TypeMpegTs:
		return "mpegts"
	default:
		return "unknown"
	}
}

func ParseType(s string) (Type, error) {
	switch s {
	case "text":
		return TypeText, nil
	case "binary":
		return TypeBinary, nil
	case "vita49":
		return TypeVita49, nil
	case "sdds":
		return TypeSdds, nil
	case "mpegts":
		return TypeMpegTs, nil
	}
	return TypeUnknown, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Packet is one datagram owned by whichever stage currently holds it.
type Packet struct {
	Data []byte
	Time time.Time
}

// FrameView is a non-owning view into a packet's bytes: the payload sub-slice
// plus the decoded header for types that carry one. It borrows from the packet
// buffer and must not be retained past it.
type FrameView struct {
	Payload []byte
	Vita49  *Vita49Header
	Sdds    *SddsHeader
	MpegTs  *TsHeader
}

// Recognize validates data against the framing rules for t and returns a view
// of it. Text and binary packets are passthrough and never fail. Pure function,
// no allocation beyond the header struct.
func Recognize(t Type, data []byte) (FrameView, error) {
	switch t {
	case TypeText, TypeBinary:
		return FrameView{Payload: data}, nil
	case TypeVita49:
		h, err := ParseVita49Header(data)
		if err != nil {
			return FrameView{}, err
		}
		return FrameView{Payload: data[VRL_HEADER_LEN:], Vita49: h}, nil
	case TypeSdds:
		h, err := ParseSddsHeader(data)
		if err != nil {
			return FrameView{}, err
		}
		return FrameView{Payload: data[SDDS_HEADER_LEN:], Sdds: h}, nil
	case TypeMpegTs:
		h, err := ParseTsHeader(data)
		if err != nil {
			return FrameView{}, err
		}
		return FrameView{Payload: data, MpegTs: h}, nil
	}
	return FrameView{}, ErrUnknownType
}
