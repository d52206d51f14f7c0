package packet_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluv-io/mnc/packet"
)

func TestParseType(t *testing.T) {
	for _, name := range []string{"text", "binary", "vita49", "sdds", "mpegts"} {
		typ, err := packet.ParseType(name)
		require.NoError(t, err)
		assert.Equal(t, name, typ.String())
	}

	_, err := packet.ParseType("pcap")
	require.ErrorIs(t, err, packet.ErrUnknownType)
}

func TestRecognizePassthrough(t *testing.T) {
	// Text and binary have no framing at all: anything goes through whole.
	bufs := [][]byte{nil, {}, {0x00}, []byte("hello\n"), make([]byte, 65536)}

	for _, typ := range []packet.Type{packet.TypeText, packet.TypeBinary} {
		for _, buf := range bufs {
			v, err := packet.Recognize(typ, buf)
			require.NoError(t, err)
			assert.Equal(t, len(buf), len(v.Payload))
			assert.Nil(t, v.Vita49)
			assert.Nil(t, v.Sdds)
		}
	}
}

func TestRecognizeShortNeverPanics(t *testing.T) {
	for _, typ := range []packet.Type{packet.TypeVita49, packet.TypeSdds, packet.TypeMpegTs} {
		for n := 0; n < 8; n++ {
			_, err := packet.Recognize(typ, make([]byte, n))
			require.ErrorIs(t, err, packet.ErrTooShort, "type %s length %d", typ, n)
		}
	}
}

func TestRecognizeUnknownType(t *testing.T) {
	_, err := packet.Recognize(packet.TypeUnknown, []byte("x"))
	require.ErrorIs(t, err, packet.ErrUnknownType)
}

func TestIsFraming(t *testing.T) {
	assert.True(t, packet.IsFraming(packet.ErrTooShort))
	assert.True(t, packet.IsFraming(packet.ErrSizeMismatch))
	assert.True(t, packet.IsFraming(packet.ErrBadFrame))
	assert.False(t, packet.IsFraming(packet.ErrUnknownType))
	assert.False(t, packet.IsFraming(errors.New("socket closed")))
}
