package transport_test

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluv-io/mnc/transport"
)

func receiveOne(t *testing.T, src *transport.UDPSource) []byte {
	t.Helper()
	buf := make([]byte, 2048)
	for i := 0; i < 50; i++ {
		n, err := src.Receive(buf)
		if err == nil {
			return buf[:n]
		}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			continue
		}
		t.Fatalf("receive: %v", err)
	}
	t.Fatal("no datagram within deadline")
	return nil
}

func TestUDPLoopback(t *testing.T) {
	addr := net.ParseIP("127.0.0.1").To4()

	src, err := transport.OpenGroup("", addr, 0)
	require.NoError(t, err)
	defer src.Close()

	port := src.LocalAddr().(*net.UDPAddr).Port
	require.NotZero(t, port)

	sink, err := transport.DialGroup("", addr, port, 1)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Send([]byte("ping")))
	assert.Equal(t, "ping", string(receiveOne(t, src)))

	require.NoError(t, sink.Send([]byte{0x00, 0x01, 0x02}))
	assert.Equal(t, []byte{0x00, 0x01, 0x02}, receiveOne(t, src))
}

func TestUDPReceiveTimeout(t *testing.T) {
	addr := net.ParseIP("127.0.0.1").To4()

	src, err := transport.OpenGroup("", addr, 0)
	require.NoError(t, err)
	defer src.Close()

	buf := make([]byte, 2048)
	_, err = src.Receive(buf)
	require.Error(t, err)
	var nerr net.Error
	require.True(t, errors.As(err, &nerr))
	assert.True(t, nerr.Timeout())
}
