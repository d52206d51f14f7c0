package mnc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/eluv-io/mnc/packet"
)

func numbered(i int) packet.Packet {
	return packet.Packet{Data: []byte(fmt.Sprintf("pkt-%03d", i))}
}

func TestPacketQueueFIFO(t *testing.T) {
	defer goleak.VerifyNone(t)

	const n = 20
	q := NewPacketQueue(4, Block, nil)

	go func() {
		for i := 0; i < n; i++ {
			_ = q.Push(numbered(i))
		}
		q.Close()
	}()

	for i := 0; i < n; i++ {
		p, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, numbered(i).Data, p.Data)
		assert.LessOrEqual(t, q.Len(), q.Cap())
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestPacketQueueDropNewest(t *testing.T) {
	var dropped []string
	q := NewPacketQueue(2, DropNewest, func(p packet.Packet) {
		dropped = append(dropped, string(p.Data))
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(numbered(i)))
	}
	q.Close()

	assert.Equal(t, []string{"pkt-002", "pkt-003", "pkt-004"}, dropped)

	p, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "pkt-000", string(p.Data))
	p, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "pkt-001", string(p.Data))
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestPacketQueueDropOldest(t *testing.T) {
	var dropped []string
	q := NewPacketQueue(2, DropOldest, func(p packet.Packet) {
		dropped = append(dropped, string(p.Data))
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(numbered(i)))
	}
	q.Close()

	assert.Equal(t, []string{"pkt-000", "pkt-001", "pkt-002"}, dropped)

	p, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "pkt-003", string(p.Data))
	p, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "pkt-004", string(p.Data))
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestPacketQueueCloseUnblocksPush(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewPacketQueue(1, Block, nil)
	require.NoError(t, q.Push(numbered(0)))

	errc := make(chan error)
	go func() {
		errc <- q.Push(numbered(1))
	}()

	q.Close()
	assert.Equal(t, ErrQueueClosed, <-errc)
}

func TestPacketQueuePushAfterClose(t *testing.T) {
	q := NewPacketQueue(4, Block, nil)
	q.Close()
	assert.Equal(t, ErrQueueClosed, q.Push(numbered(0)))
}

func TestPacketQueueDrainsAfterClose(t *testing.T) {
	q := NewPacketQueue(4, Block, nil)
	require.NoError(t, q.Push(numbered(0)))
	require.NoError(t, q.Push(numbered(1)))
	q.Close()
	q.Close() // idempotent

	p, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "pkt-000", string(p.Data))
	p, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "pkt-001", string(p.Data))
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{Block, DropOldest, DropNewest} {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePolicy("spill")
	assert.Error(t, err)
}
