package mnc

import (
	"fmt"
	"sync"

	"github.com/eluv-io/mnc/packet"
)

// Policy selects what PacketQueue.Push does when the queue is full.
type Policy int

const (
	// Block waits for the consumer to make room.
	Block Policy = iota
	// DropOldest evicts the head of the queue to admit the new packet.
	DropOldest
	// DropNewest rejects the incoming packet.
	DropNewest
)

func (p Policy) String() string {
	switch p {
	case Block:
		return "block"
	case DropOldest:
		return "drop-oldest"
	case DropNewest:
		return "drop-newest"
	default:
		return "Unknown"
	}
}

// ParsePolicy maps an overflow policy name to its Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "block":
		return Block, nil
	case "drop-oldest":
		return DropOldest, nil
	case "drop-newest":
		return DropNewest, nil
	}
	return Block, fmt.Errorf("unknown overflow policy %q", s)
}

// PacketQueue is the bounded FIFO between the Reader and the Writer. A fixed
// ring holds the packets; the policy decides what happens when the producer
// outruns the consumer.
type PacketQueue struct {
	ch       []packet.Packet
	front    int
	rear     int // rear-1 is the index of the last element
	count    int
	capacity int
	policy   Policy
	dropFn   func(packet.Packet)
	m        *sync.Mutex
	cond     *sync.Cond
	closed   bool
}

// NewPacketQueue creates a queue holding at most capacity packets. dropFn,
// when non-nil, is called for every packet lost to the overflow policy.
func NewPacketQueue(capacity int, policy Policy, dropFn func(packet.Packet)) *PacketQueue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &PacketQueue{
		ch:       make([]packet.Packet, capacity),
		rear:     -1,
		capacity: capacity,
		policy:   policy,
		dropFn:   dropFn,
	}
	q.m = &sync.Mutex{}
	q.cond = sync.NewCond(q.m)
	return q
}

// Push enqueues p according to the overflow policy. It returns
// ErrQueueClosed once the queue is closed, including while a Block push is
// waiting. The drop callback runs outside the queue lock.
func (q *PacketQueue) Push(p packet.Packet) error {
	q.m.Lock()

	if q.closed {
		q.m.Unlock()
		return ErrQueueClosed
	}

	var evicted *packet.Packet
	for q.count >= q.capacity {
		switch q.policy {
		case DropOldest:
			d := q.ch[q.front]
			q.front = (q.front + 1) % q.capacity
			q.count--
			evicted = &d
		case DropNewest:
			q.m.Unlock()
			if q.dropFn != nil {
				q.dropFn(p)
			}
			return nil
		default:
			q.cond.Wait()
			if q.closed {
				q.m.Unlock()
				return ErrQueueClosed
			}
		}
	}

	q.count++
	q.rear = (q.rear + 1) % q.capacity
	q.ch[q.rear] = p
	q.cond.Broadcast()
	q.m.Unlock()

	if evicted != nil && q.dropFn != nil {
		q.dropFn(*evicted)
	}
	return nil
}

// Pop dequeues the oldest packet, waiting while the queue is empty and open.
// ok is false once the queue is closed and fully drained.
func (q *PacketQueue) Pop() (p packet.Packet, ok bool) {
	q.m.Lock()
	defer q.m.Unlock()

	for q.count <= 0 {
		if q.closed {
			return packet.Packet{}, false
		}
		q.cond.Wait()
	}

	p = q.ch[q.front]
	q.ch[q.front] = packet.Packet{}
	q.front = (q.front + 1) % q.capacity
	q.count--
	q.cond.Broadcast()
	return p, true
}

// Len reports the number of queued packets.
func (q *PacketQueue) Len() int {
	q.m.Lock()
	defer q.m.Unlock()
	return q.count
}

// Cap reports the fixed capacity.
func (q *PacketQueue) Cap() int {
	return q.capacity
}

// Close marks the queue closed and wakes every waiter. Queued packets remain
// poppable so the consumer can drain. Close is idempotent.
func (q *PacketQueue) Close() {
	q.m.Lock()
	defer q.m.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
