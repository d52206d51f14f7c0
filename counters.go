package mnc

import (
	"time"

	"go.uber.org/atomic"
)

// Counters aggregates the pipeline tallies. The Reader and Writer write
// them, the Statistics task and the Prometheus collectors read them. All
// fields are atomics so no path ever takes a lock.
type Counters struct {
	PacketsSeen atomic.Uint64 // packets accepted by the Reader
	PacketsSent atomic.Uint64 // packets delivered by the Writer
	BytesSeen   atomic.Uint64
	BytesSent   atomic.Uint64
	Malformed   atomic.Uint64 // recognizer rejections
	Dropped     atomic.Uint64 // queue evictions and rejections
	SeqSkipped  atomic.Uint64 // sequence numbers missing on the wire
	LastTimeTag atomic.Uint64 // most recent SDDS time tag
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Time        time.Time
	PacketsSeen uint64
	PacketsSent uint64
	BytesSeen   uint64
	BytesSent   uint64
	Malformed   uint64
	Dropped     uint64
	SeqSkipped  uint64
	LastTimeTag uint64
}

// Snapshot reads every counter once. The fields are not read as an atomic
// set; per-period deltas tolerate the skew.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Time:        time.Now(),
		PacketsSeen: c.PacketsSeen.Load(),
		PacketsSent: c.PacketsSent.Load(),
		BytesSeen:   c.BytesSeen.Load(),
		BytesSent:   c.BytesSent.Load(),
		Malformed:   c.Malformed.Load(),
		Dropped:     c.Dropped.Load(),
		SeqSkipped:  c.SeqSkipped.Load(),
		LastTimeTag: c.LastTimeTag.Load(),
	}
}
