// Package pace computes how long an outbound sender must wait before its next
// send so that the long-run rate converges to a configured target. It is
// advisory: the limiter never blocks or owns a goroutine, the caller sleeps
// for the returned duration.
package pace

import (
	"time"

	"golang.org/x/time/rate"
)

// maxDatagram bounds the cost of a single send in byte mode; it matches the
// largest datagram the relay accepts.
const maxDatagram = 64 * 1024

// Limiter paces sends by packet count or by byte volume. A nil Limiter is
// valid and never delays.
type Limiter struct {
	lim     *rate.Limiter
	perByte bool
}

// PerPacket returns a limiter holding the sender to pps packets per second,
// or nil (unpaced) when pps is zero or negative.
func PerPacket(pps float64) *Limiter {
	if pps <= 0 {
		return nil
	}
	return &Limiter{lim: rate.NewLimiter(rate.Limit(pps), 1)}
}

// PerByte returns a limiter holding the sender to bps bytes per second, or
// nil (unpaced) when bps is zero or negative.
func PerByte(bps float64) *Limiter {
	if bps <= 0 {
		return nil
	}
	return &Limiter{lim: rate.NewLimiter(rate.Limit(bps), maxDatagram), perByte: true}
}

// NextDelay returns how long the caller must wait, as of now, before sending
// a packet of size bytes. Zero when unpaced or when the pacing interval has
// already elapsed; an interval that elapsed exactly counts as elapsed.
func (l *Limiter) NextDelay(now time.Time, size int) time.Duration {
	if l == nil {
		return 0
	}
	n := 1
	if l.perByte {
		n = size
	}
	r := l.lim.ReserveN(now, n)
	if !r.OK() {
		// size above the burst can never be paced; send it unpaced rather
		// than stall the pipeline.
		return 0
	}
	return r.DelayFrom(now)
}
