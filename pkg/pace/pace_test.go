package pace_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluv-io/mnc/pkg/pace"
)

func TestNextDelayUnpaced(t *testing.T) {
	now := time.Now()
	for _, l := range []*pace.Limiter{nil, pace.PerPacket(0), pace.PerPacket(-1), pace.PerByte(0)} {
		for i := 0; i < 10; i++ {
			assert.Equal(t, time.Duration(0), l.NextDelay(now, 1500))
			now = now.Add(time.Microsecond)
		}
	}
}

func TestNextDelayPerPacket(t *testing.T) {
	l := pace.PerPacket(100)
	start := time.Unix(1700000000, 0)

	// First send is immediate, every following one a full interval later.
	now := start
	for i := 0; i < 100; i++ {
		d := l.NextDelay(now, 1500)
		if i == 0 {
			require.Equal(t, time.Duration(0), d)
		}
		now = now.Add(d)
	}

	// 99 paced intervals of 10ms for a caller that always waits exactly the
	// returned delay.
	elapsed := now.Sub(start)
	assert.InDelta(t, float64(990*time.Millisecond), float64(elapsed), float64(time.Millisecond))
}

func TestNextDelayElapsedInterval(t *testing.T) {
	l := pace.PerPacket(10)
	now := time.Unix(1700000000, 0)

	require.Equal(t, time.Duration(0), l.NextDelay(now, 1))

	// A caller arriving one full interval later owes no wait.
	now = now.Add(100 * time.Millisecond)
	assert.Equal(t, time.Duration(0), l.NextDelay(now, 1))

	// Arriving early owes the remainder.
	now = now.Add(60 * time.Millisecond)
	d := l.NextDelay(now, 1)
	assert.InDelta(t, float64(40*time.Millisecond), float64(d), float64(time.Millisecond))
}

func TestNextDelayPerByte(t *testing.T) {
	l := pace.PerByte(1_000_000)
	start := time.Unix(1700000000, 0)

	now := start
	for i := 0; i < 1000; i++ {
		now = now.Add(l.NextDelay(now, 1000))
	}

	// One megabyte at one megabyte per second, minus the initial burst
	// allowance.
	elapsed := now.Sub(start).Seconds()
	assert.InDelta(t, 1.0-64*1024/1e6, elapsed, 0.01)
}

func TestNextDelayOversizedSend(t *testing.T) {
	l := pace.PerByte(1000)
	assert.Equal(t, time.Duration(0), l.NextDelay(time.Now(), 1<<20))
}
