package mnc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eluv-io/mnc/packet"
)

// Statistics periodically renders the pipeline counters and hex-dumps the
// packets the Reader sampled. It reads atomics only; the queue and the
// packet flow are never touched.
type Statistics struct {
	ctrs    *Counters
	typ     packet.Type
	period  time.Duration
	samples <-chan packet.Packet
	start   time.Time
	prev    Snapshot
}

// Run reports every period until ctx is canceled, rendering sampled packets
// as they arrive.
func (s *Statistics) Run(ctx context.Context) error {
	s.prev = s.ctrs.Snapshot()

	tick := time.NewTicker(s.period)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.drainSamples()
			return nil
		case p := <-s.samples:
			s.dump(p)
		case <-tick.C:
			s.report()
		}
	}
}

func (s *Statistics) drainSamples() {
	if s.samples == nil {
		return
	}
	for {
		select {
		case p := <-s.samples:
			s.dump(p)
		default:
			return
		}
	}
}

// dump renders one sampled packet: the decoded header when the type carries
// one, then an od style hex dump.
func (s *Statistics) dump(p packet.Packet) {
	if view, err := packet.Recognize(s.typ, p.Data); err == nil {
		switch {
		case view.Vita49 != nil:
			log.Info(view.Vita49.String())
		case view.Sdds != nil:
			log.Info(view.Sdds.String())
		}
	}
	for _, line := range packet.HexDump(p.Data) {
		log.Info(line)
	}
}

// report renders one per-period line from counter deltas.
func (s *Statistics) report() {
	cur := s.ctrs.Snapshot()
	elapsed := cur.Time.Sub(s.prev.Time).Seconds()
	if elapsed <= 0 {
		return
	}

	seen := cur.PacketsSeen - s.prev.PacketsSeen
	rate := float64(seen) / elapsed

	var b strings.Builder
	fmt.Fprintf(&b, "packets: %d  rate: %.2f pkt/s", seen, rate)
	if s.typ == packet.TypeVita49 || s.typ == packet.TypeSdds {
		fmt.Fprintf(&b, "  skipped: %d", cur.SeqSkipped-s.prev.SeqSkipped)
	}
	if d := cur.Malformed - s.prev.Malformed; d > 0 {
		fmt.Fprintf(&b, "  malformed: %d", d)
	}
	if d := cur.Dropped - s.prev.Dropped; d > 0 {
		fmt.Fprintf(&b, "  dropped: %d", d)
	}
	if s.typ == packet.TypeSdds && cur.LastTimeTag != 0 {
		fmt.Fprintf(&b, "  time: %s", packet.FormatSddsTime(cur.LastTimeTag))
	}
	log.Info(b.String())

	s.prev = cur
}

// Final renders the whole-run totals once, at shutdown.
func (s *Statistics) Final() {
	cur := s.ctrs.Snapshot()
	line := fmt.Sprintf(
		"total packets: %d  sent: %d  malformed: %d  dropped: %d  skipped: %d  elapsed: %s",
		cur.PacketsSeen, cur.PacketsSent, cur.Malformed, cur.Dropped, cur.SeqSkipped,
		time.Since(s.start).Round(time.Millisecond))
	log.Info(line)
}
