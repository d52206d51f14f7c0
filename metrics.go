package mnc

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the pipeline counters to Prometheus. The collectors read
// the atomics on scrape, so the packet path pays nothing for them.
type Metrics struct {
	collectors []prometheus.Collector
}

// NewMetrics registers counter collectors over c and a depth gauge over q
// with reg.
func NewMetrics(reg prometheus.Registerer, c *Counters, q *PacketQueue) *Metrics {
	counter := func(name, help string, load func() uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "mnc",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(load()) })
	}

	m := &Metrics{collectors: []prometheus.Collector{
		counter("packets_seen_total", "Packets accepted by the reader.", c.PacketsSeen.Load),
		counter("packets_sent_total", "Packets delivered by the writer.", c.PacketsSent.Load),
		counter("bytes_seen_total", "Payload bytes accepted by the reader.", c.BytesSeen.Load),
		counter("bytes_sent_total", "Payload bytes delivered by the writer.", c.BytesSent.Load),
		counter("malformed_total", "Packets rejected by the recognizer.", c.Malformed.Load),
		counter("dropped_total", "Packets lost to the queue overflow policy.", c.Dropped.Load),
		counter("seq_skipped_total", "Sequence numbers missing on the wire.", c.SeqSkipped.Load),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "mnc",
			Name:      "queue_depth",
			Help:      "Packets queued between reader and writer.",
		}, func() float64 { return float64(q.Len()) }),
	}}
	reg.MustRegister(m.collectors...)
	return m
}
