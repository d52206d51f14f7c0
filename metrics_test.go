package mnc_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluv-io/mnc"
	"github.com/eluv-io/mnc/packet"
)

func metricValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		m := mf.GetMetric()[0]
		if m.GetCounter() != nil {
			return m.GetCounter().GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ctrs := &mnc.Counters{}
	q := mnc.NewPacketQueue(4, mnc.Block, nil)
	mnc.NewMetrics(reg, ctrs, q)

	ctrs.PacketsSeen.Add(7)
	ctrs.BytesSent.Add(1234)
	ctrs.Dropped.Inc()
	require.NoError(t, q.Push(packet.Packet{Data: []byte("x")}))
	require.NoError(t, q.Push(packet.Packet{Data: []byte("y")}))

	assert.Equal(t, 7.0, metricValue(t, reg, "mnc_packets_seen_total"))
	assert.Equal(t, 1234.0, metricValue(t, reg, "mnc_bytes_sent_total"))
	assert.Equal(t, 1.0, metricValue(t, reg, "mnc_dropped_total"))
	assert.Equal(t, 0.0, metricValue(t, reg, "mnc_packets_sent_total"))
	assert.Equal(t, 2.0, metricValue(t, reg, "mnc_queue_depth"))
}
