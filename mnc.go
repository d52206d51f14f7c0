// Package mnc moves datagrams between a UDP multicast group and a local
// file or stdio endpoint. A Reader task validates and queues incoming
// packets, a Writer task drains the queue into the output at a configured
// pace, and a Statistics task observes both through shared atomic counters.
package mnc

import (
	"context"
	"time"

	"github.com/eluv-io/errors-go"
	elog "github.com/eluv-io/log-go"
	"golang.org/x/sync/errgroup"

	"github.com/eluv-io/mnc/packet"
	"github.com/eluv-io/mnc/pkg/pace"
	"github.com/eluv-io/mnc/pkg/retry"
	"github.com/eluv-io/mnc/transport"
)

var log = elog.Get("/eluvio/mnc")

const (
	DEFAULT_QUEUE_SIZE   = 10000
	DEFAULT_STATS_PERIOD = 2 * time.Second

	// sampleChanCap bounds the packets buffered for verbose display; the
	// Reader drops samples rather than block on a slow renderer.
	sampleChanCap = 16
)

// Config assembles a Pipeline. The Source and Sink are owned by the
// pipeline once Run is called and are closed before Run returns.
type Config struct {
	Source transport.Source
	Sink   transport.Sink
	Type   packet.Type

	QueueSize int    // packets the queue holds, 0 = DEFAULT_QUEUE_SIZE
	Policy    Policy // what Push does when the queue is full

	PacketRate float64 // outbound packets/sec, 0 = unpaced
	ByteRate   float64 // outbound bytes/sec, 0 = unpaced, excludes PacketRate

	Count   uint64 // stop after this many accepted packets, 0 = unlimited
	Verbose bool   // hex-dump sampled packets

	StatsPeriod time.Duration // 0 disables periodic statistics

	Retry retry.Config // send retry budget, zero value = retry.Default()
}

func (c *Config) Validate() error {
	e := errors.Template("validate config", errors.K.Invalid)
	if c.Source == nil {
		return e("reason", "no source")
	}
	if c.Sink == nil {
		return e("reason", "no sink")
	}
	if c.Type.String() == "unknown" {
		return e("reason", "unknown packet type", "type", int(c.Type))
	}
	if c.PacketRate > 0 && c.ByteRate > 0 {
		return e("reason", "packet rate and byte rate are exclusive")
	}
	if c.PacketRate < 0 || c.ByteRate < 0 {
		return e("reason", "rate must not be negative")
	}
	if c.QueueSize < 0 {
		return e("reason", "queue size must not be negative")
	}
	return nil
}

// Pipeline owns the tasks and shared state of one run.
type Pipeline struct {
	cfg   Config
	ctrs  *Counters
	queue *PacketQueue
	stats *Statistics
}

// NewPipeline validates cfg and wires the queue, counters and statistics.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = DEFAULT_QUEUE_SIZE
	}
	if cfg.Retry == (retry.Config{}) {
		cfg.Retry = retry.Default()
	}

	p := &Pipeline{cfg: cfg, ctrs: &Counters{}}
	p.queue = NewPacketQueue(cfg.QueueSize, cfg.Policy, func(packet.Packet) {
		p.ctrs.Dropped.Inc()
	})

	if cfg.StatsPeriod > 0 || cfg.Verbose {
		period := cfg.StatsPeriod
		if period <= 0 {
			period = DEFAULT_STATS_PERIOD
		}
		p.stats = &Statistics{
			ctrs:   p.ctrs,
			typ:    cfg.Type,
			period: period,
			start:  time.Now(),
		}
	}
	return p, nil
}

// Counters returns the live counters for external observation.
func (p *Pipeline) Counters() *Counters {
	return p.ctrs
}

// Queue returns the packet queue, for depth metrics.
func (p *Pipeline) Queue() *PacketQueue {
	return p.queue
}

// Run moves packets until the source is exhausted, the packet limit is
// reached or ctx is canceled. The queue is drained before return, the
// Source and Sink are closed, and a final statistics line is rendered even
// on failure. Graceful ends return nil.
func (p *Pipeline) Run(ctx context.Context) error {
	var samples chan packet.Packet
	var nsample uint64
	if p.cfg.Verbose {
		nsample = p.cfg.Count
		if nsample == 0 {
			nsample = 1
		}
		samples = make(chan packet.Packet, sampleChanCap)
	}

	var lim *pace.Limiter
	switch {
	case p.cfg.PacketRate > 0:
		lim = pace.PerPacket(p.cfg.PacketRate)
	case p.cfg.ByteRate > 0:
		lim = pace.PerByte(p.cfg.ByteRate)
	}

	reader := &Reader{
		src:     p.cfg.Source,
		queue:   p.queue,
		ctrs:    p.ctrs,
		typ:     p.cfg.Type,
		limit:   p.cfg.Count,
		samples: samples,
		nsample: nsample,
	}
	writer := &Writer{
		sink:  p.cfg.Sink,
		queue: p.queue,
		ctrs:  p.ctrs,
		lim:   lim,
		retry: p.cfg.Retry,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return reader.Run(gctx) })
	g.Go(func() error { return writer.Run(gctx) })

	// The statistics task runs beside the group: it has no failure mode and
	// must keep reporting until the data path has fully stopped.
	sctx, cancelStats := context.WithCancel(ctx)
	defer cancelStats()
	var statsDone chan struct{}
	if p.stats != nil {
		p.stats.samples = samples
		statsDone = make(chan struct{})
		go func() {
			defer close(statsDone)
			_ = p.stats.Run(sctx)
		}()
	}

	// Cancellation must unblock a Reader stuck in Receive or in a blocking
	// Push, neither of which watches the context.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-gctx.Done():
			p.queue.Close()
			_ = p.cfg.Source.Close()
		case <-watchDone:
		}
	}()

	err := g.Wait()
	close(watchDone)

	cerr := p.cfg.Sink.Close()
	_ = p.cfg.Source.Close()

	cancelStats()
	if statsDone != nil {
		<-statsDone
	}
	if p.stats != nil {
		p.stats.Final()
	}

	if err != nil {
		log.Error("pipeline failed", "err", err)
		return err
	}
	if cerr != nil {
		log.Error("output close failed", "err", cerr)
		return cerr
	}
	return nil
}
