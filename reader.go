package mnc

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/eluv-io/mnc/packet"
	"github.com/eluv-io/mnc/transport"
)

// Reader pulls datagrams from the Source, validates them against the packet
// type and hands owned copies to the queue.
type Reader struct {
	src     transport.Source
	queue   *PacketQueue
	ctrs    *Counters
	typ     packet.Type
	limit   uint64 // stop after this many accepted packets, 0 = unlimited
	samples chan<- packet.Packet
	nsample uint64 // samples still owed to the Statistics task
	seq     packet.SeqTracker
}

// Run receives until the source is exhausted, the packet limit is reached or
// ctx is canceled. The queue is closed on every return path so the Writer
// drains and exits.
func (r *Reader) Run(ctx context.Context) error {
	defer r.queue.Close()

	buf := make([]byte, packet.MAX_PACKET_LEN)
	var accepted uint64

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := r.src.Receive(buf)
		if err != nil {
			var nerr net.Error
			switch {
			case errors.As(err, &nerr) && nerr.Timeout():
				continue
			case errors.Is(err, io.EOF):
				log.Debug("input exhausted", "packets", accepted)
				return nil
			case errors.Is(err, net.ErrClosed):
				// source closed under us during shutdown
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		view, err := packet.Recognize(r.typ, buf[:n])
		if err != nil {
			r.ctrs.Malformed.Inc()
			log.Debug("malformed packet", "type", r.typ, "len", n, "err", err)
			continue
		}

		if gap := r.seq.Observe(view); gap > 0 {
			r.ctrs.SeqSkipped.Add(gap)
		}
		if view.Sdds != nil {
			r.ctrs.LastTimeTag.Store(view.Sdds.TimeTag)
		}

		p := packet.Packet{
			Data: append([]byte(nil), buf[:n]...),
			Time: time.Now(),
		}
		r.ctrs.PacketsSeen.Inc()
		r.ctrs.BytesSeen.Add(uint64(n))
		r.sample(p)

		if err := r.queue.Push(p); err != nil {
			// closed by shutdown
			return nil
		}

		accepted++
		if r.limit > 0 && accepted >= r.limit {
			log.Debug("packet limit reached", "count", accepted)
			return nil
		}
	}
}

// sample forwards the first few accepted packets to the Statistics task for
// display. Never blocks; a full channel just loses the sample.
func (r *Reader) sample(p packet.Packet) {
	if r.samples == nil || r.nsample == 0 {
		return
	}
	select {
	case r.samples <- p:
		r.nsample--
	default:
	}
}
