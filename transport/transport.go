package transport

import (
	elog "github.com/eluv-io/log-go"
)

// Sources and sinks for the datagram relay: a multicast (or unicast) UDP
// socket, a file, one of the standard streams, or the bit bucket. One Source
// and one Sink are active per run.

var log = elog.Get("/eluvio/mnc/transport")

// Source yields raw datagrams one at a time.
type Source interface {
	// Receive fills p with the next datagram and returns its length. It
	// returns io.EOF when the source is exhausted; network sources return
	// timeout errors when a deadline poll elapses without data, which the
	// caller is expected to loop on.
	Receive(p []byte) (int, error)
	// Close releases the source and unblocks a pending Receive.
	Close() error
}

// Sink accepts raw datagrams.
type Sink interface {
	Send(p []byte) error
	// Close flushes buffered data and releases the sink.
	Close() error
}

// Discard drops every packet. It is the sink of a receive run with no output
// configured: counters and statistics still observe the traffic.
type Discard struct{}

var _ Sink = Discard{}

func (Discard) Send(p []byte) error { return nil }

func (Discard) Close() error { return nil }
