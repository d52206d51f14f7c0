package mnc

import (
	"context"
	"errors"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/eluv-io/mnc/pkg/pace"
	"github.com/eluv-io/mnc/pkg/retry"
	"github.com/eluv-io/mnc/transport"
)

// Writer drains the queue into the Sink, pacing sends when a rate limit is
// configured and retrying transient send failures.
type Writer struct {
	sink  transport.Sink
	queue *PacketQueue
	ctrs  *Counters
	lim   *pace.Limiter
	retry retry.Config
}

// Run pops until the queue is closed and drained, then returns nil. A send
// failure that survives the retry budget is fatal.
func (w *Writer) Run(ctx context.Context) error {
	for {
		p, ok := w.queue.Pop()
		if !ok {
			log.Debug("queue drained", "sent", w.ctrs.PacketsSent.Load())
			return nil
		}

		w.pace(ctx, len(p.Data))

		err := retry.Do(ctx, w.retry, func() error {
			err := w.sink.Send(p.Data)
			if err != nil && !transientSendErr(err) {
				return retry.NonRetryable(err)
			}
			return err
		})
		if err != nil {
			return err
		}

		w.ctrs.PacketsSent.Inc()
		w.ctrs.BytesSent.Add(uint64(len(p.Data)))
	}
}

// pace sleeps until the limiter admits the next send. Cancellation cuts the
// sleep short so a shutdown drain is not rate limited.
func (w *Writer) pace(ctx context.Context, size int) {
	d := w.lim.NextDelay(time.Now(), size)
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// transientSendErr reports whether a send failure is worth retrying: kernel
// buffer pressure and interrupted or timed-out calls. Anything else is
// fatal.
func transientSendErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, unix.EINTR) ||
		errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.ENOBUFS)
}
