package mnc

import "errors"

// ErrQueueClosed is returned by PacketQueue.Push once the queue is closed.
// The Reader treats it as the end of the run rather than a failure.
var ErrQueueClosed = errors.New("packet queue closed")
