package packet

// SeqTracker follows frame sequence numbers across a run and counts frames
// that went missing between consecutive datagrams. It is owned by a single
// goroutine; the caller publishes the totals.
type SeqTracker struct {
	last    uint16
	tracked bool
}

// Observe inspects the sequence number carried by v, if any, and returns how
// many frames were skipped since the previous observation.
//
// SDDS parity packets (sequence number divisible by 32) reset the tracking
// anchor without a gap check. VITA-49 sequence numbers wrap at 0xFFF, SDDS at
// 0xFFFF.
func (s *SeqTracker) Observe(v FrameView) uint64 {
	switch {
	case v.Vita49 != nil:
		h := v.Vita49
		if !s.tracked {
			s.last, s.tracked = h.FrameSeq, true
			return 0
		}
		gap := h.SeqGap(s.last)
		s.last = h.FrameSeq
		return gap

	case v.Sdds != nil:
		seq := v.Sdds.FrameSeq
		if seq%32 == 0 {
			s.last, s.tracked = seq, true
			return 0
		}
		if !s.tracked {
			s.last, s.tracked = seq, true
			return 0
		}
		expected := s.last + 1
		s.last = seq
		if seq == expected {
			return 0
		}
		return uint64(seq - expected) // uint16 arithmetic wraps
	}
	return 0
}
