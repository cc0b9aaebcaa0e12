package harness

// Stats accumulates the handshake activity and read-time error exposure of
// one run. Counters only ever increase.
type Stats struct {
	// ReqValidCycles counts cycles with req_valid asserted; ReqFireCycles
	// counts the subset where req_ready was asserted too, completing a
	// transfer. The rsp counters mirror this for the response channel,
	// keyed on rsp_ready.
	ReqValidCycles uint64
	ReqFireCycles  uint64
	RspReadyCycles uint64
	RspFireCycles  uint64

	// ErrorsInjected counts every bit flip applied to the memory array.
	ErrorsInjected uint64

	// ReadsWithErrors[w] counts observed reads whose target cell carried
	// exactly w corrupted bits. Weight 1 is correctable by the code under
	// validation; weights above 1 are potentially uncorrectable.
	ReadsWithErrors []uint64
}

func newStats(bitsPerCell int) Stats {
	return Stats{
		ReadsWithErrors: make([]uint64, bitsPerCell+1),
	}
}

func (s Stats) clone() Stats {
	c := s
	c.ReadsWithErrors = make([]uint64, len(s.ReadsWithErrors))
	copy(c.ReadsWithErrors, s.ReadsWithErrors)

	return c
}
