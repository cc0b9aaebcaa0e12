// Package waveform records signal states over time for offline inspection.
// The driver only ever writes into a sink; nothing is read back.
package waveform

import (
	"bufio"
	"fmt"
	"io"
	"math/bits"

	"github.com/sarchlab/faultsim/circuit"
)

// A Sink receives the state of a set of watched signals at discrete
// timestamps.
type Sink interface {
	// Timescale sets the physical duration of one timestamp unit, e.g.
	// (1, "ns"). Must be called before the first Sample.
	Timescale(value int, unit string)

	// Watch registers a signal. The read callback is invoked at every
	// Sample. Must be called before the first Sample.
	Watch(name string, width int, read func() uint64)

	// Sample records the current value of every watched signal.
	Sample(timestamp uint64)

	// Flush writes out any buffered data.
	Flush() error
}

type vcdVar struct {
	name  string
	width int
	id    string
	read  func() uint64
	last  uint64
}

// VCD is a Sink that produces a Value Change Dump. The header is emitted on
// the first sample; later samples only dump signals whose value changed.
type VCD struct {
	w *bufio.Writer

	timescale     string
	vars          []*vcdVar
	headerWritten bool
}

// NewVCD creates a VCD sink writing to w.
func NewVCD(w io.Writer) *VCD {
	return &VCD{
		w:         bufio.NewWriter(w),
		timescale: "1ns",
	}
}

func (v *VCD) Timescale(value int, unit string) {
	if v.headerWritten {
		panic("timescale must be set before the first sample")
	}

	v.timescale = fmt.Sprintf("%d%s", value, unit)
}

func (v *VCD) Watch(name string, width int, read func() uint64) {
	if v.headerWritten {
		panic("signals must be watched before the first sample")
	}

	v.vars = append(v.vars, &vcdVar{
		name:  name,
		width: width,
		id:    idCode(len(v.vars)),
		read:  read,
	})
}

func (v *VCD) Sample(timestamp uint64) {
	if !v.headerWritten {
		v.writeHeader()
		v.headerWritten = true

		fmt.Fprintf(v.w, "#%d\n", timestamp)
		v.w.WriteString("$dumpvars\n")
		for _, s := range v.vars {
			s.last = s.read()
			v.writeValue(s, s.last)
		}
		v.w.WriteString("$end\n")

		return
	}

	fmt.Fprintf(v.w, "#%d\n", timestamp)
	for _, s := range v.vars {
		value := s.read()
		if value == s.last {
			continue
		}

		s.last = value
		v.writeValue(s, value)
	}
}

func (v *VCD) Flush() error {
	return v.w.Flush()
}

func (v *VCD) writeHeader() {
	fmt.Fprintf(v.w, "$timescale %s $end\n", v.timescale)
	v.w.WriteString("$scope module top $end\n")
	for _, s := range v.vars {
		fmt.Fprintf(v.w, "$var wire %d %s %s $end\n", s.width, s.id, s.name)
	}
	v.w.WriteString("$upscope $end\n")
	v.w.WriteString("$enddefinitions $end\n")
}

func (v *VCD) writeValue(s *vcdVar, value uint64) {
	if s.width == 1 {
		fmt.Fprintf(v.w, "%d%s\n", value&1, s.id)
		return
	}

	fmt.Fprintf(v.w, "b%b %s\n", value, s.id)
}

// idCode maps a var index to a VCD identifier over the printable characters
// '!' through '~'.
func idCode(index int) string {
	const base = 94

	code := string(rune('!' + index%base))
	for index >= base {
		index = index/base - 1
		code = string(rune('!'+index%base)) + code
	}

	return code
}

// WatchCircuit registers the canonical control signals of a circuit with the
// sink, mirroring what the harness observes each cycle.
func WatchCircuit(sink Sink, c circuit.Circuit) {
	boolSignals := []string{
		circuit.SigClock,
		circuit.SigReqValid,
		circuit.SigReqReady,
		circuit.SigRspValid,
		circuit.SigRspReady,
		circuit.SigSRAMClkEn,
		circuit.SigSRAMWriteEn,
	}

	for _, name := range boolSignals {
		name := name
		sink.Watch(name, 1, func() uint64 { return c.Signal(name) })
	}

	addrWidth := bits.Len(uint(c.CellCount() - 1))
	if addrWidth == 0 {
		addrWidth = 1
	}

	sink.Watch(circuit.SigSRAMAddr, addrWidth,
		func() uint64 { return c.Signal(circuit.SigSRAMAddr) })
}
