// Package harness drives a clocked circuit through a fault-injection run,
// keeping a shadow copy of every corrupted bit and classifying what each
// observed read exposes.
package harness

import (
	"errors"

	"github.com/sarchlab/faultsim/circuit"
	"github.com/sarchlab/faultsim/fault"
	"github.com/sarchlab/faultsim/record"
	"github.com/sarchlab/faultsim/shadow"
	"github.com/sarchlab/faultsim/waveform"
)

// ErrUncorrectable reports that a read exposed a multi-bit corruption while
// the driver was configured to abort on one.
var ErrUncorrectable = errors.New("uncorrectable error observed")

// Driver runs the fault-injection loop. Within a cycle the order is fixed:
// inject faults, observe the handshake signals, observe the memory intent,
// then clock the circuit. The control signals are only valid before the
// clock advances, so the phases must not be reordered.
type Driver struct {
	circuit  circuit.Circuit
	source   fault.Source
	shadow   *shadow.Model
	recorder record.Recorder
	sink     waveform.Sink

	totalCycles          int
	abortOnUncorrectable bool
	timestep             uint64

	cycle     int
	timestamp uint64
	stats     Stats
}

// Run executes the configured number of cycles, bracketed by one settling
// half-cycle on each side, and returns ErrUncorrectable if the run was
// aborted early.
func (d *Driver) Run() error {
	d.settle()

	var err error
	for d.cycle = 0; d.cycle < d.totalCycles; d.cycle++ {
		d.injectFaults()
		d.observeHandshakes()

		if aborted := d.observeMemoryIntent(); aborted {
			err = ErrUncorrectable
			break
		}

		d.clock()
	}

	d.settle()

	Trace("RunFinished",
		"Cycles", d.cycle,
		"ErrorsInjected", d.stats.ErrorsInjected,
		"Aborted", err != nil,
	)

	return err
}

// Stats returns a copy of the counters accumulated so far.
func (d *Driver) Stats() Stats {
	return d.stats.clone()
}

// injectFaults applies this cycle's flips to the real memory array and the
// shadow model together, keeping the two views consistent.
func (d *Driver) injectFaults() {
	flips := d.source.FlipCount()

	for i := 0; i < flips; i++ {
		cell, bit := d.source.Location()

		d.circuit.WriteBit(cell, bit, !d.circuit.ReadBit(cell, bit))
		d.shadow.Flip(cell, bit)

		d.stats.ErrorsInjected++
		d.recorder.RecordFlip(record.FlipEntry{
			Cycle: d.cycle,
			Cell:  cell,
			Bit:   bit,
		})
	}
}

func (d *Driver) observeHandshakes() {
	rspReady := circuit.SignalBool(d.circuit, circuit.SigRspReady)
	if rspReady {
		d.stats.RspReadyCycles++

		if circuit.SignalBool(d.circuit, circuit.SigRspValid) {
			d.stats.RspFireCycles++
		}
	}

	if circuit.SignalBool(d.circuit, circuit.SigReqValid) {
		d.stats.ReqValidCycles++

		if circuit.SignalBool(d.circuit, circuit.SigReqReady) {
			d.stats.ReqFireCycles++
		}
	}
}

// observeMemoryIntent classifies a read cycle by the Hamming weight of the
// target cell's corruption, or resets the cell's shadow entry on a write.
// It reports whether the run must abort.
func (d *Driver) observeMemoryIntent() (aborted bool) {
	clkEn := circuit.SignalBool(d.circuit, circuit.SigSRAMClkEn)
	writeEn := circuit.SignalBool(d.circuit, circuit.SigSRAMWriteEn)
	addr := int(d.circuit.Signal(circuit.SigSRAMAddr))

	switch {
	case clkEn && !writeEn:
		weight := d.shadow.PopCount(addr)
		d.stats.ReadsWithErrors[weight]++
		d.recorder.RecordRead(record.ReadEntry{
			Cycle:         d.cycle,
			Addr:          addr,
			HammingWeight: weight,
		})

		if weight > 1 {
			Trace("UncorrectableRead",
				"Cycle", d.cycle,
				"Addr", addr,
				"HammingWeight", weight,
			)

			return d.abortOnUncorrectable
		}
	case clkEn && writeEn:
		d.shadow.Clear(addr)
	}

	return false
}

// clock advances the circuit one full cycle, sampling the waveform sink
// after each half-cycle.
func (d *Driver) clock() {
	d.circuit.SetSignal(circuit.SigClock, 1)
	d.circuit.Step()
	d.sample()

	d.circuit.SetSignal(circuit.SigClock, 0)
	d.circuit.Step()
	d.sample()
}

// settle holds the clock low for one step so the circuit's combinational
// outputs reflect its current state.
func (d *Driver) settle() {
	d.circuit.SetSignal(circuit.SigClock, 0)
	d.circuit.Step()
	d.sample()
}

func (d *Driver) sample() {
	if d.sink == nil {
		return
	}

	d.sink.Sample(d.timestamp)
	d.timestamp += d.timestep
}

// DriverBuilder creates drivers.
type DriverBuilder struct {
	circuit              circuit.Circuit
	source               fault.Source
	recorder             record.Recorder
	sink                 waveform.Sink
	totalCycles          int
	abortOnUncorrectable bool
	timestep             uint64
}

// WithCircuit sets the design under test.
func (b DriverBuilder) WithCircuit(c circuit.Circuit) DriverBuilder {
	b.circuit = c
	return b
}

// WithFaultSource sets the source of injected flips.
func (b DriverBuilder) WithFaultSource(s fault.Source) DriverBuilder {
	b.source = s
	return b
}

// WithCycles sets the number of cycles to run.
func (b DriverBuilder) WithCycles(n int) DriverBuilder {
	b.totalCycles = n
	return b
}

// WithRecorder sets where injection and read events are logged.
func (b DriverBuilder) WithRecorder(r record.Recorder) DriverBuilder {
	b.recorder = r
	return b
}

// WithWaveform sets an optional sink sampled after every half-cycle.
func (b DriverBuilder) WithWaveform(s waveform.Sink) DriverBuilder {
	b.sink = s
	return b
}

// WithTimestep sets the timestamp increment between waveform samples.
func (b DriverBuilder) WithTimestep(step uint64) DriverBuilder {
	b.timestep = step
	return b
}

// WithAbortOnUncorrectable makes the driver stop at the first read that
// exposes a multi-bit corruption. The default is to record and continue, so
// a run always yields a full histogram.
func (b DriverBuilder) WithAbortOnUncorrectable(abort bool) DriverBuilder {
	b.abortOnUncorrectable = abort
	return b
}

// Build creates a driver, sizing the shadow model from the circuit's memory
// geometry.
func (b DriverBuilder) Build() *Driver {
	if b.circuit == nil {
		panic("a circuit must be set")
	}

	if b.source == nil {
		panic("a fault source must be set")
	}

	if b.totalCycles < 0 {
		panic("cycle count must not be negative")
	}

	recorder := b.recorder
	if recorder == nil {
		recorder = record.NopRecorder{}
	}

	timestep := b.timestep
	if timestep == 0 {
		timestep = 5
	}

	bitsPerCell := b.circuit.BitsPerCell()

	return &Driver{
		circuit:              b.circuit,
		source:               b.source,
		shadow:               shadow.NewModel(b.circuit.CellCount(), bitsPerCell),
		recorder:             recorder,
		sink:                 b.sink,
		totalCycles:          b.totalCycles,
		abortOnUncorrectable: b.abortOnUncorrectable,
		timestep:             timestep,
		stats:                newStats(bitsPerCell),
	}
}
