// Package sramctl provides a behavioral model of an ECC-protected SRAM
// controller that the harness can drive when no RTL backend is wired in. The
// model reproduces the handshake and SRAM control behavior of the basic
// generated controller; ECC encode and decode live in the generated design
// and are not modeled, so cells hold raw words.
package sramctl

import (
	"github.com/sarchlab/faultsim/circuit"
)

// Controller is a single-outstanding-request memory controller with an
// internal LFSR traffic generator driving the request side and the response
// ready line. It implements circuit.Circuit: the clock is the only settable
// input, rising edges update the registered state, and every Step refreshes
// the combinational outputs.
type Controller struct {
	numCells int
	numBits  int

	mem []uint64

	clk     bool
	prevClk bool

	// Registered state.
	trafficLFSR uint16
	readyLFSR   uint16
	reqValid    bool
	reqWrite    bool
	reqAddr     uint64
	reqData     uint64
	rspValid    bool
	rspData     uint64
	rspReady    bool

	// Combinational outputs.
	reqReady    bool
	sramClkEn   bool
	sramWriteEn bool
	sramAddr    uint64
}

func (c *Controller) Step() {
	if c.clk && !c.prevClk {
		c.onRisingEdge()
	}
	c.prevClk = c.clk

	c.updateOutputs()
}

func (c *Controller) onRisingEdge() {
	reqFired := c.reqValid && c.reqReady
	rspFired := c.rspValid && c.rspReady

	if c.sramClkEn {
		if c.sramWriteEn {
			c.mem[c.sramAddr] = c.reqData & c.wordMask()
		} else {
			c.rspData = c.mem[c.sramAddr]
		}
	}

	if rspFired {
		c.rspValid = false
	}
	if c.sramClkEn && !c.sramWriteEn {
		c.rspValid = true
	}

	if reqFired || !c.reqValid {
		c.nextRequest()
	}

	c.readyLFSR = nextLFSR(c.readyLFSR)
	c.rspReady = c.readyLFSR&0x7 != 0
}

// nextRequest rolls the traffic generator forward. Valid is deasserted
// roughly one cycle in four so the req_valid and req_fire counters diverge.
func (c *Controller) nextRequest() {
	c.trafficLFSR = nextLFSR(c.trafficLFSR)

	c.reqValid = c.trafficLFSR&0x3 != 0
	c.reqWrite = c.trafficLFSR&0x20 != 0
	c.reqAddr = uint64(c.trafficLFSR>>6) % uint64(c.numCells)
	c.reqData = (uint64(c.trafficLFSR) * 0x9e3779b97f4a7c15) & c.wordMask()
}

func (c *Controller) updateOutputs() {
	c.reqReady = !c.rspValid
	c.sramClkEn = c.reqValid && c.reqReady
	c.sramWriteEn = c.reqWrite
	c.sramAddr = c.reqAddr
}

func (c *Controller) wordMask() uint64 {
	if c.numBits == 64 {
		return ^uint64(0)
	}

	return 1<<c.numBits - 1
}

func (c *Controller) Signal(name string) uint64 {
	asUint := func(b bool) uint64 {
		if b {
			return 1
		}
		return 0
	}

	switch name {
	case circuit.SigClock:
		return asUint(c.clk)
	case circuit.SigReqValid:
		return asUint(c.reqValid)
	case circuit.SigReqReady:
		return asUint(c.reqReady)
	case circuit.SigRspValid:
		return asUint(c.rspValid)
	case circuit.SigRspReady:
		return asUint(c.rspReady)
	case circuit.SigSRAMClkEn:
		return asUint(c.sramClkEn)
	case circuit.SigSRAMWriteEn:
		return asUint(c.sramWriteEn)
	case circuit.SigSRAMAddr:
		return c.sramAddr
	default:
		panic("unknown signal " + name)
	}
}

func (c *Controller) SetSignal(name string, value uint64) {
	if name != circuit.SigClock {
		panic("signal " + name + " is not an input")
	}

	c.clk = value != 0
}

func (c *Controller) ReadBit(cell, bit int) bool {
	return c.mem[cell]>>bit&1 == 1
}

func (c *Controller) WriteBit(cell, bit int, value bool) {
	if value {
		c.mem[cell] |= 1 << bit
	} else {
		c.mem[cell] &^= 1 << bit
	}
}

func (c *Controller) CellCount() int {
	return c.numCells
}

func (c *Controller) BitsPerCell() int {
	return c.numBits
}

// nextLFSR advances a 16-bit Fibonacci LFSR (taps 16, 14, 13, 11).
func nextLFSR(state uint16) uint16 {
	bit := (state ^ state>>2 ^ state>>3 ^ state>>5) & 1
	return state>>1 | bit<<15
}

// Builder creates controllers.
type Builder struct {
	numCells int
	numBits  int
	seed     uint16
}

// WithCellCount sets the number of cells in the SRAM array.
func (b Builder) WithCellCount(n int) Builder {
	b.numCells = n
	return b
}

// WithBitsPerCell sets the codeword width. The model is limited to 64-bit
// cells.
func (b Builder) WithBitsPerCell(n int) Builder {
	b.numBits = n
	return b
}

// WithSeed sets the traffic generator seed.
func (b Builder) WithSeed(seed uint16) Builder {
	b.seed = seed
	return b
}

// Build creates a controller. Defaults match the generated (39,32) Hsiao
// controller: 64 cells of 39 bits.
func (b Builder) Build() *Controller {
	numCells := b.numCells
	if numCells == 0 {
		numCells = 64
	}

	numBits := b.numBits
	if numBits == 0 {
		numBits = 39
	}

	if numCells < 0 || numBits < 0 || numBits > 64 {
		panic("cell geometry must be positive and at most 64 bits wide")
	}

	seed := b.seed
	if seed == 0 {
		seed = 0xace1
	}

	c := &Controller{
		numCells:    numCells,
		numBits:     numBits,
		mem:         make([]uint64, numCells),
		trafficLFSR: seed,
		readyLFSR:   ^seed,
		rspReady:    true,
	}

	c.nextRequest()
	c.updateOutputs()

	return c
}
