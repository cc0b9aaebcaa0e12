// Package circuit defines the boundary to the clocked design under test.
package circuit

// Names of the ports that every wrapped design must expose. They follow the
// port list of the generated memory controller tops.
const (
	SigClock       = "clk"
	SigReqValid    = "req_valid"
	SigReqReady    = "req_ready"
	SigRspValid    = "rsp_valid"
	SigRspReady    = "rsp_ready"
	SigSRAMClkEn   = "sram_clk_en"
	SigSRAMWriteEn = "sram_write_en"
	SigSRAMAddr    = "sram_addr"
)

//go:generate mockgen -write_package_comment=false -package=harness -destination=../harness/mock_circuit_test.go -source=circuit.go -mock_names=Circuit=MockCircuit

// Circuit is a synchronous design simulated half a clock cycle at a time.
// Step evaluates the design once with the current input values. Signal and
// SetSignal access named ports; boolean ports use 0 and 1. ReadBit and
// WriteBit reach directly into the backing memory array, bypassing the
// design's own access path. Implementations panic on unknown signal names
// and out-of-range memory indices.
type Circuit interface {
	Step()

	Signal(name string) uint64
	SetSignal(name string, value uint64)

	ReadBit(cell, bit int) bool
	WriteBit(cell, bit int, value bool)
	CellCount() int
	BitsPerCell() int
}

// SignalBool reads a single-bit port as a bool.
func SignalBool(c Circuit, name string) bool {
	return c.Signal(name) != 0
}
