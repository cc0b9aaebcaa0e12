// Package shadow keeps a ground-truth mirror of which memory bits are
// corrupted, independent of the circuit's own state.
package shadow

import "math/bits"

// Model maps each cell of the memory array to a bit vector in which a set
// bit means the corresponding physical bit differs from its last-written
// value. Callers must keep indices in range.
type Model struct {
	words        []uint64
	wordsPerCell int
	numCells     int
	numBits      int
}

// NewModel creates a model for a memory of numCells cells holding numBits
// bits each. It panics on a non-positive geometry, as the harness cannot
// size its distributions without one.
func NewModel(numCells, numBits int) *Model {
	if numCells <= 0 || numBits <= 0 {
		panic("memory geometry must be positive")
	}

	wordsPerCell := (numBits + 63) / 64

	return &Model{
		words:        make([]uint64, numCells*wordsPerCell),
		wordsPerCell: wordsPerCell,
		numCells:     numCells,
		numBits:      numBits,
	}
}

// Flip toggles the shadow bit at (cell, bit).
func (m *Model) Flip(cell, bit int) {
	m.words[cell*m.wordsPerCell+bit/64] ^= 1 << (bit % 64)
}

// Clear resets the cell's shadow entry. Called when the circuit writes the
// cell, as the write re-establishes ground truth.
func (m *Model) Clear(cell int) {
	base := cell * m.wordsPerCell
	for i := 0; i < m.wordsPerCell; i++ {
		m.words[base+i] = 0
	}
}

// PopCount returns the number of corrupted bits in the cell.
func (m *Model) PopCount(cell int) int {
	base := cell * m.wordsPerCell

	count := 0
	for i := 0; i < m.wordsPerCell; i++ {
		count += bits.OnesCount64(m.words[base+i])
	}

	return count
}

// CellCount returns the number of cells the model mirrors.
func (m *Model) CellCount() int {
	return m.numCells
}

// BitsPerCell returns the width of each mirrored cell.
func (m *Model) BitsPerCell() int {
	return m.numBits
}
