// Package record persists the per-cycle fault-injection events of a run so
// that the reported totals can be cross-checked offline.
package record

import (
	"github.com/sarchlab/akita/v4/datarecording"
)

// A FlipEntry describes one injected bit flip.
type FlipEntry struct {
	Cycle int
	Cell  int
	Bit   int
}

// A ReadEntry describes the corruption exposed by one observed read.
type ReadEntry struct {
	Cycle         int
	Addr          int
	HammingWeight int
}

// A Recorder stores injection and read-classification events.
type Recorder interface {
	RecordFlip(entry FlipEntry)
	RecordRead(entry ReadEntry)

	// Flush writes all buffered events to the backing store.
	Flush()
}

// NopRecorder discards all events. It is the default of the driver.
type NopRecorder struct{}

func (NopRecorder) RecordFlip(FlipEntry) {}
func (NopRecorder) RecordRead(ReadEntry) {}
func (NopRecorder) Flush()               {}

const (
	flipTable = "injected_flips"
	readTable = "read_classifications"
)

type dbRecorder struct {
	backend *datarecording.SQLiteWriter
}

// NewDBRecorder creates a recorder that writes into the SQLite database at
// path (the backend appends the .sqlite3 suffix).
func NewDBRecorder(path string) Recorder {
	backend := datarecording.NewSQLiteWriter(path)
	backend.Init()

	// The writer keeps the sample entry of each table and writes it out
	// together with the real rows. A negative cycle marks the samples so
	// Flush can drop them.
	backend.CreateTable(flipTable, FlipEntry{Cycle: -1})
	backend.CreateTable(readTable, ReadEntry{Cycle: -1})

	return &dbRecorder{backend: backend}
}

func (r *dbRecorder) RecordFlip(entry FlipEntry) {
	r.backend.InsertData(flipTable, entry)
}

func (r *dbRecorder) RecordRead(entry ReadEntry) {
	r.backend.InsertData(readTable, entry)
}

func (r *dbRecorder) Flush() {
	r.backend.Flush()

	for _, table := range []string{flipTable, readTable} {
		_, err := r.backend.Exec(
			"DELETE FROM " + table + " WHERE Cycle < 0")
		if err != nil {
			panic(err)
		}
	}
}
