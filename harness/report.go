package harness

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// reportedBuckets is how many histogram buckets the report shows. Weights
// beyond the first few are vanishingly rare at realistic fault rates.
const reportedBuckets = 5

// WriteReport writes a human-readable summary of the run, one line per
// counter plus the head of the read-classification histogram.
func (s Stats) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "FAULT INJECTION RUN REPORT")
	fmt.Fprintln(w, separator)

	fmt.Fprintf(w, "req_valid_cycles: %d\n", s.ReqValidCycles)
	fmt.Fprintf(w, "req_fire_cycles: %d\n", s.ReqFireCycles)
	fmt.Fprintf(w, "rsp_ready_cycles: %d\n", s.RspReadyCycles)
	fmt.Fprintf(w, "rsp_fire_cycles: %d\n", s.RspFireCycles)
	fmt.Fprintf(w, "errors_injected: %d\n", s.ErrorsInjected)

	t := table.NewWriter()
	t.SetTitle("Reads by corrupted-bit count")
	t.AppendHeader(table.Row{"Hamming weight", "Reads"})
	for weight := 0; weight < reportedBuckets && weight < len(s.ReadsWithErrors); weight++ {
		t.AppendRow(table.Row{weight, s.ReadsWithErrors[weight]})
	}

	fmt.Fprintln(w, t.Render())
}
