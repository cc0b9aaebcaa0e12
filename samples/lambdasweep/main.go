// Sweep the fault rate and report how often reads expose correctable and
// uncorrectable corruption. The runs are independent, so they execute in
// parallel; each goroutine owns its own circuit, fault source, and shadow
// state, while every run's internal loop stays sequential.
package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/faultsim/fault"
	"github.com/sarchlab/faultsim/harness"
	"github.com/sarchlab/faultsim/sramctl"
)

const cyclesPerRun = 20000

var lambdas = []float64{0.001, 0.01, 0.05, 0.1, 0.5}

func main() {
	stats := make([]harness.Stats, len(lambdas))

	var wg sync.WaitGroup
	for i, lambda := range lambdas {
		wg.Add(1)

		go func(i int, lambda float64) {
			defer wg.Done()
			stats[i] = oneRun(int64(i+1), lambda)
		}(i, lambda)
	}
	wg.Wait()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Reads exposing corruption, %d cycles per run", cyclesPerRun))
	t.AppendHeader(table.Row{
		"Lambda", "Errors Injected", "Reads",
		"Clean", "Correctable", "Uncorrectable",
	})

	for i, s := range stats {
		reads, correctable, uncorrectable := summarize(s)
		t.AppendRow(table.Row{
			lambdas[i], s.ErrorsInjected, reads,
			s.ReadsWithErrors[0], correctable, uncorrectable,
		})
	}
	t.Render()

	atexit.Exit(0)
}

func oneRun(seed int64, lambda float64) harness.Stats {
	ctrl := sramctl.Builder{}.Build()

	source := fault.SourceBuilder{}.
		WithLambda(lambda).
		WithSeed(seed).
		WithGeometry(ctrl.CellCount(), ctrl.BitsPerCell()).
		Build()

	driver := harness.DriverBuilder{}.
		WithCircuit(ctrl).
		WithFaultSource(source).
		WithCycles(cyclesPerRun).
		Build()

	if err := driver.Run(); err != nil {
		panic(err)
	}

	return driver.Stats()
}

func summarize(s harness.Stats) (reads, correctable, uncorrectable uint64) {
	for weight, bucket := range s.ReadsWithErrors {
		reads += bucket

		switch {
		case weight == 1:
			correctable += bucket
		case weight > 1:
			uncorrectable += bucket
		}
	}

	return reads, correctable, uncorrectable
}
