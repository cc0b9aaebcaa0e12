package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/sarchlab/faultsim/fault"
	"github.com/sarchlab/faultsim/harness"
	"github.com/sarchlab/faultsim/record"
	"github.com/sarchlab/faultsim/sramctl"
	"github.com/sarchlab/faultsim/waveform"
)

type runConfig struct {
	seed                 int64
	cells                int
	bits                 int
	modelSeed            uint16
	vcdPath              string
	recordEvents         bool
	abortOnUncorrectable bool
}

func newRootCmd() *cobra.Command {
	cfg := &runConfig{}

	cmd := &cobra.Command{
		Use:   "faultsim <total-cycles> <lambda>",
		Short: "Inject transient bit errors into an ECC-protected memory controller model",
		Long: `faultsim drives a clocked memory controller model for a fixed number of
cycles, flipping a Poisson-distributed number of memory bits each cycle at
uniformly random locations. A shadow copy of the corruption state classifies
every observed read by the number of corrupted bits in the target cell, and
the request/response handshake activity is tallied into a final report.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Argument and flag errors stay silent; errors from the run
			// itself are reported.
			err := run(cmd, args, cfg)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}

			return err
		},
	}

	cmd.Flags().Int64Var(&cfg.seed, "seed", 0,
		"seed of the fault stream (0 seeds from the wall clock)")
	cmd.Flags().IntVar(&cfg.cells, "cells", 64,
		"number of cells in the modeled memory array")
	cmd.Flags().IntVar(&cfg.bits, "bits", 39,
		"bits per memory cell")
	cmd.Flags().Uint16Var(&cfg.modelSeed, "traffic-seed", 0,
		"seed of the model's traffic generator (0 uses the built-in seed)")
	cmd.Flags().StringVar(&cfg.vcdPath, "vcd", "",
		"write a VCD trace of the control signals to this file")
	cmd.Flags().BoolVar(&cfg.recordEvents, "record", false,
		"log every flip and read classification into a SQLite database")
	cmd.Flags().BoolVar(&cfg.abortOnUncorrectable, "abort-on-uncorrectable", false,
		"stop the run at the first read exposing a multi-bit corruption")

	return cmd
}

func run(cmd *cobra.Command, args []string, cfg *runConfig) error {
	totalCycles, err := strconv.Atoi(args[0])
	if err != nil || totalCycles < 0 {
		return fmt.Errorf("total-cycles must be a non-negative integer, got %q", args[0])
	}

	lambda, err := strconv.ParseFloat(args[1], 64)
	if err != nil || lambda < 0 {
		return fmt.Errorf("lambda must be a non-negative number, got %q", args[1])
	}

	ctrl := sramctl.Builder{}.
		WithCellCount(cfg.cells).
		WithBitsPerCell(cfg.bits).
		WithSeed(cfg.modelSeed).
		Build()

	source := fault.SourceBuilder{}.
		WithLambda(lambda).
		WithSeed(cfg.seed).
		WithGeometry(ctrl.CellCount(), ctrl.BitsPerCell()).
		Build()

	builder := harness.DriverBuilder{}.
		WithCircuit(ctrl).
		WithFaultSource(source).
		WithCycles(totalCycles).
		WithAbortOnUncorrectable(cfg.abortOnUncorrectable)

	if cfg.vcdPath != "" {
		vcdFile, err := os.Create(cfg.vcdPath)
		if err != nil {
			return fmt.Errorf("cannot create VCD file: %w", err)
		}
		defer vcdFile.Close()

		sink := waveform.NewVCD(vcdFile)
		sink.Timescale(1, "ns")
		waveform.WatchCircuit(sink, ctrl)
		defer sink.Flush()

		builder = builder.WithWaveform(sink)
	}

	var recorder record.Recorder = record.NopRecorder{}
	if cfg.recordEvents {
		recorder = record.NewDBRecorder("faultsim_" + xid.New().String())
		builder = builder.WithRecorder(recorder)
	}

	driver := builder.Build()

	runErr := driver.Run()
	recorder.Flush()

	driver.Stats().WriteReport(cmd.OutOrStdout())

	return runErr
}
