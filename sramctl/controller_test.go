package sramctl_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/faultsim/circuit"
	"github.com/sarchlab/faultsim/fault"
	"github.com/sarchlab/faultsim/harness"
	"github.com/sarchlab/faultsim/sramctl"
)

func clockOnce(c circuit.Circuit) {
	c.SetSignal(circuit.SigClock, 1)
	c.Step()
	c.SetSignal(circuit.SigClock, 0)
	c.Step()
}

var _ = Describe("Controller", func() {
	var ctrl *sramctl.Controller

	BeforeEach(func() {
		ctrl = sramctl.Builder{}.WithSeed(1).Build()
	})

	It("should expose the default geometry", func() {
		Expect(ctrl.CellCount()).To(Equal(64))
		Expect(ctrl.BitsPerCell()).To(Equal(39))
	})

	It("should read back written memory bits", func() {
		ctrl.WriteBit(12, 38, true)

		Expect(ctrl.ReadBit(12, 38)).To(BeTrue())
		Expect(ctrl.ReadBit(12, 37)).To(BeFalse())
		Expect(ctrl.ReadBit(11, 38)).To(BeFalse())

		ctrl.WriteBit(12, 38, false)
		Expect(ctrl.ReadBit(12, 38)).To(BeFalse())
	})

	It("should only accept the clock as an input", func() {
		Expect(func() {
			ctrl.SetSignal(circuit.SigReqValid, 1)
		}).To(Panic())
	})

	It("should reject unknown signals", func() {
		Expect(func() { ctrl.Signal("nonsense") }).To(Panic())
	})

	It("should assert sram_clk_en exactly when a request is accepted", func() {
		ctrl.SetSignal(circuit.SigClock, 0)
		ctrl.Step()

		for cycle := 0; cycle < 200; cycle++ {
			fired := circuit.SignalBool(ctrl, circuit.SigReqValid) &&
				circuit.SignalBool(ctrl, circuit.SigReqReady)
			clkEn := circuit.SignalBool(ctrl, circuit.SigSRAMClkEn)

			Expect(clkEn).To(Equal(fired))

			clockOnce(ctrl)
		}
	})

	It("should keep the sram address within the array", func() {
		ctrl.SetSignal(circuit.SigClock, 0)
		ctrl.Step()

		for cycle := 0; cycle < 200; cycle++ {
			addr := ctrl.Signal(circuit.SigSRAMAddr)
			Expect(addr).To(BeNumerically("<", 64))

			clockOnce(ctrl)
		}
	})

	It("should respond exactly once to every accepted read", func() {
		ctrl.SetSignal(circuit.SigClock, 0)
		ctrl.Step()

		readsAccepted := 0
		rspFires := 0
		for cycle := 0; cycle < 500; cycle++ {
			if circuit.SignalBool(ctrl, circuit.SigSRAMClkEn) &&
				!circuit.SignalBool(ctrl, circuit.SigSRAMWriteEn) {
				readsAccepted++
			}
			if circuit.SignalBool(ctrl, circuit.SigRspValid) &&
				circuit.SignalBool(ctrl, circuit.SigRspReady) {
				rspFires++
			}

			clockOnce(ctrl)
		}

		Expect(readsAccepted).To(BeNumerically(">", 0))
		// Responses may trail accepted reads by at most the one in flight.
		Expect(rspFires).To(BeNumerically("~", readsAccepted, 1))
	})

	It("should raise rsp_valid from accepted reads and hold it until it fires",
		func() {
			ctrl.SetSignal(circuit.SigClock, 0)
			ctrl.Step()

			for cycle := 0; cycle < 200; cycle++ {
				readFired := circuit.SignalBool(ctrl, circuit.SigSRAMClkEn) &&
					!circuit.SignalBool(ctrl, circuit.SigSRAMWriteEn)
				hadRsp := circuit.SignalBool(ctrl, circuit.SigRspValid)
				rspFired := hadRsp &&
					circuit.SignalBool(ctrl, circuit.SigRspReady)

				clockOnce(ctrl)

				want := readFired || (hadRsp && !rspFired)
				Expect(circuit.SignalBool(ctrl, circuit.SigRspValid)).
					To(Equal(want))
			}
		})

	It("should behave identically for the same seed", func() {
		other := sramctl.Builder{}.WithSeed(1).Build()

		ctrl.SetSignal(circuit.SigClock, 0)
		ctrl.Step()
		other.SetSignal(circuit.SigClock, 0)
		other.Step()

		for cycle := 0; cycle < 100; cycle++ {
			Expect(other.Signal(circuit.SigSRAMAddr)).
				To(Equal(ctrl.Signal(circuit.SigSRAMAddr)))
			Expect(other.Signal(circuit.SigReqValid)).
				To(Equal(ctrl.Signal(circuit.SigReqValid)))

			clockOnce(ctrl)
			clockOnce(other)
		}
	})

	It("should reject cells wider than 64 bits", func() {
		Expect(func() {
			sramctl.Builder{}.WithBitsPerCell(65).Build()
		}).To(Panic())
	})
})

var _ = Describe("Controller under the harness", func() {
	It("should complete a clean run when no faults are injected", func() {
		ctrl := sramctl.Builder{}.WithSeed(7).Build()

		source := fault.SourceBuilder{}.
			WithLambda(0).
			WithSeed(1).
			WithGeometry(ctrl.CellCount(), ctrl.BitsPerCell()).
			Build()

		driver := harness.DriverBuilder{}.
			WithCircuit(ctrl).
			WithFaultSource(source).
			WithCycles(500).
			Build()

		Expect(driver.Run()).To(Succeed())

		stats := driver.Stats()
		Expect(stats.ErrorsInjected).To(BeZero())
		Expect(stats.ReqValidCycles).To(BeNumerically(">", 0))
		Expect(stats.ReqFireCycles).To(BeNumerically("<=", stats.ReqValidCycles))
		Expect(stats.RspFireCycles).To(BeNumerically("<=", stats.RspReadyCycles))

		reads := uint64(0)
		for _, bucket := range stats.ReadsWithErrors {
			reads += bucket
		}
		Expect(reads).To(BeNumerically(">", 0))
		Expect(stats.ReadsWithErrors[0]).To(Equal(reads))
	})

	It("should expose injected corruption on later reads", func() {
		ctrl := sramctl.Builder{}.WithSeed(7).Build()

		source := fault.SourceBuilder{}.
			WithLambda(0.2).
			WithSeed(3).
			WithGeometry(ctrl.CellCount(), ctrl.BitsPerCell()).
			Build()

		driver := harness.DriverBuilder{}.
			WithCircuit(ctrl).
			WithFaultSource(source).
			WithCycles(2000).
			Build()

		Expect(driver.Run()).To(Succeed())

		stats := driver.Stats()
		Expect(stats.ErrorsInjected).To(BeNumerically(">", 0))

		exposed := uint64(0)
		for weight, bucket := range stats.ReadsWithErrors {
			if weight > 0 {
				exposed += bucket
			}
		}
		Expect(exposed).To(BeNumerically(">", 0))
	})
})
