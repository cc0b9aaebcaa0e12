package shadow

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Model", func() {
	var m *Model

	BeforeEach(func() {
		m = NewModel(64, 39)
	})

	It("should start with no corrupted bits", func() {
		for cell := 0; cell < m.CellCount(); cell++ {
			Expect(m.PopCount(cell)).To(Equal(0))
		}
	})

	It("should count each flipped bit once", func() {
		m.Flip(3, 5)
		m.Flip(3, 38)
		m.Flip(7, 0)

		Expect(m.PopCount(3)).To(Equal(2))
		Expect(m.PopCount(7)).To(Equal(1))
		Expect(m.PopCount(0)).To(Equal(0))
	})

	It("should cancel a double flip of the same bit", func() {
		m.Flip(3, 5)
		m.Flip(3, 5)

		Expect(m.PopCount(3)).To(Equal(0))
	})

	It("should report zero right after a clear", func() {
		m.Flip(9, 1)
		m.Flip(9, 2)
		m.Clear(9)

		Expect(m.PopCount(9)).To(Equal(0))
	})

	It("should not let a clear disturb other cells", func() {
		m.Flip(9, 1)
		m.Flip(10, 1)
		m.Clear(9)

		Expect(m.PopCount(10)).To(Equal(1))
	})

	It("should never decrease between clears", func() {
		prev := 0
		for bit := 0; bit < 39; bit++ {
			m.Flip(5, bit)
			count := m.PopCount(5)
			Expect(count).To(BeNumerically(">=", prev))
			prev = count
		}
	})

	It("should handle cells wider than one word", func() {
		wide := NewModel(4, 130)

		wide.Flip(2, 0)
		wide.Flip(2, 64)
		wide.Flip(2, 129)

		Expect(wide.PopCount(2)).To(Equal(3))

		wide.Clear(2)
		Expect(wide.PopCount(2)).To(Equal(0))
	})

	It("should reject a non-positive geometry", func() {
		Expect(func() { NewModel(0, 39) }).To(Panic())
		Expect(func() { NewModel(64, 0) }).To(Panic())
	})
})
