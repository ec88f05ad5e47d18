package irq

// PL190 register offsets, in units of 4 bytes.
const (
	vicIRQStatus = 0 // interrupt status after masking
	vicIntEnable = 4 // 1 bits enable interrupts
	vicIntClear  = 5 // 1 bits clear enables
)

// pl190NumIntSrc is how many interrupt sources the VIC exposes.
const pl190NumIntSrc = 32

// PL190 drives the ARM PrimeCell vectored interrupt controller in its
// non-vectored ("simple") mode: dispatch walks the masked status register
// and services every pending source. Kept as an alternative for boards
// that expose a VIC instead of a GIC.
type PL190 struct {
	base uintptr
	isrs [pl190NumIntSrc]ISR
}

func (v *PL190) reg(idx uintptr) uint32 { return regReadFn(v.base + idx*4) }

func (v *PL190) setReg(idx uintptr, val uint32) { regWriteFn(v.base+idx*4, val) }

// Init disables every source and resets the ISR table. base is the
// virtual address the controller is mapped at.
func (v *PL190) Init(base uintptr) {
	v.base = base
	v.setReg(vicIntClear, 0xFFFFFFFF)

	for i := range v.isrs {
		v.isrs[i] = defaultISR
	}
}

// Enable registers isr for the interrupt line and unmasks it.
func (v *PL190) Enable(irq int, isr ISR) {
	if irq < 0 || irq >= pl190NumIntSrc {
		panic("pl190: invalid interrupt source")
	}

	v.isrs[irq] = isr
	v.setReg(vicIntEnable, 1<<uint(irq))
}

// Disable masks the interrupt line and detaches its ISR.
func (v *PL190) Disable(irq int) {
	if irq < 0 || irq >= pl190NumIntSrc {
		panic("pl190: invalid interrupt source")
	}

	v.setReg(vicIntClear, 1<<uint(irq))
	v.isrs[irq] = defaultISR
}

// Dispatch services every source the status register reports, from the
// lowest bit upwards.
func (v *PL190) Dispatch(tf *Frame) {
	status := v.reg(vicIRQStatus)

	for i := 0; i < pl190NumIntSrc; i++ {
		if status&(1<<uint(i)) != 0 {
			v.isrs[i](tf, i)
		}
	}
}
