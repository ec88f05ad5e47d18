package irq

// GICv2 distributor register offsets.
const (
	gicdCTLR     = 0x000
	gicdISENABLE = 0x100
	gicdICENABLE = 0x180
	gicdITARGET  = 0x800
	gicdICFG     = 0xC00
)

// GICv2 CPU-interface register offsets. The CPU interface block sits
// 0x10000 above the distributor on the virt machine.
const (
	giccBase = 0x10000

	giccCTLR = 0x000
	giccPMR  = 0x004
	giccIAR  = 0x00C
	giccEOIR = 0x010
)

// gicSpurious is the IAR value that means "nothing actually pending".
const gicSpurious = 0x3FF

// gicNumIntSrc bounds the distributor INTID space this driver serves.
const gicNumIntSrc = 64

// GIC drives an ARM GICv2: the shared distributor plus the single CPU
// interface of this uniprocessor target.
type GIC struct {
	base uintptr
	isrs [gicNumIntSrc]ISR
}

func (g *GIC) dist(off uintptr) uint32 { return regReadFn(g.base + off) }

func (g *GIC) setDist(off uintptr, val uint32) { regWriteFn(g.base+off, val) }

func (g *GIC) cpu(off uintptr) uint32 { return regReadFn(g.base + giccBase + off) }

func (g *GIC) setCPU(off uintptr, val uint32) { regWriteFn(g.base+giccBase+off, val) }

// setDistBit sets or clears interrupt id's bit in the 1-bit-per-interrupt
// register bank starting at base.
func (g *GIC) setDistBit(base uintptr, id int, set bool) {
	off := base + uintptr(id/32)*4
	mask := uint32(1) << uint(id%32)

	val := g.dist(off)
	if set {
		val |= mask
	} else {
		val &^= mask
	}
	g.setDist(off, val)
}

// Init programs the CPU-interface priority mask so interrupts of priority
// 0 to 0xE are delivered, resets the ISR table and enables group 0 in
// both halves of the controller. base is the virtual address the
// distributor is mapped at.
func (g *GIC) Init(base uintptr) {
	g.base = base

	for i := range g.isrs {
		g.isrs[i] = defaultISR
	}

	// Priority values 0 to 0xE are delivered.
	g.setCPU(giccPMR, 0x0F)

	g.setDist(gicdCTLR, g.dist(gicdCTLR)|1)
	g.setCPU(giccCTLR, g.cpu(giccCTLR)|1)
}

// Enable registers isr for the interrupt line, configures it as
// edge-triggered and targeted at CPU 0, and unmasks it at the
// distributor.
func (g *GIC) Enable(irq int, isr ISR) {
	if irq < 0 || irq >= gicNumIntSrc {
		panic("gic: invalid interrupt source")
	}

	g.isrs[irq] = isr

	// Two config bits per interrupt; 0b10 selects edge triggering.
	cfgOff := uintptr(gicdICFG + (irq/16)*4)
	shift := uint(irq%16) * 2
	cfg := g.dist(cfgOff)
	cfg = (cfg &^ (0x3 << shift)) | (0x2 << shift)
	g.setDist(cfgOff, cfg)

	// One target byte per interrupt; bit 0 selects CPU 0.
	tgtOff := uintptr(gicdITARGET + (irq/4)*4)
	tgtShift := uint(irq%4) * 8
	g.setDist(tgtOff, g.dist(tgtOff)|(1<<tgtShift))

	g.setDistBit(gicdISENABLE, irq, true)
}

// Dispatch acknowledges the highest-priority pending interrupt and runs
// its ISR with the line disabled, re-enabling it afterwards. A spurious
// acknowledge is ignored.
func (g *GIC) Dispatch(tf *Frame) {
	intid := int(g.cpu(giccIAR) & 0x3FF)
	if intid == gicSpurious {
		return
	}

	g.setDistBit(gicdICENABLE, intid, true)
	g.setCPU(giccEOIR, uint32(intid))

	if intid < gicNumIntSrc {
		g.isrs[intid](tf, intid)
	} else {
		defaultISR(tf, intid)
	}

	g.setDistBit(gicdISENABLE, intid, true)
}
