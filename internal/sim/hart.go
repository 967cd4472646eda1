package sim

import (
	"rvtrap/internal/riscv"
)

type privilege int

const (
	privUser       privilege = 0
	privSupervisor privilege = 1
)

func (p privilege) String() string {
	if p == privSupervisor {
		return "S"
	}
	return "U"
}

// hart is the architectural state of the single simulated hart. Machine
// mode belongs to the firmware and is not modelled beyond mtimecmp.
type hart struct {
	x    [32]uint64
	pc   uint64
	priv privilege

	sstatus uint64
	sie     uint64
	sip     uint64
	stvec   uint64
	sepc    uint64
	scause  uint64
	stval   uint64
	time    uint64

	mtimecmp uint64
}

func (h *hart) set(rd uint32, v uint64) {
	if rd != 0 {
		h.x[rd] = v
	}
}

// trap performs the hardware half of trap entry.
func (h *hart) trap(cause riscv.Cause, stval uint64) {
	h.sepc = h.pc
	h.scause = cause.Scause()
	h.stval = stval

	if h.sstatus&riscv.SSTATUS_SIE != 0 {
		h.sstatus |= riscv.SSTATUS_SPIE
	} else {
		h.sstatus &^= riscv.SSTATUS_SPIE
	}
	h.sstatus &^= riscv.SSTATUS_SIE
	if h.priv == privSupervisor {
		h.sstatus |= riscv.SSTATUS_SPP
	} else {
		h.sstatus &^= riscv.SSTATUS_SPP
	}
	h.priv = privSupervisor

	base := uint64(riscv.STVEC_BASE(h.stvec))
	if _, ok := cause.(riscv.Interrupt); ok && riscv.STVEC_MODE(h.stvec) == riscv.Vectored {
		base += 4 * cause.Code()
	}
	h.pc = base
}

func (h *hart) sret() {
	h.pc = h.sepc
	if h.sstatus&riscv.SSTATUS_SPIE != 0 {
		h.sstatus |= riscv.SSTATUS_SIE
	} else {
		h.sstatus &^= riscv.SSTATUS_SIE
	}
	h.sstatus |= riscv.SSTATUS_SPIE
	if h.sstatus&riscv.SSTATUS_SPP != 0 {
		h.priv = privSupervisor
	} else {
		h.priv = privUser
	}
	h.sstatus &^= riscv.SSTATUS_SPP
}

// updateTimer raises or drops STIP against the firmware's comparator.
func (h *hart) updateTimer() {
	if h.time >= h.mtimecmp {
		h.sip |= riscv.SIP_STIP
	} else {
		h.sip &^= riscv.SIP_STIP
	}
}

// pending returns the highest-priority interrupt the hart would take now.
func (h *hart) pending() (riscv.Interrupt, bool) {
	ready := h.sip & h.sie
	if ready == 0 {
		return 0, false
	}
	if h.priv == privSupervisor && h.sstatus&riscv.SSTATUS_SIE == 0 {
		return 0, false
	}
	for _, irq := range []riscv.Interrupt{riscv.SupervisorExternal, riscv.SupervisorSoft, riscv.SupervisorTimer} {
		if ready&(1<<irq.Code()) != 0 {
			return irq, true
		}
	}
	return 0, false
}
