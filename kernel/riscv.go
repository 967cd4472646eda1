//go:build tinygo && riscv64

package main

import (
	_ "unsafe"

	"rvtrap/internal/riscv"
	"rvtrap/internal/sbi"
)

// CSR access and privileged instructions, in asm/csr.S.

//go:linkname r_time r_time
func r_time() uint64

//go:linkname w_stvec w_stvec
func w_stvec(x uint64)

//go:linkname r_sie r_sie
func r_sie() uint64

//go:linkname w_sie w_sie
func w_sie(x uint64)

//go:linkname r_sstatus r_sstatus
func r_sstatus() uint64

//go:linkname w_sstatus w_sstatus
func w_sstatus(x uint64)

//go:linkname ebreak ebreak
func ebreak()

//go:linkname wfi wfi
func wfi()

//go:linkname sbi_call sbi_call
func sbi_call(which, arg0, arg1, arg2 uint64) uint64

// hart is the supervisor's view of the running hart.
type hart struct {
	fw *sbi.Client
}

func (hart) WriteStvec(v uint64)   { w_stvec(v) }
func (hart) Time() uint64          { return r_time() }
func (h hart) SetTimer(d uint64)   { h.fw.SetTimer(d) }
func (hart) EnableTimerInterrupt() { w_sie(r_sie() | riscv.SIE_STIE) }
func (hart) EnableInterrupts()     { w_sstatus(r_sstatus() | riscv.SSTATUS_SIE) }
func (h hart) Shutdown()           { h.fw.Shutdown() }
