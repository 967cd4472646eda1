//go:build tinygo && riscv64

package main

import (
	"rvtrap/internal/interrupt"
	"rvtrap/internal/riscv"
	"rvtrap/internal/trap"
)

// kernel is set once by KMain before the vector is installed. After that it
// is only used from handle_interrupt, and traps do not nest: sstatus.SIE
// stays clear until sret.
var kernel *interrupt.Subsystem

// handle_interrupt is called by __interrupt with a0 pointing at the saved
// Context on the interrupted stack.
//
//export handle_interrupt
func handle_interrupt(ctx *trap.Context, scause, stval uint64) {
	kernel.Handle(ctx, riscv.DecodeCause(scause), stval)
}
