package sim

import (
	"encoding/binary"
	"fmt"

	"rvtrap/internal/riscv"
	"rvtrap/internal/trap"
)

// enterTrap is __interrupt: the register-save stub at the trap vector.
// It does what kernel/asm/interrupt.S does on hardware:
//
//	addi sp, sp, -CONTEXT_SIZE
//	save x1, x3..x31, original sp as x2, sstatus, sepc
//	a0 = sp, a1 = scause, a2 = stval
//	call handle_interrupt
//	restore sstatus, sepc, x1, x3..x31, then x2
//	sret
//
// The frame is written through the trap.CONTEXT_*_OFF offsets into guest
// memory, and the dispatcher sees it only as a trap.Context decoded from
// those bytes.
func (m *Machine) enterTrap() error {
	h := &m.h
	sp := h.x[riscv.SP]
	frame := sp - trap.CONTEXT_SIZE
	b, ok := m.slice(frame, trap.CONTEXT_SIZE)
	if !ok || frame > sp {
		return fmt.Errorf("frame at %#x: %w", frame, ErrStackOverflow)
	}

	for i, v := range h.x {
		binary.LittleEndian.PutUint64(b[trap.CONTEXT_X_OFF+8*i:], v)
	}
	binary.LittleEndian.PutUint64(b[trap.CONTEXT_SSTATUS_OFF:], h.sstatus)
	binary.LittleEndian.PutUint64(b[trap.CONTEXT_SEPC_OFF:], h.sepc)
	h.x[riscv.SP] = frame

	h.x[riscv.A0] = frame
	h.x[riscv.A1] = h.scause
	h.x[riscv.A2] = h.stval
	m.handleInterrupt(h.x[riscv.A0], h.x[riscv.A1], h.x[riscv.A2])

	h.sstatus = binary.LittleEndian.Uint64(b[trap.CONTEXT_SSTATUS_OFF:])
	h.sepc = binary.LittleEndian.Uint64(b[trap.CONTEXT_SEPC_OFF:])
	for i := 1; i < 32; i++ {
		if i == riscv.SP {
			continue
		}
		h.x[i] = binary.LittleEndian.Uint64(b[trap.CONTEXT_X_OFF+8*i:])
	}
	h.x[riscv.SP] = binary.LittleEndian.Uint64(b[trap.CONTEXT_X_OFF+8*riscv.SP:])
	h.sret()
	return nil
}

// handleInterrupt is the Go function the stub calls, with the arguments in
// the order the stub loads a0..a2.
func (m *Machine) handleInterrupt(frame, scause, stval uint64) {
	b, _ := m.slice(frame, trap.CONTEXT_SIZE)
	ctx := trap.Decode(b)
	defer ctx.Encode(b)
	m.kernel.Handle(&ctx, riscv.DecodeCause(scause), stval)
}
