package sim

import (
	"encoding/binary"

	"rvtrap/internal/riscv"
)

// exec fetches and executes one guest instruction. Faults become traps;
// exec itself fails only when a trap cannot be delivered.
func (m *Machine) exec() error {
	h := &m.h
	b, ok := m.slice(h.pc, 2)
	if !ok {
		return m.raise(riscv.InstructionFault, h.pc)
	}
	lo := binary.LittleEndian.Uint16(b)
	if lo&3 != 3 {
		return m.execCompressed(lo)
	}
	b, ok = m.slice(h.pc, 4)
	if !ok {
		return m.raise(riscv.InstructionFault, h.pc+2)
	}
	return m.exec32(binary.LittleEndian.Uint32(b))
}

func (m *Machine) execCompressed(inst uint16) error {
	switch inst {
	case riscv.C_EBREAK:
		return m.raise(riscv.Breakpoint, 0)
	case riscv.C_NOP:
		m.h.pc += riscv.CINSN_SIZE
		return nil
	}
	return m.raise(riscv.IllegalInstruction, uint64(inst))
}

func (m *Machine) exec32(inst uint32) error {
	h := &m.h
	rd := inst >> 7 & 31
	f3 := inst >> 12 & 7
	rs1 := inst >> 15 & 31
	rs2 := inst >> 20 & 31
	next := h.pc + riscv.INSN_SIZE

	switch inst & 0x7f {
	case riscv.OP_LUI:
		h.set(rd, uint64(riscv.ImmU(inst)))
	case riscv.OP_AUIPC:
		h.set(rd, h.pc+uint64(riscv.ImmU(inst)))
	case riscv.OP_JAL:
		h.set(rd, next)
		next = h.pc + uint64(riscv.ImmJ(inst))
	case riscv.OP_JALR:
		if f3 != 0 {
			return m.raise(riscv.IllegalInstruction, uint64(inst))
		}
		target := (h.x[rs1] + uint64(riscv.ImmI(inst))) &^ 1
		h.set(rd, next)
		next = target
	case riscv.OP_BRANCH:
		var taken bool
		switch f3 {
		case riscv.F3_BEQ:
			taken = h.x[rs1] == h.x[rs2]
		case riscv.F3_BNE:
			taken = h.x[rs1] != h.x[rs2]
		default:
			return m.raise(riscv.IllegalInstruction, uint64(inst))
		}
		if taken {
			next = h.pc + uint64(riscv.ImmB(inst))
		}
	case riscv.OP_IMM:
		if f3 != 0 {
			return m.raise(riscv.IllegalInstruction, uint64(inst))
		}
		h.set(rd, h.x[rs1]+uint64(riscv.ImmI(inst)))
	case riscv.OP_LOAD:
		addr := h.x[rs1] + uint64(riscv.ImmI(inst))
		v, ok, legal := m.load(addr, f3)
		if !legal {
			return m.raise(riscv.IllegalInstruction, uint64(inst))
		}
		if !ok {
			return m.raise(riscv.LoadFault, addr)
		}
		h.set(rd, v)
	case riscv.OP_STORE:
		addr := h.x[rs1] + uint64(riscv.ImmS(inst))
		if f3 > riscv.F3_D {
			return m.raise(riscv.IllegalInstruction, uint64(inst))
		}
		if !m.store(addr, f3, h.x[rs2]) {
			return m.raise(riscv.StoreFault, addr)
		}
	case riscv.OP_SYSTEM:
		switch inst {
		case riscv.ECALL:
			// Supervisor ecalls go to the firmware, not to stvec.
			h.x[riscv.A0] = firmware{m}.Ecall(h.x[riscv.A7], h.x[riscv.A0], h.x[riscv.A1], h.x[riscv.A2])
		case riscv.EBREAK:
			return m.raise(riscv.Breakpoint, 0)
		case riscv.WFI:
			m.wfi()
		case riscv.SRET:
			if h.priv != privSupervisor {
				return m.raise(riscv.IllegalInstruction, uint64(inst))
			}
			h.sret()
			return nil
		default:
			return m.raise(riscv.IllegalInstruction, uint64(inst))
		}
	default:
		return m.raise(riscv.IllegalInstruction, uint64(inst))
	}
	h.pc = next
	return nil
}

// wfi skips ahead to the next timer deadline when the timer is the only
// thing that can wake the hart.
func (m *Machine) wfi() {
	h := &m.h
	if h.sip&h.sie != 0 || h.sie&riscv.SIE_STIE == 0 || h.mtimecmp == ^uint64(0) {
		return
	}
	if h.mtimecmp > h.time+m.cfg.TimePerStep {
		h.time = h.mtimecmp - m.cfg.TimePerStep
	}
}

var loadSizes = [...]uint64{riscv.F3_B: 1, riscv.F3_H: 2, riscv.F3_W: 4, riscv.F3_D: 8, riscv.F3_BU: 1, riscv.F3_HU: 2, riscv.F3_WU: 4}

// load reads and extends a value; legal is false for an unknown funct3.
func (m *Machine) load(addr uint64, f3 uint32) (v uint64, ok, legal bool) {
	if int(f3) >= len(loadSizes) {
		return 0, false, false
	}
	b, ok := m.slice(addr, loadSizes[f3])
	if !ok {
		return 0, false, true
	}
	switch f3 {
	case riscv.F3_B:
		v = uint64(int64(int8(b[0])))
	case riscv.F3_H:
		v = uint64(int64(int16(binary.LittleEndian.Uint16(b))))
	case riscv.F3_W:
		v = uint64(int64(int32(binary.LittleEndian.Uint32(b))))
	case riscv.F3_D:
		v = binary.LittleEndian.Uint64(b)
	case riscv.F3_BU:
		v = uint64(b[0])
	case riscv.F3_HU:
		v = uint64(binary.LittleEndian.Uint16(b))
	case riscv.F3_WU:
		v = uint64(binary.LittleEndian.Uint32(b))
	}
	return v, true, true
}

func (m *Machine) store(addr uint64, f3 uint32, v uint64) bool {
	b, ok := m.slice(addr, loadSizes[f3])
	if !ok {
		return false
	}
	switch f3 {
	case riscv.F3_B:
		b[0] = byte(v)
	case riscv.F3_H:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case riscv.F3_W:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case riscv.F3_D:
		binary.LittleEndian.PutUint64(b, v)
	}
	return true
}
